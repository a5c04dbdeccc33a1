package main

import (
	"github.com/apex/log"

	"github.com/uob-dice/dice-lib/config"
	"github.com/uob-dice/dice-lib/fs"
)

var (
	appHDFSUser = app.Flag("hdfs-user", "User name sent to the HDFS namenodes. Defaults to the current user.").String()
	appHDFSSite = app.Flag("hdfs-site", "Path to the hdfs-site.xml listing the namenodes.").PlaceHolder("hdfs-site.xml").Default(fs.DefaultHDFSSiteConfigPath).String()
	appParallel = app.Flag("parallel", "Number of concurrent size queries.").Default("4").Int()
)

func prepareSite(logger log.Interface) (*config.Config, error) {
	site, err := config.Load(*appConfig)
	if err != nil {
		logger.WithError(err).WithFields(log.Fields{
			"path": *appConfig,
		}).Error("Encountered error while loading site configuration")

		return nil, err
	}

	return site, nil
}

func prepareClient(logger log.Interface) (*fs.Client, error) {
	site, err := prepareSite(logger)
	if err != nil {
		return nil, err
	}

	client, err := fs.New(&fs.Config{
		Site: site,
		HDFS: fs.HDFSConfig{
			SiteConfigPath: *appHDFSSite,
			User:           *appHDFSUser,
		},
		Parallelism: *appParallel,
		Logger:      logger,
	})
	if err != nil {
		logger.WithError(err).Error("Encountered error while preparing file system client")
		return nil, err
	}

	return client, nil
}
