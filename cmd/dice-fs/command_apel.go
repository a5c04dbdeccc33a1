package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/apex/log"
	"github.com/olekukonko/tablewriter"

	"github.com/uob-dice/dice-lib/health/apel"
)

var (
	apelCheck        = app.Command("apel", "Check the APEL accounting publication and synchronisation status of the site.")
	apelCheckSite    = apelCheck.Flag("site", "GOCDB site name. Defaults to the site name of the configuration.").String()
	apelCheckBaseURL = apelCheck.Flag("base-url", "Base URL of the accounting pages.").Default(apel.DefaultBaseURL).String()
)

var errAPELNotOK = errors.New("APEL accounting is not OK")

type jsonAPELCheck struct {
	Check   string `json:"check"`
	OK      bool   `json:"ok"`
	Status  string `json:"status"`
	DaysAgo int    `json:"days_ago"`
	Failed  int    `json:"failed"`
}

func performAPEL(ctx context.Context) error {
	logger := prepareAppLogger()

	site := *apelCheckSite
	if len(site) == 0 {
		siteConfig, err := prepareSite(logger)
		if err != nil {
			return err
		}
		site = siteConfig.GOCDBName()
	}

	checker := apel.New(&apel.Config{
		BaseURL: *apelCheckBaseURL,
		Logger:  logger,
	})

	publication, err := checker.CheckPublication(ctx, site)
	if err != nil {
		logger.WithError(err).WithField("site", site).Error("Encountered error while checking publication")
		return err
	}
	sync, err := checker.CheckSync(ctx, site)
	if err != nil {
		logger.WithError(err).WithField("site", site).Error("Encountered error while checking synchronisation")
		return err
	}

	checks := []jsonAPELCheck{
		{"publication", publication.OK, publication.Status, publication.DaysAgo, len(publication.Failed)},
		{"synchronisation", sync.OK, sync.Status, sync.DaysAgo, len(sync.Failed)},
	}

	switch *appFormat {
	case "text":
		table := tablewriter.NewWriter(os.Stdout)
		table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
		table.SetCenterSeparator("|")
		table.SetHeader([]string{"Check", "Result", "Days Ago", "Failed Rows", "Status"})
		for _, check := range checks {
			table.Append([]string{
				check.Check,
				tablewriter.ConditionString(check.OK, "OK", "NOT OK"),
				strconv.Itoa(check.DaysAgo),
				strconv.Itoa(check.Failed),
				check.Status,
			})
		}
		table.Render()
	case "json":
		enc := json.NewEncoder(os.Stdout)
		for _, check := range checks {
			if err := enc.Encode(check); err != nil {
				return err
			}
		}
	default:
		panic(fmt.Sprintf("apel: unsupported format '%s'", *appFormat))
	}

	if !publication.OK || !sync.OK {
		logger.WithFields(log.Fields{
			"site":        site,
			"publication": publication.OK,
			"sync":        sync.OK,
		}).Warn("APEL accounting is not OK")
		return &MainError{error: errAPELNotOK, ExitCode: 2}
	}

	return nil
}
