package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

var (
	owner     = app.Command("owner", "Print the owner of a path.")
	ownerPath = owner.Arg("path", "Path to inspect.").Required().String()
)

func performOwner(ctx context.Context) error {
	logger := prepareAppLogger()

	client, err := prepareClient(logger)
	if err != nil {
		return err
	}

	name, err := client.GetOwner(ctx, *ownerPath)
	if err != nil {
		logger.WithError(err).WithField("path", *ownerPath).Error("Encountered error while querying owner")
		return err
	}

	switch *appFormat {
	case "text":
		_, _ = fmt.Fprintln(os.Stdout, name)
	case "json":
		return json.NewEncoder(os.Stdout).Encode(map[string]string{
			"path":  *ownerPath,
			"owner": name,
		})
	default:
		panic(fmt.Sprintf("owner: unsupported format '%s'", *appFormat))
	}

	return nil
}
