package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
)

var (
	route      = app.Command("route", "Print the routed form and backend of paths.")
	routePaths = route.Arg("paths", "Paths to route.").Required().Strings()
)

func performRoute(ctx context.Context) error {
	logger := prepareAppLogger()

	client, err := prepareClient(logger)
	if err != nil {
		return err
	}

	routed := client.Route(*routePaths...)
	registry := client.Registry()

	switch *appFormat {
	case "text":
		table := tablewriter.NewWriter(os.Stdout)
		table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
		table.SetCenterSeparator("|")
		table.SetHeader([]string{"Path", "Routed", "Backend"})
		for ind, path := range *routePaths {
			table.Append([]string{path, routed[ind], registry.ProtocolOf(routed[ind])})
		}
		table.Render()
	case "json":
		enc := json.NewEncoder(os.Stdout)
		for ind, path := range *routePaths {
			err := enc.Encode(map[string]string{
				"path":    path,
				"routed":  routed[ind],
				"backend": registry.ProtocolOf(routed[ind]),
			})
			if err != nil {
				return err
			}
		}
	default:
		panic(fmt.Sprintf("route: unsupported format '%s'", *appFormat))
	}

	return nil
}
