package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/uob-dice/dice-lib/fs"
)

var (
	size      = app.Command("size", "Print the storage consumed by paths. All paths must belong to the same storage system.")
	sizePaths = size.Arg("paths", "Paths to query.").Required().Strings()
)

func performSize(ctx context.Context) error {
	logger := prepareAppLogger()

	client, err := prepareClient(logger)
	if err != nil {
		return err
	}

	results := client.SizeOfPaths(ctx, *sizePaths...)

	switch *appFormat {
	case "text":
		err = writeSizesAsText(os.Stdout, results)
	case "json":
		err = writeSizesAsJSON(os.Stdout, results)
	default:
		panic(fmt.Sprintf("size: unsupported format '%s'", *appFormat))
	}
	if err != nil {
		return err
	}

	for _, result := range results {
		if result.Err != nil {
			return &MainError{error: result.Err, ExitCode: 2}
		}
	}

	return nil
}

func writeSizesAsText(w io.Writer, results []fs.SizeResult) error {
	table := tablewriter.NewWriter(w)

	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")

	table.SetHeader([]string{
		"Path",
		"Size",
		"Bytes",
		"Error",
	})

	for i := range results {
		result := &results[i]

		table.Append([]string{
			result.Record.Path,
			tablewriter.ConditionString(
				result.Err == nil,
				fmt.Sprintf("%.2f %s", result.Record.ScaledValue, result.Record.ScaledUnit),
				"",
			),
			tablewriter.ConditionString(
				result.Err == nil,
				strconv.FormatUint(result.Record.Bytes, 10),
				"",
			),
			errorString(result.Err),
		})
	}

	table.Render()

	return nil
}

type jsonSize struct {
	Path        string  `json:"path"`
	Bytes       *uint64 `json:"bytes,omitempty"`
	ScaledValue float64 `json:"scaled_value,omitempty"`
	ScaledUnit  string  `json:"scaled_unit,omitempty"`
	Error       string  `json:"error,omitempty"`
}

func writeSizesAsJSON(w io.Writer, results []fs.SizeResult) error {
	enc := json.NewEncoder(w)

	for i := range results {
		result := &results[i]

		jsonSize := jsonSize{
			Path:  result.Record.Path,
			Error: errorString(result.Err),
		}
		if result.Err == nil {
			jsonSize.Bytes = &result.Record.Bytes
			jsonSize.ScaledValue = result.Record.ScaledValue
			jsonSize.ScaledUnit = result.Record.ScaledUnit
		}

		err := enc.Encode(jsonSize)
		if err != nil {
			return err
		}
	}

	return nil
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
