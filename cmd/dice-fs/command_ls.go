package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/uob-dice/dice-lib/fs"
)

var (
	ls     = app.Command("ls", "List the contents of a directory.")
	lsPath = ls.Arg("path", "Directory to list.").Required().String()
	lsRaw  = ls.Flag("bytes", "Print sizes in bytes instead of scaled units.").Default("false").Bool()
)

func performLs(ctx context.Context) error {
	logger := prepareAppLogger()

	client, err := prepareClient(logger)
	if err != nil {
		return err
	}

	records, err := client.List(ctx, *lsPath)
	if err != nil {
		logger.WithError(err).WithField("path", *lsPath).Error("Encountered error while listing directory")
		return err
	}

	switch *appFormat {
	case "text":
		return writeListingAsText(os.Stdout, records, *lsRaw)
	case "json":
		return writeListingAsJSON(os.Stdout, records)
	default:
		panic(fmt.Sprintf("ls: unsupported format '%s'", *appFormat))
	}
}

func writeListingAsText(w io.Writer, records []fs.ListingRecord, rawSizes bool) error {
	table := tablewriter.NewWriter(w)

	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetHeaderLine(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	table.SetHeader([]string{
		"Permissions",
		"Owner",
		"Group",
		"Size",
		"Modified",
		"Name",
	})

	for i := range records {
		record := &records[i]

		size := fmt.Sprintf("%.1f %s", record.ScaledSize, record.ScaledUnit)
		if rawSizes {
			size = strconv.FormatUint(record.Size, 10)
		}

		name := record.Name
		if len(record.LinkTarget) > 0 {
			name += " -> " + record.LinkTarget
		}

		table.Append([]string{
			record.Permissions,
			record.Owner,
			record.Group,
			size,
			record.ModTime.Format("2006-01-02 15:04"),
			name,
		})
	}

	table.Render()

	return nil
}

type jsonListingRecord struct {
	Permissions string    `json:"permissions"`
	Owner       string    `json:"owner"`
	Group       string    `json:"group"`
	Size        uint64    `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	Name        string    `json:"name"`
	LinkTarget  string    `json:"link_target,omitempty"`
}

func writeListingAsJSON(w io.Writer, records []fs.ListingRecord) error {
	enc := json.NewEncoder(w)

	for i := range records {
		record := &records[i]

		err := enc.Encode(jsonListingRecord{
			Permissions: record.Permissions,
			Owner:       record.Owner,
			Group:       record.Group,
			Size:        record.Size,
			ModTime:     record.ModTime,
			Name:        record.Name,
			LinkTarget:  record.LinkTarget,
		})
		if err != nil {
			return err
		}
	}

	return nil
}
