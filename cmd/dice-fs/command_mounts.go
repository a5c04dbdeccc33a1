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
	mounts = app.Command("mounts", "Print the configured mount points and whether they are mounted.")
)

func performMounts(ctx context.Context) error {
	logger := prepareAppLogger()

	client, err := prepareClient(logger)
	if err != nil {
		return err
	}

	statuses, err := client.MountStatus(ctx)
	if err != nil {
		logger.WithError(err).Error("Encountered error while querying mounts")
		return err
	}

	switch *appFormat {
	case "text":
		err = writeMountsAsText(os.Stdout, statuses)
	case "json":
		err = writeMountsAsJSON(os.Stdout, statuses)
	default:
		panic(fmt.Sprintf("mounts: unsupported format '%s'", *appFormat))
	}
	if err != nil {
		return err
	}

	for _, status := range statuses {
		if !status.Mounted {
			return &MainError{error: fmt.Errorf("%s is not mounted", status.Rule.MountPoint), ExitCode: 2}
		}
	}

	return nil
}

func writeMountsAsText(w io.Writer, statuses []fs.MountStatus) error {
	table := tablewriter.NewWriter(w)

	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")

	table.SetHeader([]string{
		"Mount Point",
		"Protocol",
		"Strip Mount",
		"Mounted",
		"Device",
		"Type",
	})

	for i := range statuses {
		status := &statuses[i]

		table.Append([]string{
			status.Rule.MountPoint,
			status.Rule.Protocol,
			strconv.FormatBool(status.Rule.StripMount),
			strconv.FormatBool(status.Mounted),
			status.Device,
			status.Type,
		})
	}

	table.Render()

	return nil
}

type jsonMountStatus struct {
	MountPoint string `json:"mount_point"`
	Protocol   string `json:"protocol"`
	StripMount bool   `json:"strip_mount"`
	Mounted    bool   `json:"mounted"`
	Device     string `json:"device,omitempty"`
	Type       string `json:"type,omitempty"`
}

func writeMountsAsJSON(w io.Writer, statuses []fs.MountStatus) error {
	enc := json.NewEncoder(w)

	for i := range statuses {
		status := &statuses[i]

		err := enc.Encode(jsonMountStatus{
			MountPoint: status.Rule.MountPoint,
			Protocol:   status.Rule.Protocol,
			StripMount: status.Rule.StripMount,
			Mounted:    status.Mounted,
			Device:     status.Device,
			Type:       status.Type,
		})
		if err != nil {
			return err
		}
	}

	return nil
}
