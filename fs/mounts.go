package fs

import (
	"context"

	"github.com/akutz/gofsutil"
	pkgErrors "github.com/pkg/errors"
)

// MountsFunc returns the file systems mounted on the host.
type MountsFunc func(ctx context.Context) ([]gofsutil.Info, error)

func defaultMounts(ctx context.Context) ([]gofsutil.Info, error) {
	return gofsutil.GetMounts(ctx)
}

// MountStatus reports whether the mount point of a MountRule is mounted on
// the host.
type MountStatus struct {
	Rule    MountRule
	Mounted bool
	// Device and Type are set if Mounted is true.
	Device string
	Type   string
}

// MountStatus returns the status of each rule of the mount table, longest
// mount point first.
func (c *Client) MountStatus(ctx context.Context) ([]MountStatus, error) {
	mounts, err := c.listMounts(ctx)
	if err != nil {
		return nil, pkgErrors.Wrap(err, "(*Client).MountStatus: get mounts")
	}

	byPath := make(map[string]gofsutil.Info, len(mounts))
	for _, info := range mounts {
		byPath[Normalize([]string{info.Path})[0]] = info
	}

	rules := c.mounts.Rules()
	statuses := make([]MountStatus, len(rules))
	for ind, rule := range rules {
		statuses[ind].Rule = rule
		if info, ok := byPath[rule.MountPoint]; ok {
			statuses[ind].Mounted = true
			statuses[ind].Device = info.Device
			statuses[ind].Type = info.Type
		}
	}

	return statuses, nil
}
