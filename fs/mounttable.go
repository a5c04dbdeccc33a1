package fs

import (
	"sort"
	"strings"

	"github.com/uob-dice/dice-lib/config"
)

// MountRule describes how paths below a mount point are rewritten.
type MountRule struct {
	MountPoint string
	Protocol   string
	// StripMount removes the mount point from rewritten paths.
	StripMount bool
}

// Rewrite returns the routed form of path, which must start with the mount
// point.
func (m MountRule) Rewrite(path string) string {
	if m.StripMount {
		return m.Protocol + path[len(m.MountPoint):]
	}
	return m.Protocol + path
}

// MountTable maps mount points to MountRules. It is immutable after
// construction.
//
// Paths are matched against mount points by string prefix. If more than one
// mount point is a prefix of a path, the longest one is used.
type MountTable struct {
	// rules is sorted by descending length of MountPoint, ties by
	// MountPoint.
	rules []MountRule
}

// NewMountTable returns a MountTable containing rules. Trailing slashes are
// removed from mount points. If several rules share a mount point, the last
// one is used.
func NewMountTable(rules ...MountRule) *MountTable {
	byMount := make(map[string]MountRule, len(rules))
	for _, rule := range rules {
		rule.MountPoint = Normalize([]string{rule.MountPoint})[0]
		byMount[rule.MountPoint] = rule
	}

	table := &MountTable{
		rules: make([]MountRule, 0, len(byMount)),
	}
	for _, rule := range byMount {
		table.rules = append(table.rules, rule)
	}

	sort.Slice(table.rules, func(i, j int) bool {
		a, b := table.rules[i].MountPoint, table.rules[j].MountPoint
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})

	return table
}

// BuildMountTable creates a MountTable from the storage section of conf.
// Entries are processed in document order, a mount point declared by more
// than one entry belongs to the last of them.
func BuildMountTable(conf *config.Config) *MountTable {
	var rules []MountRule

	for _, name := range conf.Storage.Names() {
		storage := conf.Storage.Get(name)

		protocol := storage.Protocol
		if len(protocol) == 0 {
			protocol = config.DefaultProtocol
		}

		for _, mount := range storage.Mounts {
			rules = append(rules, MountRule{
				MountPoint: mount,
				Protocol:   protocol,
				StripMount: storage.RemoveMountForNativeAccess,
			})
		}
	}

	return NewMountTable(rules...)
}

// Rules returns all rules of the table, longest mount point first.
func (m *MountTable) Rules() []MountRule {
	rules := make([]MountRule, len(m.rules))
	copy(rules, m.rules)
	return rules
}

// Lookup returns the rule with the longest mount point which is a prefix of
// path.
func (m *MountTable) Lookup(path string) (MountRule, bool) {
	for _, rule := range m.rules {
		if strings.HasPrefix(path, rule.MountPoint) {
			return rule, true
		}
	}

	return MountRule{}, false
}

// Route normalises paths and rewrites each one according to the matching
// rule. Paths without a matching rule, including paths which already carry a
// protocol prefix, are returned normalised but otherwise unchanged.
func (m *MountTable) Route(paths []string) []string {
	routed := Normalize(paths)

	for ind, path := range routed {
		if rule, ok := m.Lookup(path); ok {
			routed[ind] = rule.Rewrite(path)
		}
	}

	return routed
}

// Normalize removes all trailing slashes from each of paths.
//
// A path made up of slashes only is normalised to "/" and not to the empty
// string, deliberately deviating from plain trailing-slash stripping. The
// root stays addressable and routes like any other absolute path. The empty
// path stays empty.
func Normalize(paths []string) []string {
	normalized := make([]string, len(paths))

	for ind, path := range paths {
		trimmed := strings.TrimRight(path, "/")
		if len(trimmed) == 0 && len(path) > 0 {
			trimmed = "/"
		}
		normalized[ind] = trimmed
	}

	return normalized
}
