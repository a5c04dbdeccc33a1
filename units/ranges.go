package units

import (
	"strconv"
)

// AsRange formats items as "first-last" if there are at least two items and
// as "first" otherwise. An empty slice yields the empty string.
func AsRange(items []int) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return strconv.Itoa(items[0])
	default:
		return strconv.Itoa(items[0]) + "-" + strconv.Itoa(items[len(items)-1])
	}
}

// GroupConsecutive splits items into runs of consecutive increasing integers.
// Each run is suitable for AsRange, e.g. node numbers [1 2 3 7 8] yield
// [[1 2 3] [7 8]].
func GroupConsecutive(items []int) [][]int {
	var groups [][]int

	for ind, item := range items {
		if ind == 0 || item != items[ind-1]+1 {
			groups = append(groups, []int{item})
			continue
		}
		last := len(groups) - 1
		groups[last] = append(groups[last], item)
	}

	return groups
}
