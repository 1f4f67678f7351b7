package priority

import (
	"sort"
	"strconv"
	"strings"
)

// IDLess orders zone IDs naturally: IDs that are both integers compare by
// value ("2" before "10"), integers sort ahead of anything else and the rest
// compare as plain strings.
func IDLess(a, b string) bool {
	ai, aerr := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
	bi, berr := strconv.ParseInt(strings.TrimSpace(b), 10, 64)
	switch {
	case aerr == nil && berr == nil:
		if ai != bi {
			return ai < bi
		}
	case aerr == nil:
		return true
	case berr == nil:
		return false
	}
	return a < b
}

// sortZones orders zones by (priority, natural ID) in place.
func sortZones(zones []Zone) {
	sort.SliceStable(zones, func(i, j int) bool {
		if zones[i].Priority != zones[j].Priority {
			return zones[i].Priority < zones[j].Priority
		}
		return IDLess(zones[i].ID, zones[j].ID)
	})
}
