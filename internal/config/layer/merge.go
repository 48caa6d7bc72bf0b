package layer

import (
	"sort"

	"github.com/dshills/buildopts/internal/config/registry"
)

// DiffMaps compares two settings tables and returns the sorted names that
// were added, modified or removed going from old to new. Values compare
// with registry.Equal, so true and 1 are the same value.
func DiffMaps(old, new map[string]any) (added, modified, removed []string) {
	for name, newVal := range new {
		oldVal, exists := old[name]
		if !exists {
			added = append(added, name)
		} else if !registry.Equal(oldVal, newVal) {
			modified = append(modified, name)
		}
	}
	for name := range old {
		if _, exists := new[name]; !exists {
			removed = append(removed, name)
		}
	}

	sort.Strings(added)
	sort.Strings(modified)
	sort.Strings(removed)
	return added, modified, removed
}
