package shopping

import (
	"sort"
	"strings"

	"dinner-aide/internal/menu"
)

// Aggregate splits every entry's shopping list on delimiter and returns the
// distinct, non-blank items sorted. Comparison is case-sensitive.
func Aggregate(entries []menu.ProposedEntry, delimiter string) []string {
	if delimiter == "" {
		delimiter = ","
	}

	seen := make(map[string]struct{})
	var items []string
	for _, e := range entries {
		if strings.TrimSpace(e.ShoppingList) == "" {
			continue
		}
		for _, raw := range strings.Split(e.ShoppingList, delimiter) {
			item := strings.TrimSpace(raw)
			if item == "" {
				continue
			}
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			items = append(items, item)
		}
	}
	sort.Strings(items)
	return items
}
