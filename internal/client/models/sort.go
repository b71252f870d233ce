package models

import "sort"

// SortNewestFirst orders inspections by CreatedAt descending. Ties keep their
// relative order.
func SortNewestFirst(items []Inspection) {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].CreatedAt.After(items[b].CreatedAt)
	})
}
