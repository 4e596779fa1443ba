package view

import (
	"sort"

	"operator-console/internal/backend"
)

// dateLayout is the calendar-date bucket key. A fixed layout keeps buckets
// stable regardless of host locale.
const dateLayout = "2006-01-02"

// DateGroup is one calendar date's worth of calls.
type DateGroup struct {
	Date  string         `json:"date"`
	Calls []backend.Call `json:"calls"`
}

// GroupCallsByDate sorts calls by creation time descending and buckets them
// by calendar date. Every call lands in exactly one bucket; buckets come out
// in descending date order. The input slice is not modified.
func GroupCallsByDate(calls []backend.Call) []DateGroup {
	sorted := make([]backend.Call, len(calls))
	copy(sorted, calls)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	var groups []DateGroup
	for _, call := range sorted {
		date := call.CreatedAt.Format(dateLayout)
		if n := len(groups); n > 0 && groups[n-1].Date == date {
			groups[n-1].Calls = append(groups[n-1].Calls, call)
			continue
		}
		groups = append(groups, DateGroup{Date: date, Calls: []backend.Call{call}})
	}
	return groups
}
