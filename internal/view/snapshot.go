package view

import (
	"fmt"
	"sort"
	"time"

	"operator-console/internal/backend"
)

// Snapshot is an immutable view of the controller for rendering. Calls is
// populated for the flat layout, Groups when grouping is on.
type Snapshot struct {
	Page        int    `json:"page"`
	TotalPages  int    `json:"total_pages"`
	HasNextPage bool   `json:"has_next_page"`
	PrevEnabled bool   `json:"prev_enabled"`
	NextEnabled bool   `json:"next_enabled"`
	PageLinks   []int  `json:"page_links"`
	Loading     bool   `json:"loading"`
	Error       string `json:"error,omitempty"`

	Filter      Filter     `json:"filter"`
	GroupByDate bool       `json:"group_by_date"`
	FromDate    *time.Time `json:"from_date,omitempty"`
	ToDate      *time.Time `json:"to_date,omitempty"`

	Calls    []backend.Call `json:"calls,omitempty"`
	Groups   []DateGroup    `json:"groups,omitempty"`
	Selected []string       `json:"selected"`
}

// Snapshot captures the current view state. The returned slices are copies;
// mutating them does not touch the controller.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Page:        c.page,
		TotalPages:  c.totalPages,
		HasNextPage: c.hasNext,
		PrevEnabled: c.page > 1,
		NextEnabled: c.hasNext,
		PageLinks:   PageNumbers(c.page, c.totalPages),
		Loading:     c.loading,
		Error:       c.errMsg,
		Filter:      c.filter,
		GroupByDate: c.groupByDate,
		FromDate:    c.from,
		ToDate:      c.to,
		Selected:    make([]string, 0, len(c.selected)),
	}
	for id := range c.selected {
		s.Selected = append(s.Selected, id)
	}
	sort.Strings(s.Selected)

	if c.groupByDate {
		s.Groups = GroupCallsByDate(c.calls)
	} else {
		s.Calls = make([]backend.Call, len(c.calls))
		copy(s.Calls, c.calls)
	}
	return s
}

// FormatDuration renders a duration in the console's call-table style, e.g.
// "4 min 23 sec (263 sec)".
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%d min %d sec (%d sec)", seconds/60, seconds%60, seconds)
}
