package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"operator-console/internal/backend"
)

// PageSize is the fixed number of calls per page.
const PageSize = 10

// loadFailureMessage is the operator-facing message when a page fetch fails.
const loadFailureMessage = "Unable to load calls."

// Filter narrows the cached page by archive state.
//
// The semantics are the shipped legacy ones and are intentionally kept:
// "Archived" keeps calls that are NOT archived and "Unarchived" keeps calls
// that ARE. The labels and the behavior disagree, and downstream consumers
// depend on the behavior, so do not "fix" the mapping here.
type Filter string

const (
	FilterAll        Filter = "All"
	FilterArchived   Filter = "Archived"
	FilterUnarchived Filter = "Unarchived"
)

func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case FilterAll, FilterArchived, FilterUnarchived:
		return Filter(s), nil
	case "":
		return FilterAll, nil
	default:
		return "", fmt.Errorf("view: unknown filter %q", s)
	}
}

// Repository is the slice of the backend client the controller needs.
type Repository interface {
	ListCalls(ctx context.Context, p backend.ListParams) (backend.CallPage, error)
	ToggleArchive(ctx context.Context, id string) error
}

// Controller reconciles server-paginated call data with client-side
// ephemeral state: filter, grouping, selection, optimistic archive flips.
//
// Invariants:
// - records, total page count and has-next are applied atomically, and only
//   for the most recently issued fetch; superseded responses are discarded
// - selection is meaningful only for the cached page; it is cleared on page
//   transition and after a successful bulk toggle
type Controller struct {
	repo Repository
	log  *slog.Logger

	mu          sync.Mutex
	page        int
	totalPages  int
	hasNext     bool
	calls       []backend.Call
	filter      Filter
	from, to    *time.Time
	groupByDate bool
	selected    map[string]struct{}
	loading     bool
	errMsg      string

	// seq guards against stale fetch responses: each outbound fetch takes
	// the next value and only the holder of the latest may apply results.
	seq uint64
}

func NewController(repo Repository, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		repo:       repo,
		log:        log,
		page:       1,
		totalPages: 1,
		filter:     FilterAll,
		selected:   map[string]struct{}{},
	}
}

/* ===================== FETCH CYCLE ===================== */

// SetPage moves to the given page and fetches it. Out-of-range pages are
// ignored. Moving to a different page drops the current selection.
func (c *Controller) SetPage(ctx context.Context, page int) error {
	c.mu.Lock()
	if page < 1 || page > c.totalPages {
		c.mu.Unlock()
		return nil
	}
	if page != c.page {
		c.selected = map[string]struct{}{}
	}
	c.page = page
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh re-fetches the current page and applies records, total page count
// and has-next as one atomic group. With an archive filter active, the
// filter is re-applied to the fresh page; the page count stays derived from
// the unfiltered total.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	page := c.page
	params := backend.ListParams{
		Offset: (page - 1) * PageSize,
		Limit:  PageSize,
		From:   c.from,
		To:     c.to,
	}
	filter := c.filter
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	result, err := c.repo.ListCalls(ctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		// A newer fetch was issued while this one was in flight.
		c.log.Debug("stale page response discarded", "page", page)
		return nil
	}
	c.loading = false
	if err != nil {
		c.errMsg = loadFailureMessage
		return fmt.Errorf("view: load page %d: %w", page, err)
	}
	c.calls = applyFilter(result.Nodes, filter)
	c.totalPages = pageCount(result.TotalCount)
	c.hasNext = result.HasNextPage
	return nil
}

func pageCount(totalCount int) int {
	if totalCount < 0 {
		totalCount = 0
	}
	return (totalCount + PageSize - 1) / PageSize
}

func applyFilter(calls []backend.Call, f Filter) []backend.Call {
	switch f {
	case FilterArchived:
		return keep(calls, func(c backend.Call) bool { return !c.IsArchived })
	case FilterUnarchived:
		return keep(calls, func(c backend.Call) bool { return c.IsArchived })
	default:
		return calls
	}
}

func keep(calls []backend.Call, pred func(backend.Call) bool) []backend.Call {
	out := make([]backend.Call, 0, len(calls))
	for _, c := range calls {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

/* ===================== FILTERING ===================== */

// SetFilter applies an archive filter to the cached page. "All" re-fetches
// the current page instead. The page index is NOT reset on filter change.
func (c *Controller) SetFilter(ctx context.Context, f Filter) error {
	c.mu.Lock()
	c.filter = f
	if f == FilterArchived || f == FilterUnarchived {
		c.calls = applyFilter(c.calls, f)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// SetDateRange constrains the list query to the given created_at range and
// re-fetches the current page. Nil bounds clear the corresponding side.
func (c *Controller) SetDateRange(ctx context.Context, from, to *time.Time) error {
	c.mu.Lock()
	c.from = from
	c.to = to
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// SetGroupByDate toggles date bucketing. Purely presentational; no fetch.
func (c *Controller) SetGroupByDate(enabled bool) {
	c.mu.Lock()
	c.groupByDate = enabled
	c.mu.Unlock()
}

/* ===================== SELECTION ===================== */

// ToggleSelect adds or removes a call id from the selection. Ids not present
// in the cached page are ignored.
func (c *Controller) ToggleSelect(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inPageLocked(id) {
		return
	}
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
	} else {
		c.selected[id] = struct{}{}
	}
}

func (c *Controller) inPageLocked(id string) bool {
	for _, call := range c.calls {
		if call.ID == id {
			return true
		}
	}
	return false
}

/* ===================== ARCHIVE TOGGLING ===================== */

// ToggleArchive flips one call's archive state upstream, then optimistically
// flips the cached copy. A failed request changes nothing locally.
func (c *Controller) ToggleArchive(ctx context.Context, id string) error {
	if err := c.repo.ToggleArchive(ctx, id); err != nil {
		c.log.Error("archive toggle failed", "call_id", id, "err", err)
		return fmt.Errorf("view: toggle archive %s: %w", id, err)
	}
	c.mu.Lock()
	c.flipLocked(map[string]struct{}{id: {}})
	c.mu.Unlock()
	return nil
}

// ToggleArchiveSelected issues one upstream toggle per selected id, all
// concurrently. The local flips are all-or-nothing: if any request fails, no
// cached record changes, even for ids whose requests succeeded. The upstream
// may then disagree with the cache until the next fetch.
func (c *Controller) ToggleArchiveSelected(ctx context.Context) error {
	c.mu.Lock()
	ids := make([]string, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = c.repo.ToggleArchive(ctx, id)
		}(i, id)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		c.log.Error("bulk archive toggle failed", "ids", ids, "err", err)
		return fmt.Errorf("view: bulk archive toggle: %w", err)
	}

	c.mu.Lock()
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	c.flipLocked(set)
	c.selected = map[string]struct{}{}
	c.mu.Unlock()
	return nil
}

func (c *Controller) flipLocked(ids map[string]struct{}) {
	for i := range c.calls {
		if _, ok := ids[c.calls[i].ID]; ok {
			c.calls[i].IsArchived = !c.calls[i].IsArchived
		}
	}
}

/* ===================== PUSH UPDATES ===================== */

// ApplyUpdate folds a pushed call record into the cached page. Records not
// on the current page are dropped; there is no buffering or replay.
func (c *Controller) ApplyUpdate(call backend.Call) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.calls {
		if c.calls[i].ID == call.ID {
			c.calls[i] = call
			return
		}
	}
}
