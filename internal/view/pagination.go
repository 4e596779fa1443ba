package view

// Ellipsis is the gap marker in a windowed page-number list.
const Ellipsis = -1

// pageWindow is how many page numbers render on each side of the current
// page before gaps collapse to an ellipsis.
const pageWindow = 2

// PageNumbers returns the page links to render for current of total pages:
// the first and last page always, a window around the current page, and
// Ellipsis markers for collapsed gaps. Rendering every number from 1 to N
// does not survive large datasets.
func PageNumbers(current, total int) []int {
	if total <= 0 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	// Small enough to render in full.
	if total <= 2*pageWindow+5 {
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}

	lo := current - pageWindow
	hi := current + pageWindow
	if lo < 2 {
		lo = 2
	}
	if hi > total-1 {
		hi = total - 1
	}

	out := []int{1}
	if lo > 2 {
		out = append(out, Ellipsis)
	}
	for p := lo; p <= hi; p++ {
		out = append(out, p)
	}
	if hi < total-1 {
		out = append(out, Ellipsis)
	}
	return append(out, total)
}
