package catalog

import (
	"fmt"
	"slices"
)

// DefaultPageSizes are the page sizes offered when none are configured.
var DefaultPageSizes = []int{5, 10, 20, 50, 100}

// ConfigError reports invalid local input. It is returned before any request
// is made.
type ConfigError struct {
	Field string
	Value int
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s", e.Field, e.Value, e.Msg)
}

// Pagination tracks the current page, page size and server-reported total.
// It keeps 1 <= CurrentPage <= max(TotalPages, 1).
type Pagination struct {
	current int
	perPage int
	total   int
	allowed []int
}

// NewPagination starts at page 1 with no items. allowed defaults to
// DefaultPageSizes.
func NewPagination(itemsPerPage int, allowed []int) (*Pagination, error) {
	if len(allowed) == 0 {
		allowed = DefaultPageSizes
	}
	p := &Pagination{current: 1, allowed: slices.Clone(allowed)}
	if err := p.SetItemsPerPage(itemsPerPage); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pagination) CurrentPage() int  { return p.current }
func (p *Pagination) ItemsPerPage() int { return p.perPage }
func (p *Pagination) TotalItems() int   { return p.total }
func (p *Pagination) PageSizes() []int  { return slices.Clone(p.allowed) }

// TotalPages is ceil(TotalItems / ItemsPerPage); zero when there are no items.
func (p *Pagination) TotalPages() int {
	if p.total <= 0 {
		return 0
	}
	return (p.total + p.perPage - 1) / p.perPage
}

func (p *Pagination) lastPage() int {
	return max(p.TotalPages(), 1)
}

// Previous moves back one page, stopping at 1. It reports whether the page
// changed.
func (p *Pagination) Previous() bool {
	next := max(p.current-1, 1)
	changed := next != p.current
	p.current = next
	return changed
}

// Next moves forward one page, stopping at the last page (page 1 when there
// are no items). It reports whether the page changed.
func (p *Pagination) Next() bool {
	next := min(p.current+1, p.lastPage())
	changed := next != p.current
	p.current = next
	return changed
}

// GoTo jumps to page n.
func (p *Pagination) GoTo(n int) (bool, error) {
	if n < 1 || n > p.lastPage() {
		return false, &ConfigError{Field: "page", Value: n, Msg: fmt.Sprintf("must be between 1 and %d", p.lastPage())}
	}
	changed := n != p.current
	p.current = n
	return changed, nil
}

// SetItemsPerPage changes the page size and returns to page 1. Sizes outside
// the allowed set are rejected, not clamped.
func (p *Pagination) SetItemsPerPage(n int) error {
	if n <= 0 || !slices.Contains(p.allowed, n) {
		return &ConfigError{Field: "items per page", Value: n, Msg: fmt.Sprintf("must be one of %v", p.allowed)}
	}
	p.perPage = n
	p.current = 1
	return nil
}

// SetTotal records the server-reported total and clamps the current page.
// It reports whether the current page had to move.
func (p *Pagination) SetTotal(n int) bool {
	p.total = max(n, 0)
	if p.current > p.lastPage() {
		p.current = p.lastPage()
		return true
	}
	return false
}

// Reset returns to page 1.
func (p *Pagination) Reset() bool {
	changed := p.current != 1
	p.current = 1
	return changed
}
