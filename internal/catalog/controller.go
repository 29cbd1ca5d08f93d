package catalog

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusEmpty
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusEmpty:
		return "empty"
	default:
		return "errored"
	}
}

// State is a snapshot of the controller.
type State struct {
	Status       Status
	Loading      bool
	Query        string
	Shops        []Shop
	Page         int
	ItemsPerPage int
	TotalItems   int
	TotalPages   int
	Err          error
	// Version increases with every transition.
	Version      uint64
}

// Message returns the user-facing error text, or "".
func (s State) Message() string { return Message(s.Err) }

type Option func(*Controller)

func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithOnChange registers fn to be called with a snapshot after every state
// transition. Snapshots are delivered in Version order; older ones that lose
// a race are dropped. fn must not call back into the controller.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// Controller owns the catalog result and pagination for one browsing
// session. Any change of query, page or page size starts a new load; only
// the outcome of the most recently issued load is applied.
type Controller struct {
	fetcher  Fetcher
	log      *zap.Logger
	onChange func(State)

	base     context.Context
	stop     context.CancelFunc
	inflight sync.WaitGroup

	notifyMu sync.Mutex
	notified uint64

	mu      sync.Mutex
	version uint64
	pager   *Pagination
	query   string
	status  Status
	shops   []Shop
	err     error
	seq     uint64
	cancel  context.CancelFunc
	settled chan struct{}
}

// NewController builds a controller with the given initial page size and
// allowed sizes (DefaultPageSizes when empty).
func NewController(f Fetcher, itemsPerPage int, pageSizes []int, opts ...Option) (*Controller, error) {
	pager, err := NewPagination(itemsPerPage, pageSizes)
	if err != nil {
		return nil, err
	}
	ctx, stop := context.WithCancel(context.Background())
	c := &Controller{
		fetcher: f,
		log:     zap.NewNop(),
		base:    ctx,
		stop:    stop,
		pager:   pager,
		shops:   []Shop{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Start issues the initial load.
func (c *Controller) Start() {
	c.mutate(func() bool { return true })
}

// Search submits a new query and returns to page 1.
func (c *Controller) Search(query string) {
	c.mutate(func() bool {
		if query == c.query {
			return false
		}
		c.query = query
		c.pager.Reset()
		return true
	})
}

func (c *Controller) NextPage() {
	c.mutate(c.pager.Next)
}

func (c *Controller) PreviousPage() {
	c.mutate(c.pager.Previous)
}

// GoToPage jumps to page n, rejecting pages outside the known range.
func (c *Controller) GoToPage(n int) error {
	var err error
	c.mutate(func() bool {
		var changed bool
		changed, err = c.pager.GoTo(n)
		return changed
	})
	return err
}

// SetItemsPerPage changes the page size and returns to page 1. Sizes outside
// the allowed set fail with *ConfigError and issue no request.
func (c *Controller) SetItemsPerPage(n int) error {
	var err error
	c.mutate(func() bool {
		if n == c.pager.ItemsPerPage() {
			return false
		}
		err = c.pager.SetItemsPerPage(n)
		return err == nil
	})
	return err
}

// Retry reloads the current parameters.
func (c *Controller) Retry() {
	c.mutate(func() bool { return true })
}

func (c *Controller) mutate(fn func() bool) {
	c.mu.Lock()
	if !fn() {
		c.mu.Unlock()
		return
	}
	c.reloadLocked()
	st := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)
}

func (c *Controller) reloadLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	params := Resolve(c.query, c.pager.ItemsPerPage(), c.pager.CurrentPage())

	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	c.version++
	c.status = StatusLoading
	c.err = nil
	if c.settled == nil {
		c.settled = make(chan struct{})
	}

	c.log.Debug("load shops",
		zap.Uint64("seq", seq),
		zap.Int("page", params.Page),
		zap.Int("limit", params.Limit),
		zap.Stringer("filter", params.Filter),
	)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer cancel()
		out := c.fetcher.Fetch(ctx, params)
		c.apply(seq, out)
	}()
}

func (c *Controller) apply(seq uint64, out Outcome) {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.log.Debug("discard superseded load", zap.Uint64("seq", seq), zap.Stringer("outcome", out.Kind))
		return
	}
	c.cancel = nil
	c.version++

	switch out.Kind {
	case OutcomeSuccess:
		c.shops = out.Shops
		c.status = StatusLoaded
		if c.pager.SetTotal(out.TotalRow) {
			// The total shrank below the current page; load the clamped page.
			c.reloadLocked()
			st := c.snapshotLocked()
			c.mu.Unlock()
			c.notify(st)
			return
		}
	case OutcomeEmpty:
		c.shops = []Shop{}
		c.pager.SetTotal(0)
		c.status = StatusEmpty
	default:
		c.err = out.Err
		c.status = StatusErrored
		c.log.Warn("load shops", zap.Uint64("seq", seq), zap.Error(out.Err))
	}

	if c.settled != nil {
		close(c.settled)
		c.settled = nil
	}
	st := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(st)
}

func (c *Controller) notify(st State) {
	if c.onChange == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if st.Version <= c.notified {
		return
	}
	c.notified = st.Version
	c.onChange(st)
}

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	return State{
		Status:       c.status,
		Loading:      c.status == StatusLoading,
		Query:        c.query,
		Shops:        slices.Clone(c.shops),
		Page:         c.pager.CurrentPage(),
		ItemsPerPage: c.pager.ItemsPerPage(),
		TotalItems:   c.pager.TotalItems(),
		TotalPages:   c.pager.TotalPages(),
		Err:          c.err,
		Version:      c.version,
	}
}

// PageSizes returns the allowed page sizes.
func (c *Controller) PageSizes() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pager.PageSizes()
}

// Wait blocks until no load is in progress and returns the settled state.
func (c *Controller) Wait(ctx context.Context) (State, error) {
	for {
		c.mu.Lock()
		ch := c.settled
		if ch == nil {
			st := c.snapshotLocked()
			c.mu.Unlock()
			return st, nil
		}
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return c.State(), ctx.Err()
		}
	}
}

// Close cancels any in-flight load and waits for it to return.
func (c *Controller) Close() {
	c.stop()
	c.inflight.Wait()
}
