package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// gatedFetcher blocks every call until the test releases it with an outcome.
// It ignores cancellation so superseded calls still deliver stale outcomes.
type gatedFetcher struct {
	mu    sync.Mutex
	calls []*gatedCall
	added chan struct{}
}

type gatedCall struct {
	params Params
	ctx    context.Context
	reply  chan Outcome
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{added: make(chan struct{}, 64)}
}

func (g *gatedFetcher) Fetch(ctx context.Context, p Params) Outcome {
	call := &gatedCall{params: p, ctx: ctx, reply: make(chan Outcome, 1)}
	g.mu.Lock()
	g.calls = append(g.calls, call)
	g.mu.Unlock()
	g.added <- struct{}{}
	return <-call.reply
}

// call waits for the n-th call (0-based).
func (g *gatedFetcher) call(t *testing.T, n int) *gatedCall {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		g.mu.Lock()
		if len(g.calls) > n {
			c := g.calls[n]
			g.mu.Unlock()
			return c
		}
		g.mu.Unlock()
		select {
		case <-g.added:
		case <-deadline:
			t.Fatalf("fetch call %d never issued", n)
		}
	}
}

func (g *gatedFetcher) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// instantFetcher answers from a function.
type instantFetcher func(Params) Outcome

func (f instantFetcher) Fetch(_ context.Context, p Params) Outcome { return f(p) }

func shopsNamed(names ...string) []Shop {
	out := make([]Shop, 0, len(names))
	for _, n := range names {
		out = append(out, Shop{Name: n, Products: []Product{{Name: n}}})
	}
	return out
}

func waitSettled(t *testing.T, c *Controller) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := c.Wait(ctx)
	require.NoError(t, err)
	return st
}

func newController(t *testing.T, f Fetcher, opts ...Option) *Controller {
	t.Helper()
	opts = append(opts, WithLogger(zaptest.NewLogger(t)))
	c, err := NewController(f, 10, nil, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestControllerIdleBeforeStart(t *testing.T) {
	c := newController(t, instantFetcher(func(Params) Outcome { return Outcome{} }))
	st := c.State()
	assert.Equal(t, StatusIdle, st.Status)
	assert.False(t, st.Loading)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 10, st.ItemsPerPage)
	assert.Empty(t, st.Shops)
}

func TestControllerLoadSuccess(t *testing.T) {
	g := newGatedFetcher()
	c := newController(t, g)

	c.Start()
	st := c.State()
	assert.True(t, st.Loading)
	assert.Equal(t, StatusLoading, st.Status)

	call := g.call(t, 0)
	assert.Equal(t, Params{Limit: 10, Page: 1}, call.params)
	call.reply <- Outcome{Kind: OutcomeSuccess, Shops: shopsNamed("a", "b"), TotalRow: 42}

	st = waitSettled(t, c)
	assert.Equal(t, StatusLoaded, st.Status)
	assert.False(t, st.Loading)
	assert.Len(t, st.Shops, 2)
	assert.Equal(t, 42, st.TotalItems)
	assert.Equal(t, 5, st.TotalPages)
	assert.NoError(t, st.Err)
}

func TestControllerSupersession(t *testing.T) {
	g := newGatedFetcher()
	c := newController(t, g)

	c.Search("chair")
	c.Search("15000")
	first, second := g.call(t, 0), g.call(t, 1)
	assert.Equal(t, FilterProductName, first.params.Filter)
	assert.Equal(t, FilterPrice, second.params.Filter)

	// The superseded request's context is cancelled.
	select {
	case <-first.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("superseded fetch was not cancelled")
	}

	// Resolve out of order: newest first, then the stale one.
	second.reply <- Outcome{Kind: OutcomeSuccess, Shops: shopsNamed("new"), TotalRow: 1}
	st := waitSettled(t, c)
	require.Equal(t, "new", st.Shops[0].Name)

	first.reply <- Outcome{Kind: OutcomeSuccess, Shops: shopsNamed("stale", "stale2"), TotalRow: 99}
	c.Close()

	st = c.State()
	assert.Equal(t, StatusLoaded, st.Status)
	require.Len(t, st.Shops, 1)
	assert.Equal(t, "new", st.Shops[0].Name)
	assert.Equal(t, 1, st.TotalItems)
	assert.Equal(t, "15000", st.Query)
}

func TestControllerStaleResultDoesNotSettle(t *testing.T) {
	g := newGatedFetcher()
	c := newController(t, g)

	c.Search("a")
	c.Search("b")
	g.call(t, 0).reply <- Outcome{Kind: OutcomeError, Err: ErrNoResponse}

	// Still waiting on "b".
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	st, err := c.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, st.Loading)
	assert.NoError(t, st.Err)

	g.call(t, 1).reply <- Outcome{Kind: OutcomeEmpty}
	st = waitSettled(t, c)
	assert.Equal(t, StatusEmpty, st.Status)
}

func TestControllerEmptyOutcome(t *testing.T) {
	outcomes := []Outcome{
		{Kind: OutcomeSuccess, Shops: shopsNamed("x"), TotalRow: 30},
		{Kind: OutcomeEmpty},
	}
	var n int
	var mu sync.Mutex
	c := newController(t, instantFetcher(func(Params) Outcome {
		mu.Lock()
		defer mu.Unlock()
		out := outcomes[n]
		n++
		return out
	}))

	c.Start()
	waitSettled(t, c)
	c.Search("nothing matches")
	st := waitSettled(t, c)

	assert.Equal(t, StatusEmpty, st.Status)
	assert.Empty(t, st.Shops)
	assert.NotNil(t, st.Shops)
	assert.Equal(t, 0, st.TotalItems)
	assert.Equal(t, 0, st.TotalPages)
	assert.NoError(t, st.Err)
	assert.Empty(t, st.Message())
}

func TestControllerErrorKeepsPreviousResult(t *testing.T) {
	fail := false
	var mu sync.Mutex
	c := newController(t, instantFetcher(func(Params) Outcome {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return Outcome{Kind: OutcomeError, Err: &ServerError{Status: 500, Message: "boom"}}
		}
		return Outcome{Kind: OutcomeSuccess, Shops: shopsNamed("kept"), TotalRow: 25}
	}))

	c.Start()
	waitSettled(t, c)

	mu.Lock()
	fail = true
	mu.Unlock()
	c.NextPage()
	st := waitSettled(t, c)

	assert.Equal(t, StatusErrored, st.Status)
	assert.Equal(t, "Server Error: boom", st.Message())
	assert.Equal(t, "kept", st.Shops[0].Name)
	assert.Equal(t, 25, st.TotalItems)
	assert.Equal(t, 2, st.Page)

	// The next cycle clears the error as soon as it starts.
	gate := make(chan struct{})
	c.fetcher = instantFetcher(func(Params) Outcome {
		<-gate
		return Outcome{Kind: OutcomeSuccess, Shops: shopsNamed("fresh"), TotalRow: 25}
	})
	c.Retry()
	st = c.State()
	assert.True(t, st.Loading)
	assert.NoError(t, st.Err)
	close(gate)
	st = waitSettled(t, c)
	assert.Equal(t, StatusLoaded, st.Status)
	assert.Equal(t, "fresh", st.Shops[0].Name)
}

func TestControllerResetsPageOnSearchAndPageSize(t *testing.T) {
	var mu sync.Mutex
	var seen []Params
	c := newController(t, instantFetcher(func(p Params) Outcome {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
		return Outcome{Kind: OutcomeSuccess, Shops: shopsNamed("s"), TotalRow: 200}
	}))

	c.Start()
	waitSettled(t, c)
	c.NextPage()
	waitSettled(t, c)
	c.NextPage()
	assert.Equal(t, 3, waitSettled(t, c).Page)

	c.Search("lamp")
	st := waitSettled(t, c)
	assert.Equal(t, 1, st.Page)

	c.NextPage()
	assert.Equal(t, 2, waitSettled(t, c).Page)

	require.NoError(t, c.SetItemsPerPage(50))
	st = waitSettled(t, c)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 50, st.ItemsPerPage)
	assert.Equal(t, 4, st.TotalPages)

	mu.Lock()
	last := seen[len(seen)-1]
	mu.Unlock()
	assert.Equal(t, Params{Limit: 50, Page: 1, Filter: FilterProductName, Text: "lamp"}, last)
}

func TestControllerRejectsInvalidPageSizeWithoutFetching(t *testing.T) {
	g := newGatedFetcher()
	c := newController(t, g)

	err := c.SetItemsPerPage(7)
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 0, g.count())
	assert.Equal(t, StatusIdle, c.State().Status)

	assert.Error(t, c.GoToPage(2))
	assert.Equal(t, 0, g.count())
}

func TestControllerUnchangedInputsIssueNoRequest(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	c := newController(t, instantFetcher(func(Params) Outcome {
		mu.Lock()
		calls++
		mu.Unlock()
		return Outcome{Kind: OutcomeSuccess, Shops: shopsNamed("s"), TotalRow: 5}
	}))

	c.Start()
	waitSettled(t, c)
	c.Search("")
	c.PreviousPage()
	c.NextPage() // only one page
	require.NoError(t, c.SetItemsPerPage(10))
	waitSettled(t, c)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestControllerClampsAndReloadsWhenTotalShrinks(t *testing.T) {
	var mu sync.Mutex
	var pages []int
	total := 100
	c := newController(t, instantFetcher(func(p Params) Outcome {
		mu.Lock()
		defer mu.Unlock()
		pages = append(pages, p.Page)
		return Outcome{Kind: OutcomeSuccess, Shops: shopsNamed("s"), TotalRow: total}
	}))

	c.Start()
	waitSettled(t, c)
	require.NoError(t, c.GoToPage(8))
	waitSettled(t, c)

	mu.Lock()
	total = 15
	mu.Unlock()
	c.Retry()
	st := waitSettled(t, c)

	assert.Equal(t, 2, st.Page)
	assert.Equal(t, 2, st.TotalPages)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 8, 8, 2}, pages)
}

func TestControllerOnChangeIsOrdered(t *testing.T) {
	var mu sync.Mutex
	var versions []uint64
	var statuses []Status
	c := newController(t, instantFetcher(func(Params) Outcome {
		return Outcome{Kind: OutcomeSuccess, Shops: shopsNamed("s"), TotalRow: 50}
	}), WithOnChange(func(st State) {
		mu.Lock()
		versions = append(versions, st.Version)
		statuses = append(statuses, st.Status)
		mu.Unlock()
	}))

	c.Start()
	waitSettled(t, c)
	c.NextPage()
	waitSettled(t, c)
	c.Close()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		assert.Greater(t, versions[i], versions[i-1])
	}
	assert.Equal(t, StatusLoaded, statuses[len(statuses)-1])
}
