// Package fetcher provides a ready-made fetch listener for querycache
// stores: a pool that runs one goroutine per published request descriptor,
// optionally bounded, and reports each outcome back through the sink.
//
// The store wants its fetcher at construction while the pool wants the store
// as its sink; break the cycle with SinkFunc:
//
//	var s querycache.Store[Args, Alias, User, error]
//	pool := fetcher.NewPool(
//	    fetcher.SinkFunc[Args, User, error](func(res querycache.Result[Args, User, error]) {
//	        s.Receive(res)
//	    }),
//	    loadUser,
//	    fetcher.WithLimit(8),
//	)
//	s, _ = querycache.New(querycache.Options[Args, Alias, User, error]{
//	    Keyer:      keyer.JSON[Args]("user"),
//	    AliasKeyer: keyer.JSON[Alias]("user-alias"),
//	    Fetcher:    pool,
//	})
//	defer pool.Close()
//
// The pool carries no retry or timeout policy; put those inside Func.
package fetcher

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/querycache"
)

// Func performs one fetch. ok reports whether data was produced; when false,
// fetchErr is reported instead. Returning ok=false with a nil fetchErr of a
// nilable kind will make the store panic, so always populate the variant you
// report.
type Func[A, D, E any] func(ctx context.Context, args A) (data D, fetchErr E, ok bool)

// Sink receives fetch outcomes. A querycache.Store satisfies it.
type Sink[A, D, E any] interface {
	Receive(res querycache.Result[A, D, E])
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc[A, D, E any] func(res querycache.Result[A, D, E])

func (f SinkFunc[A, D, E]) Receive(res querycache.Result[A, D, E]) { f(res) }

// Option tunes a Pool.
type Option func(*config)

type config struct {
	ctx   context.Context
	limit int
}

// WithContext sets the base context passed to every Func invocation.
func WithContext(ctx context.Context) Option {
	return func(c *config) { c.ctx = ctx }
}

// WithLimit bounds the number of concurrently running fetches. Zero or
// negative means unbounded.
func WithLimit(n int) Option {
	return func(c *config) { c.limit = n }
}

// Pool runs fetches for published request descriptors.
type Pool[A, D, E any] struct {
	sink Sink[A, D, E]
	fn   Func[A, D, E]
	ctx  context.Context
	g    *errgroup.Group
}

var _ querycache.Fetcher[string] = (*Pool[string, string, error])(nil)

// NewPool constructs a pool delivering outcomes of fn to sink.
func NewPool[A, D, E any](sink Sink[A, D, E], fn Func[A, D, E], opts ...Option) *Pool[A, D, E] {
	cfg := config{ctx: context.Background()}
	for _, o := range opts {
		o(&cfg)
	}
	g := new(errgroup.Group)
	if cfg.limit > 0 {
		g.SetLimit(cfg.limit)
	}
	return &Pool[A, D, E]{sink: sink, fn: fn, ctx: cfg.ctx, g: g}
}

// Fetch satisfies querycache.Fetcher. It returns once the fetch is scheduled;
// with WithLimit it blocks while the pool is saturated, which is the
// backpressure point for request storms.
func (p *Pool[A, D, E]) Fetch(req querycache.Request[A]) {
	p.g.Go(func() error {
		data, fetchErr, ok := p.fn(p.ctx, req.Args)
		res := querycache.Result[A, D, E]{Args: req.Args}
		if ok {
			res.Data, res.HasData = data, true
		} else {
			res.Err, res.HasErr = fetchErr, true
		}
		p.sink.Receive(res)
		return nil
	})
}

// Close waits for in-flight fetches to finish reporting.
func (p *Pool[A, D, E]) Close() error {
	return p.g.Wait()
}
