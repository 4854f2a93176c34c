package querycache

import "time"

// SentinelKey is the reserved key backing every unresolved alias lookup.
// The entry under it is never touched by any fetch, so callers observe the
// same inert placeholder for every unknown alias.
const SentinelKey = "?"

// Stale-time sentinels. Positive values mean "stale after this long past
// entry creation".
const (
	StaleNever  time.Duration = -1
	StaleAlways time.Duration = 0
)

// Keyer derives the canonical string key for an argument value. It must be
// pure and deterministic: equal argument values produce identical keys
// regardless of field or map ordering. Ready-made derivers live in the keyer
// subpackage.
type Keyer[A any] func(args A) string

// Request is the descriptor published for each issued fetch. ID increases by
// exactly one per Request call for the lifetime of the store.
type Request[A any] struct {
	Args A
	ID   uint64
}

// Fetcher observes published request descriptors and performs the actual
// asynchronous work, reporting outcomes back via the store's Receive. The
// store calls Fetch after the request action's writes complete; slow
// implementations should hand off to their own goroutines (see the fetcher
// subpackage).
type Fetcher[A any] interface {
	Fetch(req Request[A])
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc[A any] func(req Request[A])

func (f FetcherFunc[A]) Fetch(req Request[A]) { f(req) }

// Result carries one fetch outcome back into the store. Exactly one of
// HasData/HasErr must be set; Receive panics otherwise.
type Result[A, D, E any] struct {
	Args    A
	Data    D
	HasData bool
	Err     E
	HasErr  bool
}

// Store is the request cache API. A = fetch argument type, AA = alias
// argument type, D = data type, E = error payload type. D and E must not use
// nil of a nilable kind as a real value: nil is reserved to mean "no value
// yet" and SetData/SetError panic when handed it.
//
// Contract:
//   - Concurrency: safe for concurrent use; every mutator is an atomic action
//     whose writes become visible together.
//   - Identity: Read returns the same *Entry for arguments deriving the same
//     key until that key is removed.
//   - Errors: fetch error payloads are opaque; the store tracks presence only.
type Store[A, AA, D, E any] interface {
	// GetOrCreate returns the entry for key, inserting a fresh empty one
	// (stamped with the current time) if absent.
	GetOrCreate(key string) *Entry[D, E]

	// Read derives the key for args and returns its entry. Never fetches.
	Read(args A) *Entry[D, E]

	// ReadAlias resolves alias indirection. Unresolved aliases return the
	// shared placeholder entry under SentinelKey.
	ReadAlias(alias AA) *Entry[D, E]

	// SetAlias points alias at the key derived from args. Many-to-one and
	// repointable; aliases own no data.
	SetAlias(args A, alias AA)

	// Get returns the entry for args, issuing a fetch first when the entry is
	// not loading and has no data or is stale. WithStaleTime overrides the
	// store default for this call; WithAlias sets an alias before resolving.
	Get(args A, opts ...GetOption) *Entry[D, E]

	// Request unconditionally issues a fetch: marks the entry loading, bumps
	// the request counter and publishes the descriptor to the fetcher. There
	// is no per-key dedup; overlapping requests each publish a signal.
	Request(args A, opts ...GetOption) *Entry[D, E]

	// Receive dispatches a fetch outcome to SetData or SetError.
	Receive(res Result[A, D, E])

	// SetLoading sets only the loading flag.
	SetLoading(args A, loading bool)

	// SetData stores data: clears loading and any previous error. The entry's
	// creation time is not refreshed.
	SetData(args A, data D)

	// SetError stores an error payload: clears loading, keeps any previous
	// data alongside the error.
	SetError(args A, fetchErr E)

	// Remove deletes the cache slot. Aliases pointing at it are left dangling
	// and resolve to a fresh empty entry on next access.
	Remove(args A)

	// LastRequest reports the most recently published request descriptor.
	LastRequest() (Request[A], bool)

	// RequestID reports the current value of the request counter.
	RequestID() uint64

	// Len reports the number of cached entries.
	Len() int
}

// Options tune the store. Keyer and AliasKeyer are required; everything else
// has defaults.
type Options[A, AA, D, E any] struct {
	// Required
	Keyer      Keyer[A]
	AliasKeyer Keyer[AA]

	// Fetcher receives published request descriptors. Optional: a store
	// without one still mutates state and records LastRequest, which is
	// useful in tests and for external pollers.
	Fetcher Fetcher[A]

	Logger Logger // if nil, NopLogger is used
	Name   string // diagnostics only; appears in log fields. "" => "querycache"

	// StaleTime classifies entries on Get: negative => never stale, zero =>
	// always stale, positive => stale that long after entry creation. The
	// zero value deliberately means "always stale".
	StaleTime time.Duration

	// Now overrides the time source (entry creation stamps, staleness).
	// nil => time.Now.
	Now func() time.Time
}

// New constructs a store from opts.
func New[A, AA, D, E any](opts Options[A, AA, D, E]) (Store[A, AA, D, E], error) {
	return newStore(opts)
}

// GetOption is a per-call option for Get and Request.
type GetOption func(*getConfig)

type getConfig struct {
	staleTime    time.Duration
	hasStaleTime bool
	alias        any
	hasAlias     bool
}

// WithStaleTime overrides the store's default stale time for one Get call.
func WithStaleTime(d time.Duration) GetOption {
	return func(c *getConfig) {
		c.staleTime = d
		c.hasStaleTime = true
	}
}

// WithAlias sets an alias for the requested arguments before resolving. The
// value must be the store's alias argument type AA; anything else is a
// contract breach and panics.
func WithAlias[AA any](alias AA) GetOption {
	return func(c *getConfig) {
		c.alias = alias
		c.hasAlias = true
	}
}
