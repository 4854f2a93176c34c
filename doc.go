// Package querycache implements an observable, in-memory request cache: it
// stores the outcome of asynchronous fetches keyed by structured arguments,
// tracks per-entry loading/data/error state, refetches stale entries, and lets
// multiple logical names (aliases) resolve to one cached entry.
//
// Components:
//   - Keyer: pure function deriving a canonical string key from argument
//     values (ready-made derivers in the keyer subpackage).
//   - Entry[D, E]: one cached result slot with loading flag, optional data,
//     optional error and a creation timestamp. Data and error may coexist: an
//     error received after data keeps the stale data alongside the new error.
//   - Store[A, AA, D, E]: owns the key->entry map, the alias->key map, the
//     monotonic request counter and the latest-request descriptor.
//   - Fetcher: supplied once at construction; observes each published request
//     descriptor, performs the asynchronous work and reports back through
//     Receive (a bounded runner lives in the fetcher subpackage).
//
// All mutation flows through the store's action methods. Each action performs
// its writes as one indivisible step; settle waiters and the fetcher are
// notified only after every write of the action has landed.
//
// Staleness is measured from entry creation, never from the last received
// value, and Receive is not ordered against request ids: for overlapping
// requests to one key, whichever result arrives last wins.
//
// Request flow:
//
//	e := store.Get(args, querycache.WithStaleTime(time.Minute))
//	_ = e.AwaitSettled(ctx)
//	if data, ok := e.Data(); ok { ... }
package querycache
