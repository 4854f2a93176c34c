package querycache

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

type store[A, AA, D, E any] struct {
	name       string
	keyer      Keyer[A]
	aliasKeyer Keyer[AA]
	fetcher    Fetcher[A]
	log        Logger
	staleTime  time.Duration
	now        func() time.Time

	// mu guards the maps, the request counter and lastRequest. Lock order is
	// store then entry; entry accessors never take mu.
	mu          sync.Mutex
	cache       map[string]*Entry[D, E]
	aliases     map[string]string
	requestID   uint64
	lastRequest *Request[A]
}

func newStore[A, AA, D, E any](opts Options[A, AA, D, E]) (*store[A, AA, D, E], error) {
	if opts.Keyer == nil {
		return nil, fmt.Errorf("querycache: keyer is required")
	}
	if opts.AliasKeyer == nil {
		return nil, fmt.Errorf("querycache: alias keyer is required")
	}

	s := &store[A, AA, D, E]{
		keyer:      opts.Keyer,
		aliasKeyer: opts.AliasKeyer,
		fetcher:    opts.Fetcher,
		staleTime:  opts.StaleTime,
		cache:      make(map[string]*Entry[D, E]),
		aliases:    make(map[string]string),
	}

	s.name = coalesce(opts.Name, "querycache")
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	if opts.Now != nil {
		s.now = opts.Now
	} else {
		s.now = time.Now
	}
	return s, nil
}

func (s *store[A, AA, D, E]) GetOrCreate(key string) *Entry[D, E] {
	s.mu.Lock()
	e := s.getOrCreateLocked(key)
	s.mu.Unlock()
	return e
}

func (s *store[A, AA, D, E]) getOrCreateLocked(key string) *Entry[D, E] {
	if e, ok := s.cache[key]; ok {
		return e
	}
	e := newEntry[D, E](s.now())
	s.cache[key] = e
	return e
}

func (s *store[A, AA, D, E]) Read(args A) *Entry[D, E] {
	return s.GetOrCreate(s.keyer(args))
}

func (s *store[A, AA, D, E]) ReadAlias(alias AA) *Entry[D, E] {
	aliasKey := s.aliasKeyer(alias)
	s.mu.Lock()
	key, ok := s.aliases[aliasKey]
	if !ok {
		key = SentinelKey
	}
	e := s.getOrCreateLocked(key)
	s.mu.Unlock()
	return e
}

func (s *store[A, AA, D, E]) SetAlias(args A, alias AA) {
	aliasKey := s.aliasKeyer(alias)
	key := s.keyer(args)
	s.mu.Lock()
	s.aliases[aliasKey] = key
	s.mu.Unlock()
}

func (s *store[A, AA, D, E]) Get(args A, opts ...GetOption) *Entry[D, E] {
	cfg := s.applyOptions("Get", args, opts)

	item := s.Read(args)
	staleTime := s.staleTime
	if cfg.hasStaleTime {
		staleTime = cfg.staleTime
	}
	// A loading item is never re-requested; a fresh item with data is
	// returned without cost.
	if !item.Loading() && (!item.HasData() || s.stale(item, staleTime)) {
		return s.request(args)
	}
	return item
}

func (s *store[A, AA, D, E]) Request(args A, opts ...GetOption) *Entry[D, E] {
	s.applyOptions("Request", args, opts)
	return s.request(args)
}

// applyOptions resolves per-call options, performing the alias write when one
// was given.
func (s *store[A, AA, D, E]) applyOptions(op string, args A, opts []GetOption) getConfig {
	var cfg getConfig
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.hasAlias {
		alias, ok := cfg.alias.(AA)
		if !ok {
			panic(&ContractError{
				Op:  op,
				Key: s.keyer(args),
				Msg: fmt.Sprintf("alias has type %T, want the store's alias argument type", cfg.alias),
			})
		}
		s.SetAlias(args, alias)
	}
	return cfg
}

func (s *store[A, AA, D, E]) request(args A) *Entry[D, E] {
	key := s.keyer(args)

	s.mu.Lock()
	e := s.getOrCreateLocked(key)
	waiters := e.setLoading(true)
	s.requestID++
	req := Request[A]{Args: args, ID: s.requestID}
	s.lastRequest = &req
	s.mu.Unlock()

	closeAll(waiters)
	s.log.Debug("request issued", Fields{"name": s.name, "key": key, "request_id": req.ID})
	if s.fetcher != nil {
		s.fetcher.Fetch(req)
	}
	return e
}

func (s *store[A, AA, D, E]) stale(e *Entry[D, E], staleTime time.Duration) bool {
	if staleTime < 0 {
		return false
	}
	if staleTime == 0 {
		return true
	}
	return s.now().After(e.Time().Add(staleTime))
}

func (s *store[A, AA, D, E]) Receive(res Result[A, D, E]) {
	switch {
	case res.HasData:
		s.SetData(res.Args, res.Data)
	case res.HasErr:
		s.SetError(res.Args, res.Err)
	default:
		panic(&ContractError{
			Op:  "Receive",
			Key: s.keyer(res.Args),
			Msg: "result carries neither data nor error",
		})
	}
}

func (s *store[A, AA, D, E]) SetLoading(args A, loading bool) {
	e := s.Read(args)
	closeAll(e.setLoading(loading))
}

func (s *store[A, AA, D, E]) SetData(args A, data D) {
	key := s.keyer(args)
	if isAbsent(data) {
		panic(&ContractError{Op: "SetData", Key: key, Msg: "data is the absent sentinel (nil)"})
	}
	e := s.GetOrCreate(key)
	closeAll(e.setData(data))
	s.log.Debug("data received", Fields{"name": s.name, "key": key})
}

func (s *store[A, AA, D, E]) SetError(args A, fetchErr E) {
	key := s.keyer(args)
	if isAbsent(fetchErr) {
		panic(&ContractError{Op: "SetError", Key: key, Msg: "error is the absent sentinel (nil)"})
	}
	e := s.GetOrCreate(key)
	closeAll(e.setError(fetchErr))
	s.log.Debug("error received", Fields{"name": s.name, "key": key})
}

func (s *store[A, AA, D, E]) Remove(args A) {
	key := s.keyer(args)
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
}

func (s *store[A, AA, D, E]) LastRequest() (Request[A], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRequest == nil {
		var zero Request[A]
		return zero, false
	}
	return *s.lastRequest, true
}

func (s *store[A, AA, D, E]) RequestID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestID
}

func (s *store[A, AA, D, E]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

func closeAll(waiters []chan struct{}) {
	for _, ch := range waiters {
		close(ch)
	}
}

// isAbsent reports whether v is the absent sentinel: nil itself, or a nil
// value of a nilable kind. Non-nilable value types cannot express absence and
// are always accepted.
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
