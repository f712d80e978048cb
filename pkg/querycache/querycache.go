// Package querycache keeps query results warm between screens and
// between launches. Entries are served fresh within a TTL, served
// stale (with a background refetch) after it, and snapshotted to the
// device key-value store so the next launch starts populated.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/iancoleman/strcase"

	"github.com/clinix-health/mobile-core/pkg/kvstore"
)

// FetchFunc produces the value for one cache key.
type FetchFunc func(ctx context.Context) (any, error)

// Config tunes the cache.
type Config struct {
	// TTL is the freshness window. Entries older than this are served
	// stale while a refetch runs. Default: 30s.
	TTL time.Duration

	// MaxAge bounds how old a persisted entry may be and still be
	// loaded on start. Default: 24h.
	MaxAge time.Duration

	// Storage receives the async snapshot. Nil disables persistence.
	Storage kvstore.Store

	Logger hclog.Logger
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		TTL:    30 * time.Second,
		MaxAge: 24 * time.Hour,
	}
}

// Key builds a canonical cache key from free-form parts. Parts are
// snake_cased so "labResults" and "lab-results" collapse to the same
// key, then joined with "/".
func Key(parts ...string) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strcase.ToSnake(p)
	}
	return strings.Join(out, "/")
}

type entry struct {
	value     any
	fetchedAt time.Time
	stale     bool
}

// flight is one in-progress fetch shared by concurrent callers.
type flight struct {
	done  chan struct{}
	value any
	err   error
}

// Cache is the in-memory table plus its persistence hooks. Values are
// stored as returned by the fetcher; after a Load they are the generic
// JSON shapes produced by unmarshalling the snapshot.
type Cache struct {
	cfg    Config
	logger hclog.Logger

	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*flight
	fetchers map[string]FetchFunc
	gens     map[string]uint64
	subs     map[string]map[int]func(any)
	nextSub  int
	epoch    uint64

	wg sync.WaitGroup
}

// New creates an empty cache. Call Load to warm it from storage.
func New(cfg Config) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultConfig().MaxAge
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	return &Cache{
		cfg:      cfg,
		logger:   cfg.Logger.Named("querycache"),
		entries:  make(map[string]*entry),
		inflight: make(map[string]*flight),
		fetchers: make(map[string]FetchFunc),
		gens:     make(map[string]uint64),
		subs:     make(map[string]map[int]func(any)),
	}
}

// Get serves key, fetching on a miss. A fresh entry returns
// immediately. A stale entry is returned immediately while a refetch
// runs in the background. Concurrent gets for the same missing key
// share one fetch. The fetcher is remembered for later invalidation.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	c.mu.Lock()
	c.fetchers[key] = fetch

	if e, ok := c.entries[key]; ok {
		if !e.stale && time.Since(e.fetchedAt) < c.cfg.TTL {
			v := e.value
			c.mu.Unlock()
			return v, nil
		}
		// Stale: serve what we have, refresh behind the caller.
		v := e.value
		c.refetchLocked(key)
		c.mu.Unlock()
		return v, nil
	}

	if fl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-fl.done:
			return fl.value, fl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	fl := &flight{done: make(chan struct{})}
	c.inflight[key] = fl
	c.gens[key]++
	gen := c.gens[key]
	epoch := c.epoch
	c.mu.Unlock()

	value, err := fetch(ctx)
	c.settle(key, fl, gen, epoch, value, err)
	return value, err
}

// settle records a finished fetch. Results from a superseded fetch,
// or from a fetch initiated before a Clear, release their waiters but
// never overwrite the table: the last initiated fetch wins.
func (c *Cache) settle(key string, fl *flight, gen, epoch uint64, value any, err error) {
	c.mu.Lock()
	fl.value, fl.err = value, err
	close(fl.done)
	if c.inflight[key] == fl {
		delete(c.inflight, key)
	}

	if err != nil || gen != c.gens[key] || epoch != c.epoch {
		c.mu.Unlock()
		return
	}

	c.entries[key] = &entry{value: value, fetchedAt: time.Now()}
	fns := c.subscribersLocked(key)
	c.persistLocked()
	c.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// refetchLocked starts a background refresh for key unless one is
// already running. Caller holds c.mu.
func (c *Cache) refetchLocked(key string) {
	if _, running := c.inflight[key]; running {
		return
	}
	fetch, ok := c.fetchers[key]
	if !ok {
		return
	}

	fl := &flight{done: make(chan struct{})}
	c.inflight[key] = fl
	c.gens[key]++
	gen := c.gens[key]
	epoch := c.epoch

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		var value any
		op := func() error {
			var err error
			value, err = fetch(context.Background())
			return err
		}

		policy := backoff.NewExponentialBackOff()
		policy.MaxElapsedTime = 30 * time.Second
		err := backoff.Retry(op, policy)
		if err != nil {
			c.logger.Warn("background refetch failed", "key", key, "error", err)
		}
		c.settle(key, fl, gen, epoch, value, err)
	}()
}

// Invalidate marks the given keys stale and refreshes each one that
// has a remembered fetcher. It does not block on the refetches.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if e, ok := c.entries[key]; ok {
			e.stale = true
		}
		c.refetchLocked(key)
	}
}

// Subscribe registers fn to run after every update of key. The
// returned function unsubscribes.
func (c *Cache) Subscribe(key string, fn func(any)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subs[key] == nil {
		c.subs[key] = make(map[int]func(any))
	}
	id := c.nextSub
	c.nextSub++
	c.subs[key][id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[key], id)
	}
}

func (c *Cache) subscribersLocked(key string) []func(any) {
	fns := make([]func(any), 0, len(c.subs[key]))
	for _, fn := range c.subs[key] {
		fns = append(fns, fn)
	}
	return fns
}

// Peek returns the cached value without fetching or refreshing.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Clear wipes memory and the persisted snapshot.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	// Starting a new epoch discards whatever in-flight fetches settle
	// after this point, so cleared data cannot resurface in memory or
	// in a re-written snapshot.
	c.epoch++
	c.mu.Unlock()

	if c.cfg.Storage == nil {
		return nil
	}
	return c.cfg.Storage.Delete(ctx, kvstore.KeyQueryCache)
}

// Wait blocks until background refetches and persistence settle.
func (c *Cache) Wait() {
	c.wg.Wait()
}

type persistedEntry struct {
	Value     any       `json:"value"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// persistLocked snapshots the table asynchronously. Caller holds c.mu.
// A failed write is logged; the cache stays authoritative in memory.
func (c *Cache) persistLocked() {
	if c.cfg.Storage == nil {
		return
	}

	snapshot := make(map[string]persistedEntry, len(c.entries))
	for k, e := range c.entries {
		snapshot[k] = persistedEntry{Value: e.value, FetchedAt: e.fetchedAt}
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		raw, err := json.Marshal(snapshot)
		if err != nil {
			c.logger.Warn("cache snapshot not serializable", "error", err)
			return
		}
		if err := c.cfg.Storage.Set(context.Background(), kvstore.KeyQueryCache, raw); err != nil {
			c.logger.Warn("cache snapshot not persisted", "error", err)
		}
	}()
}

// Load warms the cache from the persisted snapshot. Entries older
// than MaxAge are dropped; everything loaded is marked stale so the
// first Get refreshes it. A missing or unreadable snapshot is an
// empty start, not an error.
func (c *Cache) Load(ctx context.Context) error {
	if c.cfg.Storage == nil {
		return nil
	}

	raw, err := c.cfg.Storage.Get(ctx, kvstore.KeyQueryCache)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return nil
		}
		return err
	}

	var snapshot map[string]persistedEntry
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		c.logger.Warn("discarding unreadable cache snapshot", "error", err)
		return nil
	}

	cutoff := time.Now().Add(-c.cfg.MaxAge)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, pe := range snapshot {
		if pe.FetchedAt.Before(cutoff) {
			continue
		}
		c.entries[k] = &entry{value: pe.Value, fetchedAt: pe.FetchedAt, stale: true}
	}
	return nil
}
