package repository

import (
	"container/list"
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/lensfit/internal/domain/model"
	"github.com/okian/lensfit/pkg/metrics"
)

// In-memory, sharded Store implementation.
//
// Each shard owns a map for lookups and an LRU list ordered by last touch
// (front = most recent). Expiry is sliding: every Get and Save pushes it
// forward by the TTL. Expired sessions are dropped lazily on access and
// eagerly by the janitor. With a capacity, the least recently touched session
// of the whole store is evicted to make room for a new one: every touch takes
// a store-wide sequence number, so the oldest shard tail is the global LRU.

type entry struct {
	session model.Session
	expires time.Time
	touched uint64
	elem    *list.Element // Value is the session ID
}

type shard struct {
	mu    sync.RWMutex
	items map[string]*entry
	lru   *list.List
	size  *atomic.Int64 // shared by all shards of a store
}

func (sh *shard) remove(id string, e *entry) {
	sh.lru.Remove(e.elem)
	delete(sh.items, id)
	sh.size.Add(-1)
}

// lookup returns the live entry for id, dropping it if it has expired.
// Caller holds sh.mu for writing.
func (sh *shard) lookup(id string, now time.Time) (*entry, bool) {
	e, ok := sh.items[id]
	if !ok {
		return nil, false
	}
	if !now.Before(e.expires) {
		sh.remove(id, e)
		metrics.RecordSessionEvicted(EvictExpired)
		return nil, false
	}
	return e, true
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	cfg    settings
	shards []*shard
	closed atomic.Bool

	size  atomic.Int64  // sessions held, including expired ones not yet dropped
	clock atomic.Uint64 // touch sequence
	capMu sync.Mutex    // serializes bounded creates

	wg        sync.WaitGroup
	stopChan  chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore constructs a sharded in-memory store and starts its janitor
// and metrics goroutines. They stop when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &MemoryStore{
		cfg:      cfg,
		shards:   make([]*shard, cfg.shardCount),
		stopChan: make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &shard{
			items: make(map[string]*entry),
			lru:   list.New(),
			size:  &s.size,
		}
	}

	metrics.UpdateStoreShardCount(cfg.shardCount)
	s.every(ctx, cfg.janitorInterval, func() { s.sweep() })
	s.every(ctx, cfg.metricsUpdateInterval, s.updateMetrics)

	return s
}

// every runs fn on a ticker until the store is closed or ctx is done.
func (s *MemoryStore) every(ctx context.Context, interval time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

func (s *MemoryStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// Create implements Store.Create.
func (s *MemoryStore) Create(_ context.Context, session model.Session) error {
	defer observe("create", time.Now())
	if s.closed.Load() {
		return ErrClosed
	}
	if session.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidSession)
	}

	now := s.cfg.now()
	sh := s.shardFor(session.ID)

	if s.cfg.maxSessions > 0 {
		s.capMu.Lock()
		defer s.capMu.Unlock()

		sh.mu.Lock()
		_, exists := sh.lookup(session.ID, now)
		sh.mu.Unlock()
		if exists {
			return fmt.Errorf("%w: %s", ErrExists, session.ID)
		}
		for s.size.Load() >= int64(s.cfg.maxSessions) {
			if !s.evictOldest(now) {
				break
			}
		}
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.lookup(session.ID, now); ok {
		return fmt.Errorf("%w: %s", ErrExists, session.ID)
	}

	e := &entry{session: session.Clone(), expires: now.Add(s.cfg.ttl), touched: s.clock.Add(1)}
	e.elem = sh.lru.PushFront(session.ID)
	sh.items[session.ID] = e
	s.size.Add(1)
	return nil
}

// evictOldest drops the least recently touched session across all shards.
// It reports false when the store is empty. Caller holds s.capMu.
func (s *MemoryStore) evictOldest(now time.Time) bool {
	var (
		victim *shard
		oldest uint64
	)
	for _, sh := range s.shards {
		sh.mu.RLock()
		if back := sh.lru.Back(); back != nil {
			e := sh.items[back.Value.(string)] //nolint:forcetypeassert // list holds only IDs
			if victim == nil || e.touched < oldest {
				victim, oldest = sh, e.touched
			}
		}
		sh.mu.RUnlock()
	}
	if victim == nil {
		return false
	}

	victim.mu.Lock()
	defer victim.mu.Unlock()
	back := victim.lru.Back()
	if back == nil {
		return true
	}
	id := back.Value.(string) //nolint:forcetypeassert // list holds only IDs
	e := victim.items[id]
	reason := EvictCapacity
	if !now.Before(e.expires) {
		reason = EvictExpired
	}
	victim.remove(id, e)
	metrics.RecordSessionEvicted(reason)
	return true
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Session, error) {
	defer observe("get", time.Now())
	if s.closed.Load() {
		return model.Session{}, ErrClosed
	}

	now := s.cfg.now()
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.lookup(id, now)
	if !ok {
		return model.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.expires = now.Add(s.cfg.ttl)
	e.touched = s.clock.Add(1)
	sh.lru.MoveToFront(e.elem)
	return e.session.Clone(), nil
}

// Save implements Store.Save.
func (s *MemoryStore) Save(_ context.Context, session model.Session) error {
	defer observe("save", time.Now())
	if s.closed.Load() {
		return ErrClosed
	}

	now := s.cfg.now()
	sh := s.shardFor(session.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.lookup(session.ID, now)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, session.ID)
	}
	e.session = session.Clone()
	e.expires = now.Add(s.cfg.ttl)
	e.touched = s.clock.Add(1)
	sh.lru.MoveToFront(e.elem)
	return nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	defer observe("delete", time.Now())
	if s.closed.Load() {
		return ErrClosed
	}

	now := s.cfg.now()
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.lookup(id, now)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	sh.remove(id, e)
	return nil
}

// Count implements Store.Count. Expired sessions not yet swept are excluded.
func (s *MemoryStore) Count(_ context.Context) int {
	now := s.cfg.now()
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.items {
			if now.Before(e.expires) {
				total++
			}
		}
		sh.mu.RUnlock()
	}
	return total
}

// sweep drops every expired session and returns how many were removed.
func (s *MemoryStore) sweep() int {
	now := s.cfg.now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, e := range sh.items {
			if !now.Before(e.expires) {
				sh.remove(id, e)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	for range removed {
		metrics.RecordSessionEvicted(EvictExpired)
	}
	return removed
}

func (s *MemoryStore) updateMetrics() {
	total := 0
	for i, sh := range s.shards {
		sh.mu.RLock()
		n := len(sh.items)
		sh.mu.RUnlock()
		metrics.UpdateStoreRecordsPerShard(strconv.Itoa(i), n)
		total += n
	}
	metrics.UpdateSessionsActive(total)
}

// Close stops background goroutines. Later calls return ErrClosed from every
// operation except Count and Close.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}
