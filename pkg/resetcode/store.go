package resetcode

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Entry is a single outstanding reset code, keyed by email. Expired or used
// entries are inert and must be treated as absent.
type Entry struct {
	Code      string
	UserID    int64
	Used      bool
	ExpiresAt time.Time
}

// Store holds time-boxed, single-use reset codes. One entry per email: a new
// Put overwrites the previous entry entirely, so only the latest issued code
// is valid. Not durable by design — codes are short-lived and re-issuable, a
// process restart silently invalidates all outstanding reset flows.
type Store interface {
	Put(email, code string, ttl time.Duration, userID int64)
	Get(email string) (Entry, bool)
	MarkUsed(email string)
	Invalidate(email string)
}

// TTLStore implements Store using an in-process TTL cache with lazy expiry:
// a lookup past an entry's deadline reports the entry as absent.
type TTLStore struct {
	cache *ttlcache.Cache[string, *Entry]
	mu    sync.Mutex
}

// NewTTLStore creates a new in-memory reset-code store with automatic cleanup.
func NewTTLStore() *TTLStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, *Entry](),
	)

	// Background janitor; lazy expiry on Get works without it, this just
	// bounds memory between lookups.
	go cache.Start()

	return &TTLStore{cache: cache}
}

// Put stores a new code for email, replacing any previous entry.
func (s *TTLStore) Put(email, code string, ttl time.Duration, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &Entry{
		Code:      code,
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	s.cache.Set(email, entry, ttl)
}

// Get returns the entry for email. Expired entries are treated as absent.
func (s *TTLStore) Get(email string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.cache.Get(email)
	if item == nil {
		return Entry{}, false
	}
	return *item.Value(), true
}

// MarkUsed flags the entry for email as consumed. The entry is kept until its
// TTL elapses so replays fail instead of looking like an unknown code.
func (s *TTLStore) MarkUsed(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.cache.Get(email)
	if item == nil {
		return
	}
	item.Value().Used = true
}

// Invalidate removes the entry for email.
func (s *TTLStore) Invalidate(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(email)
}

// Stop halts the background cleanup goroutine.
func (s *TTLStore) Stop() {
	s.cache.Stop()
}
