package grid

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"

	"go.uber.org/zap"
)

// Session caches the last fetched row set of one (user, view).
//
// Every fetch takes a generation from Begin and hands its result to Commit.
// Commit keeps the result only when its generation is newer than the one
// already stored, so a slow fetch can never overwrite a fresher one.
type Session struct {
	mu        sync.Mutex
	next      uint64
	committed uint64
	rows      []domain.JoinedRow
	fetchedAt time.Time
	lastUsed  time.Time
}

func newSession(now time.Time) *Session {
	return &Session{lastUsed: now}
}

// Begin returns the generation of a new fetch.
func (s *Session) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.lastUsed = time.Now()
	return s.next
}

// Commit stores rows fetched under gen and reports whether they were kept.
func (s *Session) Commit(gen uint64, rows []domain.JoinedRow) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen <= s.committed {
		return false
	}
	s.committed = gen
	s.rows = rows
	s.fetchedAt = time.Now()
	s.lastUsed = s.fetchedAt
	return true
}

// Rows returns the committed rows and whether any fetch has been committed.
func (s *Session) Rows() ([]domain.JoinedRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	return s.rows, s.committed > 0
}

// Generation is the generation of the committed rows, 0 before the first commit.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

// FetchedAt is when the committed rows were stored.
func (s *Session) FetchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchedAt
}

// replaceFact swaps in f for the committed row with the same id. The row
// slice is copied so callers holding the previous slice are unaffected.
func (s *Session) replaceFact(f domain.FactRow) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].Fact.ID != f.ID {
			continue
		}
		rows := make([]domain.JoinedRow, len(s.rows))
		copy(rows, s.rows)
		rows[i].Fact = f
		s.rows = rows
		return true
	}
	return false
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// SessionStore 会话缓存（按 user + view）
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	logger   *zap.Logger
}

// NewSessionStore creates a store whose sessions expire after idle without use.
// An idle of zero keeps sessions forever.
func NewSessionStore(idle time.Duration, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{sessions: map[string]*Session{}, idle: idle, logger: logger}
}

// SessionKey builds the store key of a user's view.
func SessionKey(userID, view string) string {
	if view == "" {
		view = "default"
	}
	return userID + "|" + view
}

// Get returns the session for key, creating it when needed.
func (st *SessionStore) Get(key string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[key]
	if !ok {
		s = newSession(time.Now())
		st.sessions[key] = s
	}
	return s
}

// Drop removes every session of userID, e.g. after their grants change.
func (st *SessionStore) Drop(userID string) {
	prefix := userID + "|"
	st.mu.Lock()
	defer st.mu.Unlock()
	for k := range st.sessions {
		if strings.HasPrefix(k, prefix) {
			delete(st.sessions, k)
		}
	}
}

// UpdateFact refreshes a written fact in every session that holds it and
// returns how many sessions changed.
func (st *SessionStore) UpdateFact(f domain.FactRow) int {
	st.mu.Lock()
	sessions := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	st.mu.Unlock()

	n := 0
	for _, s := range sessions {
		if s.replaceFact(f) {
			n++
		}
	}
	return n
}

// Len reports the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Evict removes sessions idle since before now-idle and returns how many went.
func (st *SessionStore) Evict(now time.Time) int {
	if st.idle <= 0 {
		return 0
	}
	cutoff := now.Add(-st.idle)
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for k, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, k)
			n++
		}
	}
	return n
}

// Run evicts idle sessions every interval until ctx is done.
func (st *SessionStore) Run(ctx context.Context, interval time.Duration) {
	if st.idle <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := st.Evict(now); n > 0 {
				st.logger.Debug("Evicted idle grid sessions", zap.Int("count", n))
			}
		}
	}
}
