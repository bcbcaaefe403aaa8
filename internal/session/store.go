package session

import (
	"encoding/base32"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ErrNotFound is returned for any operation addressing an unknown
// session ID.
var ErrNotFound = errors.New("session not found")

// Exchange is one completed question/answer turn.
type Exchange struct {
	Query       string
	Answer      string
	UsedContext bool
	Timestamp   time.Time
}

// Session holds a farmer's per-session conversational state. The
// conversation log is append-only; it is only windowed on read.
type Session struct {
	ID string

	mu      sync.Mutex
	profile map[string]string
	log     []Exchange
}

// Store is a process-lifetime keyed store of sessions. Sessions never
// expire by default, matching the source system's behavior; a positive
// TTL enables optional eviction of idle sessions.
type Store struct {
	sessions *cache.Cache
}

// NewStore creates a session store. ttl <= 0 means sessions live until
// process termination.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		return &Store{sessions: cache.New(cache.NoExpiration, 0)}
	}
	return &Store{sessions: cache.New(ttl, 10*time.Minute)}
}

// newSessionID returns an 8-character opaque token. Base32 over UUID
// bytes gives 40 bits of randomness in 8 characters.
func newSessionID() string {
	u := uuid.New()
	enc := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(u[:])
	return strings.ToLower(enc[:8])
}

// Create makes a new session, merging initialProfile if given, and
// returns it.
func (s *Store) Create(initialProfile map[string]string) *Session {
	sess := &Session{
		ID:      newSessionID(),
		profile: make(map[string]string),
	}
	for k, v := range initialProfile {
		sess.profile[k] = v
	}
	s.sessions.Set(sess.ID, sess, cache.DefaultExpiration)
	return sess
}

// Get returns the session for id, or ErrNotFound.
func (s *Store) Get(id string) (*Session, error) {
	if x, found := s.sessions.Get(id); found {
		return x.(*Session), nil
	}
	return nil, ErrNotFound
}

// UpdateProfile merges partial into the session's profile. Later
// writes with the same key replace earlier values; unspecified keys
// are preserved. Returns the updated profile.
func (s *Store) UpdateProfile(id string, partial map[string]string) (map[string]string, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	for k, v := range partial {
		sess.profile[k] = v
	}
	return copyProfile(sess.profile), nil
}

// Profile returns a copy of the session's profile.
func (s *Store) Profile(id string) (map[string]string, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return copyProfile(sess.profile), nil
}

// AppendExchange appends one completed turn with a server-assigned
// timestamp. The append is atomic with respect to the session's log.
func (s *Store) AppendExchange(id, query, answer string, usedContext bool) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.log = append(sess.log, Exchange{
		Query:       query,
		Answer:      answer,
		UsedContext: usedContext,
		Timestamp:   time.Now(),
	})
	// Refresh the TTL window on activity when eviction is enabled.
	s.sessions.Set(id, sess, cache.DefaultExpiration)
	return nil
}

// RecentExchanges returns the last limit exchanges in chronological
// order (oldest of the window first).
func (s *Store) RecentExchanges(id string, limit int) ([]Exchange, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if limit <= 0 || len(sess.log) == 0 {
		return nil, nil
	}
	start := len(sess.log) - limit
	if start < 0 {
		start = 0
	}
	window := make([]Exchange, len(sess.log)-start)
	copy(window, sess.log[start:])
	return window, nil
}

// Count returns the number of exchanges recorded for the session.
func (s *Store) Count(id string) (int, error) {
	sess, err := s.Get(id)
	if err != nil {
		return 0, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return len(sess.log), nil
}

// SummarizeTopics derives coarse topic labels from the last 3 queries.
func (s *Store) SummarizeTopics(id string) (string, error) {
	sess, err := s.Get(id)
	if err != nil {
		return "", err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return summarizeTopics(sess.log), nil
}

// Overview describes one active session for the debug listing.
type Overview struct {
	FarmerProfile     map[string]string `json:"farmer_context"`
	ConversationCount int               `json:"conversation_count"`
	TopicsDiscussed   string            `json:"topics_discussed"`
}

// Snapshot returns an overview of every live session, keyed by ID.
func (s *Store) Snapshot() map[string]Overview {
	items := s.sessions.Items()
	out := make(map[string]Overview, len(items))

	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		sess := items[id].Object.(*Session)
		sess.mu.Lock()
		out[id] = Overview{
			FarmerProfile:     copyProfile(sess.profile),
			ConversationCount: len(sess.log),
			TopicsDiscussed:   summarizeTopics(sess.log),
		}
		sess.mu.Unlock()
	}
	return out
}

// Len returns the number of live sessions.
func (s *Store) Len() int { return s.sessions.ItemCount() }

func copyProfile(p map[string]string) map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
