package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAssignsOpaqueID(t *testing.T) {
	s := NewStore(0)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		sess := s.Create(nil)
		assert.Len(t, sess.ID, 8)
		assert.False(t, seen[sess.ID])
		seen[sess.ID] = true
	}
	assert.Equal(t, 200, s.Len())
}

func TestGetUnknownSession(t *testing.T) {
	s := NewStore(0)
	_, err := s.Get("missing1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateMergesInitialProfile(t *testing.T) {
	s := NewStore(0)
	sess := s.Create(map[string]string{"name": "Ravi", "location": "Punjab"})

	profile, err := s.Profile(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", profile["name"])
	assert.Equal(t, "Punjab", profile["location"])
}

func TestUpdateProfileMergeOverwrite(t *testing.T) {
	s := NewStore(0)
	sess := s.Create(map[string]string{"a": "x"})

	profile, err := s.UpdateProfile(sess.ID, map[string]string{"b": "y"})
	require.NoError(t, err)
	assert.Equal(t, "x", profile["a"], "unspecified keys are preserved")
	assert.Equal(t, "y", profile["b"])

	profile, err = s.UpdateProfile(sess.ID, map[string]string{"a": "z"})
	require.NoError(t, err)
	assert.Equal(t, "z", profile["a"], "later writes replace earlier values")
	assert.Equal(t, "y", profile["b"])
}

func TestUpdateProfileIdempotent(t *testing.T) {
	s := NewStore(0)
	sess := s.Create(nil)

	update := map[string]string{"crops": "wheat", "farm_size": "2 acres"}
	first, err := s.UpdateProfile(sess.ID, update)
	require.NoError(t, err)
	second, err := s.UpdateProfile(sess.ID, update)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProfileReturnsCopy(t *testing.T) {
	s := NewStore(0)
	sess := s.Create(map[string]string{"name": "Ravi"})

	profile, err := s.Profile(sess.ID)
	require.NoError(t, err)
	profile["name"] = "mutated"

	fresh, err := s.Profile(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", fresh["name"])
}

func TestAppendExchangeIsAppendOnly(t *testing.T) {
	s := NewStore(0)
	sess := s.Create(nil)

	const n = 7
	for i := 0; i < n; i++ {
		require.NoError(t, s.AppendExchange(sess.ID, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), i%2 == 0))
	}

	count, err := s.Count(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, n, count)

	window, err := s.RecentExchanges(sess.ID, 3)
	require.NoError(t, err)
	require.Len(t, window, 3)
	assert.Equal(t, "q4", window[0].Query, "window is chronological, oldest first")
	assert.Equal(t, "q6", window[2].Query)
	assert.False(t, window[0].Timestamp.IsZero())
}

func TestRecentExchangesWindowLargerThanLog(t *testing.T) {
	s := NewStore(0)
	sess := s.Create(nil)
	require.NoError(t, s.AppendExchange(sess.ID, "q0", "a0", false))

	window, err := s.RecentExchanges(sess.ID, 10)
	require.NoError(t, err)
	assert.Len(t, window, 1)

	empty, err := s.RecentExchanges(s.Create(nil).ID, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAppendExchangeUnknownSession(t *testing.T) {
	s := NewStore(0)
	assert.ErrorIs(t, s.AppendExchange("missing1", "q", "a", false), ErrNotFound)
}

func TestSessionIsolation(t *testing.T) {
	s := NewStore(0)
	a := s.Create(map[string]string{"name": "A"})
	b := s.Create(map[string]string{"name": "B"})

	require.NoError(t, s.AppendExchange(a.ID, "qa", "aa", true))
	_, err := s.UpdateProfile(a.ID, map[string]string{"crops": "wheat"})
	require.NoError(t, err)

	countB, err := s.Count(b.ID)
	require.NoError(t, err)
	assert.Zero(t, countB)

	profileB, err := s.Profile(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", profileB["name"])
	assert.NotContains(t, profileB, "crops")
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	s := NewStore(0)
	sess := s.Create(nil)

	const writers = 10
	const perWriter = 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = s.AppendExchange(sess.ID, fmt.Sprintf("q-%d-%d", w, i), "a", false)
			}
		}(w)
	}
	wg.Wait()

	count, err := s.Count(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, writers*perWriter, count)
}

func TestTTLEvictionIsOptIn(t *testing.T) {
	s := NewStore(30 * time.Millisecond)
	sess := s.Create(nil)

	_, err := s.Get(sess.ID)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	_, err = s.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNoExpiryByDefault(t *testing.T) {
	s := NewStore(0)
	sess := s.Create(nil)

	time.Sleep(20 * time.Millisecond)
	_, err := s.Get(sess.ID)
	assert.NoError(t, err)
}
