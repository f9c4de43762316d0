package store

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedEvent(id string, kind int, author string, createdAt nostr.Timestamp, tags nostr.Tags) nostr.Event {
	return nostr.Event{
		ID:        id,
		Kind:      kind,
		PubKey:    author,
		CreatedAt: createdAt,
		Tags:      tags,
	}
}

func TestSaveIsIdempotentByID(t *testing.T) {
	s := NewMemoryStore()
	e := storedEvent("id1", 1, strings.Repeat("a", 64), 100, nil)
	require.NoError(t, s.SaveEvent(e))
	require.NoError(t, s.SaveEvent(e))

	count, err := s.CountEvents(nostr.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestQueryFiltersByKindAuthorAndTag(t *testing.T) {
	s := NewMemoryStore()
	alice := strings.Repeat("a", 64)
	bob := strings.Repeat("b", 64)
	require.NoError(t, s.SaveEvent(storedEvent("id1", 30078, alice, 100, nostr.Tags{{"d", "coop:device"}})))
	require.NoError(t, s.SaveEvent(storedEvent("id2", 30078, alice, 200, nostr.Tags{{"d", "envelope1"}})))
	require.NoError(t, s.SaveEvent(storedEvent("id3", 10002, bob, 300, nil)))

	got, err := s.QueryEvents(nostr.Filter{
		Kinds: []int{30078},
		Tags:  nostr.TagMap{"d": []string{"coop:device"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "id1", got[0].ID)

	got, err = s.QueryEvents(nostr.Filter{Authors: []string{bob}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "id3", got[0].ID)
}

func TestQueryOrdersNewestFirstAndAppliesLimit(t *testing.T) {
	s := NewMemoryStore()
	author := strings.Repeat("a", 64)
	for i := 1; i <= 5; i++ {
		e := storedEvent(fmt.Sprintf("id%d", i), 1, author, nostr.Timestamp(i*100), nil)
		require.NoError(t, s.SaveEvent(e))
	}

	got, err := s.QueryEvents(nostr.Filter{Kinds: []int{1}, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "id5", got[0].ID)
	assert.Equal(t, "id4", got[1].ID)

	// Count ignores the limit.
	count, err := s.CountEvents(nostr.Filter{Kinds: []int{1}, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}
