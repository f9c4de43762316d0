package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSha256Sum(t *testing.T) {
	assert.Equal(t, Sha256("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"), Sha256Sum("abc"))
	assert.Equal(t, Sha256Sum("abc"), Sha256Sum([]byte("abc")))
}

func TestConversationIDIsStableAcrossPermutations(t *testing.T) {
	a := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	b := "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	c := "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc"

	assert.Equal(t, ConversationID(a, b, c), ConversationID(a, c, b))
	assert.Equal(t, ConversationID(a, b), ConversationID(b, a))
	assert.Equal(t, ConversationID(c, a, b), ConversationID(b, c, a))
}

func TestConversationIDDeduplicatesParticipants(t *testing.T) {
	a := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	b := "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	// The author tagging themselves changes nothing.
	assert.Equal(t, ConversationID(a, b), ConversationID(a, a, b, b))
}

func TestConversationIDDistinguishesThreads(t *testing.T) {
	a := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	b := "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	c := "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc"

	assert.NotEqual(t, ConversationID(a, b), ConversationID(a, c))
	assert.NotEqual(t, ConversationID(a, b), ConversationID(a, b, c))
}
