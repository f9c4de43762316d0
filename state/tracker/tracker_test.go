package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeenOn(t *testing.T) {
	tr := New()
	tr.MarkSeenOn("ev1", "wss://a.example")
	tr.MarkSeenOn("ev1", "wss://b.example")
	tr.MarkSeenOn("ev1", "wss://a.example")

	assert.ElementsMatch(t, []string{"wss://a.example", "wss://b.example"}, tr.SeenOn("ev1"))
	assert.Empty(t, tr.SeenOn("ev2"))
}

func TestSent(t *testing.T) {
	tr := New()
	assert.False(t, tr.WasSent("ev1"))
	tr.MarkSent("ev1")
	assert.True(t, tr.WasSent("ev1"))
}

func TestResendQueueDrains(t *testing.T) {
	tr := New()
	tr.QueueResend("ev1", "wss://a.example")
	tr.QueueResend("ev2", "wss://b.example")
	assert.Equal(t, 2, tr.PendingResends())

	drained := tr.TakeResends()
	assert.Equal(t, map[string]string{
		"ev1": "wss://a.example",
		"ev2": "wss://b.example",
	}, map[string]string(drained))
	assert.Zero(t, tr.PendingResends())
	assert.Empty(t, tr.TakeResends())
}
