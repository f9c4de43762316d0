package relays

import (
	"context"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPeer struct {
	mu        deadlock.Mutex
	url       string
	subs      []string
	published []nostr.Event
	accepted  bool
	reason    string
}

func (p *stubPeer) URL() string { return p.url }

func (p *stubPeer) Subscribe(_ context.Context, id string, _ nostr.Filters) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, id)
	return nil
}

func (p *stubPeer) Unsubscribe(string) {}

func (p *stubPeer) Publish(_ context.Context, event nostr.Event) (bool, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	return p.accepted, p.reason
}

func (p *stubPeer) Close() error { return nil }

func (p *stubPeer) subIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.subs))
	copy(out, p.subs)
	return out
}

func TestSubscribeTargetsNamedPeersOnly(t *testing.T) {
	pool := NewPool()
	a := &stubPeer{url: "wss://a.example", accepted: true}
	b := &stubPeer{url: "wss://b.example", accepted: true}
	pool.AddPeer(a)
	pool.AddPeer(b)

	require.NoError(t, pool.Subscribe(context.Background(), "only-a", nostr.Filters{{}}, "wss://a.example"))
	assert.Equal(t, []string{"only-a"}, a.subIDs())
	assert.Empty(t, b.subIDs())

	require.NoError(t, pool.Subscribe(context.Background(), "everyone", nostr.Filters{{}}))
	assert.Contains(t, a.subIDs(), "everyone")
	assert.Contains(t, b.subIDs(), "everyone")
}

func TestConnectIsIdempotentForKnownPeers(t *testing.T) {
	pool := NewPool()
	pool.AddPeer(&stubPeer{url: "wss://known.example", accepted: true})

	// A url the pool already holds returns without dialing anything.
	require.NoError(t, pool.Connect(context.Background(), "wss://known.example"))
	assert.Equal(t, []string{"wss://known.example"}, pool.Peers())
}

func TestPublishReportsAcknowledgments(t *testing.T) {
	pool := NewPool()
	ok := &stubPeer{url: "wss://ok.example", accepted: true}
	needsAuth := &stubPeer{url: "wss://auth.example", reason: "auth-required: nope"}
	pool.AddPeer(ok)
	pool.AddPeer(needsAuth)

	event := nostr.Event{ID: "ev1", Kind: 1}
	pool.Publish(context.Background(), event)

	acks := make(map[string]OKNotification)
	deadline := time.After(time.Second)
	for len(acks) < 2 {
		select {
		case n := <-pool.Notifications():
			if ack, isOK := n.(OKNotification); isOK {
				acks[ack.Relay] = ack
			}
		case <-deadline:
			t.Fatal("did not receive both acknowledgments")
		}
	}

	assert.True(t, acks["wss://ok.example"].Accepted)
	assert.False(t, acks["wss://auth.example"].Accepted)
	assert.Equal(t, PrefixAuthRequired, ParsePrefix(acks["wss://auth.example"].Reason))
	assert.Equal(t, "ev1", acks["wss://ok.example"].EventID)
}
