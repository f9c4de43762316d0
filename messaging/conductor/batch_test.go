package conductor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"coop/engine/actors"
	"coop/engine/library"
)

func TestBatchingFlushesOnLimitAndTimeout(t *testing.T) {
	peer := newFakePeer("wss://a.example")
	e := newTestEngine(peer)
	actors.GetWaitGroup().Add(1)
	go e.HandleMetadataBatching()

	var accounts []library.Account
	for i := 0; i < 7; i++ {
		accounts = append(accounts, actors.GenerateKeySigner().PublicKey())
	}
	for _, account := range accounts {
		e.ingest.Send(account)
	}

	// batchLimit is 3, so 7 keys flush as 3 + 3 on the limit and the final 1
	// on the batch timeout.
	require.Eventually(t, func() bool {
		return len(metadataSubs(peer)) == 3
	}, time.Second, 10*time.Millisecond)

	var all []library.Account
	for _, sub := range metadataSubs(peer) {
		require.Len(t, sub.filters, 1)
		assert.LessOrEqual(t, len(sub.filters[0].Authors), 3)
		all = append(all, sub.filters[0].Authors...)
	}
	assert.ElementsMatch(t, accounts, all, "every key batched exactly once")

	// A key already batched this session is never re-batched.
	e.ingest.Send(accounts[0])
	time.Sleep(150 * time.Millisecond)
	assert.Len(t, metadataSubs(peer), 3)
}

func TestBatchingFlushesRemainderOnClose(t *testing.T) {
	peer := newFakePeer("wss://a.example")
	e := newTestEngine(peer)
	actors.GetWaitGroup().Add(1)
	go e.HandleMetadataBatching()

	e.ingest.Send(actors.GenerateKeySigner().PublicKey())
	e.ingest.Send(actors.GenerateKeySigner().PublicKey())
	e.ingest.Close()

	require.Eventually(t, func() bool {
		subs := metadataSubs(peer)
		return len(subs) == 1 && len(subs[0].filters[0].Authors) == 2
	}, time.Second, 10*time.Millisecond)
}

func metadataSubs(peer *fakePeer) []capturedSub {
	var out []capturedSub
	for _, sub := range peer.subscriptions() {
		if len(sub.id) > 9 && sub.id[:9] == "metadata-" {
			out = append(out, sub)
		}
	}
	return out
}
