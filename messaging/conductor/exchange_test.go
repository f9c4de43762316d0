package conductor

import (
	"context"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"coop/engine/actors"
	"coop/messaging/relays"
	"coop/state/signals"
)

// responseEvent builds a kind 4455 key response the way another device of
// the same identity would: shared secret encrypted between the two device
// keys, event signed by the identity.
func responseEvent(t *testing.T, identity actors.Signer, responder, requester *actors.KeySigner, sharedSecret string) nostr.Event {
	t.Helper()
	ciphertext, err := responder.Encrypt(requester.PublicKey(), sharedSecret)
	require.NoError(t, err)
	event := nostr.Event{
		Kind:      actors.KindKeyResponse,
		CreatedAt: nostr.Now(),
		Content:   ciphertext,
		Tags: nostr.Tags{
			{"P", responder.PublicKey()},
			{"p", requester.PublicKey()},
		},
	}
	require.NoError(t, identity.SignEvent(&event))
	return event
}

func TestRequestShortCircuitsOnCachedResponse(t *testing.T) {
	peer := newFakePeer("wss://a.example")
	e := newTestEngine(peer)
	identity := actors.GenerateKeySigner()
	e.SetSigner(identity)
	requester := actors.GenerateKeySigner()
	e.Devices().SetDevice(requester)
	responder := actors.GenerateKeySigner()
	shared := actors.GenerateKeySigner()

	require.NoError(t, e.store.SaveEvent(responseEvent(t, identity, responder, requester, shared.SecretKey())))

	cached, err := e.RequestEncryptionKeys(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)

	installed, ok := e.Devices().Encryption()
	require.True(t, ok)
	assert.Equal(t, shared.PublicKey(), installed.PublicKey())

	secret, err := e.GetKeys("encryption")
	require.NoError(t, err)
	assert.Equal(t, shared.SecretKey(), secret)

	time.Sleep(100 * time.Millisecond)
	for _, event := range peer.publishedEvents() {
		assert.NotEqual(t, actors.KindKeyRequest, event.Kind, "no request should go out when a cached response exists")
	}
}

func TestRequestResponseScenario(t *testing.T) {
	peer := newFakePeer("wss://a.example")
	e := newTestEngine(peer)
	identity := actors.GenerateKeySigner()
	e.SetSigner(identity)
	requester := actors.GenerateKeySigner()
	e.Devices().SetDevice(requester)

	cached, err := e.RequestEncryptionKeys(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)

	require.Eventually(t, func() bool {
		for _, event := range peer.publishedEvents() {
			if event.Kind == actors.KindKeyRequest {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	var request nostr.Event
	for _, event := range peer.publishedEvents() {
		if event.Kind == actors.KindKeyRequest {
			request = event
		}
	}
	assert.Equal(t, identity.PublicKey(), request.PubKey)
	deviceKey := request.Tags.GetFirst([]string{"pubkey"})
	require.NotNil(t, deviceKey)
	assert.Equal(t, requester.PublicKey(), deviceKey.Value())

	// A second device answers.
	responder := actors.GenerateKeySigner()
	shared := actors.GenerateKeySigner()
	response := responseEvent(t, identity, responder, requester, shared.SecretKey())
	e.dispatch(relays.EventNotification{Relay: "wss://a.example", SubID: "exchange-test", Event: response})

	collected := collectSignals(e.Signals(), 100*time.Millisecond)
	require.Equal(t, 1, countSignals[signals.EncryptionResponse](collected))
	var parsed signals.Response
	for _, s := range collected {
		if r, ok := s.(signals.EncryptionResponse); ok {
			parsed = r.Response
		}
	}
	assert.Equal(t, responder.PublicKey(), parsed.PublicKey)

	require.NoError(t, e.ReceiveEncryptionKeys(parsed))
	installed, ok := e.Devices().Encryption()
	require.True(t, ok)
	assert.Equal(t, shared.PublicKey(), installed.PublicKey())

	// The inbox must now watch both the identity key and the shared key.
	inbox, ok := peer.lastSub(actors.InboxSubscription)
	require.True(t, ok)
	require.Len(t, inbox.filters, 1)
	assert.Contains(t, inbox.filters[0].Tags["p"], identity.PublicKey())
	assert.Contains(t, inbox.filters[0].Tags["p"], shared.PublicKey())
}

func TestInitEncryptionKeysAnnouncesAndResubscribes(t *testing.T) {
	peer := newFakePeer("wss://a.example")
	e := newTestEngine(peer)
	identity := actors.GenerateKeySigner()
	e.SetSigner(identity)

	require.NoError(t, e.InitEncryptionKeys(context.Background()))

	installed, ok := e.Devices().Encryption()
	require.True(t, ok)

	require.Eventually(t, func() bool {
		for _, event := range peer.publishedEvents() {
			if event.Kind == actors.KindAnnouncement {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	var announcement nostr.Event
	for _, event := range peer.publishedEvents() {
		if event.Kind == actors.KindAnnouncement {
			announcement = event
		}
	}
	keyTag := announcement.Tags.GetFirst([]string{"n"})
	require.NotNil(t, keyTag)
	assert.Equal(t, installed.PublicKey(), keyTag.Value())

	inbox, ok := peer.lastSub(actors.InboxSubscription)
	require.True(t, ok)
	assert.Contains(t, inbox.filters[0].Tags["p"], installed.PublicKey())
}

func TestLoadEncryptionKeysVerifiesAnnouncement(t *testing.T) {
	e := newTestEngine()
	identity := actors.GenerateKeySigner()
	e.SetSigner(identity)
	shared := actors.GenerateKeySigner()
	require.NoError(t, e.SetKeys("encryption", shared.SecretKey()))

	// Announcement naming a different key means the cached secret is stale.
	loaded, err := e.LoadEncryptionKeys(signals.Announcement{
		PublicKey: actors.GenerateKeySigner().PublicKey(),
	})
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.False(t, e.Devices().HasEncryption())

	loaded, err = e.LoadEncryptionKeys(signals.Announcement{PublicKey: shared.PublicKey()})
	require.NoError(t, err)
	assert.True(t, loaded)
	installed, ok := e.Devices().Encryption()
	require.True(t, ok)
	assert.Equal(t, shared.PublicKey(), installed.PublicKey())
}

func TestResponseEncryptionKeysTargetsReadRelays(t *testing.T) {
	readPeer := newFakePeer("wss://read.example")
	writePeer := newFakePeer("wss://write.example")
	e := newTestEngine(readPeer, writePeer)
	identity := actors.GenerateKeySigner()
	e.SetSigner(identity)
	responder := actors.GenerateKeySigner()
	e.Devices().SetDevice(responder)
	shared := actors.GenerateKeySigner()
	require.NoError(t, e.SetKeys("encryption", shared.SecretKey()))

	relayList := signedEvent(t, identity, actors.KindRelayList, "", nostr.Tags{
		{"r", "wss://read.example", "read"},
		{"r", "wss://write.example", "write"},
	})
	e.Gossip().InsertRelays(relayList)

	requester := actors.GenerateKeySigner()
	require.NoError(t, e.ResponseEncryptionKeys(context.Background(), requester.PublicKey()))

	require.Eventually(t, func() bool {
		return len(readPeer.publishedEvents()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, writePeer.publishedEvents())

	response := readPeer.publishedEvents()[0]
	assert.Equal(t, actors.KindKeyResponse, response.Kind)
	assert.Equal(t, identity.PublicKey(), response.PubKey)

	// The requester can recover the shared secret from the wire event.
	parsed, err := ParseResponse(response)
	require.NoError(t, err)
	secret, err := requester.Decrypt(parsed.PublicKey, parsed.Payload)
	require.NoError(t, err)
	assert.Equal(t, shared.SecretKey(), secret)
}

func TestResponseEncryptionKeysRequiresReadRelays(t *testing.T) {
	peer := newFakePeer("wss://a.example")
	e := newTestEngine(peer)
	identity := actors.GenerateKeySigner()
	e.SetSigner(identity)
	e.Devices().SetDevice(actors.GenerateKeySigner())
	require.NoError(t, e.SetKeys("encryption", actors.GenerateKeySigner().SecretKey()))

	// No relay list is cached for this identity, so the response has no
	// read-capable destination and must not be broadcast.
	err := e.ResponseEncryptionKeys(context.Background(), actors.GenerateKeySigner().PublicKey())
	require.Error(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, peer.publishedEvents())
}

func TestSecretStoreRoundtrip(t *testing.T) {
	e := newTestEngine()
	identity := actors.GenerateKeySigner()
	e.SetSigner(identity)

	require.NoError(t, e.SetKeys("seed", "correct horse battery staple"))

	secret, err := e.GetKeys("seed")
	require.NoError(t, err)
	assert.Equal(t, "correct horse battery staple", secret)

	// The stored event must not reveal the secret or the identity.
	events, err := e.store.QueryEvents(nostr.Filter{
		Kinds: []int{actors.KindAppData},
		Tags:  nostr.TagMap{"d": []string{actors.SecretIdentifier("seed")}},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotContains(t, events[0].Content, "correct horse")
	assert.NotEqual(t, identity.PublicKey(), events[0].PubKey)

	missing, err := e.GetKeys("never-stored")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestParseAnnouncementAndResponseRejectMalformed(t *testing.T) {
	identity := actors.GenerateKeySigner()

	noKey := signedEvent(t, identity, actors.KindAnnouncement, "", nostr.Tags{{"client", "Coop"}})
	_, err := ParseAnnouncement(noKey)
	assert.Error(t, err)

	shortKey := signedEvent(t, identity, actors.KindAnnouncement, "", nostr.Tags{{"n", "deadbeef"}})
	_, err = ParseAnnouncement(shortKey)
	assert.Error(t, err)

	request := signedEvent(t, identity, actors.KindKeyRequest, "", nostr.Tags{
		{"pubkey", identity.PublicKey()},
		{"client", "Coop"},
	})
	parsed, err := ParseAnnouncement(request)
	require.NoError(t, err)
	assert.Equal(t, identity.PublicKey(), parsed.PublicKey)
	assert.Equal(t, "Coop", parsed.Client)

	noPayload := signedEvent(t, identity, actors.KindKeyResponse, "", nostr.Tags{{"P", identity.PublicKey()}})
	_, err = ParseResponse(noPayload)
	assert.Error(t, err)
}
