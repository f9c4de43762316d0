package conductor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"
	"coop/engine/actors"
	"coop/engine/library"
	"coop/state/signals"
)

// ParseAnnouncement extracts the encryption key claim from an announcement
// or key request event.
func ParseAnnouncement(e nostr.Event) (*signals.Announcement, error) {
	publicKey, ok := library.GetFirstTag(e, "n")
	if !ok {
		publicKey, ok = library.GetFirstTag(e, "pubkey")
	}
	if !ok || len(publicKey) != 64 {
		return nil, fmt.Errorf("event %s carries no encryption public key", e.ID)
	}
	client, _ := library.GetFirstTag(e, "client")
	return &signals.Announcement{
		ID:        e.ID,
		Client:    client,
		PublicKey: publicKey,
	}, nil
}

// ParseResponse extracts the encrypted payload and the responder's device
// key from a key response event.
func ParseResponse(e nostr.Event) (*signals.Response, error) {
	responder, ok := library.GetFirstTag(e, "P")
	if !ok || len(responder) != 64 {
		return nil, fmt.Errorf("event %s carries no responder device key", e.ID)
	}
	if e.Content == "" {
		return nil, fmt.Errorf("event %s carries no payload", e.ID)
	}
	return &signals.Response{
		Payload:   e.Content,
		PublicKey: responder,
	}, nil
}

// RequestEncryptionKeys asks the identity's other devices for the shared
// encryption key. A response that already sits in the local store, arrived
// before this device subscribed for it, is consumed without any network
// round trip; the first return reports that short circuit.
func (e *Engine) RequestEncryptionKeys(ctx context.Context) (bool, error) {
	signer, ok := e.Signer()
	if !ok {
		return false, errors.New("no signer available")
	}
	dev, ok := e.devices.Device()
	if !ok {
		return false, errors.New("device keys not initialized")
	}

	pending := nostr.Filter{
		Authors: []string{signer.PublicKey()},
		Kinds:   []int{actors.KindKeyResponse},
		Tags:    nostr.TagMap{"p": []string{dev.PublicKey()}},
		Limit:   1,
	}
	cached, err := e.store.QueryEvents(pending)
	if err == nil && len(cached) > 0 {
		if response, err := ParseResponse(cached[0]); err == nil {
			if err := e.ReceiveEncryptionKeys(*response); err == nil {
				return true, nil
			}
		}
	}

	conf := actors.MakeOrGetConfig()
	request := nostr.Event{
		Kind:      actors.KindKeyRequest,
		CreatedAt: nostr.Now(),
		Tags: nostr.Tags{
			{"pubkey", dev.PublicKey()},
			{"client", conf.GetString("appName")},
		},
	}
	if err := signer.SignEvent(&request); err != nil {
		return false, err
	}

	since := nostr.Now()
	responses := nostr.Filter{
		Authors: []string{signer.PublicKey()},
		Kinds:   []int{actors.KindKeyResponse},
		Tags:    nostr.TagMap{"p": []string{dev.PublicKey()}},
		Since:   &since,
	}
	id := "exchange-" + uuid.NewString()
	if err := e.pool.Subscribe(ctx, id, nostr.Filters{responses}); err != nil {
		library.LogCLI(err.Error(), 2)
	}
	e.pool.Publish(ctx, request)
	library.LogCLI("encryption key request published, waiting for approval", 4)
	return false, nil
}

// ResponseEncryptionKeys answers another device's key request after the
// local user approved it. The shared secret is encrypted to the requester's
// device key and the response goes to this identity's read relays only.
func (e *Engine) ResponseEncryptionKeys(ctx context.Context, requester library.Account) error {
	signer, ok := e.Signer()
	if !ok {
		return errors.New("no signer available")
	}
	dev, ok := e.devices.Device()
	if !ok {
		return errors.New("device keys not initialized")
	}
	secret, err := e.GetKeys("encryption")
	if err != nil {
		return err
	}
	if secret == "" {
		return errors.New("no encryption key to share")
	}
	urls := e.gossip.ReadRelays(signer.PublicKey())
	if len(urls) == 0 {
		// Publishing to all peers would leak the response beyond the
		// identity's own read relays.
		return errors.New("no read relays known for this identity")
	}
	ciphertext, err := dev.Encrypt(requester, secret)
	if err != nil {
		return err
	}
	response := nostr.Event{
		Kind:      actors.KindKeyResponse,
		CreatedAt: nostr.Now(),
		Content:   ciphertext,
		Tags: nostr.Tags{
			{"P", dev.PublicKey()},
			{"p", requester},
		},
	}
	if err := signer.SignEvent(&response); err != nil {
		return err
	}
	if err := e.store.SaveEvent(response); err != nil {
		library.LogCLI(err.Error(), 2)
	}
	e.pool.Publish(ctx, response, urls...)
	return nil
}

// ReceiveEncryptionKeys decrypts a key response with the device key pair,
// installs the shared key, and rebuilds the inbox subscription so messages
// addressed to the new key are watched.
func (e *Engine) ReceiveEncryptionKeys(response signals.Response) error {
	dev, ok := e.devices.Device()
	if !ok {
		return errors.New("device keys not initialized")
	}
	secret, err := dev.Decrypt(response.PublicKey, response.Payload)
	if err != nil {
		return err
	}
	shared, err := actors.NewKeySigner(secret)
	if err != nil {
		return err
	}
	if err := e.SetKeys("encryption", secret); err != nil {
		library.LogCLI(err.Error(), 2)
	}
	e.devices.SetEncryption(shared)
	e.ResubscribeMessages()
	return nil
}

// InitEncryptionKeys generates the shared key on the first device of an
// identity, persists it, and announces it network-wide.
func (e *Engine) InitEncryptionKeys(ctx context.Context) error {
	signer, ok := e.Signer()
	if !ok {
		return errors.New("no signer available")
	}
	shared := actors.GenerateKeySigner()
	if err := e.SetKeys("encryption", shared.SecretKey()); err != nil {
		return err
	}
	e.devices.SetEncryption(shared)

	conf := actors.MakeOrGetConfig()
	announcement := nostr.Event{
		Kind:      actors.KindAnnouncement,
		CreatedAt: nostr.Now(),
		Tags: nostr.Tags{
			{"n", shared.PublicKey()},
			{"client", conf.GetString("appName")},
		},
	}
	if err := signer.SignEvent(&announcement); err != nil {
		return err
	}
	if err := e.store.SaveEvent(announcement); err != nil {
		library.LogCLI(err.Error(), 2)
	}
	e.pool.Publish(ctx, announcement)
	e.ResubscribeMessages()
	return nil
}

// LoadEncryptionKeys trusts a locally cached shared key only when it still
// matches the authoritative announcement. A mismatch is treated as not
// found, forcing a fresh request.
func (e *Engine) LoadEncryptionKeys(announcement signals.Announcement) (bool, error) {
	secret, err := e.GetKeys("encryption")
	if err != nil {
		return false, err
	}
	if secret == "" {
		return false, nil
	}
	shared, err := actors.NewKeySigner(secret)
	if err != nil {
		return false, err
	}
	if shared.PublicKey() != announcement.PublicKey {
		library.LogCLI("cached encryption key does not match announcement", 2)
		return false, nil
	}
	e.devices.SetEncryption(shared)
	e.ResubscribeMessages()
	return true, nil
}
