package conductor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"coop/engine/actors"
	"coop/engine/library"
	"coop/state/signals"
)

// ingestGiftWrap turns an encrypted envelope into a cached rumor. Re-delivery
// is common, so a rumor cache hit skips the expensive unwrap, but the cached
// rumor is still classified: a later session replaying stored envelopes must
// refeed the ingester and the backlog flag.
func (e *Engine) ingestGiftWrap(envelope nostr.Event) error {
	rumor, cached := e.getRumor(envelope.ID)
	if !cached {
		var err error
		rumor, err = e.unwrap(envelope)
		if err != nil {
			return err
		}
		if rumor.ID == "" {
			rumor.ID = rumor.GetID()
		}
		if err := e.setRumor(envelope.ID, rumor); err != nil {
			library.LogCLI(err.Error(), 2)
		}
	}
	e.ingest.Send(rumor.PubKey)
	for _, participant := range library.GetPubkeyTags(rumor.Tags) {
		e.ingest.Send(participant)
	}
	if rumor.CreatedAt >= e.initializedAt {
		e.bus.Send(signals.NewMessage{GiftWrap: envelope.ID, Rumor: rumor})
		return nil
	}
	// Historical backlog is signaled in bulk by the gift wrap observer, not
	// per message.
	e.setBacklog()
	return nil
}

// unwrap tries the shared encryption key first, then the identity signer.
// Senders may address either key, and the shared key is the likelier one.
func (e *Engine) unwrap(envelope nostr.Event) (nostr.Event, error) {
	if encryption, ok := e.devices.Encryption(); ok {
		if rumor, err := Unwrap(envelope, encryption); err == nil {
			return rumor, nil
		}
	}
	signer, ok := e.Signer()
	if !ok {
		return nostr.Event{}, errors.New("no signer available")
	}
	return Unwrap(envelope, signer)
}

// Unwrap peels a gift wrap with the given key: the envelope content decrypts
// to a sealed event, whose content decrypts to the unsigned rumor. The rumor
// author must match the seal author or the envelope is forged.
func Unwrap(envelope nostr.Event, signer actors.Signer) (nostr.Event, error) {
	sealJSON, err := signer.Decrypt(envelope.PubKey, envelope.Content)
	if err != nil {
		return nostr.Event{}, err
	}
	var seal nostr.Event
	if err := json.Unmarshal([]byte(sealJSON), &seal); err != nil {
		return nostr.Event{}, fmt.Errorf("envelope %s carries a malformed seal: %w", envelope.ID, err)
	}
	if seal.Kind != actors.KindSeal {
		return nostr.Event{}, fmt.Errorf("envelope %s carries kind %d where a seal was expected", envelope.ID, seal.Kind)
	}
	if ok, err := seal.CheckSignature(); !ok || err != nil {
		return nostr.Event{}, fmt.Errorf("envelope %s carries a seal with a bad signature", envelope.ID)
	}
	rumorJSON, err := signer.Decrypt(seal.PubKey, seal.Content)
	if err != nil {
		return nostr.Event{}, err
	}
	var rumor nostr.Event
	if err := json.Unmarshal([]byte(rumorJSON), &rumor); err != nil {
		return nostr.Event{}, fmt.Errorf("seal %s carries a malformed rumor: %w", seal.ID, err)
	}
	if rumor.PubKey != seal.PubKey {
		return nostr.Event{}, fmt.Errorf("rumor author %s does not match seal author %s", rumor.PubKey, seal.PubKey)
	}
	return rumor, nil
}

// WrapMessage seals an unsigned rumor from the signer and wraps it for the
// recipient behind a disposable key. Both layers carry randomized past
// timestamps so relays learn nothing from them.
func WrapMessage(rumor nostr.Event, signer actors.Signer, recipient library.Account) (nostr.Event, error) {
	rumor.PubKey = signer.PublicKey()
	rumor.Sig = ""
	rumor.ID = rumor.GetID()
	rumorJSON, err := json.Marshal(rumor)
	if err != nil {
		return nostr.Event{}, err
	}
	sealed, err := signer.Encrypt(recipient, string(rumorJSON))
	if err != nil {
		return nostr.Event{}, err
	}
	seal := nostr.Event{
		Kind:      actors.KindSeal,
		CreatedAt: randomPastTimestamp(),
		Content:   sealed,
	}
	if err := signer.SignEvent(&seal); err != nil {
		return nostr.Event{}, err
	}
	sealJSON, err := json.Marshal(seal)
	if err != nil {
		return nostr.Event{}, err
	}
	wrapKey := actors.GenerateKeySigner()
	wrapped, err := wrapKey.Encrypt(recipient, string(sealJSON))
	if err != nil {
		return nostr.Event{}, err
	}
	envelope := nostr.Event{
		Kind:      actors.KindGiftWrap,
		CreatedAt: randomPastTimestamp(),
		Content:   wrapped,
		Tags:      nostr.Tags{{"p", recipient}},
	}
	if err := wrapKey.SignEvent(&envelope); err != nil {
		return nostr.Event{}, err
	}
	return envelope, nil
}

// Timestamps on the outer layers are smeared up to two days into the past.
func randomPastTimestamp() nostr.Timestamp {
	return nostr.Now() - nostr.Timestamp(rand.Int63n(int64(2*24*time.Hour/time.Second)))
}
