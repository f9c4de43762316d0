package conductor

import (
	"errors"

	"github.com/nbd-wtf/go-nostr"
	"coop/engine/actors"
)

// SetKeys writes a secret into the local encrypted store under a namespaced
// identifier. The content is encrypted to the identity's own key and the
// event is signed with a disposable one-time key pair so the signing key
// leaks nothing about device identity.
func (e *Engine) SetKeys(name, secret string) error {
	signer, ok := e.Signer()
	if !ok {
		return errors.New("no signer available")
	}
	ciphertext, err := signer.Encrypt(signer.PublicKey(), secret)
	if err != nil {
		return err
	}
	event := nostr.Event{
		Kind:      actors.KindAppData,
		CreatedAt: nostr.Now(),
		Content:   ciphertext,
		Tags:      nostr.Tags{{"d", actors.SecretIdentifier(name)}},
	}
	oneTime := actors.GenerateKeySigner()
	if err := oneTime.SignEvent(&event); err != nil {
		return err
	}
	return e.store.SaveEvent(event)
}

// GetKeys reads a secret back from the local encrypted store. An absent
// entry returns an empty string without error.
func (e *Engine) GetKeys(name string) (string, error) {
	signer, ok := e.Signer()
	if !ok {
		return "", errors.New("no signer available")
	}
	events, err := e.store.QueryEvents(nostr.Filter{
		Kinds: []int{actors.KindAppData},
		Tags:  nostr.TagMap{"d": []string{actors.SecretIdentifier(name)}},
		Limit: 1,
	})
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "", nil
	}
	return signer.Decrypt(signer.PublicKey(), events[0].Content)
}
