package conductor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"
	"coop/engine/actors"
	"coop/engine/library"
	"coop/state/gossip"
)

// GetMessages opens the named inbox subscription for gift wraps addressed to
// any of this client's keys. Passing relay URLs restricts the subscription
// to those peers.
func (e *Engine) GetMessages(urls ...string) {
	var keys []string
	if signer, ok := e.Signer(); ok {
		keys = append(keys, signer.PublicKey())
	}
	if encryption, ok := e.devices.Encryption(); ok {
		keys = append(keys, encryption.PublicKey())
	}
	if len(keys) == 0 {
		return
	}
	// Advertised messaging relays are usually not bootstrap peers; dial them
	// first or the subscription targets nobody.
	for _, url := range urls {
		if err := e.pool.Connect(context.Background(), url); err != nil {
			library.LogCLI(err.Error(), 2)
		}
	}
	f := nostr.Filter{
		Kinds: []int{actors.KindGiftWrap},
		Tags:  nostr.TagMap{"p": keys},
	}
	err := e.pool.Subscribe(context.Background(), actors.InboxSubscription, nostr.Filters{f}, urls...)
	if err != nil {
		library.LogCLI(err.Error(), 2)
	}
}

// ResubscribeMessages tears down and rebuilds the inbox subscription.
// Senders may address either the identity key or the shared encryption key,
// so the filter must be rebuilt whenever the key set changes.
func (e *Engine) ResubscribeMessages() {
	e.pool.Unsubscribe(actors.InboxSubscription)
	var urls []string
	if signer, ok := e.Signer(); ok {
		urls = e.gossip.MessagingRelays(signer.PublicKey())
	}
	e.GetMessages(urls...)
}

// MetadataForList issues one bulk subscription for the profiles and inbox
// relay lists of many identities. The subscription closes itself after the
// query timeout.
func (e *Engine) MetadataForList(accounts ...library.Account) {
	if len(accounts) == 0 {
		return
	}
	f := nostr.Filter{
		Authors: accounts,
		Kinds:   []int{actors.KindProfile, actors.KindMessagingRelays},
	}
	id := "metadata-" + uuid.NewString()
	if err := e.pool.Subscribe(context.Background(), id, nostr.Filters{f}); err != nil {
		library.LogCLI(err.Error(), 2)
		return
	}
	conf := actors.MakeOrGetConfig()
	timeout := time.Duration(conf.GetInt("queryTimeoutSec")) * time.Second
	time.AfterFunc(timeout, func() {
		e.pool.Unsubscribe(id)
	})
}

// SubscribeKind opens a one-shot subscription for a single author and kind,
// closing itself after the query timeout.
func (e *Engine) SubscribeKind(account library.Account, kind int) {
	f := nostr.Filter{
		Authors: []string{account},
		Kinds:   []int{kind},
		Limit:   1,
	}
	id := "kind-" + uuid.NewString()
	if err := e.pool.Subscribe(context.Background(), id, nostr.Filters{f}); err != nil {
		library.LogCLI(err.Error(), 2)
		return
	}
	conf := actors.MakeOrGetConfig()
	timeout := time.Duration(conf.GetInt("queryTimeoutSec")) * time.Second
	time.AfterFunc(timeout, func() {
		e.pool.Unsubscribe(id)
	})
}

// subscribeIdentityMetadata follows one identity's own metadata: profile,
// contacts, encryption announcement, and messaging relay list.
func (e *Engine) subscribeIdentityMetadata(account library.Account) {
	f := nostr.Filter{
		Authors: []string{account},
		Kinds: []int{
			actors.KindProfile,
			actors.KindContacts,
			actors.KindAnnouncement,
			actors.KindMessagingRelays,
		},
	}
	id := "identity-" + uuid.NewString()
	if err := e.pool.Subscribe(context.Background(), id, nostr.Filters{f}); err != nil {
		library.LogCLI(err.Error(), 2)
	}
}

// SetRelayList publishes this identity's discovery relay list.
func (e *Engine) SetRelayList(ctx context.Context, entries ...gossip.RelayInfo) error {
	signer, ok := e.Signer()
	if !ok {
		return errors.New("no signer available")
	}
	tags := nostr.Tags{}
	for _, entry := range entries {
		if entry.Marker == "" {
			tags = append(tags, nostr.Tag{"r", entry.URL})
			continue
		}
		tags = append(tags, nostr.Tag{"r", entry.URL, entry.Marker})
	}
	event := nostr.Event{
		Kind:      actors.KindRelayList,
		CreatedAt: nostr.Now(),
		Tags:      tags,
	}
	if err := signer.SignEvent(&event); err != nil {
		return err
	}
	if err := e.store.SaveEvent(event); err != nil {
		library.LogCLI(err.Error(), 2)
	}
	e.pool.Publish(ctx, event)
	return nil
}

// SetMessagingRelays publishes this identity's inbox relay list. Only the
// first three relays are advertised.
func (e *Engine) SetMessagingRelays(ctx context.Context, urls ...string) error {
	signer, ok := e.Signer()
	if !ok {
		return errors.New("no signer available")
	}
	if len(urls) > actors.MaxMessagingRelays {
		urls = urls[:actors.MaxMessagingRelays]
	}
	tags := nostr.Tags{}
	for _, url := range urls {
		tags = append(tags, nostr.Tag{"relay", url})
	}
	event := nostr.Event{
		Kind:      actors.KindMessagingRelays,
		CreatedAt: nostr.Now(),
		Tags:      tags,
	}
	if err := signer.SignEvent(&event); err != nil {
		return err
	}
	if err := e.store.SaveEvent(event); err != nil {
		library.LogCLI(err.Error(), 2)
	}
	e.gossip.InsertMessagingRelays(signer.PublicKey(), urls)
	e.pool.Publish(ctx, event)
	// Messages now arrive on the new inbox relays.
	e.pool.Unsubscribe(actors.InboxSubscription)
	e.GetMessages(urls...)
	return nil
}
