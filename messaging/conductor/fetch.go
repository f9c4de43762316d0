package conductor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"
	"coop/engine/actors"
	"coop/engine/library"
	"coop/state/signals"
)

// An end-of-stored-events marker only means "no more are coming right now",
// not "this identity has none". Every one-shot fetch therefore spawns a
// detached timer that re-checks the local store and reports not-found. Real
// data arriving first makes the recheck a harmless redundant count.
func (e *Engine) verifyFetch(f nostr.Filter, subID string, notFound func()) {
	conf := actors.MakeOrGetConfig()
	timeout := time.Duration(conf.GetInt("queryTimeoutSec")) * time.Second
	time.AfterFunc(timeout, func() {
		e.pool.Unsubscribe(subID)
		count, err := e.store.CountEvents(f)
		if err != nil {
			library.LogCLI(err.Error(), 2)
			return
		}
		if count == 0 {
			notFound()
		}
	})
}

// FetchRelayList requests an identity's discovery relay list and signals
// not-found when neither the network nor the store has one.
func (e *Engine) FetchRelayList(account library.Account) {
	f := nostr.Filter{
		Authors: []string{account},
		Kinds:   []int{actors.KindRelayList},
		Limit:   1,
	}
	id := "relaylist-" + uuid.NewString()
	e.pool.Subscribe(context.Background(), id, nostr.Filters{f})
	e.verifyFetch(f, id, func() {
		e.bus.Send(signals.RelayListNotFound{})
	})
}

// FetchMessagingRelays requests an identity's inbox relay list.
func (e *Engine) FetchMessagingRelays(account library.Account) {
	f := nostr.Filter{
		Authors: []string{account},
		Kinds:   []int{actors.KindMessagingRelays},
		Limit:   1,
	}
	id := "msgrelays-" + uuid.NewString()
	e.pool.Subscribe(context.Background(), id, nostr.Filters{f})
	e.verifyFetch(f, id, func() {
		e.bus.Send(signals.MessagingRelaysNotFound{})
	})
}

// FetchAnnouncement requests an identity's encryption key announcement. A
// confirmed absence is cached as a negative result, and for our own identity
// it additionally signals that no encryption key is set anywhere.
func (e *Engine) FetchAnnouncement(account library.Account) {
	if announcement, known := e.gossip.Announcement(account); known && announcement != nil {
		return
	}
	f := nostr.Filter{
		Authors: []string{account},
		Kinds:   []int{actors.KindAnnouncement},
		Limit:   1,
	}
	id := "announcement-" + uuid.NewString()
	e.pool.Subscribe(context.Background(), id, nostr.Filters{f})
	e.verifyFetch(f, id, func() {
		e.gossip.SetAnnouncement(account, nil)
		if signer, ok := e.Signer(); ok && signer.PublicKey() == account {
			e.bus.Send(signals.EncryptionNotSet{})
		}
	})
}
