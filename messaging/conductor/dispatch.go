package conductor

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"coop/engine/actors"
	"coop/engine/library"
	"coop/messaging/relays"
	"coop/state/signals"
)

// HandleNotifications is the single consumer of the pool's merged inbound
// stream. It runs until shutdown and must survive any single malformed or
// malicious item.
func (e *Engine) HandleNotifications() {
	defer actors.GetWaitGroup().Done()
	for {
		select {
		case n := <-e.pool.Notifications():
			e.dispatch(n)
		case <-actors.GetTerminateChan():
			e.ingest.Close()
			library.LogCLI("notification dispatch loop stopped", 4)
			return
		}
	}
}

func (e *Engine) dispatch(n relays.Notification) {
	switch n := n.(type) {
	case relays.EventNotification:
		// Tracker update happens before kind dispatch so diagnostics never
		// miss data the dispatch logic depends on.
		e.tracker.MarkSeenOn(n.Event.ID, n.Relay)
		if e.alreadySeen(n.Event.ID) {
			return
		}
		if err := e.store.SaveEvent(n.Event); err != nil {
			library.LogCLI(err.Error(), 2)
		}
		e.handleEvent(n.Event)
	case relays.EOSENotification:
		if n.SubID == actors.InboxSubscription {
			e.bus.Send(signals.GiftWrapStatus{Status: signals.UnwrapProcessing})
		}
	case relays.AuthNotification:
		if e.seenChallenge(n.Challenge) {
			return
		}
		e.bus.Send(signals.AuthRequest{Relay: n.Relay, Challenge: n.Challenge})
	case relays.OKNotification:
		e.tracker.MarkSent(n.EventID)
		if !n.Accepted && relays.ParsePrefix(n.Reason) == relays.PrefixAuthRequired {
			e.tracker.QueueResend(n.EventID, n.Relay)
		}
	}
}

func (e *Engine) handleEvent(event nostr.Event) {
	signer, hasSigner := e.Signer()
	self := hasSigner && event.PubKey == signer.PublicKey()
	switch event.Kind {
	case actors.KindAnnouncement:
		announcement, err := ParseAnnouncement(event)
		if err != nil {
			library.LogCLI(err.Error(), 3)
			return
		}
		if self {
			e.bus.Send(signals.EncryptionSet{Announcement: *announcement})
		}
		// Third-party announcements are retained too, the cache serves
		// lookups across identities.
		e.gossip.SetAnnouncement(event.PubKey, announcement)
	case actors.KindKeyRequest:
		if !self {
			return
		}
		request, err := ParseAnnouncement(event)
		if err != nil {
			library.LogCLI(err.Error(), 3)
			return
		}
		e.bus.Send(signals.EncryptionRequest{Announcement: *request})
	case actors.KindKeyResponse:
		if !self {
			return
		}
		response, err := ParseResponse(event)
		if err != nil {
			library.LogCLI(err.Error(), 3)
			return
		}
		e.bus.Send(signals.EncryptionResponse{Response: *response})
	case actors.KindRelayList:
		e.gossip.InsertRelays(event)
		if self {
			// A relay list change invalidates everything fetched from the
			// old relay set. The announcement and messaging relay fetches
			// are the verified kind so their absence is reported.
			e.subscribeIdentityMetadata(event.PubKey)
			e.FetchAnnouncement(event.PubKey)
			e.FetchMessagingRelays(event.PubKey)
		}
	case actors.KindMessagingRelays:
		urls := library.GetRelayTags(event)
		if len(urls) > actors.MaxMessagingRelays {
			urls = urls[:actors.MaxMessagingRelays]
		}
		if self {
			e.GetMessages(urls...)
		}
		e.gossip.InsertMessagingRelays(event.PubKey, urls)
	case actors.KindContacts:
		if !self {
			return
		}
		for _, account := range library.GetPubkeyTags(event.Tags) {
			e.ingest.Send(account)
		}
	case actors.KindProfile:
		profile, err := library.ParseProfile(event)
		if err != nil {
			library.LogCLI(err.Error(), 3)
			return
		}
		e.bus.Send(signals.NewProfile{Profile: profile})
	case actors.KindGiftWrap:
		// Gift wrap fan-out legitimately produces envelopes not decryptable
		// by this device, so failures never surface past the loop.
		if err := e.ingestGiftWrap(event); err != nil {
			library.LogCLI(fmt.Sprintf("gift wrap %s skipped: %s", event.ID, err.Error()), 3)
		}
	}
}
