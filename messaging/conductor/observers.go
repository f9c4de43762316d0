package conductor

import (
	"time"

	"github.com/nbd-wtf/go-nostr"
	"coop/engine/actors"
	"coop/engine/library"
	"coop/state/signals"
)

// ObserveSigner polls until an identity signer becomes available, performs
// the one-time startup sync, and terminates.
func (e *Engine) ObserveSigner() {
	defer actors.GetWaitGroup().Done()
	conf := actors.MakeOrGetConfig()
	ticker := time.NewTicker(time.Duration(conf.GetInt("signerPollMs")) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			signer, ok := e.Signer()
			if !ok {
				continue
			}
			e.startupSync(signer)
			return
		case <-actors.GetTerminateChan():
			return
		}
	}
}

func (e *Engine) startupSync(signer actors.Signer) {
	account := signer.PublicKey()
	e.bus.Send(signals.SignerSet{Account: account})
	e.seedCaches()
	e.initDeviceKeys()
	e.FetchRelayList(account)
	e.subscribeIdentityMetadata(account)
	e.GetMessages(e.gossip.MessagingRelays(account)...)
	library.LogCLI("signer established for "+account, 4)
}

// seedCaches replays stored relay lists and announcements into the in-memory
// caches so lookups work before the network answers.
func (e *Engine) seedCaches() {
	events, err := e.store.QueryEvents(nostr.Filter{
		Kinds: []int{actors.KindRelayList, actors.KindMessagingRelays, actors.KindAnnouncement},
	})
	if err != nil {
		library.LogCLI(err.Error(), 2)
		return
	}
	for _, event := range events {
		switch event.Kind {
		case actors.KindRelayList:
			e.gossip.InsertRelays(event)
		case actors.KindMessagingRelays:
			urls := library.GetRelayTags(event)
			if len(urls) > actors.MaxMessagingRelays {
				urls = urls[:actors.MaxMessagingRelays]
			}
			e.gossip.InsertMessagingRelays(event.PubKey, urls)
		case actors.KindAnnouncement:
			if announcement, err := ParseAnnouncement(event); err == nil {
				e.gossip.SetAnnouncement(event.PubKey, announcement)
			}
		}
	}
}

// initDeviceKeys loads this device's key pair from the encrypted store, or
// generates and persists one on first run.
func (e *Engine) initDeviceKeys() {
	secret, err := e.GetKeys("device")
	if err != nil {
		library.LogCLI(err.Error(), 2)
	}
	if secret != "" {
		signer, err := actors.NewKeySigner(secret)
		if err == nil {
			e.devices.SetDevice(signer)
			return
		}
		library.LogCLI(err.Error(), 2)
	}
	signer := actors.GenerateKeySigner()
	if err := e.SetKeys("device", signer.SecretKey()); err != nil {
		library.LogCLI(err.Error(), 2)
	}
	e.devices.SetDevice(signer)
}

// ObserveGiftWrap watches the backlog flag and derives the bulk sync status
// signal. Two quiet ticks after the flag was last seen set mean the backlog
// replay is over; the hysteresis absorbs gaps between bursts.
func (e *Engine) ObserveGiftWrap() {
	defer actors.GetWaitGroup().Done()
	conf := actors.MakeOrGetConfig()
	ticker := time.NewTicker(time.Duration(conf.GetInt("giftWrapPollSec")) * time.Second)
	defer ticker.Stop()
	everSet := false
	quietTicks := 0
	for {
		select {
		case <-ticker.C:
			if _, ok := e.Signer(); !ok {
				continue
			}
			if e.takeBacklog() {
				everSet = true
				quietTicks = 0
				e.bus.Send(signals.GiftWrapStatus{Status: signals.UnwrapProcessing})
				continue
			}
			if !everSet {
				continue
			}
			quietTicks++
			if quietTicks >= 2 {
				e.bus.Send(signals.GiftWrapStatus{Status: signals.UnwrapComplete})
				everSet = false
				quietTicks = 0
			}
		case <-actors.GetTerminateChan():
			return
		}
	}
}
