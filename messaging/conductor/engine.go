// Package conductor is the spine of the sync engine: a dispatch loop over
// the merged relay notification stream, the device encryption key exchange,
// gift wrap ingestion, and the metadata batching and observer loops that
// keep the caches current.
package conductor

import (
	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"
	"coop/engine/actors"
	"coop/engine/library"
	"coop/messaging/relays"
	"coop/state/device"
	"coop/state/gossip"
	"coop/state/signals"
	"coop/state/tracker"
	"coop/store"
)

// Peers resend events, so the dispatch loop remembers this many recently
// processed ids and evicts the oldest beyond that.
const maxSeenEvents = 65536

type Engine struct {
	store   store.Store
	pool    *relays.Pool
	bus     *signals.Bus
	ingest  *signals.Ingester
	tracker *tracker.Tracker
	gossip  *gossip.Cache
	devices *device.Store

	mu            deadlock.RWMutex
	signer        actors.Signer
	backlog       bool
	seen          map[library.Sha256]bool
	seenOrder     []library.Sha256
	challenges    map[string]bool
	initializedAt nostr.Timestamp
}

func New(st store.Store, pool *relays.Pool) *Engine {
	return &Engine{
		store:         st,
		pool:          pool,
		bus:           signals.NewBus(),
		ingest:        signals.NewIngester(),
		tracker:       tracker.New(),
		gossip:        gossip.NewCache(),
		devices:       device.NewStore(),
		seen:          make(map[library.Sha256]bool),
		challenges:    make(map[string]bool),
		initializedAt: nostr.Now(),
	}
}

// Start launches the dispatch loop, the metadata batching loop, and the two
// observers. They run until the terminate channel closes.
func (e *Engine) Start() {
	wg := actors.GetWaitGroup()
	wg.Add(4)
	go e.HandleNotifications()
	go e.HandleMetadataBatching()
	go e.ObserveSigner()
	go e.ObserveGiftWrap()
}

func (e *Engine) Signals() *signals.Bus {
	return e.bus
}

func (e *Engine) Tracker() *tracker.Tracker {
	return e.tracker
}

func (e *Engine) Gossip() *gossip.Cache {
	return e.gossip
}

func (e *Engine) Devices() *device.Store {
	return e.devices
}

// SetSigner installs the identity signer. The signer observer notices it on
// its next poll and runs the one-time startup sync.
func (e *Engine) SetSigner(signer actors.Signer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.signer = signer
}

func (e *Engine) Signer() (actors.Signer, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.signer, e.signer != nil
}

// alreadySeen reports and records whether this event id was processed in the
// current session.
func (e *Engine) alreadySeen(id library.Sha256) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.seen[id] {
		return true
	}
	e.seen[id] = true
	e.seenOrder = append(e.seenOrder, id)
	if len(e.seenOrder) > maxSeenEvents {
		delete(e.seen, e.seenOrder[0])
		e.seenOrder = e.seenOrder[1:]
	}
	return false
}

func (e *Engine) seenChallenge(challenge string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.challenges[challenge] {
		return true
	}
	e.challenges[challenge] = true
	return false
}

func (e *Engine) setBacklog() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.backlog = true
}

// takeBacklog reads and clears the backlog flag in one step.
func (e *Engine) takeBacklog() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	b := e.backlog
	e.backlog = false
	return b
}
