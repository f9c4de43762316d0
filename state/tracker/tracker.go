// Package tracker keeps per-event bookkeeping for the current session: which
// relays echoed an event, which events this client published, and which
// publishes must be retried once a relay authenticates us.
package tracker

import (
	"github.com/sasha-s/go-deadlock"
	"coop/engine/library"
)

type Tracker struct {
	mu          deadlock.RWMutex
	seenOn      map[library.Sha256]map[string]bool
	sent        map[library.Sha256]bool
	resendQueue map[library.Sha256]string
}

func New() *Tracker {
	return &Tracker{
		seenOn:      make(map[library.Sha256]map[string]bool),
		sent:        make(map[library.Sha256]bool),
		resendQueue: make(map[library.Sha256]string),
	}
}

// MarkSeenOn records that a relay delivered this event.
func (t *Tracker) MarkSeenOn(id library.Sha256, relay string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.seenOn[id] == nil {
		t.seenOn[id] = make(map[string]bool)
	}
	t.seenOn[id][relay] = true
}

// SeenOn returns the relays that have echoed this event.
func (t *Tracker) SeenOn(id library.Sha256) (relays []string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for relay := range t.seenOn[id] {
		relays = append(relays, relay)
	}
	return
}

// MarkSent records that a relay acknowledged a publish from this client.
func (t *Tracker) MarkSent(id library.Sha256) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent[id] = true
}

func (t *Tracker) WasSent(id library.Sha256) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sent[id]
}

// QueueResend records a publish that was rejected pending authentication.
func (t *Tracker) QueueResend(id library.Sha256, relay string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resendQueue[id] = relay
}

// TakeResends drains the resend queue, returning event id to relay pairs.
func (t *Tracker) TakeResends() map[library.Sha256]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.resendQueue
	t.resendQueue = make(map[library.Sha256]string)
	return out
}

func (t *Tracker) PendingResends() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.resendQueue)
}
