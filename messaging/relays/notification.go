package relays

import (
	"github.com/nbd-wtf/go-nostr"
	"coop/engine/library"
)

// Notification is one item on the merged inbound stream from all connected
// peers. The closed set of variants is what the dispatch loop consumes.
type Notification interface {
	notification()
}

// EventNotification delivers a data event from a peer.
type EventNotification struct {
	Relay string
	SubID string
	Event nostr.Event
}

// EOSENotification is the end-of-stored-events marker for a subscription.
type EOSENotification struct {
	Relay string
	SubID string
}

// AuthNotification is a relay authentication challenge.
type AuthNotification struct {
	Relay     string
	Challenge string
}

// OKNotification acknowledges a publish.
type OKNotification struct {
	Relay    string
	EventID  library.Sha256
	Accepted bool
	Reason   string
}

func (EventNotification) notification() {}
func (EOSENotification) notification()  {}
func (AuthNotification) notification()  {}
func (OKNotification) notification()    {}
