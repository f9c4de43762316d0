// Package store defines the local event store consumed by the sync engine.
// The engine only ever queries by filter, counts by filter, and saves; the
// actual persistence engine is provided by the embedding application.
package store

import (
	"github.com/nbd-wtf/go-nostr"
)

type Store interface {
	SaveEvent(e nostr.Event) error
	QueryEvents(f nostr.Filter) ([]nostr.Event, error)
	CountEvents(f nostr.Filter) (int64, error)
}
