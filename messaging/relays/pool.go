// Package relays maintains connections to untrusted network peers and merges
// everything they deliver into a single notification stream.
package relays

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"
	"coop/engine/library"
)

// Peer is one relay connection. Implementations push inbound traffic into
// the pool's notification stream via Notify.
type Peer interface {
	URL() string
	Subscribe(ctx context.Context, id string, filters nostr.Filters) error
	Unsubscribe(id string)
	Publish(ctx context.Context, event nostr.Event) (accepted bool, reason string)
	Close() error
}

type Pool struct {
	mu    deadlock.RWMutex
	peers map[string]Peer
	notes chan Notification
}

func NewPool() *Pool {
	return &Pool{
		peers: make(map[string]Peer),
		notes: make(chan Notification, 4096),
	}
}

func (p *Pool) Notifications() <-chan Notification {
	return p.notes
}

// Notify pushes a notification onto the merged stream. Peers and tests call
// this; a full stream drops rather than blocking a peer reader.
func (p *Pool) Notify(n Notification) {
	select {
	case p.notes <- n:
	default:
		library.LogCLI("notification stream full, dropping", 2)
	}
}

func (p *Pool) AddPeer(peer Peer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.peers[peer.URL()] = peer
}

func (p *Pool) Peers() (urls []string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for url := range p.peers {
		urls = append(urls, url)
	}
	return
}

func (p *Pool) peerSet(urls []string) []Peer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(urls) == 0 {
		all := make([]Peer, 0, len(p.peers))
		for _, peer := range p.peers {
			all = append(all, peer)
		}
		return all
	}
	var subset []Peer
	for _, url := range urls {
		if peer, ok := p.peers[url]; ok {
			subset = append(subset, peer)
		}
	}
	return subset
}

// Subscribe opens a subscription with the given id on the named peers, or on
// every connected peer when none are named. Re-using an id replaces the
// previous subscription on each peer.
func (p *Pool) Subscribe(ctx context.Context, id string, filters nostr.Filters, urls ...string) error {
	var lastErr error
	for _, peer := range p.peerSet(urls) {
		if err := peer.Subscribe(ctx, id, filters); err != nil {
			library.LogCLI(err.Error(), 2)
			lastErr = err
		}
	}
	return lastErr
}

func (p *Pool) Unsubscribe(id string) {
	for _, peer := range p.peerSet(nil) {
		peer.Unsubscribe(id)
	}
}

// Publish fans an event out to the named peers (or all peers) and reports
// each acknowledgment on the notification stream.
func (p *Pool) Publish(ctx context.Context, event nostr.Event, urls ...string) {
	for _, peer := range p.peerSet(urls) {
		go func(peer Peer) {
			accepted, reason := peer.Publish(ctx, event)
			p.Notify(OKNotification{
				Relay:    peer.URL(),
				EventID:  event.ID,
				Accepted: accepted,
				Reason:   reason,
			})
		}(peer)
	}
}

func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, peer := range p.peers {
		if err := peer.Close(); err != nil {
			library.LogCLI(err.Error(), 3)
		}
	}
}
