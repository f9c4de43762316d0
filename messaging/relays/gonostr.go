package relays

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"
	"coop/engine/library"
)

// nostrPeer adapts a live websocket relay connection to the Peer contract.
type nostrPeer struct {
	url   string
	relay *nostr.Relay
	pool  *Pool

	mu      deadlock.Mutex
	subs    map[string]*nostr.Subscription
	cancels map[string]context.CancelFunc
}

// Connect dials a relay and adds it to the pool. Inbound events and EOSE
// markers flow into the pool's notification stream. Connecting to a url the
// pool already holds is a no-op.
func (p *Pool) Connect(ctx context.Context, url string) error {
	p.mu.RLock()
	_, connected := p.peers[url]
	p.mu.RUnlock()
	if connected {
		return nil
	}
	relay, err := nostr.RelayConnect(ctx, url)
	if err != nil {
		return err
	}
	library.LogCLI("connected to "+url, 4)
	p.AddPeer(&nostrPeer{
		url:     url,
		relay:   relay,
		pool:    p,
		subs:    make(map[string]*nostr.Subscription),
		cancels: make(map[string]context.CancelFunc),
	})
	return nil
}

func (np *nostrPeer) URL() string {
	return np.url
}

func (np *nostrPeer) Subscribe(ctx context.Context, id string, filters nostr.Filters) error {
	np.Unsubscribe(id)
	ctx, cancel := context.WithCancel(ctx)
	sub, err := np.relay.Subscribe(ctx, filters, nostr.WithLabel(id))
	if err != nil {
		cancel()
		return err
	}
	np.mu.Lock()
	np.subs[id] = sub
	np.cancels[id] = cancel
	np.mu.Unlock()
	go func() {
		select {
		case <-sub.EndOfStoredEvents:
			np.pool.Notify(EOSENotification{Relay: np.url, SubID: id})
		case <-ctx.Done():
		}
	}()
	go func() {
		for event := range sub.Events {
			if event == nil {
				return
			}
			np.pool.Notify(EventNotification{Relay: np.url, SubID: id, Event: *event})
		}
	}()
	return nil
}

func (np *nostrPeer) Unsubscribe(id string) {
	np.mu.Lock()
	sub, ok := np.subs[id]
	cancel := np.cancels[id]
	delete(np.subs, id)
	delete(np.cancels, id)
	np.mu.Unlock()
	if !ok {
		return
	}
	sub.Unsub()
	if cancel != nil {
		cancel()
	}
}

func (np *nostrPeer) Publish(ctx context.Context, event nostr.Event) (bool, string) {
	if err := np.relay.Publish(ctx, event); err != nil {
		return false, err.Error()
	}
	return true, ""
}

func (np *nostrPeer) Close() error {
	np.mu.Lock()
	for id, sub := range np.subs {
		sub.Unsub()
		if cancel := np.cancels[id]; cancel != nil {
			cancel()
		}
	}
	np.subs = make(map[string]*nostr.Subscription)
	np.cancels = make(map[string]context.CancelFunc)
	np.mu.Unlock()
	return np.relay.Close()
}
