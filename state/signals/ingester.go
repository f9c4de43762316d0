package signals

import (
	"sync"

	"coop/engine/library"
)

// Ingester collects identity keys that need profile metadata, decoupling
// discovery (found while processing messages) from fetching (batched).
type Ingester struct {
	ch        chan library.Account
	closeOnce sync.Once
}

func NewIngester() *Ingester {
	return &Ingester{ch: make(chan library.Account, 1024)}
}

func (i *Ingester) Send(account library.Account) {
	defer func() {
		// Sending on a closed ingester during shutdown is not an error.
		recover()
	}()
	i.ch <- account
}

func (i *Ingester) Receive() <-chan library.Account {
	return i.ch
}

func (i *Ingester) Close() {
	i.closeOnce.Do(func() {
		close(i.ch)
	})
}
