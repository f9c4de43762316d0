package signals

import (
	"fmt"

	"coop/engine/library"
)

// Bus is the engine's outbound signal channel. Sends never block the engine:
// if the UI stops draining, signals are dropped and logged.
type Bus struct {
	ch chan Signal
}

func NewBus() *Bus {
	return &Bus{ch: make(chan Signal, 2048)}
}

func (b *Bus) Send(s Signal) {
	select {
	case b.ch <- s:
	default:
		library.LogCLI(fmt.Sprintf("signal channel full, dropping %T", s), 2)
	}
}

func (b *Bus) Receive() <-chan Signal {
	return b.ch
}
