package actors

import (
	"sync"

	"github.com/sasha-s/go-deadlock"
)

var terminateChan chan struct{}
var terminateOnce sync.Once
var wg = &deadlock.WaitGroup{}

func SetTerminateChan(term chan struct{}) {
	terminateChan = term
}

func GetTerminateChan() chan struct{} {
	return terminateChan
}

func GetWaitGroup() *deadlock.WaitGroup {
	return wg
}

func Shutdown() {
	terminateOnce.Do(func() {
		close(terminateChan)
	})
}
