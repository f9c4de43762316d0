//go:build darwin

package relays

import (
	"github.com/prashantgupta24/mac-sleep-notifier/notifier"
	"coop/engine/actors"
	"coop/engine/library"
)

// WatchSleep terminates the engine when the machine goes to sleep so that we
// restart subscriptions from a clean state on wake.
func WatchSleep() {
	activity := notifier.GetInstance().Start()
	go func() {
		for act := range activity {
			if act.Type == notifier.Sleep {
				library.LogCLI("Sleep detected, terminating", 3)
				actors.Shutdown()
				return
			}
		}
	}()
}
