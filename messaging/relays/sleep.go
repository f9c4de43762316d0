//go:build !darwin

package relays

// WatchSleep is a no-op on platforms without a sleep notifier.
func WatchSleep() {}
