// Package gossip holds per-identity denormalized projections of relay lists
// and encryption key announcements, seeded from the local store at startup
// and kept current by the dispatch loop.
package gossip

import (
	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"
	"coop/engine/actors"
	"coop/engine/library"
	"coop/state/signals"
)

// RelayInfo is one discovery relay with its read/write marker. An empty
// marker means the relay serves both directions.
type RelayInfo struct {
	URL    string
	Marker string
}

type Cache struct {
	mu            deadlock.RWMutex
	relays        map[library.Account][]RelayInfo
	messaging     map[library.Account][]string
	announcements map[library.Account]*signals.Announcement
}

func NewCache() *Cache {
	return &Cache{
		relays:        make(map[library.Account][]RelayInfo),
		messaging:     make(map[library.Account][]string),
		announcements: make(map[library.Account]*signals.Announcement),
	}
}

// InsertRelays merges a relay list event into the cache, honoring at most
// three relays per identity.
func (c *Cache) InsertRelays(e nostr.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing := c.relays[e.PubKey]
	for _, pair := range library.GetRelayMetadataTags(e) {
		if len(existing) >= actors.MaxMessagingRelays {
			break
		}
		if hasRelay(existing, pair[0]) {
			continue
		}
		existing = append(existing, RelayInfo{URL: pair[0], Marker: pair[1]})
	}
	c.relays[e.PubKey] = existing
}

// ReadRelays returns the identity's read-capable discovery relays.
func (c *Cache) ReadRelays(account library.Account) (urls []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, info := range c.relays[account] {
		if info.Marker == "" || info.Marker == "read" {
			urls = append(urls, info.URL)
		}
	}
	return
}

// WriteRelays returns the identity's write-capable discovery relays.
func (c *Cache) WriteRelays(account library.Account) (urls []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, info := range c.relays[account] {
		if info.Marker == "" || info.Marker == "write" {
			urls = append(urls, info.URL)
		}
	}
	return
}

// InsertMessagingRelays merges a messaging relay list into the cache. Only
// the first three advertised relays are honored.
func (c *Cache) InsertMessagingRelays(account library.Account, urls []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing := c.messaging[account]
	for _, url := range urls {
		if len(existing) >= actors.MaxMessagingRelays {
			break
		}
		if hasURL(existing, url) {
			continue
		}
		existing = append(existing, url)
	}
	c.messaging[account] = existing
}

// MessagingRelays returns the identity's known inbox relays.
func (c *Cache) MessagingRelays(account library.Account) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	urls := make([]string, len(c.messaging[account]))
	copy(urls, c.messaging[account])
	return urls
}

// SetAnnouncement caches an identity's encryption key announcement. The
// first announcement seen for an identity is authoritative; later ones only
// replace a cached negative.
func (c *Cache) SetAnnouncement(account library.Account, a *signals.Announcement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, known := c.announcements[account]; known && existing != nil {
		return
	}
	c.announcements[account] = a
}

// Announcement reports the cached announcement for an identity. The second
// return distinguishes "never looked up" from a cached negative result.
func (c *Cache) Announcement(account library.Account) (*signals.Announcement, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, known := c.announcements[account]
	return a, known
}

func hasRelay(infos []RelayInfo, url string) bool {
	for _, info := range infos {
		if info.URL == url {
			return true
		}
	}
	return false
}

func hasURL(urls []string, url string) bool {
	for _, u := range urls {
		if u == url {
			return true
		}
	}
	return false
}
