package library

import (
	"github.com/nbd-wtf/go-nostr"
)

func GetFirstTag(e nostr.Event, startsWith string) (string, bool) {
	for _, tag := range e.Tags {
		if tag.StartsWith([]string{startsWith}) {
			return tag.Value(), true
		}
	}
	return "", false
}

// GetPubkeyTags returns the value of every lowercase p tag on the event.
func GetPubkeyTags(tags nostr.Tags) (r []Account) {
	for _, tag := range tags {
		if len(tag) >= 2 && tag[0] == "p" {
			if len(tag[1]) == 64 {
				r = append(r, tag[1])
			}
		}
	}
	return
}

// GetRelayTags returns the value of every r or relay tag on the event, in
// the order they appear.
func GetRelayTags(e nostr.Event) (r []string) {
	for _, tag := range e.Tags {
		if len(tag) >= 2 {
			if tag[0] == "r" || tag[0] == "relay" {
				r = append(r, tag[1])
			}
		}
	}
	return
}

// GetRelayMetadataTags returns relay URL and read/write marker pairs from a
// relay list event. An empty marker means the relay is both read and write.
func GetRelayMetadataTags(e nostr.Event) (r [][2]string) {
	for _, tag := range e.Tags {
		if len(tag) >= 2 && tag[0] == "r" {
			marker := ""
			if len(tag) >= 3 {
				marker = tag[2]
			}
			r = append(r, [2]string{tag[1], marker})
		}
	}
	return
}
