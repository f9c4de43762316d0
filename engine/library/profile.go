package library

import (
	"encoding/json"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
)

// Profile is the parsed content of a profile metadata event.
type Profile struct {
	Account     Account `json:"-"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	About       string  `json:"about"`
	Picture     string  `json:"picture"`
	Nip05       string  `json:"nip05"`
}

func ParseProfile(e nostr.Event) (Profile, error) {
	var p Profile
	if err := json.Unmarshal([]byte(e.Content), &p); err != nil {
		return Profile{}, fmt.Errorf("could not parse profile content for %s: %w", e.PubKey, err)
	}
	p.Account = e.PubKey
	return p, nil
}
