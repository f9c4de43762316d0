package library

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/exp/slices"
)

func Sha256Sum(data interface{}) Sha256 {
	var b []byte
	switch d := data.(type) {
	case string:
		b = []byte(d)
	case []byte:
		b = d
	default:
		LogCLI("attempted to hash non-string or non-[]byte", 0)
	}
	h := sha256.New()
	h.Write(b)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ConversationID derives a stable identifier for a message thread from the
// author and every tagged participant. The set is sorted and deduplicated
// first so any permutation of the same participants hashes identically.
func ConversationID(author Account, participants ...Account) Sha256 {
	members := make([]Account, 0, len(participants)+1)
	members = append(members, author)
	members = append(members, participants...)
	slices.Sort(members)
	members = slices.Compact(members)
	var joined string
	for i, m := range members {
		if i > 0 {
			joined += ","
		}
		joined += m
	}
	return Sha256Sum(joined)
}
