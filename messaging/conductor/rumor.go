package conductor

import (
	"encoding/json"

	"github.com/nbd-wtf/go-nostr"
	"coop/engine/actors"
	"coop/engine/library"
)

// setRumor persists a decrypted rumor keyed by its envelope id, the id that
// arrives first and repeatedly. Denormalized tags allow later queries by
// author, conversation, or participant without touching the envelope again.
func (e *Engine) setRumor(envelope library.Sha256, rumor nostr.Event) error {
	payload, err := json.Marshal(rumor)
	if err != nil {
		return err
	}
	participants := library.GetPubkeyTags(rumor.Tags)
	tags := nostr.Tags{
		{"d", envelope},
		{"a", rumor.PubKey},
		{"c", library.ConversationID(rumor.PubKey, participants...)},
		{"e", rumor.ID},
	}
	for _, participant := range participants {
		tags = append(tags, nostr.Tag{"p", participant})
	}
	entry := nostr.Event{
		Kind:      actors.KindAppData,
		CreatedAt: nostr.Now(),
		Content:   string(payload),
		Tags:      tags,
	}
	oneTime := actors.GenerateKeySigner()
	if err := oneTime.SignEvent(&entry); err != nil {
		return err
	}
	return e.store.SaveEvent(entry)
}

// getRumor looks up a cached rumor by envelope id.
func (e *Engine) getRumor(envelope library.Sha256) (nostr.Event, bool) {
	entries, err := e.store.QueryEvents(nostr.Filter{
		Kinds: []int{actors.KindAppData},
		Tags:  nostr.TagMap{"d": []string{envelope}},
		Limit: 1,
	})
	if err != nil || len(entries) == 0 {
		return nostr.Event{}, false
	}
	var rumor nostr.Event
	if err := json.Unmarshal([]byte(entries[0].Content), &rumor); err != nil {
		library.LogCLI(err.Error(), 2)
		return nostr.Event{}, false
	}
	return rumor, true
}

// RumorsByConversation returns every cached rumor for one conversation id,
// newest first.
func (e *Engine) RumorsByConversation(conversation library.Sha256) (rumors []nostr.Event) {
	entries, err := e.store.QueryEvents(nostr.Filter{
		Kinds: []int{actors.KindAppData},
		Tags:  nostr.TagMap{"c": []string{conversation}},
	})
	if err != nil {
		library.LogCLI(err.Error(), 2)
		return nil
	}
	for _, entry := range entries {
		var rumor nostr.Event
		if err := json.Unmarshal([]byte(entry.Content), &rumor); err != nil {
			continue
		}
		rumors = append(rumors, rumor)
	}
	return
}
