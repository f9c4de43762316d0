// Package signals carries discrete state-change notifications from the sync
// engine to the presentation layer. The Bus is the only sanctioned path from
// engine to UI.
package signals

import (
	"github.com/nbd-wtf/go-nostr"
	"coop/engine/library"
)

// Signal is a closed set of engine-to-UI notifications.
type Signal interface {
	signal()
}

// SignerSet reports that the identity signer became available.
type SignerSet struct {
	Account library.Account
}

// NewProfile reports a new or updated profile for any identity.
type NewProfile struct {
	Profile library.Profile
}

// Announcement is the durable claim that a device's shared encryption key is
// a particular public key.
type Announcement struct {
	ID        library.Sha256
	Client    string
	PublicKey library.Account
}

// Response carries the encrypted shared-secret payload between two devices.
type Response struct {
	Payload   string
	PublicKey library.Account
}

// EncryptionSet reports that this identity's encryption key announcement was
// observed.
type EncryptionSet struct {
	Announcement Announcement
}

// EncryptionNotSet reports that no announcement exists for this identity.
type EncryptionNotSet struct{}

// EncryptionRequest reports that another device asked for the shared key.
type EncryptionRequest struct {
	Announcement Announcement
}

// EncryptionResponse reports that a device answered a key request.
type EncryptionResponse struct {
	Response Response
}

// NewMessage reports a live decrypted message, keyed by its envelope id.
type NewMessage struct {
	GiftWrap library.Sha256
	Rumor    nostr.Event
}

// RelayListNotFound reports that the identity has no discovery relay list.
type RelayListNotFound struct{}

// MessagingRelaysNotFound reports that the identity has no inbox relays.
type MessagingRelaysNotFound struct{}

// AuthRequest reports a relay authentication challenge.
type AuthRequest struct {
	Relay     string
	Challenge string
}

type UnwrapStatus int

const (
	UnwrapProcessing UnwrapStatus = iota + 1
	UnwrapComplete
)

// GiftWrapStatus reports backlog replay progress.
type GiftWrapStatus struct {
	Status UnwrapStatus
}

func (SignerSet) signal()               {}
func (NewProfile) signal()              {}
func (EncryptionSet) signal()           {}
func (EncryptionNotSet) signal()        {}
func (EncryptionRequest) signal()       {}
func (EncryptionResponse) signal()      {}
func (NewMessage) signal()              {}
func (RelayListNotFound) signal()       {}
func (MessagingRelaysNotFound) signal() {}
func (AuthRequest) signal()             {}
func (GiftWrapStatus) signal()          {}
