// Package device holds this client's own signing key and, once negotiated,
// the shared encryption key usable by every device of the same identity.
package device

import (
	"github.com/sasha-s/go-deadlock"
	"coop/engine/actors"
)

type Store struct {
	mu         deadlock.RWMutex
	device     actors.Signer
	encryption actors.Signer
}

func NewStore() *Store {
	return &Store{}
}

// SetDevice installs this device's own key pair. Always present after the
// signer observer finishes startup.
func (s *Store) SetDevice(signer actors.Signer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.device = signer
}

func (s *Store) Device() (actors.Signer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.device, s.device != nil
}

// SetEncryption installs the per-identity shared encryption key. Never
// cleared during a session.
func (s *Store) SetEncryption(signer actors.Signer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encryption = signer
}

func (s *Store) Encryption() (actors.Signer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.encryption, s.encryption != nil
}

func (s *Store) HasEncryption() bool {
	_, ok := s.Encryption()
	return ok
}
