package actors

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip44"
	"coop/engine/library"
)

// Signer is anything that can sign events and run the NIP-44 payload cipher
// for one key pair: the user's identity signer, the per-device key pair, and
// the negotiated shared encryption key pair all satisfy it.
type Signer interface {
	PublicKey() library.Account
	SignEvent(e *nostr.Event) error
	Encrypt(peer library.Account, plaintext string) (string, error)
	Decrypt(peer library.Account, ciphertext string) (string, error)
}

// KeySigner implements Signer over a locally held secret key.
type KeySigner struct {
	secret string
	public library.Account
}

func NewKeySigner(secret string) (*KeySigner, error) {
	public, err := nostr.GetPublicKey(secret)
	if err != nil {
		return nil, fmt.Errorf("could not derive public key: %w", err)
	}
	return &KeySigner{secret: secret, public: public}, nil
}

func GenerateKeySigner() *KeySigner {
	s, err := NewKeySigner(nostr.GeneratePrivateKey())
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
	return s
}

func (s *KeySigner) PublicKey() library.Account {
	return s.public
}

// SecretKey exposes the raw secret so it can be persisted to the encrypted
// store or shared with another device over the exchange protocol.
func (s *KeySigner) SecretKey() string {
	return s.secret
}

func (s *KeySigner) SignEvent(e *nostr.Event) error {
	return e.Sign(s.secret)
}

func (s *KeySigner) Encrypt(peer library.Account, plaintext string) (string, error) {
	ck, err := nip44.GenerateConversationKey(peer, s.secret)
	if err != nil {
		return "", err
	}
	// The cipher discards the salt it generates internally, so supply one.
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return nip44.Encrypt(plaintext, ck, nip44.WithCustomSalt(salt))
}

func (s *KeySigner) Decrypt(peer library.Account, ciphertext string) (string, error) {
	ck, err := nip44.GenerateConversationKey(peer, s.secret)
	if err != nil {
		return "", err
	}
	return nip44.Decrypt(ciphertext, ck)
}

// DerivePublicKey derives the x-only public key for a secret key without
// touching a Signer.
func DerivePublicKey(privateKey string) library.Account {
	if keyb, err := hex.DecodeString(privateKey); err != nil {
		library.LogCLI(fmt.Sprintf("Error decoding key from hex: %s\n", err.Error()), 0)
	} else {
		_, pubkey := btcec.PrivKeyFromBytes(keyb)
		return hex.EncodeToString(pubkey.X().Bytes())
	}
	return ""
}
