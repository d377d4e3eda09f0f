// Package secrets seals platform access tokens before they reach the database.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const sealedPrefix = "sb1:"

var ErrMalformed = errors.New("secrets: malformed sealed value")

// Box seals and opens strings with NaCl secretbox
type Box struct {
	key [32]byte
}

// NewBox builds a Box from a 64-char hex key, or derives one from any other
// non-empty passphrase with SHA-256.
func NewBox(key string) (*Box, error) {
	if key == "" {
		return nil, errors.New("secrets: empty key")
	}
	b := &Box{}
	if raw, err := hex.DecodeString(key); err == nil && len(raw) == 32 {
		copy(b.key[:], raw)
		return b, nil
	}
	b.key = sha256.Sum256([]byte(key))
	return b, nil
}

// Seal encrypts plaintext. Empty input stays empty.
func (b *Box) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("secrets: nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal.
func (b *Box) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	encoded, ok := strings.CutPrefix(sealed, sealedPrefix)
	if !ok {
		return "", ErrMalformed
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(raw) < 24+secretbox.Overhead {
		return "", ErrMalformed
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, &b.key)
	if !ok {
		return "", errors.New("secrets: authentication failed")
	}
	return string(plain), nil
}
