// Package secretbox seals credentials before they are persisted.
package secretbox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const prefix = "enc:v1:"

var ErrMalformed = errors.New("secretbox: malformed sealed value")

// Box seals and opens secret strings. A Box without a key passes values
// through unchanged so local development needs no key material.
type Box struct {
	key []byte
}

// New derives a 32 byte key from passphrase. An empty passphrase yields a
// passthrough Box.
func New(passphrase string) *Box {
	passphrase = strings.TrimSpace(passphrase)
	if passphrase == "" {
		return &Box{}
	}
	sum := sha256.Sum256([]byte(passphrase))
	return &Box{key: sum[:]}
}

func (b *Box) Enabled() bool { return b != nil && len(b.key) == chacha20poly1305.KeySize }

func (b *Box) Seal(plain string) (string, error) {
	if plain == "" || !b.Enabled() || strings.HasPrefix(plain, prefix) {
		return plain, nil
	}
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("secretbox: init: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plain), nil)
	return prefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Values without the sealed prefix are returned as is.
func (b *Box) Open(value string) (string, error) {
	if !strings.HasPrefix(value, prefix) {
		return value, nil
	}
	if !b.Enabled() {
		return "", errors.New("secretbox: sealed value but no key configured")
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, prefix))
	if err != nil {
		return "", ErrMalformed
	}
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("secretbox: init: %w", err)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", ErrMalformed
	}
	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("secretbox: open: %w", err)
	}
	return string(plain), nil
}
