package storage

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ErrSealBroken is returned when a stored value fails authentication, usually
// because the key changed since it was written.
var ErrSealBroken = errors.New("storage: sealed value failed authentication")

const (
	sealInfo      = "udhaari state v1"
	minSecretSize = 16
)

// Sealed wraps a Store and encrypts every value with XChaCha20-Poly1305.
// The key name is bound as additional data so values cannot be swapped
// between keys.
type Sealed struct {
	inner Store
	aead  cipher.AEAD
}

var _ Store = (*Sealed)(nil)

// NewSealed derives the value key from secret with HKDF-SHA256.
func NewSealed(inner Store, secret []byte) (*Sealed, error) {
	if len(secret) < minSecretSize {
		return nil, fmt.Errorf("sealing secret must be at least %d bytes", minSecretSize)
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(sealInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive sealing key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &Sealed{inner: inner, aead: aead}, nil
}

func (s *Sealed) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, fmt.Errorf("%w: %s is truncated", ErrSealBroken, key)
	}
	value, err := s.aead.Open(nil, sealed[:n], sealed[n:], []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSealBroken, key)
	}
	return value, nil
}

func (s *Sealed) Put(ctx context.Context, key string, value []byte) error {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+chacha20poly1305.Overhead)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.inner.Put(ctx, key, s.aead.Seal(nonce, nonce, value, []byte(key)))
}

func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *Sealed) Close() error {
	return s.inner.Close()
}

// ParseSecret decodes a hex encoded sealing secret.
func ParseSecret(s string) ([]byte, error) {
	secret, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid sealing secret: %w", err)
	}
	if len(secret) < minSecretSize {
		return nil, fmt.Errorf("sealing secret must be at least %d bytes", minSecretSize)
	}
	return secret, nil
}

// LoadOrCreateSecret reads the hex secret at path, generating a random 32 byte
// secret with 0600 permissions on first use.
func LoadOrCreateSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return ParseSecret(string(data))
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(secret)+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return secret, nil
}
