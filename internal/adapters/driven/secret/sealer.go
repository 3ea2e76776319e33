// Package secret encrypts small secrets at rest with a per-installation
// key kept in a 0600 file beside the data directory.
package secret

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of the master key file.
const KeySize = 32

// KeyFileName is the default name of the master key file.
const KeyFileName = "secret.key"

var (
	// ErrInvalidKey indicates the key file exists but is malformed.
	ErrInvalidKey = errors.New("secret: invalid key")

	// ErrDecrypt indicates the ciphertext could not be authenticated.
	ErrDecrypt = errors.New("secret: decryption failed")
)

// LoadOrCreateKey reads the master key at path, creating it with fresh
// random bytes when it does not exist.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != KeySize {
			return nil, fmt.Errorf("%w: %s has %d bytes", ErrInvalidKey, path, len(key))
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating key directory: %w", err)
	}
	key = make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	if err := installKey(path, key); err != nil {
		if errors.Is(err, os.ErrExist) {
			// Another process won the race.
			return LoadOrCreateKey(path)
		}
		return nil, err
	}
	return key, nil
}

// writeKey is replaced in tests to simulate a failing disk.
var writeKey = func(f *os.File, key []byte) error {
	_, err := f.Write(key)
	return err
}

// installKey writes key to a temporary file beside path and links it into
// place, so path either holds a whole key or does not exist. The link
// fails with os.ErrExist when path was created meanwhile.
func installKey(path string, key []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating key: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeKey(tmp, key); err != nil {
		tmp.Close()
		return fmt.Errorf("writing key: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing key: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing key: %w", err)
	}
	if err := os.Link(tmp.Name(), path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return err
		}
		return fmt.Errorf("installing key: %w", err)
	}
	return nil
}

// Sealer encrypts with XChaCha20-Poly1305 under a key derived from the
// master key with HKDF-SHA256.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a key for purpose from masterKey.
func NewSealer(masterKey []byte, purpose string) (*Sealer, error) {
	if len(masterKey) != KeySize {
		return nil, ErrInvalidKey
	}
	derived := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, []byte(purpose)), derived); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(derived)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext bound to aad. The output is nonce then ciphertext.
func (s *Sealer) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, aad), nil
}

// Open decrypts a value produced by Seal with the same aad.
func (s *Sealer) Open(sealed, aad []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize()+s.aead.Overhead() {
		return nil, ErrDecrypt
	}
	nonce, ct := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}
