package secret

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSealer(t *testing.T) *Sealer {
	t.Helper()
	s, err := NewSealer(bytes.Repeat([]byte{7}, KeySize), "test")
	require.NoError(t, err)
	return s
}

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", KeyFileName)

	key, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Len(t, key, KeySize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	again, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestLoadOrCreateKey_RejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), KeyFileName)
	require.NoError(t, os.WriteFile(path, []byte("short"), 0600))

	_, err := LoadOrCreateKey(path)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLoadOrCreateKey_FailedWriteLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, KeyFileName)

	prev := writeKey
	writeKey = func(f *os.File, key []byte) error {
		_, _ = f.Write(key[:5])
		return errors.New("disk full")
	}
	_, err := LoadOrCreateKey(path)
	writeKey = prev

	require.ErrorContains(t, err, "disk full")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial key or temp file may remain")

	key, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Len(t, key, KeySize)
}

func TestLoadOrCreateKey_ExistingKeyWinsRace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, KeyFileName)
	existing := bytes.Repeat([]byte{9}, KeySize)
	require.NoError(t, os.WriteFile(path, existing, 0600))

	require.ErrorIs(t, installKey(path, bytes.Repeat([]byte{1}, KeySize)), os.ErrExist)

	key, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Equal(t, existing, key)
}

func TestSealer_RoundTrip(t *testing.T) {
	s := testSealer(t)

	sealed, err := s.Seal([]byte("gho_secret"), []byte("github/default"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "gho_secret")

	plain, err := s.Open(sealed, []byte("github/default"))
	require.NoError(t, err)
	assert.Equal(t, "gho_secret", string(plain))
}

func TestSealer_NoncesDiffer(t *testing.T) {
	s := testSealer(t)
	a, err := s.Seal([]byte("x"), nil)
	require.NoError(t, err)
	b, err := s.Seal([]byte("x"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_Open_Failures(t *testing.T) {
	s := testSealer(t)
	sealed, err := s.Seal([]byte("token"), []byte("a"))
	require.NoError(t, err)

	_, err = s.Open(sealed, []byte("b"))
	assert.ErrorIs(t, err, ErrDecrypt, "wrong associated data")

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = s.Open(tampered, []byte("a"))
	assert.ErrorIs(t, err, ErrDecrypt, "tampered ciphertext")

	_, err = s.Open([]byte{1, 2, 3}, nil)
	assert.ErrorIs(t, err, ErrDecrypt, "truncated")

	other, err := NewSealer(bytes.Repeat([]byte{8}, KeySize), "test")
	require.NoError(t, err)
	_, err = other.Open(sealed, []byte("a"))
	assert.ErrorIs(t, err, ErrDecrypt, "different key")
}

func TestNewSealer_RejectsBadKey(t *testing.T) {
	_, err := NewSealer([]byte("short"), "test")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
