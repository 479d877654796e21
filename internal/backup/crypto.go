package backup

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var (
	// ErrNoKey is returned when an operation needs the backup key and none
	// is configured.
	ErrNoKey = errors.New("backup: encryption key not configured")
	// ErrDecrypt is returned for a wrong key or a corrupt backup file.
	ErrDecrypt = errors.New("backup: decryption failed (wrong key or corrupted file)")
)

// GenerateKey returns a new random key, base64 encoded.
func GenerateKey() (string, error) {
	var k [keySize]byte
	if _, err := io.ReadFull(rand.Reader, k[:]); err != nil {
		return "", fmt.Errorf("backup: generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(k[:]), nil
}

// ParseKey decodes a base64 key produced by GenerateKey.
func ParseKey(s string) (*[keySize]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("backup: key is not valid base64: %w", err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("backup: key must be %d bytes, got %d", keySize, len(raw))
	}
	var k [keySize]byte
	copy(k[:], raw)
	return &k, nil
}

// seal encrypts data with a random nonce stored in front of the ciphertext.
func seal(key *[keySize]byte, data []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("backup: nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], data, &nonce, key), nil
}

func open(key *[keySize]byte, sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	out, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrDecrypt
	}
	return out, nil
}
