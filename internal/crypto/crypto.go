// Package crypto derives the SQLCipher page key for the notebook database.
// The key is never stored: it is derived from MASTER_KEY with HKDF-SHA256
// and a versioned info string, so rotating the version yields a new key.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the size of a derived database key in bytes (256 bits)
	KeySize = 32

	// MasterKeySize is the required size of the decoded master key.
	MasterKeySize = 32
)

// DeriveKey derives a database key from a master key using HKDF-SHA256.
// info = "db:" + name + ":v" + version
func DeriveKey(masterKey []byte, name string, version int) []byte {
	info := fmt.Sprintf("db:%s:v%d", name, version)

	// Salt is nil: the master key is already uniformly random.
	r := hkdf.New(sha256.New, masterKey, nil, []byte(info))

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		// HKDF cannot run short for a 32-byte read.
		panic(fmt.Sprintf("HKDF failed: %v", err))
	}
	return key
}

// ParseMasterKey decodes a 64-character hex master key.
func ParseMasterKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("master key is not valid hex: %w", err)
	}
	if len(key) != MasterKeySize {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", MasterKeySize, len(key))
	}
	return key, nil
}

// DatabaseKey is DeriveKey applied to a hex master key.
func DatabaseKey(hexMasterKey, name string, version int) ([]byte, error) {
	master, err := ParseMasterKey(hexMasterKey)
	if err != nil {
		return nil, err
	}
	return DeriveKey(master, name, version), nil
}
