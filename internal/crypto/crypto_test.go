package crypto

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// DeriveKey is a pure function: the same inputs always produce the same key.
func TestDeriveKey_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		masterKey := rapid.SliceOfN(rapid.Byte(), 16, 64).Draw(t, "masterKey")
		name := rapid.String().Draw(t, "name")
		version := rapid.IntRange(1, 1000).Draw(t, "version")

		k1 := DeriveKey(masterKey, name, version)
		k2 := DeriveKey(masterKey, name, version)
		if !bytes.Equal(k1, k2) {
			t.Fatalf("derivation not deterministic: %x != %x", k1, k2)
		}
		if len(k1) != KeySize {
			t.Fatalf("key size = %d, want %d", len(k1), KeySize)
		}
	})
}

func TestDeriveKey_DomainSeparation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		masterKey := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "masterKey")
		name := rapid.StringMatching(`[a-z]{1,12}`).Draw(t, "name")
		v1 := rapid.IntRange(1, 1000).Draw(t, "v1")
		v2 := rapid.IntRange(1, 1000).Filter(func(v int) bool { return v != v1 }).Draw(t, "v2")

		if bytes.Equal(DeriveKey(masterKey, name, v1), DeriveKey(masterKey, name, v2)) {
			t.Fatalf("versions %d and %d produced the same key", v1, v2)
		}
		if bytes.Equal(DeriveKey(masterKey, name, v1), DeriveKey(masterKey, name+"x", v1)) {
			t.Fatalf("names %q and %q produced the same key", name, name+"x")
		}
	})
}

func TestParseMasterKey(t *testing.T) {
	good := strings.Repeat("ab", 32)
	key, err := ParseMasterKey(good)
	if err != nil {
		t.Fatalf("ParseMasterKey(valid) error: %v", err)
	}
	if hex.EncodeToString(key) != good {
		t.Fatalf("decoded key mismatch")
	}

	for _, bad := range []string{"", "zz", strings.Repeat("ab", 16), strings.Repeat("ab", 33)} {
		if _, err := ParseMasterKey(bad); err == nil {
			t.Fatalf("ParseMasterKey(%q) = nil error", bad)
		}
	}
}

func TestDatabaseKey_MatchesDeriveKey(t *testing.T) {
	hexKey := strings.Repeat("01", 32)
	got, err := DatabaseKey(hexKey, "jinwoo", 1)
	if err != nil {
		t.Fatalf("DatabaseKey error: %v", err)
	}
	master, _ := hex.DecodeString(hexKey)
	if !bytes.Equal(got, DeriveKey(master, "jinwoo", 1)) {
		t.Fatalf("DatabaseKey disagrees with DeriveKey")
	}
}
