package auth

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func testPassword_HashVerify_Roundtrip(t *rapid.T) {
	var hasher PasswordHasher = FakeInsecureHasher{}
	password := rapid.StringN(8, 100, 200).Draw(t, "password")

	hash, err := hasher.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !hasher.VerifyPassword(password, hash) {
		t.Fatalf("VerifyPassword failed for password %q", password)
	}
}

// TestPassword_HashVerify_Roundtrip checks the PasswordHasher contract
// without Argon2 overhead.
func TestPassword_HashVerify_Roundtrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testPassword_HashVerify_Roundtrip)
}

func FuzzPassword_HashVerify_Roundtrip(f *testing.F) {
	f.Add([]byte{0x00})
	f.Fuzz(rapid.MakeFuzz(testPassword_HashVerify_Roundtrip))
}

func testPassword_WrongPassword_FailsVerify(t *rapid.T) {
	var hasher PasswordHasher = FakeInsecureHasher{}
	password1 := rapid.StringN(8, 50, 100).Draw(t, "password1")
	password2 := rapid.StringN(8, 50, 100).Filter(func(s string) bool {
		return s != password1
	}).Draw(t, "password2")

	hash, err := hasher.HashPassword(password1)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hasher.VerifyPassword(password2, hash) {
		t.Fatalf("VerifyPassword should fail for wrong password")
	}
}

func TestPassword_WrongPassword_FailsVerify(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testPassword_WrongPassword_FailsVerify)
}

// Argon2 is slow, so these run once rather than under rapid.
func TestPassword_Argon2_RoundtripAndSalt(t *testing.T) {
	t.Parallel()
	hash1, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	hash2, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash1 == hash2 {
		t.Fatalf("hashing is deterministic - salt is not random")
	}
	if !strings.HasPrefix(hash1, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Fatalf("unexpected encoding: %s", hash1)
	}
	if !VerifyPassword("correct horse", hash1) {
		t.Fatalf("VerifyPassword rejected the right password")
	}
	if VerifyPassword("wrong horse", hash1) {
		t.Fatalf("VerifyPassword accepted the wrong password")
	}
}

func TestPassword_VerifyRejectsMalformed(t *testing.T) {
	t.Parallel()
	for _, encoded := range []string{
		"",
		"$fake$password",
		"$argon2i$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
	} {
		if VerifyPassword("password", encoded) {
			t.Fatalf("VerifyPassword accepted %q", encoded)
		}
	}
}

func testPassword_Validation(t *rapid.T) {
	short := string(rapid.SliceOfN(rapid.Byte(), 0, MinPasswordLength-1).Draw(t, "short"))
	if err := ValidatePasswordStrength(short); err == nil {
		t.Fatalf("short password (len=%d) should fail validation", len(short))
	}
	valid := string(rapid.SliceOfN(rapid.Byte(), MinPasswordLength, 100).Draw(t, "valid"))
	if err := ValidatePasswordStrength(valid); err != nil {
		t.Fatalf("valid password (len=%d) should pass validation: %v", len(valid), err)
	}
}

func TestPassword_Validation(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testPassword_Validation)
}
