package auth

import "strings"

// FakeInsecureHasher implements PasswordHasher with zero crypto overhead.
// Stores passwords as "$fake$<plaintext>". For tests only.
type FakeInsecureHasher struct{}

func (FakeInsecureHasher) HashPassword(password string) (string, error) {
	return "$fake$" + password, nil
}

func (FakeInsecureHasher) VerifyPassword(password, encodedHash string) bool {
	if !strings.HasPrefix(encodedHash, "$fake$") {
		return false
	}
	return strings.TrimPrefix(encodedHash, "$fake$") == password
}
