package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Code size constants (in bytes before encoding).
const (
	// CodeSize128 provides 128 bits of entropy (22 chars base64url). Enough
	// for single-use, short-lived codes like email confirmation.
	CodeSize128 = 16
	// CodeSize256 provides 256 bits of entropy (43 chars base64url).
	CodeSize256 = 32
)

// GenerateCode creates a cryptographically secure random code of the given
// byte length, returned base64url-encoded without padding. Used for
// confirmation and password-recovery codes.
func GenerateCode(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("code size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random code: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
