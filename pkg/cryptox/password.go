package cryptox

import "golang.org/x/crypto/bcrypt"

// hashCost is the bcrypt work factor. 12 keeps a single verify in the tens
// of milliseconds on current hardware, well above the floor of 10 required
// for credential storage.
const hashCost = 12

// HashPassword returns a salted bcrypt hash of the plaintext. The salt and
// cost are embedded in the returned string.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
// A mismatch is false, never an error; bcrypt's own comparison is
// constant-time over the digest.
func VerifyPassword(password, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}
