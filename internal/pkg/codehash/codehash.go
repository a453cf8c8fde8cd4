package codehash

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const prefix = "sha256:"

// Normalize canonicalizes a plaintext code before hashing or comparison.
func Normalize(plaintext string) string {
	return strings.ToLower(strings.TrimSpace(plaintext))
}

// Hash returns the canonical digest representation for a code.
func Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(Normalize(plaintext)))
	return prefix + hex.EncodeToString(sum[:])
}

// IsDigest reports whether stored is a sha256 digest produced by Hash.
func IsDigest(stored string) bool {
	return strings.HasPrefix(stored, prefix)
}

// ValidDigest reports whether stored is a digest with a full hex sha256 sum.
func ValidDigest(stored string) bool {
	if !IsDigest(stored) {
		return false
	}
	sum, err := hex.DecodeString(strings.TrimPrefix(stored, prefix))
	return err == nil && len(sum) == sha256.Size
}

// IsBcrypt reports whether stored looks like a bcrypt hash.
func IsBcrypt(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$")
}

// Verify checks whether plaintext matches the stored digest or bcrypt hash.
func Verify(stored, plaintext string) bool {
	switch {
	case IsDigest(stored):
		expected := Hash(plaintext)
		return subtle.ConstantTimeCompare([]byte(strings.ToLower(stored)), []byte(expected)) == 1
	case IsBcrypt(stored):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(Normalize(plaintext))) == nil
	default:
		return false
	}
}

// HashBcrypt returns a bcrypt hash of the normalized code. cost<=0 uses
// bcrypt.DefaultCost.
func HashBcrypt(plaintext string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(Normalize(plaintext)), cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
