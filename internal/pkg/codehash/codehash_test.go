package codehash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, Hash("CARE-2025"), Hash("  care-2025 "))
	assert.True(t, IsDigest(Hash("x")))
}

func TestVerifyDigest(t *testing.T) {
	stored := Hash("care-2025")
	assert.True(t, Verify(stored, "Care-2025"))
	assert.False(t, Verify(stored, "care-2024"))
	assert.False(t, Verify("plain", "plain"))
}

func TestVerifyBcrypt(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("care-2025"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := string(hashed)
	require.True(t, IsBcrypt(stored))
	assert.True(t, Verify(stored, " CARE-2025"))
	assert.False(t, Verify(stored, "nope"))
}

func TestHashBcrypt(t *testing.T) {
	stored, err := HashBcrypt("  Ward-Rounds ", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, IsBcrypt(stored))
	assert.True(t, Verify(stored, "ward-rounds"))
	assert.False(t, Verify(stored, "ward rounds"))
}

func TestValidDigest(t *testing.T) {
	assert.True(t, ValidDigest(Hash("care-2025")))
	assert.True(t, ValidDigest("sha256:"+strings.ToUpper(strings.TrimPrefix(Hash("care-2025"), "sha256:"))))
	assert.False(t, ValidDigest("sha256:abc"))
	assert.False(t, ValidDigest("sha256:"+strings.Repeat("g", 64)))
	assert.False(t, ValidDigest("care-2025"))
}
