package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashProofV1IsDeterministicAndBound(t *testing.T) {
	a := HashProofV1("player_abcdef01", "device-fingerprint")
	b := HashProofV1("player_abcdef01", "device-fingerprint")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "voidrush.proof.v1:"))

	// Same proof under another player id yields a different digest.
	assert.NotEqual(t, a, HashProofV1("player_other9999", "device-fingerprint"))
	assert.NotEqual(t, a, HashProofV1("player_abcdef01", "other-proof"))
}

func TestHashProofForStorageAcceptsFullDigest(t *testing.T) {
	// The prefixed hex digest is 82 bytes, past bcrypt's 72-byte password
	// cap; storage hashing must condense it rather than pass it through.
	digest := HashProofV1("player_abcdef01", "device-fingerprint")
	require.Greater(t, len(digest), 72)

	stored, err := HashProofForStorage(digest)
	require.NoError(t, err)
	assert.True(t, VerifyProofRecord(stored, digest))
}

func TestProofRecordRoundtrip(t *testing.T) {
	digest := HashProofV1("player_abcdef01", "device-fingerprint")

	stored, err := HashProofForStorage(digest)
	require.NoError(t, err)
	assert.NotEqual(t, digest, stored)

	assert.True(t, VerifyProofRecord(stored, digest))
	assert.False(t, VerifyProofRecord(stored, HashProofV1("player_abcdef01", "wrong")))
	assert.False(t, VerifyProofRecord("", digest))
	assert.False(t, VerifyProofRecord("not-a-bcrypt-hash", digest))
}
