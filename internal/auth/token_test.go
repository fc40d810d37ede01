package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-for-token-signing"

func issue(t *testing.T, ttlSec int, at time.Time) *IssuedToken {
	t.Helper()
	issued, err := IssueToken(testSecret, "player_abcdef01", "session_abcdef01", ttlSec, at)
	require.NoError(t, err)
	return issued
}

func reasonCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	authErr, ok := err.(*AuthError)
	require.True(t, ok, "error %v is not an AuthError", err)
	return authErr.Code
}

func TestIssueAndVerifyRoundtrip(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	issued := issue(t, 3600, now)

	assert.Equal(t, 2, len(strings.Split(issued.Token, ".")))
	assert.Equal(t, now.Add(time.Hour), issued.ExpiresAt)

	payload, err := VerifyToken(testSecret, issued.Token, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "player_abcdef01", payload.PlayerID)
	assert.Equal(t, "session_abcdef01", payload.SessionID)
	assert.Equal(t, TokenVersion, payload.V)
}

func TestIssueTokenClampsTTL(t *testing.T) {
	now := time.Now()

	short := issue(t, 5, now)
	assert.Equal(t, int64(60), short.Payload.Exp-short.Payload.Iat)

	long := issue(t, 366*24*3600, now)
	assert.Equal(t, int64(90*24*3600), long.Payload.Exp-long.Payload.Iat)

	def := issue(t, 0, now)
	assert.Equal(t, int64(DefaultTokenTTLSec), def.Payload.Exp-def.Payload.Iat)
}

func TestIssueTokenRejectsBadIdentity(t *testing.T) {
	_, err := IssueToken(testSecret, "bogus", "session_abcdef01", 3600, time.Now())
	assert.Equal(t, "invalid_identity", reasonCode(t, err))

	_, err = IssueToken("", "player_abcdef01", "session_abcdef01", 3600, time.Now())
	assert.Equal(t, "auth_secret_missing", reasonCode(t, err))
}

func TestVerifyTokenReasonCodes(t *testing.T) {
	now := time.Now()
	issued := issue(t, 3600, now)

	cases := []struct {
		name  string
		token string
		want  string
	}{
		{"empty", "", "missing_token"},
		{"no separator", "abcdef", "malformed_token"},
		{"extra separator", issued.Token + ".extra", "malformed_token"},
		{"garbage payload", "!!!." + strings.Split(issued.Token, ".")[1], "invalid_payload"},
		{"bad signature encoding", strings.Split(issued.Token, ".")[0] + ".!!!", "invalid_signature_encoding"},
	}
	for _, tc := range cases {
		_, err := VerifyToken(testSecret, tc.token, now)
		assert.Equal(t, tc.want, reasonCode(t, err), tc.name)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	now := time.Now()
	issued := issue(t, 3600, now)

	_, err := VerifyToken("a-different-secret", issued.Token, now)
	assert.Equal(t, "signature_mismatch", reasonCode(t, err))
}

func TestVerifyTokenTamperedPayload(t *testing.T) {
	now := time.Now()
	issued := issue(t, 3600, now)
	parts := strings.Split(issued.Token, ".")

	other := issue(t, 7200, now)
	forged := strings.Split(other.Token, ".")[0] + "." + parts[1]

	_, err := VerifyToken(testSecret, forged, now)
	assert.Equal(t, "signature_mismatch", reasonCode(t, err))
}

func TestVerifyTokenExpiryWithSkew(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	issued := issue(t, 60, now)

	// Expired 60s ago but inside the 120s tolerance: accepted.
	_, err := VerifyToken(testSecret, issued.Token, now.Add(2*time.Minute))
	assert.NoError(t, err)

	// Past the tolerance: rejected with its own code.
	_, err = VerifyToken(testSecret, issued.Token, now.Add(4*time.Minute))
	assert.Equal(t, "token_expired", reasonCode(t, err))
}

func TestVerifyTokenNotYetValid(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	issued := issue(t, 3600, now)

	// Verifier clock 5 minutes behind the issuer: iat is in the future
	// beyond the skew window.
	_, err := VerifyToken(testSecret, issued.Token, now.Add(-5*time.Minute))
	assert.Equal(t, "token_not_yet_valid", reasonCode(t, err))

	// A minute behind is inside the window.
	_, err = VerifyToken(testSecret, issued.Token, now.Add(-time.Minute))
	assert.NoError(t, err)
}

func TestSanitizeOpaqueID(t *testing.T) {
	assert.Equal(t, "player_abcdef01", SanitizeOpaqueID(" player_abcdef01 ", "player"))
	assert.Equal(t, "", SanitizeOpaqueID("player_short", "player"))
	assert.Equal(t, "", SanitizeOpaqueID("session_abcdef01", "player"))
	assert.Equal(t, "", SanitizeOpaqueID("player_has spaces in it", "player"))
	assert.Equal(t, "", SanitizeOpaqueID("", "player"))
	assert.Equal(t, "player_A.b-c_d1234", SanitizeOpaqueID("player_A.b-c_d1234", "player"))
}

func TestNewOpaqueIDShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		id := NewOpaqueID("session")
		require.NotEmpty(t, SanitizeOpaqueID(id, "session"), "generated id %q fails its own validation", id)
		assert.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}

func TestReadBearerToken(t *testing.T) {
	assert.Equal(t, "abc.def", ReadBearerToken("Bearer abc.def"))
	assert.Equal(t, "abc.def", ReadBearerToken("bearer abc.def"))
	assert.Equal(t, "", ReadBearerToken("abc.def"))
	assert.Equal(t, "", ReadBearerToken(""))
	assert.Equal(t, "", ReadBearerToken("Basic dXNlcjpwYXNz"))
}
