// Package auth issues and verifies the signed bearer tokens gating all
// progression endpoints, and implements the proof-of-identity scheme used at
// bootstrap.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"regexp"
	"strings"
	"time"
)

const (
	TokenVersion       = 1
	DefaultTokenTTLSec = 14 * 24 * 60 * 60
	maxTokenTTLSec     = 90 * 24 * 60 * 60
	minTokenTTLSec     = 60
	clockSkewSec       = 120
)

// AuthError carries a stable machine-readable reason code so callers can log
// and alert on distinct failure paths instead of a bare boolean.
type AuthError struct {
	Code string
}

func (e *AuthError) Error() string {
	return e.Code
}

func authError(code string) *AuthError {
	return &AuthError{Code: code}
}

// TokenPayload is the signed claim set, base64url-encoded as the first token
// segment.
type TokenPayload struct {
	V         int    `json:"v"`
	PlayerID  string `json:"playerId"`
	SessionID string `json:"sessionId"`
	Iat       int64  `json:"iat"`
	Exp       int64  `json:"exp"`
}

// IssuedToken is the result of a successful token issue.
type IssuedToken struct {
	Token     string
	Payload   TokenPayload
	IssuedAt  time.Time
	ExpiresAt time.Time
}

var (
	playerIDPattern  = regexp.MustCompile(`^player_[A-Za-z0-9._-]{8,}$`)
	sessionIDPattern = regexp.MustCompile(`^session_[A-Za-z0-9._-]{8,}$`)
)

func opaqueIDPattern(prefix string) *regexp.Regexp {
	switch prefix {
	case "player":
		return playerIDPattern
	case "session":
		return sessionIDPattern
	default:
		return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `_[A-Za-z0-9._-]{8,}$`)
	}
}

// SanitizeOpaqueID validates the strict opaque-id shape (prefixed, separator-
// friendly alphanumeric, minimum length). Returns "" on anything that does
// not match.
func SanitizeOpaqueID(raw, prefix string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	if len(text) > 128 {
		text = text[:128]
	}
	if !opaqueIDPattern(prefix).MatchString(text) {
		return ""
	}
	return text
}

const opaqueIDCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewOpaqueID generates a fresh prefixed random id, e.g. "session_x4f...".
func NewOpaqueID(prefix string) string {
	result := make([]byte, 24)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(opaqueIDCharset))))
		result[i] = opaqueIDCharset[n.Int64()]
	}
	return prefix + "_" + string(result)
}

func signPayload(secret, payloadB64 string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payloadB64))
	return mac.Sum(nil)
}

// IssueToken builds and signs a bearer token for the given identity. The TTL
// is clamped to [60s, 90 days].
func IssueToken(secret, playerID, sessionID string, ttlSec int, now time.Time) (*IssuedToken, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, authError("auth_secret_missing")
	}

	safePlayerID := SanitizeOpaqueID(playerID, "player")
	safeSessionID := SanitizeOpaqueID(sessionID, "session")
	if safePlayerID == "" || safeSessionID == "" {
		return nil, authError("invalid_identity")
	}

	if ttlSec <= 0 {
		ttlSec = DefaultTokenTTLSec
	}
	if ttlSec < minTokenTTLSec {
		ttlSec = minTokenTTLSec
	}
	if ttlSec > maxTokenTTLSec {
		ttlSec = maxTokenTTLSec
	}

	nowSec := now.Unix()
	payload := TokenPayload{
		V:         TokenVersion,
		PlayerID:  safePlayerID,
		SessionID: safeSessionID,
		Iat:       nowSec,
		Exp:       nowSec + int64(ttlSec),
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, authError("invalid_payload")
	}
	payloadB64 := base64.RawURLEncoding.EncodeToString(payloadJSON)
	signatureB64 := base64.RawURLEncoding.EncodeToString(signPayload(secret, payloadB64))

	return &IssuedToken{
		Token:     payloadB64 + "." + signatureB64,
		Payload:   payload,
		IssuedAt:  time.Unix(payload.Iat, 0).UTC(),
		ExpiresAt: time.Unix(payload.Exp, 0).UTC(),
	}, nil
}

// VerifyToken checks a bearer token end to end: shape, payload, claim sanity,
// expiry with clock-skew tolerance, and the HMAC signature in constant time.
// Every failure path has its own reason code; none reveal which signature
// byte differed.
func VerifyToken(secret, token string, now time.Time) (*TokenPayload, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, authError("auth_secret_missing")
	}

	raw := strings.TrimSpace(token)
	if raw == "" {
		return nil, authError("missing_token")
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, authError("malformed_token")
	}
	payloadB64, signatureB64 := parts[0], parts[1]

	payloadJSON, err := base64.RawURLEncoding.DecodeString(payloadB64)
	if err != nil {
		return nil, authError("invalid_payload")
	}
	var payload TokenPayload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return nil, authError("invalid_payload")
	}

	safePlayerID := SanitizeOpaqueID(payload.PlayerID, "player")
	safeSessionID := SanitizeOpaqueID(payload.SessionID, "session")
	if safePlayerID == "" || safeSessionID == "" || payload.Exp <= payload.Iat {
		return nil, authError("invalid_claims")
	}

	nowSec := now.Unix()
	if payload.Iat > nowSec+clockSkewSec {
		return nil, authError("token_not_yet_valid")
	}
	if payload.Exp <= nowSec-clockSkewSec {
		return nil, authError("token_expired")
	}

	actualSig, err := base64.RawURLEncoding.DecodeString(signatureB64)
	if err != nil {
		return nil, authError("invalid_signature_encoding")
	}
	expectedSig := signPayload(secret, payloadB64)
	if len(expectedSig) != len(actualSig) || subtle.ConstantTimeCompare(expectedSig, actualSig) != 1 {
		return nil, authError("signature_mismatch")
	}

	return &TokenPayload{
		V:         TokenVersion,
		PlayerID:  safePlayerID,
		SessionID: safeSessionID,
		Iat:       payload.Iat,
		Exp:       payload.Exp,
	}, nil
}

// ReadBearerToken extracts the token from an Authorization header value.
func ReadBearerToken(header string) string {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return ""
	}
	if len(raw) > 7 && strings.EqualFold(raw[:7], "Bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
