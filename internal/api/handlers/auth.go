package handlers

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/voidrush/backend/internal/analytics"
	"github.com/voidrush/backend/internal/auth"
	"github.com/voidrush/backend/internal/config"
	"github.com/voidrush/backend/internal/ratelimit"
	"github.com/voidrush/backend/internal/state"
	"github.com/voidrush/backend/internal/store"
)

type bootstrapRequest struct {
	PlayerID string `json:"playerId"`
	Proof    string `json:"proof"`
	TTLSec   int    `json:"ttlSec"`
}

// Bootstrap verifies an identity proof and issues the bearer token gating all
// progression endpoints. Rate-limited per IP and per claimed player id so
// token grinding stays cheap to refuse.
func Bootstrap(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	st := store.New(db)
	limiter := ratelimit.New(rdb)

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if !consumeQuota(c, cfg, limiter, "auth_ip", c.ClientIP(), cfg.AuthIPLimit, cfg.AuthIPWindowSeconds) {
			return
		}

		var req bootstrapRequest
		_ = c.ShouldBindJSON(&req)
		if req.PlayerID == "" {
			req.PlayerID = c.GetHeader("x-player-id")
		}
		if req.Proof == "" {
			req.Proof = c.GetHeader("x-voidrush-proof")
		}

		playerID := auth.SanitizeOpaqueID(req.PlayerID, "player")
		if playerID == "" {
			fail(c, http.StatusBadRequest, "invalid_identity", "a well-formed player id is required", nil)
			return
		}
		if req.Proof == "" {
			fail(c, http.StatusUnauthorized, "missing_proof", "x-voidrush-proof header or proof field is required", nil)
			return
		}

		if !consumeQuota(c, cfg, limiter, "auth_player", playerID, cfg.AuthPlayerLimit, cfg.AuthPlayerWindowSecs) {
			return
		}

		// Bind the token to the claimed identity: first bootstrap records the
		// proof, later ones must present the same one.
		digest := auth.HashProofV1(playerID, req.Proof)
		identity, err := st.GetIdentity(ctx, playerID)
		if err != nil {
			log.Printf("[AUTH] Failed to load identity for %s: %v", playerID, err)
			fail(c, http.StatusServiceUnavailable, "db_unavailable", "identity storage is unavailable", nil)
			return
		}

		if identity == nil {
			storedHash, err := auth.HashProofForStorage(digest)
			if err != nil {
				log.Printf("[AUTH] Failed to hash proof for %s: %v", playerID, err)
				fail(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
				return
			}
			created, err := st.CreateIdentity(ctx, playerID, storedHash)
			if err != nil {
				fail(c, http.StatusServiceUnavailable, "db_unavailable", "identity storage is unavailable", nil)
				return
			}
			if !created {
				// Lost a concurrent first-bootstrap race; verify against the
				// winner's record.
				identity, err = st.GetIdentity(ctx, playerID)
				if err != nil || identity == nil {
					fail(c, http.StatusServiceUnavailable, "db_unavailable", "identity storage is unavailable", nil)
					return
				}
			}
		}

		if identity != nil && !auth.VerifyProofRecord(identity.ProofHash, digest) {
			fail(c, http.StatusUnauthorized, "proof_mismatch", "identity proof does not match this player id", nil)
			return
		}

		ttl := cfg.TokenTTLSeconds
		if req.TTLSec > 0 {
			ttl = req.TTLSec
		}
		sessionID := auth.NewOpaqueID("session")
		issued, err := auth.IssueToken(cfg.AuthSecret, playerID, sessionID, ttl, time.Now())
		if err != nil {
			var authErr *auth.AuthError
			if errors.As(err, &authErr) && authErr.Code == "auth_secret_missing" {
				fail(c, http.StatusServiceUnavailable, authErr.Code, "auth is not configured", nil)
				return
			}
			fail(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
			return
		}

		if err := st.TouchIdentity(ctx, playerID); err != nil {
			log.Printf("[AUTH] Failed to touch identity for %s: %v", playerID, err)
		}
		analytics.Write(ctx, db, analytics.Point{
			Event:    "auth_bootstrap",
			PlayerID: playerID,
			Status:   "issued",
			DayKey:   state.DayKey(time.Now()),
		})

		c.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"token":     issued.Token,
			"playerId":  playerID,
			"sessionId": sessionID,
			"issuedAt":  issued.IssuedAt.Format(time.RFC3339),
			"expiresAt": issued.ExpiresAt.Format(time.RFC3339),
		})
	}
}

// consumeQuota applies one fixed-window rate gate, answering 429 with a
// retry-after hint when exhausted. Redis trouble fails open or closed per
// config.
func consumeQuota(c *gin.Context, cfg *config.Config, limiter *ratelimit.Limiter, scope, identifier string, limit, windowSec int) bool {
	res, err := limiter.Consume(c.Request.Context(), scope, identifier, limit, windowSec)
	if err != nil {
		log.Printf("[RATELIMIT] %s/%s check failed: %v", scope, identifier, err)
		if cfg.RateLimitFailOpen {
			return true
		}
		fail(c, http.StatusServiceUnavailable, "rate_limit_unavailable", "rate limiting is unavailable", nil)
		return false
	}
	if !res.OK {
		c.Header("Retry-After", strconv.Itoa(res.RetryAfterSec))
		fail(c, http.StatusTooManyRequests, "rate_limited", "too many requests", gin.H{
			"limit":         res.Limit,
			"retryAfterSec": res.RetryAfterSec,
		})
		return false
	}
	return true
}

// AuthMiddleware validates the bearer token and pins the request to the token
// identity. A declared x-player-id or x-session-id header that disagrees with
// the token is rejected rather than trusted.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ReadBearerToken(c.GetHeader("Authorization"))
		payload, err := auth.VerifyToken(cfg.AuthSecret, token, time.Now())
		if err != nil {
			var authErr *auth.AuthError
			code := "invalid_token"
			if errors.As(err, &authErr) {
				code = authErr.Code
			}
			status := http.StatusUnauthorized
			if code == "auth_secret_missing" {
				status = http.StatusServiceUnavailable
			}
			failAbort(c, status, code, "bearer token verification failed")
			return
		}

		if declared := c.GetHeader("x-player-id"); declared != "" && declared != payload.PlayerID {
			failAbort(c, http.StatusUnauthorized, "identity_mismatch", "x-player-id does not match the token identity")
			return
		}
		if declared := c.GetHeader("x-session-id"); declared != "" && declared != payload.SessionID {
			failAbort(c, http.StatusUnauthorized, "identity_mismatch", "x-session-id does not match the token identity")
			return
		}

		c.Set("player_id", payload.PlayerID)
		c.Set("session_id", payload.SessionID)
		c.Next()
	}
}

// RateLimitMiddleware applies the per-player progression quota. Runs after
// AuthMiddleware so the identifier is the verified player id.
func RateLimitMiddleware(rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	limiter := ratelimit.New(rdb)
	return func(c *gin.Context) {
		playerID := playerIDFrom(c)
		if playerID == "" {
			failAbort(c, http.StatusUnauthorized, "missing_player_id", "authenticated player id is required")
			return
		}
		if !consumeQuota(c, cfg, limiter, "progression", playerID, cfg.ProgressionLimit, cfg.ProgressionWindowSecs) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// OpsMiddleware gates operator endpoints behind the static ops token.
func OpsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.OpsToken == "" {
			failAbort(c, http.StatusServiceUnavailable, "ops_disabled", "ops endpoints are not configured")
			return
		}
		provided := c.GetHeader("x-ops-token")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.OpsToken)) != 1 {
			failAbort(c, http.StatusUnauthorized, "invalid_ops_token", "x-ops-token is missing or wrong")
			return
		}
		c.Next()
	}
}
