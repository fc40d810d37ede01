package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// envelope is the body shape of every mutating request. requestId is the
// client-generated idempotency key; an empty one disables replay caching.
type envelope struct {
	RequestID    string          `json:"requestId"`
	ClientSentAt string          `json:"clientSentAt"`
	Payload      json.RawMessage `json:"payload"`
}

// readEnvelope parses the request body leniently: a missing or malformed body
// becomes an empty envelope rather than an error, so the mutation itself
// decides what is required.
func readEnvelope(c *gin.Context) envelope {
	var env envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		return envelope{}
	}
	env.RequestID = strings.TrimSpace(env.RequestID)
	if len(env.RequestID) > 128 {
		env.RequestID = env.RequestID[:128]
	}
	return env
}

// fail writes the standard error body: a stable machine-readable code plus a
// human message, with optional extra fields.
func fail(c *gin.Context, status int, code, message string, extra gin.H) {
	body := gin.H{"ok": false, "error": code, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// failAbort is fail plus request abortion, for middleware.
func failAbort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": code, "message": message})
}

func playerIDFrom(c *gin.Context) string {
	if v, ok := c.Get("player_id"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func sessionIDFrom(c *gin.Context) string {
	if v, ok := c.Get("session_id"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// requirePlayer pulls the authenticated player id out of the context; the
// auth middleware must have run first.
func requirePlayer(c *gin.Context) (string, bool) {
	playerID := playerIDFrom(c)
	if playerID == "" {
		fail(c, http.StatusUnauthorized, "missing_player_id", "authenticated player id is required", nil)
		return "", false
	}
	return playerID, true
}
