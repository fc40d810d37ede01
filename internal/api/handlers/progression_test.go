package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidrush/backend/internal/config"
	"github.com/voidrush/backend/internal/season"
	"github.com/voidrush/backend/internal/state"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

// asPlayer stands in for the auth middleware on progression routes.
func asPlayer(playerID string) gin.HandlerFunc {
	return func(c *gin.Context) { c.Set("player_id", playerID) }
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestMutationReplayReturnsStoredResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	cfg := &config.Config{}

	stored := `{"ok":true,"accepted":true,"eventType":"gacha_pull","requestId":"req-1","snapshot":{"credits":1}}`
	mock.ExpectQuery(`FROM voidrush_requests WHERE player_id`).
		WithArgs("player_abcdef01", "req-1").
		WillReturnRows(sqlmock.NewRows([]string{"response_json"}).AddRow([]byte(stored)))
	mock.ExpectQuery(`FROM voidrush_players WHERE player_id`).
		WithArgs("player_abcdef01").
		WillReturnRows(sqlmock.NewRows([]string{"state_json", "updated_at"}).
			AddRow([]byte(`{"schemaVersion":2,"credits":4321,"gems":500}`), time.Now()))

	router := gin.New()
	router.POST("/progression/gacha/pull", asPlayer("player_abcdef01"), GachaPull(db, cfg))

	w := postJSON(t, router, "/progression/gacha/pull",
		`{"requestId":"req-1","payload":{"mode":"standard","pulls":[{}]}}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["replayed"])
	assert.Equal(t, true, body["accepted"])

	// The stale cached snapshot is refreshed to the player's current state.
	snapshot, ok := body["snapshot"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(4321), snapshot["credits"])

	// No writes happened: the retry was answered entirely from the cache.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMutationReplayOfBlockedRequestStays403(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	cfg := &config.Config{}

	stored := `{"ok":false,"accepted":false,"error":"security_block","eventType":"match_result","requestId":"req-2"}`
	mock.ExpectQuery(`FROM voidrush_requests WHERE player_id`).
		WithArgs("player_abcdef01", "req-2").
		WillReturnRows(sqlmock.NewRows([]string{"response_json"}).AddRow([]byte(stored)))
	mock.ExpectQuery(`FROM voidrush_players WHERE player_id`).
		WithArgs("player_abcdef01").
		WillReturnError(sql.ErrNoRows)

	router := gin.New()
	router.POST("/progression/match-result", asPlayer("player_abcdef01"), MatchResult(db, cfg))

	w := postJSON(t, router, "/progression/match-result",
		`{"requestId":"req-2","payload":{"matchData":{"dominationPercent":50,"kills":5,"nodesCaptured":1}}}`)
	require.Equal(t, http.StatusForbidden, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["replayed"])
	assert.Equal(t, false, body["accepted"])
	assert.Equal(t, "security_block", body["error"])

	// Detection never re-runs and nothing is persisted on a blocked retry.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMutationPersistsOnceAndCachesResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	cfg := &config.Config{}

	dayKey := state.DayKey(time.Now())
	window, err := season.WindowFor(dayKey)
	require.NoError(t, err)

	mock.ExpectQuery(`FROM voidrush_requests WHERE player_id`).
		WithArgs("player_abcdef01", "req-3").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM voidrush_seasons WHERE status`).
		WillReturnRows(sqlmock.NewRows([]string{"season_id", "label", "starts_on", "ends_on", "status", "created_at", "updated_at"}).
			AddRow(window.SeasonID, window.Label, window.StartsOn, window.EndsOn, "active", time.Now(), time.Now()))
	mock.ExpectQuery(`FROM voidrush_players WHERE player_id`).
		WithArgs("player_abcdef01").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO voidrush_players`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO voidrush_requests`).
		WithArgs("player_abcdef01", "req-3", "/progression/gacha/pull", "gacha_pull", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO voidrush_analytics_events`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	router := gin.New()
	router.POST("/progression/gacha/pull", asPlayer("player_abcdef01"), GachaPull(db, cfg))

	w := postJSON(t, router, "/progression/gacha/pull",
		`{"requestId":"req-3","payload":{"mode":"standard","pulls":[{},{}]}}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["accepted"])
	assert.Equal(t, "gacha_pull", body["eventType"])
	assert.Equal(t, "req-3", body["requestId"])
	assert.Equal(t, window.SeasonID, body["season"])

	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), result["pulls"])

	// Exactly one state upsert, and the response was cached under the
	// request id so a retry replays instead of re-applying.
	require.NoError(t, mock.ExpectationsWereMet())
}
