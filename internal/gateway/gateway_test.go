package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacl-coder/TankStorm-Server/config"
	"github.com/jacl-coder/TankStorm-Server/internal/auth"
	"github.com/jacl-coder/TankStorm-Server/internal/models"
)

type fakeStats struct {
	lastLimit int
	top       []models.SkillUsageEntry
	players   map[string]map[string]int64
}

func (f *fakeStats) TopSkills(_ context.Context, limit int) ([]models.SkillUsageEntry, error) {
	f.lastLimit = limit
	if limit < len(f.top) {
		return f.top[:limit], nil
	}
	return f.top, nil
}

func (f *fakeStats) PlayerSkills(_ context.Context, playerID string) (map[string]int64, error) {
	return f.players[playerID], nil
}

type decodedResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestGateway(stats SkillStats) (*Gateway, http.Handler) {
	cfg := &config.Config{}
	g := NewGateway(cfg, Dependencies{
		Tokens: auth.NewTokenManager("gateway-secret", time.Hour),
		Stats:  stats,
	})
	return g, g.Handler()
}

func do(t *testing.T, h http.Handler, method, target string, header http.Header) (*httptest.ResponseRecorder, decodedResponse) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp decodedResponse
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestSkillCatalogWithETag(t *testing.T) {
	_, h := newTestGateway(nil)

	rec, resp := do(t, h, http.MethodGet, "/skills", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	var defs []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &defs))
	require.Len(t, defs, 7)
	assert.Equal(t, "heal", defs[0]["id"])
	assert.Equal(t, "穿甲弹药", defs[3]["short_name"])

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec, _ = do(t, h, http.MethodGet, "/skills", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Zero(t, rec.Body.Len())

	rec, _ = do(t, h, http.MethodGet, "/skills", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, etag, rec.Header().Get("ETag"))
}

func TestSkillByID(t *testing.T) {
	_, h := newTestGateway(nil)

	rec, resp := do(t, h, http.MethodGet, "/skills/heal", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var def map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &def))
	assert.Equal(t, "维修", def["short_name"])
	assert.Equal(t, "active", def["kind"])

	rec, resp = do(t, h, http.MethodGet, "/skills/teleport", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)
	assert.Empty(t, rec.Header().Get("ETag"))

	rec, _ = do(t, h, http.MethodPost, "/skills", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGuestAuth(t *testing.T) {
	g, h := newTestGateway(nil)

	rec, resp := do(t, h, http.MethodPost, "/auth/guest", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data AuthData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.True(t, strings.HasPrefix(data.PlayerID, "guest-"))
	assert.True(t, data.Guest)

	claims, err := g.deps.Tokens.Verify(data.Token)
	require.NoError(t, err)
	assert.Equal(t, data.PlayerID, claims.PlayerID)

	rec, resp = do(t, h, http.MethodGet, "/auth/verify", http.Header{"Authorization": {"Bearer " + data.Token}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	rec, _ = do(t, h, http.MethodGet, "/auth/verify", http.Header{"Authorization": {"Bearer nope"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/auth/guest", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSkillStats(t *testing.T) {
	_, h := newTestGateway(nil)
	rec, _ := do(t, h, http.MethodGet, "/stats/skills", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	stats := &fakeStats{
		top: []models.SkillUsageEntry{
			{SkillID: "heal", Casts: 12, Rank: 1},
			{SkillID: "shield", Casts: 4, Rank: 2},
		},
		players: map[string]map[string]int64{"p1": {"heal": 3}},
	}
	_, h = newTestGateway(stats)

	rec, resp := do(t, h, http.MethodGet, "/stats/skills?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []models.SkillUsageEntry
	require.NoError(t, json.Unmarshal(resp.Data, &entries))
	assert.Equal(t, []models.SkillUsageEntry{{SkillID: "heal", Casts: 12, Rank: 1}}, entries)

	do(t, h, http.MethodGet, "/stats/skills", nil)
	assert.Equal(t, defaultTopLimit, stats.lastLimit)

	do(t, h, http.MethodGet, "/stats/skills?limit=5000", nil)
	assert.Equal(t, maxTopLimit, stats.lastLimit)

	rec, _ = do(t, h, http.MethodGet, "/stats/skills?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = do(t, h, http.MethodGet, "/stats/players/p1/skills", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var counts map[string]int64
	require.NoError(t, json.Unmarshal(resp.Data, &counts))
	assert.Equal(t, int64(3), counts["heal"])

	rec, _ = do(t, h, http.MethodGet, "/stats/players/p1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	_, h := newTestGateway(nil)

	rec, _ := do(t, h, http.MethodOptions, "/skills", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestGameProxy(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("game:" + r.URL.Path))
	}))
	defer backend.Close()

	g, h := newTestGateway(nil)
	_, token, err := g.deps.Tokens.IssueGuest()
	require.NoError(t, err)

	rec, _ := do(t, h, http.MethodGet, "/game/health?token="+token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, g.RegisterService(ServiceGame, backend.URL))

	rec, _ = do(t, h, http.MethodGet, "/game/health", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/game/health", http.Header{"Authorization": {"Bearer " + token}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "game:/health", rec.Body.String())
}

func TestCheckServicesHealth(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer backend.Close()

	g, _ := newTestGateway(nil)
	require.NoError(t, g.RegisterService(ServiceGame, backend.URL))

	healthy.Store(false)
	g.checkServicesHealth()
	assert.Nil(t, g.getServiceInstance(ServiceGame))

	healthy.Store(true)
	g.checkServicesHealth()
	assert.NotNil(t, g.getServiceInstance(ServiceGame))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, "/auth/")
	now := time.Now()

	assert.True(t, rl.allowRequest("1.2.3.4", now))
	assert.True(t, rl.allowRequest("1.2.3.4", now))
	assert.False(t, rl.allowRequest("1.2.3.4", now))
	assert.True(t, rl.allowRequest("5.6.7.8", now))

	// 一分钟后窗口滑过
	assert.True(t, rl.allowRequest("1.2.3.4", now.Add(61*time.Second)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	assert.Equal(t, "9.9.9.9", rl.getClientIP(req))
}
