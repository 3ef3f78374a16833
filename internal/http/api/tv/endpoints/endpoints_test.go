package endpoints_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/lumen/internal/apierr"
	"github.com/Nixie-Tech-LLC/lumen/internal/auth"
	"github.com/Nixie-Tech-LLC/lumen/internal/db/dbtest"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api"
	"github.com/Nixie-Tech-LLC/lumen/internal/http/api/tv/endpoints"
	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

const secret = "test-secret"

type pairingStub struct {
	requests map[string]model.PairingRequest
	tokens   map[string]string
}

func (p *pairingStub) GeneratePairingCode(_ context.Context) (model.PairingCode, error) {
	p.requests["sess-1"] = model.PairingRequest{SessionID: "sess-1", PIN: "123456", Status: model.PairingPending}
	return model.PairingCode{PIN: "123456", SessionID: "sess-1"}, nil
}

func (p *pairingStub) Status(_ context.Context, sessionID string) (model.PairingRequest, error) {
	req, ok := p.requests[sessionID]
	if !ok {
		return req, apierr.Clone(apierr.ErrNotFound, "pairing session not found")
	}
	return req, nil
}

func (p *pairingStub) ExchangeToken(_ context.Context, token string) (model.ScreenSession, error) {
	screenID, ok := p.tokens[token]
	if !ok {
		return model.ScreenSession{}, apierr.ErrUnauthenticated
	}
	delete(p.tokens, token)
	return model.ScreenSession{ScreenID: screenID, Token: "jwt"}, nil
}

func newRouter(store *dbtest.Store, svc endpoints.PairingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/tv"}, endpoints.PairingModule(svc))
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/tv", Auth: true, Kind: auth.KindScreen, SecretKey: secret},
		endpoints.ContentModule(store))
	return r
}

func screenRequest(t *testing.T, method, path, screenID string) *http.Request {
	t.Helper()
	token, err := auth.GenerateJWT(screenID, auth.KindScreen, secret, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestPairingEndpoints(t *testing.T) {
	svc := &pairingStub{requests: map[string]model.PairingRequest{}, tokens: map[string]string{"once": "screen-1"}}
	r := newRouter(dbtest.New(), svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tv/pairing", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pin":"123456","sessionId":"sess-1"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tv/pairing/sess-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tv/pairing/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	exchange := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tv/session", bytes.NewBufferString(`{"token":"once"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(rec, req)
		return rec
	}
	rec = exchange()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"screenId":"screen-1","token":"jwt"}`, rec.Body.String())
	assert.Equal(t, http.StatusUnauthorized, exchange().Code)
}

func TestContentRequiresScreenToken(t *testing.T) {
	r := newRouter(dbtest.New(), nil)

	adminToken, err := auth.GenerateJWT("admin-1", auth.KindAdmin, secret, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/tv/screen", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScreenETag(t *testing.T) {
	store := dbtest.New()
	screen, err := store.CreateScreen(context.Background(), "admin-1", "Lobby", nil)
	require.NoError(t, err)
	r := newRouter(store, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, screenRequest(t, http.MethodGet, "/api/tv/screen", screen.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var got model.Screen
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Lobby", got.Name)

	req := screenRequest(t, http.MethodGet, "/api/tv/screen", screen.ID)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	name := "Hall"
	require.NoError(t, store.UpdateScreen(context.Background(), screen.ID, model.ScreenPatch{Name: &name}))
	req = screenRequest(t, http.MethodGet, "/api/tv/screen", screen.ID)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
}

func TestDeletedScreenIsNotFound(t *testing.T) {
	store := dbtest.New()
	screen, err := store.CreateScreen(context.Background(), "admin-1", "Lobby", nil)
	require.NoError(t, err)
	require.NoError(t, store.DeleteScreen(context.Background(), screen.ID))
	r := newRouter(store, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, screenRequest(t, http.MethodGet, "/api/tv/screen", screen.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSchedulesForScreen(t *testing.T) {
	store := dbtest.New()
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	image := model.Content{Ref: model.ImageRef{Name: "x", URL: "https://cdn/x.png"}}

	_, err := store.CreateSchedule(ctx, model.ScheduleEntry{AdminOwnerID: "a1", ScreenIDs: []string{"s1"}, Content: image, StartTime: start.Add(time.Hour), EndTime: start.Add(2 * time.Hour)})
	require.NoError(t, err)
	_, err = store.CreateSchedule(ctx, model.ScheduleEntry{AdminOwnerID: "a1", ScreenIDs: []string{"s1", "s2"}, Content: image, StartTime: start, EndTime: start.Add(time.Hour)})
	require.NoError(t, err)
	_, err = store.CreateSchedule(ctx, model.ScheduleEntry{AdminOwnerID: "a1", ScreenIDs: []string{"s2"}, Content: image, StartTime: start, EndTime: start.Add(time.Hour)})
	require.NoError(t, err)

	r := newRouter(store, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, screenRequest(t, http.MethodGet, "/api/tv/schedules", "s1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []model.ScheduleEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, start, entries[0].StartTime.UTC())
	assert.Equal(t, start.Add(time.Hour), entries[1].StartTime.UTC())
}

func TestPlaylistOfAnotherAdminIsHidden(t *testing.T) {
	store := dbtest.New()
	ctx := context.Background()
	screen, err := store.CreateScreen(ctx, "admin-1", "Lobby", nil)
	require.NoError(t, err)
	mine, err := store.CreatePlaylist(ctx, "admin-1", "Mine", nil)
	require.NoError(t, err)
	theirs, err := store.CreatePlaylist(ctx, "admin-2", "Theirs", nil)
	require.NoError(t, err)
	r := newRouter(store, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, screenRequest(t, http.MethodGet, "/api/tv/playlists/"+mine.ID, screen.ID))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, screenRequest(t, http.MethodGet, "/api/tv/playlists/"+theirs.ID, screen.ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettingsForScreen(t *testing.T) {
	store := dbtest.New()
	ctx := context.Background()
	screen, err := store.CreateScreen(ctx, "admin-1", "Lobby", nil)
	require.NoError(t, err)
	require.NoError(t, store.PutSettings(ctx, model.Settings{
		AdminOwnerID:         "admin-1",
		GlobalDefaultContent: model.NewContent(model.ImageRef{Name: "brand", URL: "https://cdn/brand.png"}),
	}))
	r := newRouter(store, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, screenRequest(t, http.MethodGet, "/api/tv/settings", screen.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"globalDefaultContent":{"type":"image","data":{"name":"brand","url":"https://cdn/brand.png"}}}`, rec.Body.String())
}
