package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/eagle-green/mysked/internal/auth"
	"github.com/eagle-green/mysked/internal/cache"
	"github.com/eagle-green/mysked/internal/config"
	"github.com/eagle-green/mysked/internal/db"
	"github.com/eagle-green/mysked/internal/feed"
	"github.com/eagle-green/mysked/internal/model"
	"github.com/eagle-green/mysked/internal/upstream"
)

const (
	testJWTSecret  = "test-secret"
	testWebhookKey = "webhook-key-0123456789abcdef"
)

// backend is a fake upstream REST backend.
type backend struct {
	mu       sync.Mutex
	hits     map[string]int
	auth     []string
	queries  []url.Values
	failPath string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.hits[r.URL.Path]++
	b.auth = append(b.auth, r.Header.Get("Authorization"))
	b.queries = append(b.queries, r.URL.Query())
	fail := b.failPath == r.URL.Path
	b.mu.Unlock()

	if fail {
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	switch r.URL.Path {
	case "/vehicles/7/history":
		fmt.Fprint(w, `{"data": {"history": [
			{"id": "h1", "action_type": "driver_assigned", "changed_at": "2024-01-01T10:00:00Z", "description": "Alice assigned"}
		], "pagination": {"total": 1}}}`)
	case "/vehicles/7/inventory/transactions":
		fmt.Fprint(w, `{"data": {"transactions": [
			{"id": "t1", "transaction_type": "vehicle_to_site", "quantity": 2, "created_at": "2024-01-01T09:00:00Z", "driver_name": "Alice", "site_id": "S1", "submitted_by": {"id": "u1"}, "job_id": "J1", "inventory_name": "Cone"},
			{"id": "t2", "transaction_type": "vehicle_to_site", "quantity": 3, "created_at": "2024-01-01T09:00:03Z", "driver_name": "Alice", "site_id": "S1", "submitted_by": {"id": "u1"}, "job_id": "J1", "inventory_name": "Sign"},
			{"id": "t3", "transaction_type": "vehicle_to_site", "quantity": 1, "created_at": "2024-01-01T09:10:00Z", "driver_name": "Alice", "site_id": "S2", "submitted_by": {"id": "u1"}, "job_id": "J1", "inventory_name": "Cone"}
		]}}`)
	case "/timesheets/missing":
		fmt.Fprint(w, `{"data": {"timesheets": [
			{"job_id": "J1", "worker_id": "W1", "expected_completion": "2020-01-01T17:00:00Z"}
		], "pagination": {"total": 1}}}`)
	case "/timesheets/status-counts":
		fmt.Fprint(w, `{"data": {"counts": {"draft": 3}}}`)
	case "/cover.png":
		img := image.NewRGBA(image.Rect(0, 0, 400, 200))
		for x := 0; x < 400; x++ {
			for y := 0; y < 200; y++ {
				img.Set(x, y, color.RGBA{0, 128, 0, 255})
			}
		}
		png.Encode(w, img)
	default:
		http.NotFound(w, r)
	}
}

func (b *backend) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

type testEnv struct {
	server   *httptest.Server
	upstream *httptest.Server
	backend  *backend
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	be := &backend{hits: map[string]int{}}
	upstreamSrv := httptest.NewServer(be)
	t.Cleanup(upstreamSrv.Close)

	hash, err := auth.HashWebhookKey(testWebhookKey)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Upstream.BaseURL = upstreamSrv.URL
	cfg.Auth.JWTSecret = testJWTSecret
	cfg.Auth.WebhookKeyHash = hash
	cfg.Assets.AllowedHosts = []string{"127.0.0.1"}
	cfg.Assets.ThumbnailSize = 100

	client, err := upstream.New(upstream.Options{BaseURL: cfg.Upstream.BaseURL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	database := db.NewTestDB(t)
	responses := cache.NewSQLite(database)
	svc := feed.NewService(feed.NewCachedSource(client, responses, time.Minute), time.UTC, cfg.Timeline.PageSize)

	router := NewRouter(Deps{
		Config:   cfg,
		DB:       database,
		Feed:     svc,
		Assets:   client,
		Cache:    responses,
		Location: time.UTC,
	})
	server := httptest.NewServer(LoggingMiddleware(router))
	t.Cleanup(server.Close)

	return &testEnv{server: server, upstream: upstreamSrv, backend: be}
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := auth.GenerateToken(testJWTSecret, userID, role)
	require.NoError(t, err)
	return tok
}

func authRequest(t *testing.T, method, url, tok string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodePage(t *testing.T, resp *http.Response) feed.Page {
	t.Helper()
	var page feed.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	return page
}

func TestTimelineRequiresAuth(t *testing.T) {
	env := setupTestServer(t)

	resp := authRequest(t, "GET", env.server.URL+"/api/vehicles/7/timeline", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = authRequest(t, "GET", env.server.URL+"/api/vehicles/7/timeline", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTimelineAllTab(t *testing.T) {
	env := setupTestServer(t)
	tok := token(t, "u1", model.RoleUser)

	resp := authRequest(t, "GET", env.server.URL+"/api/vehicles/7/timeline", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	page := decodePage(t, resp)
	assert.Equal(t, "all", string(page.Tab))
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Entries, 3)

	assert.Equal(t, "h1", page.Entries[0].ID())
	assert.Equal(t, "Alice assigned", page.Entries[0].Display.Description)
	assert.Equal(t, "t3", page.Entries[1].ID())
	assert.Equal(t, model.KindGroupedTransaction, page.Entries[2].Kind)
	assert.Equal(t, 5, page.Entries[2].Display.Quantity)

	env.backend.mu.Lock()
	defer env.backend.mu.Unlock()
	for _, a := range env.backend.auth {
		assert.Equal(t, "Bearer "+tok, a)
	}
}

func TestTimelineActionTabFiltersServerSide(t *testing.T) {
	env := setupTestServer(t)
	tok := token(t, "u1", model.RoleUser)

	resp := authRequest(t, "GET", env.server.URL+"/api/vehicles/7/timeline?tab=driver_assigned&page=1&page_size=10", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	page := decodePage(t, resp)
	assert.Equal(t, "server", string(page.Pagination))
	assert.Zero(t, env.backend.count("/vehicles/7/inventory/transactions"))

	env.backend.mu.Lock()
	defer env.backend.mu.Unlock()
	require.Len(t, env.backend.queries, 1)
	q := env.backend.queries[0]
	assert.Equal(t, "driver_assigned", q.Get("action_type"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, "10", q.Get("offset"))
}

func TestTimelineBadRequests(t *testing.T) {
	env := setupTestServer(t)
	tok := token(t, "u1", model.RoleUser)

	tests := []struct {
		path string
		want int
	}{
		{"/api/invoices/7/timeline", http.StatusNotFound},
		{"/api/vehicles/7/timeline?tab=everything", http.StatusBadRequest},
		{"/api/vehicles/7/timeline?page=-1", http.StatusBadRequest},
		{"/api/vehicles/7/timeline?page=abc", http.StatusBadRequest},
		{"/api/vehicles/7/timeline?page=4611686018427387904", http.StatusBadRequest},
		{"/api/timesheets/missing?page=4611686018427387904", http.StatusBadRequest},
		{"/api/vehicles/7/timeline?page_size=0", http.StatusBadRequest},
		{"/api/vehicles/7/timeline?page_size=1000", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := authRequest(t, "GET", env.server.URL+tt.path, tok, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestTimelineSurvivesUpstreamFailure(t *testing.T) {
	env := setupTestServer(t)
	env.backend.failPath = "/vehicles/7/history"
	tok := token(t, "u1", model.RoleUser)

	resp := authRequest(t, "GET", env.server.URL+"/api/vehicles/7/timeline", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	page := decodePage(t, resp)
	assert.Equal(t, 2, page.Total)
}

func TestTimelineExport(t *testing.T) {
	env := setupTestServer(t)
	tok := token(t, "u1", model.RoleUser)

	resp := authRequest(t, "GET", env.server.URL+"/api/vehicles/7/timeline/export.xlsx?tab=site", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "vehicles-7-site.xlsx")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Timeline")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestCacheInvalidation(t *testing.T) {
	env := setupTestServer(t)
	user := token(t, "u1", model.RoleUser)
	manager := token(t, "u1", model.RoleManager)
	txPath := "/vehicles/7/inventory/transactions"

	authRequest(t, "GET", env.server.URL+"/api/vehicles/7/timeline?tab=site", user, nil)
	authRequest(t, "GET", env.server.URL+"/api/vehicles/7/timeline?tab=site", user, nil)
	assert.Equal(t, 1, env.backend.count(txPath))

	resp := authRequest(t, "POST", env.server.URL+"/api/vehicles/7/cache/invalidate", user, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = authRequest(t, "POST", env.server.URL+"/api/vehicles/7/cache/invalidate", manager, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	authRequest(t, "GET", env.server.URL+"/api/vehicles/7/timeline?tab=site", user, nil)
	assert.Equal(t, 2, env.backend.count(txPath))
}

func TestWebhookInvalidation(t *testing.T) {
	env := setupTestServer(t)
	user := token(t, "u1", model.RoleUser)
	txPath := "/vehicles/7/inventory/transactions"

	authRequest(t, "GET", env.server.URL+"/api/vehicles/7/timeline?tab=site", user, nil)

	post := func(key string, body any) *http.Response {
		data, _ := json.Marshal(body)
		req, _ := http.NewRequest("POST", env.server.URL+"/api/hooks/invalidate", bytes.NewReader(data))
		req.Header.Set(WebhookKeyHeader, key)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := post("wrong", map[string]string{"entity": "vehicles", "id": "7"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(testWebhookKey, map[string]string{"entity": "invoices", "id": "7"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(testWebhookKey, map[string]string{"entity": "vehicles", "id": "7"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	authRequest(t, "GET", env.server.URL+"/api/vehicles/7/timeline?tab=site", user, nil)
	assert.Equal(t, 2, env.backend.count(txPath))
}

func TestMissingTimecards(t *testing.T) {
	env := setupTestServer(t)
	tok := token(t, "u1", model.RoleUser)

	resp := authRequest(t, "GET", env.server.URL+"/api/timesheets/missing", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view feed.MissingView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Len(t, view.Timecards, 1)
	assert.True(t, view.Timecards[0].Overdue)
	assert.Equal(t, 3, view.Counts["draft"])
	assert.Equal(t, 1, view.Counts["overdue"])
}

func TestThumbnails(t *testing.T) {
	env := setupTestServer(t)
	tok := token(t, "u1", model.RoleUser)

	// The fake backend doubles as the asset host (127.0.0.1).
	src := url.QueryEscape(env.upstream.URL + "/cover.png")
	resp := authRequest(t, "GET", env.server.URL+"/api/thumbnails?src="+src, tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

	img, _, err := image.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	// Second request is served from the cache.
	authRequest(t, "GET", env.server.URL+"/api/thumbnails?src="+src, tok, nil)
	assert.Equal(t, 1, env.backend.count("/cover.png"))

	resp = authRequest(t, "GET", env.server.URL+"/api/thumbnails?src="+url.QueryEscape("https://evil.example.com/x.png"), tok, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := setupTestServer(t)
	tok := token(t, "u1", model.RoleUser)

	resp := authRequest(t, "POST", env.server.URL+"/api/auth/logout", tok, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = authRequest(t, "GET", env.server.URL+"/api/vehicles/7/timeline", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "token revoked", body["error"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := setupTestServer(t)

	req, _ := http.NewRequest("GET", env.server.URL+"/api/vehicles/7/timeline", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))
}
