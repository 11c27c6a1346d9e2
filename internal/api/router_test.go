package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/trendharvest/internal/config"
	"github.com/timmy/trendharvest/internal/domain"
	"github.com/timmy/trendharvest/internal/repository"
	"github.com/timmy/trendharvest/internal/service"
)

type fakeService struct {
	startErr  error
	startURL  string
	runs      map[uint]*domain.Results
	healthy   bool
	panicking bool
}

func (f *fakeService) StartRun(ctx context.Context, rawURL string) (uint, error) {
	if f.panicking {
		panic("boom")
	}
	if f.startErr != nil {
		return 0, f.startErr
	}
	f.startURL = rawURL
	return 7, nil
}

func (f *fakeService) RunStatus(ctx context.Context, runID uint) (domain.RunStatus, string, error) {
	res, ok := f.runs[runID]
	if !ok {
		return "", "", repository.ErrRunNotFound
	}
	return res.Run.Status, res.Run.Notes, nil
}

func (f *fakeService) RunResults(ctx context.Context, runID uint) (*domain.Results, error) {
	res, ok := f.runs[runID]
	if !ok {
		return nil, repository.ErrRunNotFound
	}
	if !res.Run.Status.IsTerminal() {
		return nil, service.ErrRunNotFinished
	}
	return res, nil
}

func (f *fakeService) Categories() []domain.Category {
	return []domain.Category{{Name: "Arts & Entertainment", InternalID: 3, ExternalID: "24"}}
}

func (f *fakeService) Health(ctx context.Context) service.HealthReport {
	status := service.StatusHealthy
	if !f.healthy {
		status = service.StatusUnhealthy
	}
	return service.HealthReport{Status: status, Subsystems: map[string]string{"persistence": service.StateConnected}}
}

func newTestRouter(svc *fakeService) http.Handler {
	return SetupRouter(svc, &config.ServerConfig{
		Mode: "test",
		CORS: config.CORSConfig{AllowedOrigins: []string{"https://app.example"}},
	}, nil)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestAnalyze(t *testing.T) {
	svc := &fakeService{}
	rec, body := do(t, newTestRouter(svc), http.MethodPost, "/api/trends/analyze", `{"url":"example.com"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, float64(7), body["run_id"])
	assert.Equal(t, "started", body["status"])
	assert.Contains(t, body["message"], "/api/trends/runs/7/status")
	assert.Equal(t, "example.com", svc.startURL)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	router := newTestRouter(&fakeService{startErr: service.ErrInvalidURL})

	rec, body := do(t, router, http.MethodPost, "/api/trends/analyze", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "URL is required", body["error"])

	rec, _ = do(t, router, http.MethodPost, "/api/trends/analyze", `{"url":"https://"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeDuringShutdown(t *testing.T) {
	rec, _ := do(t, newTestRouter(&fakeService{startErr: service.ErrShuttingDown}),
		http.MethodPost, "/api/trends/analyze", `{"url":"example.com"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatus(t *testing.T) {
	svc := &fakeService{runs: map[uint]*domain.Results{
		1: {Run: domain.Run{ID: 1, Status: domain.RunStatusRunning}},
	}}
	router := newTestRouter(svc)

	rec, body := do(t, router, http.MethodGet, "/api/trends/runs/1/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", body["status"])

	rec, body = do(t, router, http.MethodGet, "/api/trends/runs/2/status", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["status"])

	rec, _ = do(t, router, http.MethodGet, "/api/trends/runs/abc/status", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResults(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	finished := day2
	svc := &fakeService{runs: map[uint]*domain.Results{
		3: {
			Run: domain.Run{
				ID: 3, URL: "https://solar.example", Status: domain.RunStatusCompleted,
				DetectedCategoryName: "Computers & Electronics", DetectedCategoryID: 5,
				ExternalCategoryID: "28", CategoryConfidence: 0.6, FinishedAt: &finished,
			},
			Keywords: []domain.Keyword{{Term: "solar", Score: 0.8}},
			Interest: []domain.InterestPoint{
				{Term: "solar", Date: day1, Interest: 40},
				{Term: "battery", Date: day1, Interest: 10},
				{Term: "solar", Date: day2, Interest: 60},
			},
		},
		4: {Run: domain.Run{ID: 4, Status: domain.RunStatusPending}},
	}}
	router := newTestRouter(svc)

	rec, body := do(t, router, http.MethodGet, "/api/trends/runs/3/results", "")
	require.Equal(t, http.StatusOK, rec.Code)

	info := body["run_info"].(map[string]interface{})
	assert.Equal(t, "completed", info["status"])
	assert.NotNil(t, info["finished_at"])

	cat := body["detected_category"].(map[string]interface{})
	assert.Equal(t, "Computers & Electronics", cat["name"])
	assert.Equal(t, float64(5), cat["trends_id"])
	assert.Equal(t, "28", cat["youtube_id"])

	interest := body["trends_interest"].(map[string]interface{})
	solar := interest["solar"].([]interface{})
	require.Len(t, solar, 2)
	assert.Equal(t, float64(60), solar[1].(map[string]interface{})["interest"])
	assert.Len(t, interest["battery"], 1)

	assert.Equal(t, []interface{}{}, body["youtube_videos"])
	assert.Equal(t, []interface{}{}, body["news_articles"])

	rec, _ = do(t, router, http.MethodGet, "/api/trends/runs/4/results", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "unfinished run")

	rec, _ = do(t, router, http.MethodGet, "/api/trends/runs/99/results", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategories(t *testing.T) {
	rec, body := do(t, newTestRouter(&fakeService{}), http.MethodGet, "/api/trends/categories", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total"])

	first := body["categories"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Arts & Entertainment", first["name"])
	assert.Equal(t, float64(3), first["trends_id"])
	assert.Equal(t, "24", first["youtube_id"])
}

func TestHealthRoutes(t *testing.T) {
	for _, path := range []string{"/health", "/api/trends/health"} {
		rec, body := do(t, newTestRouter(&fakeService{healthy: true}), http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "healthy", body["status"])
	}

	rec, _ := do(t, newTestRouter(&fakeService{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecoveryAndCORS(t *testing.T) {
	router := newTestRouter(&fakeService{panicking: true})

	rec, body := do(t, router, http.MethodPost, "/api/trends/analyze", `{"url":"example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotEmpty(t, body["request_id"])
	assert.Equal(t, rec.Header().Get("X-Request-ID"), body["request_id"])

	req := httptest.NewRequest(http.MethodOptions, "/api/trends/analyze", nil)
	req.Header.Set("Origin", "https://app.example")
	pre := httptest.NewRecorder()
	router.ServeHTTP(pre, req)
	assert.Equal(t, http.StatusNoContent, pre.Code)
	assert.Equal(t, "https://app.example", pre.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	other := httptest.NewRecorder()
	router.ServeHTTP(other, req)
	assert.Empty(t, other.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/trends/categories", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	newTestRouter(&fakeService{}).ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}
