package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	livemodel "github.com/jagcoaching/backend/internal/model/live"
	liveService "github.com/jagcoaching/backend/internal/service/live"
	"github.com/jagcoaching/backend/internal/store"
)

func testAnalyzer() liveService.Analyzer {
	return liveService.AnalyzerFunc(func(_ context.Context, _, _ *livemodel.Sample) (livemodel.FeedbackData, error) {
		return livemodel.FeedbackData{
			Emotion:      "happy",
			EyeContact:   "yes",
			Posture:      "upright",
			AudioQuality: "good",
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		}, nil
	})
}

func setupRouter(t *testing.T) (*chi.Mux, *liveService.Service) {
	t.Helper()

	st := store.NewMemoryStore()
	svc := liveService.NewService(testAnalyzer(), st, liveService.Config{
		AnalysisInterval: 20 * time.Millisecond,
		AnalysisTimeout:  200 * time.Millisecond,
	})
	t.Cleanup(svc.Close)

	handler := New(svc, st)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, svc
}

func TestStartSession(t *testing.T) {
	r, svc := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/session/start", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var payload struct {
		SessionID string `json:"session_id"`
		Status    string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if payload.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if payload.Status != "initialized" {
		t.Fatalf("expected initialized status, got %q", payload.Status)
	}

	if _, err := svc.GetSession(payload.SessionID); err != nil {
		t.Fatalf("session not registered: %v", err)
	}
}

func TestSessionMetricsUnknownSession(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/session/nope/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestSessionMetrics(t *testing.T) {
	r, svc := setupRouter(t)

	sess, err := svc.StartSession("")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	sess.Metrics().Record(livemodel.CategoryEmotion, "happy")

	req := httptest.NewRequest(http.MethodGet, "/session/"+sess.ID+"/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var payload struct {
		SessionID string                    `json:"session_id"`
		Metrics   livemodel.MetricsSnapshot `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if payload.Metrics[livemodel.CategoryEmotion].Labels["happy"] != 1 {
		t.Fatalf("unexpected metrics payload: %+v", payload.Metrics)
	}
}

func TestStopSession(t *testing.T) {
	r, svc := setupRouter(t)

	sess, err := svc.StartSession("")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/session/"+sess.ID+"/stop", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	// The session is gone; a second stop reads as not-found.
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/session/"+sess.ID+"/stop", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second stop, got %d", resp.Code)
	}
}
