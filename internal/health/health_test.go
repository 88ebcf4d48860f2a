package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"time-release-helper/internal/ledger"
	"time-release-helper/internal/models"
)

type MockChainClient struct {
	head uint64
}

func (m *MockChainClient) Properties(ctx context.Context) (models.ChainProperties, error) {
	return models.ChainProperties{}, nil
}

func (m *MockChainClient) Head(ctx context.Context) (uint64, error) {
	return m.head, nil
}

func (m *MockChainClient) Storage(ctx context.Context, key []byte) ([]byte, error) {
	return nil, nil
}

func TestLiveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestReadiness(t *testing.T) {
	router := NewRouter(nil, nil)
	SetReady(false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /readyz before ready = %d", rec.Code)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	RegisterChain(ctx, "Rococo", &MockChainClient{head: 77}, time.Hour)
	SetReady(true)
	defer SetReady(false)

	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rec.Code == http.StatusOK || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /readyz = %d", rec.Code)
	}

	var body struct {
		Status     string                 `json:"status"`
		Chains     map[string]ChainStatus `json:"chains"`
		InProgress *bool                  `json:"submission_in_progress"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "Ready" || body.Chains["Rococo"].LastBlock != 77 {
		t.Errorf("readiness body = %+v", body)
	}
	if body.InProgress == nil || *body.InProgress {
		t.Errorf("submission_in_progress = %v, want false", body.InProgress)
	}
}

func TestLedgerExport(t *testing.T) {
	l := ledger.New(nil)
	_ = l.InsertProvisional(models.SubmissionRecord{CallFingerprint: "0xaa", Label: "one", Status: models.StatusSending})
	_ = l.InsertProvisional(models.SubmissionRecord{CallFingerprint: "0xbb", Label: "two", Status: models.StatusSending})
	router := NewRouter(l, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ledger", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /ledger = %d", rec.Code)
	}
	if lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n"); len(lines) != 3 {
		t.Errorf("got %d lines, want 3", len(lines))
	}
	if rec.Header().Get("X-Session-Id") != l.SessionID() {
		t.Error("missing session id header")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ledger?scope=last", nil))
	if body := strings.TrimSpace(rec.Body.String()); !strings.HasPrefix(body, "0xbb\ttwo") {
		t.Errorf("last scope body = %q", body)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ledger?scope=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad scope = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d", rec.Code)
	}
}

func TestSessionLogEndpoint(t *testing.T) {
	entries := []string{"10:00 - one: Sending\n", "10:01 - one: Finalized\n"}
	router := NewRouter(nil, func() []string { return entries })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != entries[0]+entries[1] {
		t.Errorf("GET /log = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	NewRouter(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /log without a session log = %d", rec.Code)
	}
}
