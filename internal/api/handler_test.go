package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/goleak"

	"github.com/mr1hm/go-coastal-alerts/internal/alert"
	"github.com/mr1hm/go-coastal-alerts/internal/broadcast"
	"github.com/mr1hm/go-coastal-alerts/internal/classifier"
	"github.com/mr1hm/go-coastal-alerts/internal/directory"
	"github.com/mr1hm/go-coastal-alerts/internal/dispatch"
	"github.com/mr1hm/go-coastal-alerts/internal/engine"
	"github.com/mr1hm/go-coastal-alerts/internal/models"
	"github.com/mr1hm/go-coastal-alerts/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type noopProvider struct{}

func (noopProvider) Send(ctx context.Context, target, message string) error { return nil }
func (noopProvider) Configured() bool                                       { return true }

type testServer struct {
	router      *gin.Engine
	directory   *directory.Directory
	broadcaster *broadcast.Broadcaster
	engine      *engine.Engine
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	c := classifier.New(classifier.DefaultRules(classifier.Thresholds{}))
	f, err := alert.NewFactory(alert.Options{})
	if err != nil {
		t.Fatalf("failed to build factory: %v", err)
	}

	dir := directory.New()
	b := broadcast.NewBroadcaster()
	disp := dispatch.NewDispatcher(map[models.ChannelType]dispatch.Provider{
		models.ChannelSMS:     noopProvider{},
		models.ChannelEmail:   noopProvider{},
		models.ChannelWebhook: noopProvider{},
	}, db, dispatch.Options{Workers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	disp.Start(ctx)
	t.Cleanup(func() {
		cancel()
		disp.Stop()
		b.Close()
	})

	e := engine.New(c, f, db, db, dir, disp, b)

	router := gin.New()
	NewHandler(e, dir, b).RegisterRoutes(router)

	return &testServer{router: router, directory: dir, broadcaster: b, engine: e}
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestIngestMeasurement_CreatesAlert(t *testing.T) {
	ts := setupTestServer(t)

	w := postJSON(t, ts.router, "/api/events/measurement",
		`{"measurement_type": "wave_height", "value": 4.5, "latitude": 12.5, "longitude": 80.5}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var a models.Alert
	if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if a.Type != models.AlertTypeStormSurge {
		t.Errorf("expected storm_surge, got %s", a.Type)
	}
	if a.Severity != models.SeverityHigh {
		t.Errorf("expected HIGH, got %s", a.Severity)
	}
	if len(a.RecommendedActions) == 0 {
		t.Error("expected recommended actions")
	}
}

func TestIngestMeasurement_BelowThreshold(t *testing.T) {
	ts := setupTestServer(t)

	w := postJSON(t, ts.router, "/api/events/measurement",
		`{"measurement_type": "wave_height", "value": 1.0, "latitude": 12.5, "longitude": 80.5}`)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}
}

func TestIngestMeasurement_Validation(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `not json`},
		{"missing type", `{"value": 4.5, "latitude": 12.5, "longitude": 80.5}`},
		{"latitude out of range", `{"measurement_type": "wave_height", "value": 4.5, "latitude": 95, "longitude": 80.5}`},
		{"longitude out of range", `{"measurement_type": "wave_height", "value": 4.5, "latitude": 12.5, "longitude": 200}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, ts.router, "/api/events/measurement", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestIngestAnomaly(t *testing.T) {
	ts := setupTestServer(t)

	w := postJSON(t, ts.router, "/api/events/anomaly",
		`{"anomaly_type": "oil_spill", "severity_hint": "CRITICAL", "confidence": 0.95, "latitude": 13.0, "longitude": 81.0}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var a models.Alert
	json.Unmarshal(w.Body.Bytes(), &a)
	if a.Type != models.AlertTypeOilSpill || a.Severity != models.SeverityCritical {
		t.Errorf("got %s/%s, want oil_spill/CRITICAL", a.Type, a.Severity)
	}
}

func TestGetAlerts_ReturnsGeoJSON(t *testing.T) {
	ts := setupTestServer(t)

	postJSON(t, ts.router, "/api/events/anomaly",
		`{"anomaly_type": "algal_bloom", "latitude": 12.5, "longitude": 80.5}`)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/alerts", nil)
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("expected content-type application/geo+json, got %s", ct)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected type FeatureCollection, got %s", fc.Type)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}
	if fc.Features[0].Properties["severity"] != "MEDIUM" {
		t.Errorf("severity = %v, want MEDIUM", fc.Features[0].Properties["severity"])
	}
}

func TestGetAlerts_RadiusFilter(t *testing.T) {
	ts := setupTestServer(t)

	postJSON(t, ts.router, "/api/events/anomaly",
		`{"anomaly_type": "algal_bloom", "latitude": 12.5, "longitude": 80.5, "timestamp": "2025-03-14T09:00:00Z"}`)
	postJSON(t, ts.router, "/api/events/anomaly",
		`{"anomaly_type": "algal_bloom", "latitude": 30.0, "longitude": 100.0, "timestamp": "2025-03-14T09:00:01Z"}`)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/alerts?lat=12.5&lon=80.5&radius_km=50", nil)
	ts.router.ServeHTTP(w, req)

	var fc FeatureCollection
	json.Unmarshal(w.Body.Bytes(), &fc)
	if len(fc.Features) != 1 {
		t.Errorf("expected 1 nearby alert, got %d", len(fc.Features))
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/alerts?lat=abc&lon=80.5", nil)
	ts.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad lat should return 400, got %d", w.Code)
	}
}

func TestGetAlert_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/alerts/missing_id", nil)
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestDeactivateAlert(t *testing.T) {
	ts := setupTestServer(t)

	w := postJSON(t, ts.router, "/api/events/anomaly",
		`{"anomaly_type": "illegal_dumping", "latitude": 13.0, "longitude": 81.0}`)
	var a models.Alert
	json.Unmarshal(w.Body.Bytes(), &a)

	w = postJSON(t, ts.router, "/api/alerts/"+a.ID+"/deactivate", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/alerts", nil)
	ts.router.ServeHTTP(w, req)
	var fc FeatureCollection
	json.Unmarshal(w.Body.Bytes(), &fc)
	if len(fc.Features) != 0 {
		t.Errorf("deactivated alert still listed")
	}

	w = postJSON(t, ts.router, "/api/alerts/missing_id/deactivate", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id should return 404, got %d", w.Code)
	}
}

func TestNotificationLog(t *testing.T) {
	ts := setupTestServer(t)

	ts.directory.Register(models.Stakeholder{
		ID:   "dept_1",
		Name: "Harbor Authority",
		Channels: []models.NotificationChannel{
			{Type: models.ChannelEmail, Target: "ops@example.org", IsActive: true},
		},
		GeographicAreas: []models.GeoArea{{Latitude: 13.0, Longitude: 81.0, RadiusKm: 50}},
	})

	w := postJSON(t, ts.router, "/api/events/anomaly",
		`{"anomaly_type": "oil_spill", "latitude": 13.0, "longitude": 81.0}`)
	var a models.Alert
	json.Unmarshal(w.Body.Bytes(), &a)

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/alerts/"+a.ID+"/log", nil)
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		AlertID string                        `json:"alert_id"`
		Entries []models.NotificationLogEntry `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(resp.Entries))
	}
	if resp.Entries[0].Status != models.DeliverySent {
		t.Errorf("status = %s, want sent", resp.Entries[0].Status)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/alerts/missing_id/log", nil)
	ts.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown alert should return 404, got %d", w.Code)
	}
}

func TestStakeholders_RegisterAndList(t *testing.T) {
	ts := setupTestServer(t)

	w := postJSON(t, ts.router, "/api/stakeholders", `{
		"id": "fishermen_union_002",
		"name": "Fishermen Union",
		"organization": "Local 42",
		"channels": [{"channel_type": "sms", "target": "+15550001111", "is_active": true, "min_severity": "LOW"}],
		"geographic_areas": [{"latitude": 12.0, "longitude": 80.0, "radius_km": 15}]
	}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/stakeholders", nil)
	ts.router.ServeHTTP(w, req)

	var resp struct {
		Stakeholders []models.Stakeholder `json:"stakeholders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Stakeholders) != 1 || resp.Stakeholders[0].ID != "fishermen_union_002" {
		t.Errorf("unexpected stakeholder list: %+v", resp.Stakeholders)
	}
}

func TestRegisterStakeholder_Validation(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing id", `{"name": "X"}`},
		{"bad channel type", `{"id": "s1", "name": "X", "channels": [{"channel_type": "fax", "target": "123"}]}`},
		{"empty target", `{"id": "s1", "name": "X", "channels": [{"channel_type": "sms", "target": ""}]}`},
		{"bad area", `{"id": "s1", "name": "X", "geographic_areas": [{"latitude": 12, "longitude": 80, "radius_km": 0}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, ts.router, "/api/stakeholders", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestStreamAlerts(t *testing.T) {
	ts := setupTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, "GET", "/api/alerts/stream", nil)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ts.router.ServeHTTP(w, req)
	}()

	// Wait for the subscription before broadcasting.
	deadline := time.After(time.Second)
	for ts.broadcaster.SubscriberCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for stream subscription")
		case <-time.After(5 * time.Millisecond):
		}
	}

	ts.broadcaster.Broadcast(&models.Alert{
		ID:       "ANOM_20250314_090000_oil_spill",
		Type:     models.AlertTypeOilSpill,
		Severity: models.SeverityHigh,
	})

	// Give the stream a moment to flush, then disconnect the client.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not terminate on client disconnect")
	}

	body := w.Body.String()
	if !strings.Contains(body, "event:alert") {
		t.Errorf("stream output missing alert event: %q", body)
	}
	if !strings.Contains(body, "ANOM_20250314_090000_oil_spill") {
		t.Errorf("stream output missing alert ID: %q", body)
	}
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(2))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	limited := 0
	for _, code := range codes {
		if code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited == 0 {
		t.Errorf("expected some requests to be rate limited, codes: %v", codes)
	}
}
