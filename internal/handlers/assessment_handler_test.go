package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mindquest/internal/assessment"
	"mindquest/internal/emotion"
	"mindquest/internal/models"
	"mindquest/internal/security"
	"mindquest/internal/service"
)

type recordingReports struct {
	token    string
	disabled bool
}

func (r *recordingReports) IsEnabled() bool { return !r.disabled }

func (r *recordingReports) SendRiskReport(ctx context.Context, toEmail string, d assessment.Dashboard, token string) error {
	r.token = token
	return nil
}

type brokenSensor struct{}

func (brokenSensor) Initialize(ctx context.Context) error { return errors.New("no camera") }
func (brokenSensor) Detect(ctx context.Context) (models.EmotionLabel, error) {
	return models.EmotionNeutral, nil
}
func (brokenSensor) Close() error { return nil }

func newTestServer(t *testing.T, reports service.ReportSender, sensors SensorFactory) *httptest.Server {
	t.Helper()
	svc := service.NewAssessmentService(nil, reports, security.NewLinkSigner("test-secret"), time.Hour, nil)
	t.Cleanup(svc.Close)

	mux := http.NewServeMux()
	NewAssessmentHandler(svc, sensors, nil).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusAccepted {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("%s %s: decoding body: %v", method, path, err)
		}
	}
	return resp, out
}

func createTestSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, body := do(t, srv, http.MethodPost, "/api/sessions", `{"name":"Ada","age":9,"avatar":"fox"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body = %v", resp.StatusCode, body)
	}
	return body["id"].(string)
}

func TestAssessmentFlow(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	id := createTestSession(t, srv)

	resp, body := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/questionnaire",
		`{"answers":{"q1":"yes","q3":"yes","q2":"no"}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("questionnaire status = %d, body = %v", resp.StatusCode, body)
	}
	if got := body["risk"].(map[string]any)["dyslexia"]; got != 25.0 {
		t.Errorf("dyslexia after questionnaire = %v, want 25", got)
	}

	resp, body = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/emotions",
		`{"label":"sad","timestamp":"2026-04-01T09:00:00Z"}`)
	if resp.StatusCode != http.StatusOK || body["currentEmotion"] != "sad" {
		t.Fatalf("observation status = %d, body = %v", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/attempts",
		`{"gameId":"lexicalLegends","taskType":"reading","difficulty":1,"isCorrect":false,"timeSpentSeconds":4}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("attempt status = %d, body = %v", resp.StatusCode, body)
	}
	if got := body["attemptRisk"].(map[string]any)["totalRisk"]; got != 15.0 {
		t.Errorf("attempt totalRisk = %v, want 15", got)
	}

	resp, body = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/results",
		`{"gameId":"numberNinja","score":40,"grade":"F","correct":2,"incorrect":8}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("result status = %d, body = %v", resp.StatusCode, body)
	}
	if body["sessionRisk"] != 100.0 || body["riskLevel"] != "High" {
		t.Errorf("result body = %v", body)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/sessions/"+id+"/history/numberNinja", "")
	if resp.StatusCode != http.StatusOK || len(body["history"].([]any)) != 1 {
		t.Errorf("history status = %d, body = %v", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/sessions/"+id, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status = %d", resp.StatusCode)
	}
	if got := body["risk"].(map[string]any)["overall"]; got != "High" {
		t.Errorf("overall = %v, want High", got)
	}

	resp, _ = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/emotions/reset", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("reset status = %d", resp.StatusCode)
	}
}

func TestAssessmentErrors(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	id := createTestSession(t, srv)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing session", http.MethodGet, "/api/sessions/" + security.GenerateSessionID(), "", http.StatusNotFound},
		{"bad profile", http.MethodPost, "/api/sessions", `{"name":"","age":9}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/sessions", `{"name":"Ada","age":9,"shoeSize":3}`, http.StatusBadRequest},
		{"unknown game", http.MethodPost, "/api/sessions/" + id + "/attempts", `{"gameId":"pong","taskType":"number","difficulty":1}`, http.StatusNotFound},
		{"bad difficulty", http.MethodPost, "/api/sessions/" + id + "/attempts", `{"gameId":"numberNinja","taskType":"number","difficulty":7}`, http.StatusBadRequest},
		{"bad label", http.MethodPost, "/api/sessions/" + id + "/emotions", `{"label":"bored"}`, http.StatusBadRequest},
		{"bad grade", http.MethodPost, "/api/sessions/" + id + "/results", `{"gameId":"numberNinja","score":10,"grade":"Z"}`, http.StatusBadRequest},
		{"bad answer", http.MethodPost, "/api/sessions/" + id + "/questionnaire", `{"answers":{"q1":"maybe"}}`, http.StatusBadRequest},
		{"report without token", http.MethodGet, "/api/reports/" + id, "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, srv, tt.method, tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d (body %v)", resp.StatusCode, tt.want, body)
			}
			if body["error"] == nil {
				t.Error("expected an error message")
			}
		})
	}
}

func TestQuestionnaireListing(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	resp, body := do(t, srv, http.MethodGet, "/api/questionnaire", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if n := len(body["questions"].([]any)); n != 8 {
		t.Errorf("questions = %d, want 8", n)
	}
}

func TestReportLink(t *testing.T) {
	reports := &recordingReports{}
	srv := newTestServer(t, reports, nil)
	id := createTestSession(t, srv)

	resp, _ := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/report", `{"email":"parent@example.com"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("report status = %d", resp.StatusCode)
	}

	resp, body := do(t, srv, http.MethodGet, "/api/reports/"+id+"?token="+reports.token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("shared report status = %d", resp.StatusCode)
	}
	if body["id"] != id || body["name"] != "Ada" {
		t.Errorf("shared report = %v", body)
	}
	if _, ok := body["games"]; ok {
		t.Error("shared report should not expose game history")
	}
}

func TestReportDeliveryUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		reports service.ReportSender
	}{
		{"no sender", nil},
		{"disabled sender", &recordingReports{disabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.reports, nil)
			id := createTestSession(t, srv)

			resp, body := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/report", `{"email":"parent@example.com"}`)
			if resp.StatusCode != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want 503", resp.StatusCode)
			}
			if body["error"] != ErrReportsUnavailable {
				t.Errorf("error = %v", body["error"])
			}
		})
	}
}

func TestRosterAndTimeline(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	quiet := createTestSession(t, srv)
	struggling := createTestSession(t, srv)
	resp, _ := do(t, srv, http.MethodPost, "/api/sessions/"+struggling+"/results",
		`{"gameId":"numberNinja","score":40,"grade":"F"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("result status = %d", resp.StatusCode)
	}

	resp, body := do(t, srv, http.MethodGet, "/api/sessions", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("roster status = %d, body = %v", resp.StatusCode, body)
	}
	sessions := body["sessions"].([]any)
	if len(sessions) != 2 {
		t.Fatalf("roster = %v", sessions)
	}
	byID := map[string]map[string]any{}
	for _, s := range sessions {
		e := s.(map[string]any)
		byID[e["id"].(string)] = e
	}
	if e := byID[struggling]; e["overall"] != "High" || e["topCondition"] != "dyscalculia" || e["status"] != "Attention Required" {
		t.Errorf("struggling entry = %v", e)
	}
	if e := byID[quiet]; e["overall"] != "Low" || e["status"] != "On Track" || e["age"] != 9.0 {
		t.Errorf("quiet entry = %v", e)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/sessions?limit=1", "")
	if resp.StatusCode != http.StatusOK || len(body["sessions"].([]any)) != 1 {
		t.Errorf("limited roster status = %d, body = %v", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodGet, "/api/sessions/"+struggling+"/snapshots", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("timeline status = %d", resp.StatusCode)
	}
	if _, ok := body["snapshots"].([]any); !ok {
		t.Errorf("timeline body = %v", body)
	}

	errCases := []struct {
		path string
		want int
	}{
		{"/api/sessions?limit=many", http.StatusBadRequest},
		{"/api/sessions?limit=0", http.StatusBadRequest},
		{"/api/sessions/" + struggling + "/snapshots?limit=1000", http.StatusBadRequest},
		{"/api/sessions/" + security.GenerateSessionID() + "/snapshots", http.StatusNotFound},
	}
	for _, tt := range errCases {
		resp, _ := do(t, srv, http.MethodGet, tt.path, "")
		if resp.StatusCode != tt.want {
			t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}
}

func TestSensorStartFailure(t *testing.T) {
	srv := newTestServer(t, nil, func() emotion.Sensor { return brokenSensor{} })
	id := createTestSession(t, srv)

	resp, _ := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/sensor/start", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	_, body := do(t, srv, http.MethodGet, "/api/sessions/"+id, "")
	if body["emotion"].(map[string]any)["sensorAvailable"] != false {
		t.Errorf("sensor should be marked unavailable: %v", body["emotion"])
	}

	resp, _ = do(t, srv, http.MethodPost, "/api/sessions/"+id+"/sensor/stop", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("stop status = %d", resp.StatusCode)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	m := NewMiddleware(security.NewRateLimiter(2, time.Minute), nil)
	h := m.Logging(m.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	codes := []int{}
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/questionnaire", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/questionnaire", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client status = %d", rec.Code)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	log, logs := observedLogger()
	m := NewMiddleware(nil, log)
	h := m.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil aggregator")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/questionnaire", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if logs.FilterMessage("Recovered from panic").Len() == 0 {
		t.Error("panic was not logged")
	}
}

func TestCORSMiddleware(t *testing.T) {
	m := NewMiddleware(nil, nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := m.CORS([]string{"https://app.example.com"}, ok)

	tests := []struct {
		origin string
		want   string
	}{
		{"https://app.example.com", "https://app.example.com"},
		{"https://evil.example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/questionnaire", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}

	if m.CORS(nil, ok) == nil {
		t.Error("CORS without origins should return the handler unchanged")
	}
}
