package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"media-gateway/internal/startup"
	"media-gateway/internal/stream"
	"media-gateway/internal/transcoder"
)

const (
	validToken     = "abcdefghijklmnopqrstu"
	validSignature = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	validExpiry    = "1700000000000"
)

// stubVerifier records calls and returns a canned result.
type stubVerifier struct {
	info   *stream.Info
	err    error
	called int
}

func (v *stubVerifier) Verify(token, signature, expiry string) (*stream.Info, error) {
	v.called++
	if v.err != nil {
		return nil, v.err
	}
	return v.info, nil
}

func newTestHandlers(t *testing.T, verifier Verifier) *Handlers {
	t.Helper()

	tc := transcoder.New("/bin/true", 1)
	streamer := stream.New(tc, stream.NewRegistry(), t.TempDir())

	config := &startup.Config{
		APIName:   "test-gateway",
		APIURL:    "http://localhost:9000/",
		CORSOpen:  true,
		StartTime: time.Now(),
	}
	return New(streamer, verifier, config)
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON body, got %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestDownloadMissingParams(t *testing.T) {
	h := newTestHandlers(t, &stubVerifier{})

	urls := []string{
		"/api/download",
		"/api/download?url=http://example.com/v",
		"/api/download?filename=clip.mp4",
	}
	for _, u := range urls {
		rec := httptest.NewRecorder()
		h.Download(rec, httptest.NewRequest("GET", u, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", u, rec.Code)
		}
	}
}

func TestDownloadProxies(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer upstream.Close()

	h := newTestHandlers(t, &stubVerifier{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/download?url="+upstream.URL+"&filename=clip.mp4", nil)
	h.Download(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "payload" {
		t.Errorf("Expected proxied body, got %q", got)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="clip.mp4"` {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}
}

func TestStreamRejectsMalformedCapability(t *testing.T) {
	verifier := &stubVerifier{}
	h := newTestHandlers(t, verifier)

	tests := []struct {
		name  string
		query string
	}{
		{"no params", ""},
		{"short token", "t=short&h=" + validSignature + "&e=" + validExpiry},
		{"long token", "t=" + validToken + "x&h=" + validSignature + "&e=" + validExpiry},
		{"short signature", "t=" + validToken + "&h=abc123&e=" + validExpiry},
		{"non-hex signature", "t=" + validToken + "&h=" + strings.Repeat("z", 64) + "&e=" + validExpiry},
		{"short expiry", "t=" + validToken + "&h=" + validSignature + "&e=12345"},
		{"non-digit expiry", "t=" + validToken + "&h=" + validSignature + "&e=170000000000x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Stream(rec, httptest.NewRequest("GET", "/api/stream?"+tt.query, nil))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rec.Code)
			}
			body := decodeJSON(t, rec)
			if body["text"] != "stream token, hmac, or expiry timestamp is missing" {
				t.Errorf("Unexpected error text %q", body["text"])
			}
		})
	}

	if verifier.called != 0 {
		t.Errorf("Expected verifier untouched by malformed requests, called %d times", verifier.called)
	}
}

func TestStreamVerifierRejection(t *testing.T) {
	h := newTestHandlers(t, &stubVerifier{err: &VerifyError{Status: http.StatusForbidden, Text: "invalid token"}})

	rec := httptest.NewRecorder()
	url := "/api/stream?t=" + validToken + "&h=" + validSignature + "&e=" + validExpiry
	h.Stream(rec, httptest.NewRequest("GET", url, nil))

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rec.Code)
	}
	body := decodeJSON(t, rec)
	if body["text"] != "invalid token" {
		t.Errorf("Unexpected error text %q", body["text"])
	}
}

func TestStreamProbe(t *testing.T) {
	h := newTestHandlers(t, &stubVerifier{info: &stream.Info{
		URLs:     []string{"https://example.com/video"},
		Filename: "clip.mp4",
	}})

	rec := httptest.NewRecorder()
	url := "/api/stream?t=" + validToken + "&h=" + validSignature + "&e=" + validExpiry + "&p=1"
	h.Stream(rec, httptest.NewRequest("GET", url, nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	body := decodeJSON(t, rec)
	if body["status"] != "continue" {
		t.Errorf("Expected continue status, got %q", body["status"])
	}
}

func TestStreamDispatches(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("media"))
	}))
	defer upstream.Close()

	h := newTestHandlers(t, &stubVerifier{info: &stream.Info{
		URLs:     []string{upstream.URL},
		Filename: "clip.mp4",
	}})

	rec := httptest.NewRecorder()
	url := "/api/stream?t=" + validToken + "&h=" + validSignature + "&e=" + validExpiry
	h.Stream(rec, httptest.NewRequest("GET", url, nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "media" {
		t.Errorf("Expected proxied media, got %q", got)
	}
}

func TestPoolMissingParams(t *testing.T) {
	h := newTestHandlers(t, &stubVerifier{})

	rec := httptest.NewRecorder()
	h.Pool(rec, httptest.NewRequest("GET", "/api/pool", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestPoolRejectsBadBID(t *testing.T) {
	h := newTestHandlers(t, &stubVerifier{})

	rec := httptest.NewRecorder()
	h.Pool(rec, httptest.NewRequest("GET", "/api/pool?bid=not-hex&filename=test.mp4", nil))

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rec.Code)
	}
	body := decodeJSON(t, rec)
	if body["text"] != "Forbidden bid." {
		t.Errorf("Unexpected error text %q", body["text"])
	}
}

func TestServerInfo(t *testing.T) {
	h := newTestHandlers(t, &stubVerifier{})

	rec := httptest.NewRecorder()
	h.ServerInfo(rec, httptest.NewRequest("GET", "/api/serverInfo", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	body := decodeJSON(t, rec)
	if body["name"] != "test-gateway" {
		t.Errorf("Unexpected name %q", body["name"])
	}
	if body["url"] != "http://localhost:9000/" {
		t.Errorf("Unexpected url %q", body["url"])
	}
	if body["cors"] != float64(1) {
		t.Errorf("Expected cors 1, got %v", body["cors"])
	}
	startTime, ok := body["startTime"].(string)
	if !ok {
		t.Fatalf("Expected startTime as string, got %T", body["startTime"])
	}
	if _, err := strconv.ParseInt(startTime, 10, 64); err != nil {
		t.Errorf("Expected millisecond timestamp, got %q", startTime)
	}
}

func TestStatus(t *testing.T) {
	h := newTestHandlers(t, &stubVerifier{})

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest("GET", "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %q", rec.Body.String())
	}
}

func TestUnknown(t *testing.T) {
	h := newTestHandlers(t, &stubVerifier{})

	rec := httptest.NewRecorder()
	h.Unknown(rec, httptest.NewRequest("GET", "/api/bogus", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	body := decodeJSON(t, rec)
	if body["text"] != "unknown response type" {
		t.Errorf("Unexpected error text %q", body["text"])
	}
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandlers(t, &stubVerifier{})

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Unexpected status %q", resp.Status)
	}
	if resp.NumCPU < 1 {
		t.Errorf("Expected at least one CPU, got %d", resp.NumCPU)
	}
	if resp.ActiveJobs != 0 {
		t.Errorf("Expected no active jobs, got %d", resp.ActiveJobs)
	}
}

func TestGetVersion(t *testing.T) {
	h := newTestHandlers(t, &stubVerifier{})

	rec := httptest.NewRecorder()
	h.GetVersion(rec, httptest.NewRequest("GET", "/version", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Expected no-cache, got %q", cc)
	}
	body := decodeJSON(t, rec)
	if _, ok := body["version"]; !ok {
		t.Error("Expected version field in build info")
	}
}

func TestIsHex(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"abc123", true},
		{"ABCDEF", true},
		{"", false},
		{"xyz", false},
		{"12g4", false},
	}
	for _, tt := range tests {
		if got := isHex(tt.in); got != tt.want {
			t.Errorf("isHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsDigits(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1700000000000", true},
		{"", false},
		{"12a4", false},
		{"-123", false},
	}
	for _, tt := range tests {
		if got := isDigits(tt.in); got != tt.want {
			t.Errorf("isDigits(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
