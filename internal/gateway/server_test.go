package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/site_gateway/internal/rewrite"
)

var testOrigins = []string{"http://localhost:8000", "http://backend:8000", "http://172.19.0.3:8000"}

type gatewayFixture struct {
	handler http.Handler
	backend *httptest.Server
}

func newFixture(t *testing.T, backend http.HandlerFunc, tweak ...func(*Options)) *gatewayFixture {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	opts := Options{
		BackendURL:      srv.URL + "/api",
		BackendMediaURL: srv.URL + "/media",
		ForwardTimeout:  2 * time.Second,
		MediaTimeout:    2 * time.Second,
		Rewriter:        rewrite.New(testOrigins, "/api/media/"),
		MediaPrefix:     "/api/media/",
	}
	for _, fn := range tweak {
		fn(&opts)
	}
	return &gatewayFixture{handler: NewServer(opts), backend: srv}
}

func (f *gatewayFixture) do(method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func closedServerURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}

func TestForwardRewritesMediaURLs(t *testing.T) {
	var gotPath string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"results":[{"image":"http://backend:8000/media/x.png"}]}`)
	})

	w := f.do(http.MethodGet, "/api/products", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got, want := gotPath, "/api/products/"; got != want {
		t.Fatalf("backend path = %q; want %q", got, want)
	}
	got := decodeBody(t, w)
	want := map[string]any{"results": []any{map[string]any{"image": "/api/media/x.png"}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("body = %v; want %v", got, want)
	}
}

func TestForwardGetPathRules(t *testing.T) {
	tests := []struct {
		target    string
		wantPath  string
		wantQuery string
	}{
		{"/api/blog/posts?page=2&tags=a&tags=b", "/api/blog/posts/", "page=2&tags=a&tags=b"},
		{"/api/blog/posts/", "/api/blog/posts/", ""},
		{"/api/", "/api/", ""},
		{"/api/blog/posts/hello%20world", "/api/blog/posts/hello%20world/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			var gotPath, gotQuery string
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.EscapedPath()
				gotQuery = r.URL.RawQuery
				_, _ = io.WriteString(w, `{}`)
			})
			w := f.do(http.MethodGet, tt.target, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if gotPath != tt.wantPath {
				t.Fatalf("backend path = %q; want %q", gotPath, tt.wantPath)
			}
			if gotQuery != tt.wantQuery {
				t.Fatalf("backend query = %q; want %q", gotQuery, tt.wantQuery)
			}
		})
	}
}

func TestForwardPostBodyVerbatim(t *testing.T) {
	const payload = `{"z":1,"a":12345678901234567890,"n":1.10}`
	var gotPath, gotQuery, gotBody, gotType string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"status":"success","data":{"id":12345678901234567890}}`)
	})

	w := f.do(http.MethodPost, "/api/contact/submit?lang=en", strings.NewReader(payload))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got, want := gotPath, "/api/contact/submit"; got != want {
		t.Fatalf("backend path = %q; want %q", got, want)
	}
	if got, want := gotQuery, "lang=en"; got != want {
		t.Fatalf("backend query = %q; want %q", got, want)
	}
	if gotBody != payload {
		t.Fatalf("backend body = %q; want %q", gotBody, payload)
	}
	if got, want := gotType, "application/json"; got != want {
		t.Fatalf("content-type = %q; want %q", got, want)
	}
	if !strings.Contains(w.Body.String(), "12345678901234567890") {
		t.Fatalf("large integer lost: %s", w.Body.String())
	}
}

func TestForwardTimeout(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}, func(o *Options) { o.ForwardTimeout = 50 * time.Millisecond })

	w := f.do(http.MethodGet, "/api/team", nil)
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusGatewayTimeout)
	}
	body := decodeBody(t, w)
	if body["status"] != "error" || body["code"] != CodeTimeout {
		t.Fatalf("body = %v; want status error, code %s", body, CodeTimeout)
	}
}

func TestForwardConnectionRefused(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {}, func(o *Options) {
		o.BackendURL = closedServerURL() + "/api"
	})

	w := f.do(http.MethodGet, "/api/products", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	if got := decodeBody(t, w)["code"]; got != CodeConnection {
		t.Fatalf("code = %v; want %s", got, CodeConnection)
	}
}

func TestForwardBackendErrorIsNotLeaked(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Traceback /srv/app/views.py"}`)
	})

	w := f.do(http.MethodGet, "/api/blog/posts/missing", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if strings.Contains(w.Body.String(), "Traceback") {
		t.Fatalf("backend body leaked: %s", w.Body.String())
	}
	body := decodeBody(t, w)
	want := map[string]any{"status": "error", "message": "Internal server error", "code": CodeInternal}
	if !reflect.DeepEqual(body, want) {
		t.Fatalf("body = %v; want %v", body, want)
	}
}

func TestForwardInvalidJSON(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>oops</html>`)
	})
	w := f.do(http.MethodGet, "/api/products", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestMediaStreamsWithCacheHeaders(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	var gotPath string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	})

	w := f.do(http.MethodGet, "/api/media/products/x.png", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got, want := gotPath, "/media/products/x.png"; got != want {
		t.Fatalf("backend path = %q; want %q", got, want)
	}
	if got, want := w.Header().Get("Content-Type"), "image/png"; got != want {
		t.Fatalf("content-type = %q; want %q", got, want)
	}
	if got, want := w.Header().Get("Cache-Control"), "public, max-age=31536000, immutable"; got != want {
		t.Fatalf("cache-control = %q; want %q", got, want)
	}
	if !reflect.DeepEqual(w.Body.Bytes(), png) {
		t.Fatalf("body = %v; want %v", w.Body.Bytes(), png)
	}
}

func TestMediaDefaultsContentType(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("raw"))
	})
	w := f.do(http.MethodGet, "/api/media/blob", nil)
	if got, want := w.Header().Get("Content-Type"), "application/octet-stream"; got != want {
		t.Fatalf("content-type = %q; want %q", got, want)
	}
}

func TestMediaFailures(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	w := f.do(http.MethodGet, "/api/media/missing.png", nil)
	if w.Code != http.StatusNotFound || w.Body.String() != "Media not found" {
		t.Fatalf("response = %d %q; want 404 %q", w.Code, w.Body.String(), "Media not found")
	}

	down := newFixture(t, func(w http.ResponseWriter, r *http.Request) {}, func(o *Options) {
		o.BackendMediaURL = closedServerURL() + "/media"
	})
	w = down.do(http.MethodGet, "/api/media/x.png", nil)
	if w.Code != http.StatusInternalServerError || w.Body.String() != "Media proxy error" {
		t.Fatalf("response = %d %q; want 500 %q", w.Code, w.Body.String(), "Media proxy error")
	}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		t.Fatal("media failure used a JSON content type")
	}
}

func TestHealth(t *testing.T) {
	fixed := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	var hits int
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) { hits++ }, func(o *Options) {
		o.Now = func() time.Time { return fixed }
	})

	w := f.do(http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeBody(t, w)
	if body["status"] != "healthy" || body["message"] != "Site gateway is running" {
		t.Fatalf("body = %v", body)
	}
	if got, want := body["timestamp"], "2026-05-06T07:08:09Z"; got != want {
		t.Fatalf("timestamp = %v; want %v", got, want)
	}
	if hits != 0 {
		t.Fatalf("backend hits = %d; want 0", hits)
	}
}

func TestDocsDarkMode(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	w := f.do(http.MethodGet, "/docs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `data-theme="dark"`) {
		t.Fatalf("docs missing dark theme marker")
	}
}

func TestMetricsExposeForwardCounters(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	_ = f.do(http.MethodGet, "/api/products", nil)
	_ = f.do(http.MethodGet, "/api/media/a.png", nil)

	w := f.do(http.MethodGet, "/metrics", nil)
	body := w.Body.String()
	for _, want := range []string{
		`site_gateway_forward_requests_total{code="OK",method="GET"} 1`,
		`site_gateway_forward_duration_seconds_count{method="GET"} 1`,
		`site_gateway_media_requests_total{status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

type memoryAudit struct {
	mu      sync.Mutex
	records []ContactAudit
}

func (m *memoryAudit) Write(record any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record.(ContactAudit))
	return nil
}

func TestContactRelaySuccess(t *testing.T) {
	var gotPath string
	var got map[string]any
	audit := &memoryAudit{}
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":42}`)
	}, func(o *Options) {
		o.Audit = audit
		o.CORSOrigin = "https://example.com"
	})

	w := f.do(http.MethodPost, "/forms/contact", strings.NewReader(`{"name":"Jane","email":"jane@example.com","message":"Hello"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", w.Code, http.StatusOK, w.Body.String())
	}
	if got, want := gotPath, "/api/contact/"; got != want {
		t.Fatalf("backend path = %q; want %q", got, want)
	}
	wantForward := map[string]any{"name": "Jane", "email": "jane@example.com", "message": "Hello", "company": "", "source": "site-gateway"}
	if !reflect.DeepEqual(got, wantForward) {
		t.Fatalf("forwarded = %v; want %v", got, wantForward)
	}
	body := decodeBody(t, w)
	if body["success"] != true || body["message"] != contactThanks {
		t.Fatalf("body = %v", body)
	}
	if data, ok := body["data"].(map[string]any); !ok || data["id"] != float64(42) {
		t.Fatalf("data = %v; want backend reply", body["data"])
	}
	if got, want := w.Header().Get("Access-Control-Allow-Origin"), "https://example.com"; got != want {
		t.Fatalf("allow-origin = %q; want %q", got, want)
	}
	if len(audit.records) != 1 || audit.records[0].Outcome != "relayed" || audit.records[0].ID == "" {
		t.Fatalf("audit = %+v; want one relayed record with an id", audit.records)
	}
}

func TestContactRelayRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing fields", `{"name":"Jane","email":"jane@example.com"}`, "Missing required fields: name, email, and message are required"},
		{"bad email", `{"name":"Jane","email":"jane","message":"hi"}`, "Invalid email format"},
		{"bad json", `{"name":`, "Invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := false
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) { hit = true })
			w := f.do(http.MethodPost, "/forms/contact", strings.NewReader(tt.body))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if got := decodeBody(t, w)["error"]; got != tt.want {
				t.Fatalf("error = %v; want %q", got, tt.want)
			}
			if hit {
				t.Fatal("backend was called for an invalid submission")
			}
		})
	}
}

func TestContactRelayBackendFailure(t *testing.T) {
	audit := &memoryAudit{}
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, func(o *Options) { o.Audit = audit })

	w := f.do(http.MethodPost, "/forms/contact", strings.NewReader(`{"name":"Jane","email":"jane@example.com","message":"Hello"}`))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if got, want := decodeBody(t, w)["error"], "Internal server error. Please try again later."; got != want {
		t.Fatalf("error = %v; want %q", got, want)
	}
	if len(audit.records) != 1 || audit.records[0].Outcome != "failed" {
		t.Fatalf("audit = %+v; want one failed record", audit.records)
	}
}

func TestContactRelayPreflightAndMethods(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	w := f.do(http.MethodOptions, "/forms/contact", nil)
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Fatalf("OPTIONS = %d %q; want 200 with empty body", w.Code, w.Body.String())
	}
	if got, want := w.Header().Get("Access-Control-Allow-Methods"), "POST, OPTIONS"; got != want {
		t.Fatalf("allow-methods = %q; want %q", got, want)
	}

	w = f.do(http.MethodGet, "/forms/contact", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if got, want := w.Header().Get("Allow"), "POST"; got != want {
		t.Fatalf("Allow = %q; want %q", got, want)
	}
}
