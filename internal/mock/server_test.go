package mock

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
)

func newTestServer(t *testing.T, cfg *Config) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(cfg, t.TempDir(), logr.Discard())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestServer_ExactRoute(t *testing.T) {
	cfg := &Config{
		Logging: true,
		Routes: []Route{
			{Method: "GET", Path: "/users", Status: 200, Body: `[{"id":1}]`, Headers: map[string]string{"Content-Type": "application/json"}},
		},
	}
	s, ts := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/users?page=2")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != 200 {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if string(body) != `[{"id":1}]` {
		t.Errorf("Unexpected body: %s", body)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Expected route header, got %q", resp.Header.Get("Content-Type"))
	}

	logs := s.GetLogs()
	if len(logs) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(logs))
	}
	if logs[0].Query != "page=2" {
		t.Errorf("Expected query logged, got %q", logs[0].Query)
	}
}

func TestServer_NoRoute(t *testing.T) {
	cfg := &Config{Routes: []Route{{Method: "GET", Path: "/a"}}}
	_, ts := newTestServer(t, cfg)

	resp, err := http.Post(ts.URL+"/a", "text/plain", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unmatched method, got %d", resp.StatusCode)
	}
}

func TestServer_Echo(t *testing.T) {
	_, ts := newTestServer(t, EchoConfig())

	resp, err := http.Post(ts.URL+"/anything/here", "application/json", strings.NewReader(`{"a":1}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if string(body) != `{"a":1}` {
		t.Errorf("Expected echoed body, got %s", body)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Expected echoed content type, got %q", resp.Header.Get("Content-Type"))
	}
}

func TestServer_PrefixAndRegex(t *testing.T) {
	cfg := &Config{
		Routes: []Route{
			{Method: "GET", Path: `^/items/\d+$`, PathType: PathRegex, Body: "item"},
			{Method: "GET", Path: "/static/", PathType: PathPrefix, Body: "static"},
		},
	}
	_, ts := newTestServer(t, cfg)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/items/42", 200, "item"},
		{"/items/abc", 404, ""},
		{"/static/css/site.css", 200, "static"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, resp.StatusCode)
			}
			if tt.body != "" && string(body) != tt.body {
				t.Errorf("Expected body %q, got %q", tt.body, body)
			}
		})
	}
}

func TestServer_BodyFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "users.json"), []byte(`{"ok":true}`), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewServer(&Config{Routes: []Route{{Method: "GET", Path: "/u", BodyFile: "users.json"}}}, dir, logr.Discard())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/u")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if string(body) != `{"ok":true}` {
		t.Errorf("Expected file body, got %s", body)
	}
}

func TestServer_StartStop(t *testing.T) {
	s, err := NewServer(EchoConfig(), "", logr.Discard())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	addr, err := s.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	resp, err := http.Post(addr+"/x", "text/plain", strings.NewReader("ping"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if string(body) != "ping" {
		t.Errorf("Expected 'ping', got %q", body)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"no routes", Config{}, true},
		{"missing method", Config{Routes: []Route{{Path: "/"}}}, true},
		{"bad path type", Config{Routes: []Route{{Method: "GET", Path: "/", PathType: "glob"}}}, true},
		{"bad regex", Config{Routes: []Route{{Method: "GET", Path: "(", PathType: PathRegex}}}, true},
		{"echo with body", Config{Routes: []Route{{Method: "POST", Path: "/", Echo: true, Body: "x"}}}, true},
		{"valid", Config{Routes: []Route{{Method: "GET", Path: "/"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mock.yaml")
	data := `
port: 0
routes:
  - method: POST
    path: /echo
    echo: true
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Routes) != 1 || !cfg.Routes[0].Echo {
		t.Errorf("Unexpected routes: %+v", cfg.Routes)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "mock.toml")); err == nil {
		t.Error("Expected error for missing/unsupported file")
	}
}
