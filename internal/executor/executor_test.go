package executor

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/studiowebux/apiprobe/internal/history"
	"github.com/studiowebux/apiprobe/internal/mock"
	"github.com/studiowebux/apiprobe/internal/types"
)

// captured is what the test server saw
type captured struct {
	Method  string
	Path    string
	Query   url.Values
	Headers http.Header
	Body    string
}

func captureServer(t *testing.T) (*httptest.Server, func() captured) {
	t.Helper()
	var mu sync.Mutex
	var last captured

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		last = captured{
			Method:  r.Method,
			Path:    r.URL.Path,
			Query:   r.URL.Query(),
			Headers: r.Header.Clone(),
			Body:    string(body),
		}
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(ts.Close)

	return ts, func() captured {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, err := mock.NewServer(mock.EchoConfig(), "", logr.Discard())
	if err != nil {
		t.Fatalf("mock.NewServer failed: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestExecute_SubstitutesURL(t *testing.T) {
	ts, last := captureServer(t)
	exec := New()

	resp := exec.Execute(context.Background(), types.Request{
		Method: types.MethodGet,
		URL:    "{{base}}/x?id={{id}}&keep={{missing}}",
	}, types.Environment{"base": ts.URL, "id": "42"})

	if resp.Status != 200 {
		t.Fatalf("Expected 200, got %d (%s)", resp.Status, resp.Error)
	}
	got := last()
	if got.Path != "/x" {
		t.Errorf("Expected path /x, got %s", got.Path)
	}
	if got.Query.Get("id") != "42" {
		t.Errorf("Expected id=42, got %q", got.Query.Get("id"))
	}
	if got.Query.Get("keep") != "{{missing}}" {
		t.Errorf("Expected unknown placeholder kept verbatim, got %q", got.Query.Get("keep"))
	}
}

func TestExecute_HeaderFiltering(t *testing.T) {
	ts, last := captureServer(t)
	exec := New()

	exec.Execute(context.Background(), types.Request{
		Method: types.MethodGet,
		URL:    ts.URL,
		Headers: []types.Header{
			{Key: "X-Enabled", Value: "{{token}}", Enabled: true},
			{Key: "X-Disabled", Value: "secret", Enabled: false},
			{Key: "X-Empty", Value: "", Enabled: true},
			{Key: "", Value: "orphan", Enabled: true},
			{Key: "X-Dup", Value: "first", Enabled: true},
			{Key: "X-Dup", Value: "second", Enabled: true},
		},
	}, types.Environment{"token": "abc"})

	h := last().Headers
	if h.Get("X-Enabled") != "abc" {
		t.Errorf("Expected substituted enabled header, got %q", h.Get("X-Enabled"))
	}
	if _, ok := h["X-Disabled"]; ok {
		t.Error("Disabled header must not be sent")
	}
	if _, ok := h["X-Empty"]; ok {
		t.Error("Header with empty value must not be sent")
	}
	if got := h.Values("X-Dup"); !reflect.DeepEqual(got, []string{"second"}) {
		t.Errorf("Expected later duplicate to win, got %v", got)
	}
}

func TestExecute_BodyOnlyForPayloadMethods(t *testing.T) {
	ts, last := captureServer(t)
	exec := New()
	body := &types.Body{Mode: types.BodyRaw, Raw: `{"a":1}`}

	tests := []struct {
		method   types.Method
		wantBody string
	}{
		{types.MethodGet, ""},
		{types.MethodHead, ""},
		{types.MethodOptions, ""},
		{types.MethodDelete, ""},
		{types.MethodPost, `{"a":1}`},
		{types.MethodPut, `{"a":1}`},
		{types.MethodPatch, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			resp := exec.Execute(context.Background(), types.Request{Method: tt.method, URL: ts.URL, Body: body}, nil)
			if resp.IsNetworkError() {
				t.Fatalf("unexpected network error: %s", resp.Error)
			}
			got := last()
			if got.Method != string(tt.method) {
				t.Errorf("Expected method %s, got %s", tt.method, got.Method)
			}
			if got.Body != tt.wantBody {
				t.Errorf("Expected body %q, got %q", tt.wantBody, got.Body)
			}
		})
	}
}

func TestExecute_EchoPrettyPrints(t *testing.T) {
	ts := echoServer(t)
	exec := New()

	resp := exec.Execute(context.Background(), types.Request{
		Method:  types.MethodPost,
		URL:     ts.URL + "/echo",
		Headers: []types.Header{{Key: "Content-Type", Value: "application/json", Enabled: true}},
		Body:    &types.Body{Mode: types.BodyRaw, Raw: `{"a":1}`},
	}, nil)

	if resp.Status != 200 {
		t.Fatalf("Expected 200, got %d", resp.Status)
	}
	want := "{\n  \"a\": 1\n}"
	if resp.Body != want {
		t.Errorf("Expected pretty body %q, got %q", want, resp.Body)
	}
	if resp.RawBody != `{"a":1}` {
		t.Errorf("Expected raw body kept, got %q", resp.RawBody)
	}
	if resp.Size != len(`{"a":1}`) {
		t.Errorf("Expected size of raw body, got %d", resp.Size)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("Expected echoed content type, got %q", resp.Headers["Content-Type"])
	}
	if resp.StatusText != "OK" {
		t.Errorf("Expected status text OK, got %q", resp.StatusText)
	}
}

func TestExecute_URLEncodedBody(t *testing.T) {
	ts, last := captureServer(t)
	exec := New()

	exec.Execute(context.Background(), types.Request{
		Method: types.MethodPost,
		URL:    ts.URL,
		Body: &types.Body{Mode: types.BodyURLEncoded, Fields: []types.FormField{
			{Key: "user", Value: "{{name}}", Enabled: true},
			{Key: "skip", Value: "x", Enabled: false},
			{Key: "q", Value: "a b&c", Enabled: true},
		}},
	}, types.Environment{"name": "ada"})

	got := last()
	if ct := got.Headers.Get("Content-Type"); ct != ContentTypeURLEncoded {
		t.Errorf("Expected urlencoded content type, got %q", ct)
	}
	values, err := url.ParseQuery(got.Body)
	if err != nil {
		t.Fatalf("body is not urlencoded: %v", err)
	}
	if values.Get("user") != "ada" || values.Get("q") != "a b&c" {
		t.Errorf("Unexpected form values: %v", values)
	}
	if values.Has("skip") {
		t.Error("Disabled field must not be sent")
	}
}

func TestExecute_FormDataBody(t *testing.T) {
	ts, last := captureServer(t)
	exec := New()

	exec.Execute(context.Background(), types.Request{
		Method: types.MethodPut,
		URL:    ts.URL,
		Body: &types.Body{Mode: types.BodyFormData, Fields: []types.FormField{
			{Key: "title", Value: "hello", Enabled: true},
			{Key: "off", Value: "x", Enabled: false},
		}},
	}, nil)

	got := last()
	mediaType, params, err := mime.ParseMediaType(got.Headers.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("Expected multipart content type, got %q (%v)", got.Headers.Get("Content-Type"), err)
	}

	reader := multipart.NewReader(strings.NewReader(got.Body), params["boundary"])
	form, err := reader.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("failed to read multipart body: %v", err)
	}
	if v := form.Value["title"]; len(v) != 1 || v[0] != "hello" {
		t.Errorf("Expected title=hello, got %v", v)
	}
	if _, ok := form.Value["off"]; ok {
		t.Error("Disabled field must not be sent")
	}
}

func TestExecute_UserContentTypeWins(t *testing.T) {
	ts, last := captureServer(t)
	exec := New()

	exec.Execute(context.Background(), types.Request{
		Method:  types.MethodPost,
		URL:     ts.URL,
		Headers: []types.Header{{Key: "Content-Type", Value: "text/plain", Enabled: true}},
		Body:    &types.Body{Mode: types.BodyURLEncoded, Fields: []types.FormField{{Key: "a", Value: "1", Enabled: true}}},
	}, nil)

	if ct := last().Headers.Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Expected user content type to win, got %q", ct)
	}
}

func TestExecute_NetworkErrorIsRecorded(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	log := history.NewLog()
	exec := New(WithRecorder(log), WithTimeout(2*time.Second))

	resp := exec.Execute(context.Background(), types.Request{Name: "dead", Method: types.MethodGet, URL: deadURL}, nil)

	if resp.Status != types.StatusNetworkError {
		t.Fatalf("Expected status 0, got %d", resp.Status)
	}
	if resp.StatusText != types.NetworkErrorText {
		t.Errorf("Expected %q, got %q", types.NetworkErrorText, resp.StatusText)
	}
	if resp.Body == "" || resp.Error == "" {
		t.Error("Expected error message in body and error")
	}

	latest, ok := log.Latest()
	if !ok {
		t.Fatal("Expected a history entry for the failed send")
	}
	if latest.Request.Name != "dead" || latest.Response.Status != 0 {
		t.Errorf("Unexpected history entry: %+v", latest)
	}
}

func TestExecute_EmptyAndMalformedURL(t *testing.T) {
	log := history.NewLog()
	exec := New(WithRecorder(log))

	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"malformed", "http://[::1"},
		{"unresolved host placeholder", "{{base}}/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := exec.Execute(context.Background(), types.Request{Method: types.MethodGet, URL: tt.url}, nil)
			if resp.Status != types.StatusNetworkError {
				t.Errorf("Expected status 0, got %d", resp.Status)
			}
			if resp.Error == "" {
				t.Error("Expected error message")
			}
		})
	}

	if log.Len() != len(tests) {
		t.Errorf("Expected %d history entries, got %d", len(tests), log.Len())
	}
}

func TestExecute_CancelledContext(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(block)

	exec := New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	resp := exec.Execute(ctx, types.Request{Method: types.MethodGet, URL: ts.URL}, nil)
	if resp.Status != types.StatusNetworkError {
		t.Errorf("Expected cancelled send to produce status 0, got %d", resp.Status)
	}
}

func TestExecute_BodyReadTimeoutIsNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"partial":`))
		w.(http.Flusher).Flush()
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	log := history.NewLog()
	exec := New(WithRecorder(log), WithTimeout(100*time.Millisecond))

	resp := exec.Execute(context.Background(), types.Request{Method: types.MethodGet, URL: ts.URL}, nil)

	if resp.Status != types.StatusNetworkError {
		t.Fatalf("Expected status 0 for a stalled body, got %d", resp.Status)
	}
	if resp.StatusText != types.NetworkErrorText {
		t.Errorf("Expected %q, got %q", types.NetworkErrorText, resp.StatusText)
	}
	if !strings.Contains(resp.Body, "failed to read response body") {
		t.Errorf("Expected read failure in body, got %q", resp.Body)
	}
	if resp.Body != resp.Error {
		t.Errorf("Expected body and error to match, got %q and %q", resp.Body, resp.Error)
	}

	latest, ok := log.Latest()
	if !ok || latest.Response.Status != types.StatusNetworkError {
		t.Errorf("Expected the failed read in history, got %+v", latest)
	}
}

func TestExecute_MultiValueHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("X-Multi", "a")
		w.Header().Add("X-Multi", "b")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("plain text"))
	}))
	defer ts.Close()

	resp := New().Execute(context.Background(), types.Request{URL: ts.URL}, nil)

	if resp.Headers["X-Multi"] != "a, b" {
		t.Errorf("Expected joined header, got %q", resp.Headers["X-Multi"])
	}
	if resp.Status != http.StatusTeapot {
		t.Errorf("Expected 418, got %d", resp.Status)
	}
	if resp.Body != "plain text" {
		t.Errorf("Expected non-JSON body unchanged, got %q", resp.Body)
	}
}

func TestExecuteIn_CollectionVariablesAndAuth(t *testing.T) {
	ts, last := captureServer(t)
	exec := New()

	col := &types.Collection{
		Variables: map[string]string{"base": "http://wrong.invalid", "token": "col-token"},
		Auth:      &types.Auth{Type: types.AuthBearer, Token: "{{token}}"},
	}

	resp := exec.ExecuteIn(context.Background(), col, types.Request{URL: "{{base}}/items"}, types.Environment{"base": ts.URL})
	if resp.Status != 200 {
		t.Fatalf("Expected environment to override collection variable, got status %d (%s)", resp.Status, resp.Error)
	}
	if auth := last().Headers.Get("Authorization"); auth != "Bearer col-token" {
		t.Errorf("Expected bearer auth, got %q", auth)
	}
}

func TestExecuteIn_AuthSchemes(t *testing.T) {
	ts, last := captureServer(t)
	exec := New()

	t.Run("basic", func(t *testing.T) {
		col := &types.Collection{Auth: &types.Auth{Type: types.AuthBasic, Username: "u", Password: "p"}}
		exec.ExecuteIn(context.Background(), col, types.Request{URL: ts.URL}, nil)

		req := &http.Request{Header: last().Headers}
		user, pass, ok := req.BasicAuth()
		if !ok || user != "u" || pass != "p" {
			t.Errorf("Expected basic auth u:p, got %q:%q (%v)", user, pass, ok)
		}
	})

	t.Run("apikey header", func(t *testing.T) {
		col := &types.Collection{Auth: &types.Auth{Type: types.AuthAPIKey, Key: "X-Api-Key", Value: "k1"}}
		exec.ExecuteIn(context.Background(), col, types.Request{URL: ts.URL}, nil)

		if got := last().Headers.Get("X-Api-Key"); got != "k1" {
			t.Errorf("Expected api key header, got %q", got)
		}
	})

	t.Run("apikey query", func(t *testing.T) {
		col := &types.Collection{Auth: &types.Auth{Type: types.AuthAPIKey, Key: "api_key", Value: "k2", In: "query"}}
		exec.ExecuteIn(context.Background(), col, types.Request{URL: ts.URL + "?a=1"}, nil)

		got := last().Query
		if got.Get("api_key") != "k2" || got.Get("a") != "1" {
			t.Errorf("Expected api key in query, got %v", got)
		}
	})

	t.Run("user header overrides auth", func(t *testing.T) {
		col := &types.Collection{Auth: &types.Auth{Type: types.AuthBearer, Token: "from-collection"}}
		exec.ExecuteIn(context.Background(), col, types.Request{
			URL:     ts.URL,
			Headers: []types.Header{{Key: "Authorization", Value: "Bearer mine", Enabled: true}},
		}, nil)

		if got := last().Headers.Get("Authorization"); got != "Bearer mine" {
			t.Errorf("Expected request header to win, got %q", got)
		}
	})
}

func TestExecuteIn_OAuth2(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "oauth-tok",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenSrv.Close()

	ts, last := captureServer(t)
	exec := New()

	col := &types.Collection{Auth: &types.Auth{
		Type:         types.AuthOAuth2,
		TokenURL:     tokenSrv.URL,
		ClientID:     "client",
		ClientSecret: "secret",
	}}

	resp := exec.ExecuteIn(context.Background(), col, types.Request{URL: ts.URL}, nil)
	if resp.Status != 200 {
		t.Fatalf("Expected 200, got %d (%s)", resp.Status, resp.Error)
	}
	if got := last().Headers.Get("Authorization"); got != "Bearer oauth-tok" {
		t.Errorf("Expected oauth bearer header, got %q", got)
	}

	col.Auth.TokenURL = "{{missing}}"
	resp = exec.ExecuteIn(context.Background(), col, types.Request{URL: ts.URL}, nil)
	if resp.Status != types.StatusNetworkError {
		t.Errorf("Expected token failure to produce status 0, got %d", resp.Status)
	}
}

func TestExecute_RecordsResolvedSnapshot(t *testing.T) {
	ts, _ := captureServer(t)
	log := history.NewLog()
	exec := New(WithRecorder(log))

	env := types.Environment{"base": ts.URL}
	req := types.Request{Name: "snap", URL: "{{base}}/a"}
	exec.Execute(context.Background(), req, env)

	env["base"] = "http://changed.invalid"

	latest, _ := log.Latest()
	if latest.Request.URL != ts.URL+"/a" {
		t.Errorf("Expected history to keep the URL as sent, got %q", latest.Request.URL)
	}
}

func TestExecute_Concurrent(t *testing.T) {
	ts, _ := captureServer(t)
	log := history.NewLog()
	exec := New(WithRecorder(log))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exec.Execute(context.Background(), types.Request{URL: ts.URL}, nil)
		}()
	}
	wg.Wait()

	if log.Len() != 20 {
		t.Errorf("Expected 20 history entries, got %d", log.Len())
	}
}

func TestNormalizeBody(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"object", `{"a":1,"b":[true,null]}`, "{\n  \"a\": 1,\n  \"b\": [\n    true,\n    null\n  ]\n}"},
		{"big number keeps digits", `{"n":12345678901234567890}`, "{\n  \"n\": 12345678901234567890\n}"},
		{"scalar", `42`, `42`},
		{"plain text", `hello`, `hello`},
		{"truncated json", `{"a":`, `{"a":`},
		{"empty", ``, ``},
		{"html", `<html></html>`, `<html></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeBody(tt.raw); got != tt.want {
				t.Errorf("NormalizeBody(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeBody_SameLogicalContent(t *testing.T) {
	raw := `{"users":[{"id":1,"name":"Ada"},{"id":2,"tags":["x","y"]}],"total":2.5}`

	var want, got any
	if err := json.Unmarshal([]byte(raw), &want); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(NormalizeBody(raw)), &got); err != nil {
		t.Fatalf("normalized body is not JSON: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("Normalized body changed content: %v vs %v", want, got)
	}
}
