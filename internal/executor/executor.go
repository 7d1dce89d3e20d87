package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/studiowebux/apiprobe/internal/oauth"
	"github.com/studiowebux/apiprobe/internal/parser"
	"github.com/studiowebux/apiprobe/internal/types"
)

// DefaultTimeout applies when no client or timeout is configured
const DefaultTimeout = 30 * time.Second

// ErrEmptyURL is reported (as a network-error Response) for requests without a URL
var ErrEmptyURL = errors.New("request URL is empty")

// Recorder stores a completed request/response pair. *history.Log satisfies it.
type Recorder interface {
	Record(req types.Request, resp types.Response) types.HistoryEntry
}

// Executor sends Requests and normalizes the results into Responses.
// It is safe for concurrent use.
type Executor struct {
	client   *http.Client
	recorder Recorder
	tokens   *oauth.TokenCache
	log      logr.Logger
	now      func() time.Time
}

// Option configures an Executor
type Option func(*Executor)

// WithHTTPClient sets the client used for every call
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) { e.client = c }
}

// WithTimeout sets the overall per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		c := *e.client
		c.Timeout = d
		e.client = &c
	}
}

// WithRecorder appends every completed call to r
func WithRecorder(r Recorder) Option {
	return func(e *Executor) { e.recorder = r }
}

// WithLogger sets the logger
func WithLogger(log logr.Logger) Option {
	return func(e *Executor) { e.log = log }
}

// WithClock overrides time.Now for timing
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an Executor
func New(opts ...Option) *Executor {
	e := &Executor{
		client: &http.Client{Timeout: DefaultTimeout},
		log:    logr.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tokens = oauth.NewTokenCache(e.client)
	return e
}

// Execute substitutes env into req, sends it and returns the normalized
// Response. Transport failures never surface as errors: they produce a
// Response with status 0.
func (e *Executor) Execute(ctx context.Context, req types.Request, env types.Environment) types.Response {
	return e.ExecuteIn(ctx, nil, req, env)
}

// ExecuteIn is Execute with col's variables as the lowest-priority layer and
// col's auth applied before the request's own headers. col may be nil.
func (e *Executor) ExecuteIn(ctx context.Context, col *types.Collection, req types.Request, env types.Environment) types.Response {
	resolved, resp := e.Do(ctx, col, req, env)
	if e.recorder != nil {
		e.recorder.Record(resolved, resp)
	}
	return resp
}

// Do resolves and sends req like ExecuteIn but leaves recording to the
// caller. It returns the resolved request alongside the response.
func (e *Executor) Do(ctx context.Context, col *types.Collection, req types.Request, env types.Environment) (types.Request, types.Response) {
	var colVars map[string]string
	var auth *types.Auth
	if col != nil {
		colVars = col.Variables
		auth = col.Auth
	}

	resolver := parser.NewVariableResolver(colVars, env, nil)
	resolved := resolver.ResolveRequest(&req)
	if unresolved := resolver.GetUnresolvedVariables(); len(unresolved) > 0 {
		e.log.V(1).Info("unresolved variables left verbatim", "request", req.Name, "variables", unresolved)
	}

	resp := e.send(ctx, resolved, resolveAuth(resolver, auth))
	return *resolved, resp
}

func (e *Executor) send(ctx context.Context, req *types.Request, auth *types.Auth) types.Response {
	start := e.now()

	if strings.TrimSpace(req.URL) == "" {
		return e.failure(ErrEmptyURL, start)
	}

	method, err := types.ParseMethod(string(req.Method))
	if err != nil {
		return e.failure(err, start)
	}

	var payload []byte
	var contentType string
	if method.AllowsBody() {
		payload, contentType, err = encodeBody(req.Body)
		if err != nil {
			return e.failure(err, start)
		}
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(method), req.URL, bodyReader)
	if err != nil {
		return e.failure(fmt.Errorf("failed to create request: %w", err), start)
	}

	if err := e.applyAuth(ctx, httpReq, auth); err != nil {
		return e.failure(err, start)
	}

	for _, h := range req.Headers {
		if h.Active() {
			httpReq.Header.Set(h.Key, h.Value)
		}
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	e.log.V(1).Info("sending request", "method", method, "url", httpReq.URL.String(), "bodyBytes", len(payload))

	start = e.now()
	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return e.failure(err, start)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return e.failure(fmt.Errorf("failed to read response body: %w", err), start)
	}
	duration := e.now().Sub(start).Milliseconds()

	headers := make(map[string]string, len(httpResp.Header))
	for key, values := range httpResp.Header {
		headers[key] = strings.Join(values, ", ")
	}

	resp := types.Response{
		Status:     httpResp.StatusCode,
		StatusText: statusText(httpResp),
		Headers:    headers,
		Body:       NormalizeBody(string(raw)),
		RawBody:    string(raw),
		Duration:   duration,
		Size:       len(raw),
	}

	e.log.V(1).Info("received response", "status", resp.Status, "durationMs", resp.Duration, "size", resp.Size)
	return resp
}

// failure builds the synthetic status-0 Response for err
func (e *Executor) failure(err error, start time.Time) types.Response {
	e.log.V(1).Info("request failed", "error", err.Error())
	return types.Response{
		Status:     types.StatusNetworkError,
		StatusText: types.NetworkErrorText,
		Headers:    map[string]string{},
		Body:       err.Error(),
		RawBody:    err.Error(),
		Duration:   e.now().Sub(start).Milliseconds(),
		Error:      err.Error(),
	}
}

// statusText strips the numeric code from resp.Status ("404 Not Found" -> "Not Found")
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// NormalizeBody pretty-prints raw with a two-space indent when it is valid
// JSON and returns it unchanged otherwise. Numbers keep their original text.
func NormalizeBody(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return raw
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return raw
	}
	return buf.String()
}
