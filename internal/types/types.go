package types

import (
	"fmt"
	"strings"
	"time"
)

// Method is an HTTP method supported by the request editor
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Methods lists every supported method in display order
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead, MethodOptions}

// ParseMethod normalizes a method name. An empty string yields GET.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if m == "" {
		return MethodGet, nil
	}
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	supported := make([]string, len(Methods))
	for i, known := range Methods {
		supported[i] = string(known)
	}
	return "", fmt.Errorf("unsupported HTTP method: %s (supported: %s)", s, strings.Join(supported, ", "))
}

// AllowsBody reports whether the executor attaches a payload for this method
func (m Method) AllowsBody() bool {
	return m == MethodPost || m == MethodPut || m == MethodPatch
}

// Header is a single editable header line
type Header struct {
	Key     string `json:"key" yaml:"key"`
	Value   string `json:"value" yaml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Active reports whether the header is sent: enabled, with key and value set
func (h Header) Active() bool {
	return h.Enabled && h.Key != "" && h.Value != ""
}

// BodyMode selects how a request body is serialized
type BodyMode string

const (
	BodyNone       BodyMode = ""
	BodyRaw        BodyMode = "raw"
	BodyFormData   BodyMode = "formdata"
	BodyURLEncoded BodyMode = "urlencoded"
)

// FormField is a key/value pair for form-data and url-encoded bodies
type FormField struct {
	Key     string `json:"key" yaml:"key"`
	Value   string `json:"value" yaml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Body describes the request payload
type Body struct {
	Mode   BodyMode    `json:"mode" yaml:"mode"`
	Raw    string      `json:"raw,omitempty" yaml:"raw,omitempty"`
	Fields []FormField `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Request is the editable description of an HTTP call
type Request struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Method  Method   `json:"method" yaml:"method"`
	URL     string   `json:"url" yaml:"url"`
	Headers []Header `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    *Body    `json:"body,omitempty" yaml:"body,omitempty"`
}

// Clone returns a deep copy so snapshots never share slices with the editor
func (r Request) Clone() Request {
	out := r
	if r.Headers != nil {
		out.Headers = append([]Header(nil), r.Headers...)
	}
	if r.Body != nil {
		b := *r.Body
		if r.Body.Fields != nil {
			b.Fields = append([]FormField(nil), r.Body.Fields...)
		}
		out.Body = &b
	}
	return out
}

// RawBody returns the raw payload, or "" when the body is absent or not raw
func (r Request) RawBody() string {
	if r.Body == nil || r.Body.Mode != BodyRaw {
		return ""
	}
	return r.Body.Raw
}

// AuthType identifies a collection-level auth scheme
type AuthType string

const (
	AuthNone   AuthType = ""
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
	AuthAPIKey AuthType = "apikey"
	AuthOAuth2 AuthType = "oauth2"
)

// Auth is the optional auth descriptor carried by a collection
type Auth struct {
	Type AuthType `json:"type" yaml:"type"`

	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// APIKey places Key=Value in a header, or in the query when In is "query"
	Key   string `json:"key,omitempty" yaml:"key,omitempty"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	In    string `json:"in,omitempty" yaml:"in,omitempty"`

	// OAuth2 client credentials
	TokenURL     string   `json:"tokenUrl,omitempty" yaml:"tokenUrl,omitempty"`
	ClientID     string   `json:"clientId,omitempty" yaml:"clientId,omitempty"`
	ClientSecret string   `json:"clientSecret,omitempty" yaml:"clientSecret,omitempty"`
	Scopes       []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// Collection is a named, ordered group of requests
type Collection struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Requests    []Request         `json:"requests" yaml:"requests"`
	Variables   map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Auth        *Auth             `json:"auth,omitempty" yaml:"auth,omitempty"`
}

// Clone returns a deep copy of the collection
func (c Collection) Clone() Collection {
	out := c
	out.Requests = make([]Request, len(c.Requests))
	for i, r := range c.Requests {
		out.Requests[i] = r.Clone()
	}
	if c.Variables != nil {
		out.Variables = make(map[string]string, len(c.Variables))
		for k, v := range c.Variables {
			out.Variables[k] = v
		}
	}
	if c.Auth != nil {
		a := *c.Auth
		a.Scopes = append([]string(nil), c.Auth.Scopes...)
		out.Auth = &a
	}
	return out
}

// Environment is the flat mapping used for {{placeholder}} substitution
type Environment map[string]string

// Clone returns an independent copy
func (e Environment) Clone() Environment {
	out := make(Environment, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

const (
	// StatusNetworkError is the status of a synthetic response for transport failures
	StatusNetworkError = 0
	// NetworkErrorText is the status text of a synthetic network-error response
	NetworkErrorText = "Network Error"
)

// Response is the normalized result of executing a request
type Response struct {
	Status     int               `json:"status" yaml:"status"`
	StatusText string            `json:"statusText" yaml:"statusText"`
	Headers    map[string]string `json:"headers" yaml:"headers"`
	Body       string            `json:"body" yaml:"body"`
	RawBody    string            `json:"-" yaml:"-"`
	Duration   int64             `json:"duration" yaml:"duration"` // milliseconds
	Size       int               `json:"size" yaml:"size"`         // bytes of the raw body
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// IsNetworkError reports whether the response was synthesized from a transport failure
func (r *Response) IsNetworkError() bool {
	return r.Status == StatusNetworkError
}

// HistoryEntry pairs a request snapshot with its response
type HistoryEntry struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Request   Request   `json:"request" yaml:"request"`
	Response  Response  `json:"response" yaml:"response"`
}
