package mock

import (
	"regexp"
	"time"
)

// Path match kinds
const (
	PathExact  = "exact"
	PathPrefix = "prefix"
	PathRegex  = "regex"
)

// MaxLogEntries bounds the request log kept by a Server
const MaxLogEntries = 1000

// Config is a mock server definition
type Config struct {
	Port    int     `json:"port" yaml:"port"` // 0 picks a free port
	Host    string  `json:"host" yaml:"host"` // default: localhost
	Routes  []Route `json:"routes" yaml:"routes"`
	Logging bool    `json:"logging" yaml:"logging"`
}

// Route is a single canned endpoint. Method "*" matches any method.
type Route struct {
	Name     string            `json:"name,omitempty" yaml:"name,omitempty"`
	Method   string            `json:"method" yaml:"method"`
	Path     string            `json:"path" yaml:"path"`
	PathType string            `json:"pathType,omitempty" yaml:"pathType,omitempty"`
	Status   int               `json:"status,omitempty" yaml:"status,omitempty"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body     string            `json:"body,omitempty" yaml:"body,omitempty"`
	BodyFile string            `json:"bodyFile,omitempty" yaml:"bodyFile,omitempty"`
	// Echo replies with the request body and its Content-Type
	Echo  bool `json:"echo,omitempty" yaml:"echo,omitempty"`
	Delay int  `json:"delay,omitempty" yaml:"delay,omitempty"` // milliseconds

	pattern *regexp.Regexp
}

// RequestLog is one request served by the mock
type RequestLog struct {
	Timestamp   time.Time         `json:"timestamp"`
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Query       string            `json:"query,omitempty"`
	Headers     map[string]string `json:"headers"`
	Body        string            `json:"body"`
	MatchedRule string            `json:"matchedRule"`
	Status      int               `json:"status"`
	Duration    time.Duration     `json:"duration"`
}
