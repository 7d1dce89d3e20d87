package mock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// Server serves canned responses described by a Config
type Server struct {
	config     *Config
	httpServer *http.Server
	listener   net.Listener
	logs       []RequestLog
	logsMutex  sync.RWMutex
	workdir    string
	log        logr.Logger
	notifyCh   chan struct{}
}

// NewServer creates a mock server. workdir resolves relative bodyFile paths.
func NewServer(cfg *Config, workdir string, log logr.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}

	return &Server{
		config:   cfg,
		logs:     make([]RequestLog, 0),
		workdir:  workdir,
		log:      log,
		notifyCh: make(chan struct{}, 100),
	}, nil
}

// Start binds the listener and serves in the background.
// It returns the base URL, e.g. http://127.0.0.1:40123.
func (s *Server) Start() (string, error) {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(err, "mock server stopped")
		}
	}()

	s.log.Info("mock server listening", "addr", ln.Addr().String(), "routes", len(s.config.Routes))
	return s.Address(), nil
}

// Stop shuts the server down, waiting up to five seconds for open requests
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routing handler, e.g. for httptest.NewServer
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleRequest)
}

// Address returns the base URL once started
func (s *Server) Address() string {
	if s.listener == nil {
		return fmt.Sprintf("http://%s", net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port)))
	}
	return "http://" + s.listener.Addr().String()
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	bodyBytes, _ := io.ReadAll(r.Body)
	r.Body.Close()

	route := s.findMatchingRoute(r.Method, r.URL.Path)

	status := http.StatusNotFound
	var responseBody []byte
	matchedRule := "none"

	if route == nil {
		responseBody = []byte(fmt.Sprintf("Mock server: No route configured for %s %s", r.Method, r.URL.Path))
	} else {
		if route.Delay > 0 {
			select {
			case <-time.After(time.Duration(route.Delay) * time.Millisecond):
			case <-r.Context().Done():
				return
			}
		}

		status = route.Status
		if status == 0 {
			status = http.StatusOK
		}

		for key, value := range route.Headers {
			w.Header().Set(key, value)
		}

		switch {
		case route.Echo:
			if ct := r.Header.Get("Content-Type"); ct != "" && w.Header().Get("Content-Type") == "" {
				w.Header().Set("Content-Type", ct)
			}
			responseBody = bodyBytes
		case route.BodyFile != "":
			path := route.BodyFile
			if !filepath.IsAbs(path) {
				path = filepath.Join(s.workdir, path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				status = http.StatusInternalServerError
				responseBody = []byte(fmt.Sprintf("Mock server: Failed to read body file %s: %v", route.BodyFile, err))
			} else {
				responseBody = data
			}
		default:
			responseBody = []byte(route.Body)
		}

		matchedRule = route.Name
		if matchedRule == "" {
			matchedRule = fmt.Sprintf("%s %s", route.Method, route.Path)
		}
	}

	w.WriteHeader(status)
	w.Write(responseBody)

	if s.config.Logging {
		s.logRequest(RequestLog{
			Timestamp:   start,
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.RawQuery,
			Headers:     flattenHeaders(r.Header),
			Body:        string(bodyBytes),
			MatchedRule: matchedRule,
			Status:      status,
			Duration:    time.Since(start),
		})
	}
}

// findMatchingRoute returns the first route matching method and path
func (s *Server) findMatchingRoute(method, path string) *Route {
	for i := range s.config.Routes {
		route := &s.config.Routes[i]
		if route.Method != "*" && !strings.EqualFold(route.Method, method) {
			continue
		}

		matched := false
		switch route.PathType {
		case "", PathExact:
			matched = route.Path == path
		case PathPrefix:
			matched = strings.HasPrefix(path, route.Path)
		case PathRegex:
			matched = route.pattern != nil && route.pattern.MatchString(path)
		}

		if matched {
			return route
		}
	}

	return nil
}

func (s *Server) logRequest(entry RequestLog) {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = append(s.logs, entry)
	if len(s.logs) > MaxLogEntries {
		s.logs = s.logs[len(s.logs)-MaxLogEntries:]
	}

	select {
	case s.notifyCh <- struct{}{}:
	default:
	}

	s.log.V(1).Info("mock request", "method", entry.Method, "path", entry.Path, "status", entry.Status, "rule", entry.MatchedRule)
}

// NotifyChannel signals (best effort) each logged request
func (s *Server) NotifyChannel() <-chan struct{} {
	return s.notifyCh
}

// GetLogs returns a copy of the request log
func (s *Server) GetLogs() []RequestLog {
	s.logsMutex.RLock()
	defer s.logsMutex.RUnlock()

	logs := make([]RequestLog, len(s.logs))
	copy(logs, s.logs)
	return logs
}

// ClearLogs empties the request log
func (s *Server) ClearLogs() {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = make([]RequestLog, 0)
}

// flattenHeaders keeps the first value of each header
func flattenHeaders(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) > 0 {
			result[key] = values[0]
		}
	}
	return result
}
