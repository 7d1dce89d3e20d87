package cli

import (
	"strings"

	"github.com/studiowebux/apiprobe/internal/types"
)

// Hint turns the error text of a network-error response into an actionable
// message. Unknown errors are returned with a generic prefix.
func Hint(errStr string) string {
	if errStr == "" {
		return types.NetworkErrorText
	}

	errLower := strings.ToLower(errStr)

	switch {
	case strings.Contains(errLower, "request url is empty"):
		return "No URL - enter a URL before sending"

	case strings.Contains(errLower, "context canceled"):
		return "Request cancelled"

	case strings.Contains(errLower, "deadline exceeded"),
		strings.Contains(errLower, "timeout"),
		strings.Contains(errLower, "timed out"):
		return "Request timeout - check the URL or raise request.timeout (default: 30s)"

	case strings.Contains(errLower, "proxy"):
		return "Proxy connection failed - verify HTTP_PROXY/HTTPS_PROXY settings"

	case strings.Contains(errLower, "no such host"),
		strings.Contains(errLower, "dial tcp: lookup"):
		return "DNS resolution failed - verify hostname is correct and network is available"

	case strings.Contains(errLower, "connection refused"):
		return "Connection refused - check if server is running and port is correct"

	case strings.Contains(errLower, "connection reset"):
		return "Connection reset by server - server may have crashed or network issue occurred"

	case strings.Contains(errLower, "network is unreachable"),
		strings.Contains(errLower, "no route to host"):
		return "Network unreachable - check network connection and firewall settings"

	case strings.Contains(errLower, "x509"),
		strings.Contains(errLower, "certificate"),
		strings.Contains(errLower, "tls"):
		return tlsHint(errLower, errStr)

	case strings.Contains(errLower, "stopped after") && strings.Contains(errLower, "redirect"):
		return "Too many redirects - check server configuration or URL"

	case strings.Contains(errLower, "unsupported protocol"),
		strings.Contains(errLower, "missing protocol scheme"),
		strings.Contains(errLower, "invalid url"),
		strings.Contains(errLower, "invalid control character"):
		return "Invalid URL - verify the URL format and protocol (http/https)"

	case strings.Contains(errLower, "unsupported http method"):
		return "Unsupported method - use GET, POST, PUT, DELETE, PATCH, HEAD or OPTIONS"

	case strings.Contains(errLower, "eof"):
		return "Connection closed unexpectedly - server may have terminated the connection prematurely"
	}

	return "Request failed: " + errStr
}

func tlsHint(errLower, errStr string) string {
	switch {
	case strings.Contains(errLower, "unknown authority"),
		strings.Contains(errLower, "not trusted"):
		return "TLS certificate verification failed - certificate is not trusted. Add a CA certificate or set request.insecure"
	case strings.Contains(errLower, "expired"):
		return "TLS certificate has expired - contact server administrator or set request.insecure"
	case strings.Contains(errLower, "is valid for"),
		strings.Contains(errLower, "doesn't match"):
		return "TLS hostname mismatch - certificate doesn't match the requested hostname"
	case strings.Contains(errLower, "handshake"):
		return "TLS handshake failed - check TLS version compatibility and cipher suites"
	}
	return "TLS/SSL error - check certificate configuration and TLS settings: " + errStr
}
