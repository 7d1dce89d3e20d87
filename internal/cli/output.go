// Package cli renders responses and run summaries for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/studiowebux/apiprobe/internal/executor"
	"github.com/studiowebux/apiprobe/internal/filter"
	"github.com/studiowebux/apiprobe/internal/types"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatBody = "body"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
)

var (
	styleSuccess = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	styleWarning = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	styleSubtle  = lipgloss.NewStyle().Foreground(colorGray)
)

// OutputOptions controls how a response is rendered
type OutputOptions struct {
	Format string // text (default), json, yaml or body
	Full   bool   // include response headers in text output
	Query  string // JMESPath expression applied to the body first
	Color  bool   // style the status line and highlight JSON bodies
}

// Render formats a response for the terminal
func Render(resp types.Response, opts OutputOptions) (string, error) {
	if opts.Query != "" && !resp.IsNetworkError() {
		body, err := filter.Apply(resp.Body, opts.Query)
		if err != nil {
			return "", fmt.Errorf("failed to apply query: %w", err)
		}
		resp.Body = body
	}

	switch opts.Format {
	case FormatJSON:
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal response: %w", err)
		}
		return string(data) + "\n", nil

	case FormatYAML:
		data, err := yaml.Marshal(resp)
		if err != nil {
			return "", fmt.Errorf("failed to marshal response: %w", err)
		}
		return string(data), nil

	case FormatBody:
		return resp.Body, nil

	case FormatText, "":
		return renderText(resp, opts), nil

	default:
		return "", fmt.Errorf("unknown output format: %s (use text, json, yaml or body)", opts.Format)
	}
}

func renderText(resp types.Response, opts OutputOptions) string {
	var sb strings.Builder

	status := StatusLine(resp)
	if opts.Color {
		status = statusStyle(resp.Status).Render(status)
	}
	sb.WriteString(status)
	sb.WriteString("\n")

	meta := fmt.Sprintf("Duration: %s | Size: %s",
		executor.FormatDuration(resp.Duration),
		executor.FormatSize(resp.Size))
	if opts.Color {
		meta = styleSubtle.Render(meta)
	}
	sb.WriteString(meta)
	sb.WriteString("\n")

	if opts.Full && len(resp.Headers) > 0 {
		sb.WriteString("\nHeaders:\n")
		keys := make([]string, 0, len(resp.Headers))
		for k := range resp.Headers {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, resp.Headers[k]))
		}
	}

	if resp.IsNetworkError() {
		hint := Hint(resp.Error)
		if opts.Color {
			hint = styleError.Render(hint)
		}
		sb.WriteString("\n")
		sb.WriteString(hint)
		sb.WriteString("\n")
		return sb.String()
	}

	if resp.Body != "" {
		if opts.Full {
			sb.WriteString("\nBody:\n")
		} else {
			sb.WriteString("\n")
		}
		body := resp.Body
		if opts.Color && json.Valid([]byte(body)) {
			body = highlightJSON(body)
		}
		sb.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// StatusLine renders "200 OK", or "Network Error" for status 0
func StatusLine(resp types.Response) string {
	if resp.IsNetworkError() {
		return types.NetworkErrorText
	}
	if resp.StatusText == "" {
		return fmt.Sprintf("%d", resp.Status)
	}
	return fmt.Sprintf("%d %s", resp.Status, resp.StatusText)
}

func statusStyle(status int) lipgloss.Style {
	switch {
	case executor.IsSuccessStatus(status):
		return styleSuccess
	case status == types.StatusNetworkError || status >= 400:
		return styleError
	default:
		return styleWarning
	}
}

// highlightJSON returns body with terminal color codes, or body unchanged
// when highlighting fails
func highlightJSON(body string) string {
	var sb strings.Builder
	if err := quick.Highlight(&sb, body, "json", "terminal256", "monokai"); err != nil {
		return body
	}
	return sb.String()
}

// ExitCode is 1 for network errors and 4xx/5xx responses
func ExitCode(resp types.Response) int {
	if resp.IsNetworkError() || resp.Status >= 400 {
		return 1
	}
	return 0
}
