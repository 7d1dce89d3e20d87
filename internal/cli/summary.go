package cli

import (
	"fmt"
	"strings"

	"github.com/studiowebux/apiprobe/internal/executor"
	"github.com/studiowebux/apiprobe/internal/session"
	"github.com/studiowebux/apiprobe/internal/types"
)

// RenderRun formats the results of a collection run, one line per request,
// followed by totals and timing percentiles.
func RenderRun(results []session.RunResult, color bool) string {
	var sb strings.Builder

	for _, r := range results {
		var status string
		switch {
		case r.Skipped:
			status = "SKIP"
			if color {
				status = styleSubtle.Render(status)
			}
		default:
			status = StatusLine(r.Response)
			if color {
				status = statusStyle(r.Response.Status).Render(status)
			}
		}

		method := r.Request.Method
		if method == "" {
			method = types.MethodGet
		}
		line := fmt.Sprintf("%-7s %-40s %s", method, r.Request.Name, status)
		if !r.Skipped {
			line += fmt.Sprintf(" (%s)", executor.FormatDuration(r.Response.Duration))
		}
		sb.WriteString(strings.TrimRight(line, " "))
		sb.WriteString("\n")
	}

	stats := session.Summarize(results)
	sb.WriteString(fmt.Sprintf("\n%d passed, %d failed, %d skipped\n", stats.Passed, stats.Failed, stats.Skipped))
	if stats.Sent > 0 {
		timing := fmt.Sprintf("min %s | avg %s | p50 %s | p95 %s | max %s",
			executor.FormatDuration(stats.Min()),
			executor.FormatDuration(int64(stats.Avg())),
			executor.FormatDuration(stats.P50()),
			executor.FormatDuration(stats.P95()),
			executor.FormatDuration(stats.Max()))
		if color {
			timing = styleSubtle.Render(timing)
		}
		sb.WriteString(timing)
		sb.WriteString("\n")
	}
	return sb.String()
}
