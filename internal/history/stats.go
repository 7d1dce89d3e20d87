package history

import (
	"database/sql"
	"fmt"
	"time"
)

// Stats aggregates archived calls of one method and URL
type Stats struct {
	Method        string
	URL           string
	TotalCalls    int
	SuccessCount  int
	ErrorCount    int // 4xx and 5xx
	NetworkErrors int // status 0
	AvgDurationMs float64
	MinDurationMs int64
	MaxDurationMs int64
	TotalRespSize int64
	StatusCodes   map[int]int
	LastCalled    time.Time
}

// Stats returns per-endpoint statistics, most recently called first
func (a *Archive) Stats() ([]Stats, error) {
	rows, err := a.db.Query(`
		SELECT
			method,
			url,
			COUNT(*) AS total_calls,
			SUM(CASE WHEN response_status >= 200 AND response_status < 300 THEN 1 ELSE 0 END),
			SUM(CASE WHEN response_status >= 400 THEN 1 ELSE 0 END),
			SUM(CASE WHEN response_status = 0 THEN 1 ELSE 0 END),
			AVG(duration_ms),
			MIN(duration_ms),
			MAX(duration_ms),
			SUM(response_size),
			MAX(timestamp) AS last_called
		FROM history
		GROUP BY method, url
		ORDER BY last_called DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get history stats: %w", err)
	}
	defer rows.Close()

	var statsList []Stats
	index := map[string]int{}
	for rows.Next() {
		var s Stats
		var lastCalled sql.NullString
		if err := rows.Scan(
			&s.Method,
			&s.URL,
			&s.TotalCalls,
			&s.SuccessCount,
			&s.ErrorCount,
			&s.NetworkErrors,
			&s.AvgDurationMs,
			&s.MinDurationMs,
			&s.MaxDurationMs,
			&s.TotalRespSize,
			&lastCalled,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}

		if lastCalled.Valid {
			if ts, err := time.ParseInLocation(timestampLayout, lastCalled.String, time.UTC); err == nil {
				s.LastCalled = ts
			} else if ts, err := time.Parse(time.RFC3339Nano, lastCalled.String); err == nil {
				s.LastCalled = ts.UTC()
			}
		}
		s.StatusCodes = map[int]int{}

		index[s.Method+" "+s.URL] = len(statsList)
		statsList = append(statsList, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := a.fillStatusCodes(statsList, index); err != nil {
		return nil, err
	}
	return statsList, nil
}

func (a *Archive) fillStatusCodes(statsList []Stats, index map[string]int) error {
	rows, err := a.db.Query(`
		SELECT method, url, response_status, COUNT(*)
		FROM history
		GROUP BY method, url, response_status
	`)
	if err != nil {
		return fmt.Errorf("failed to get status codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var method, url string
		var status, count int
		if err := rows.Scan(&method, &url, &status, &count); err != nil {
			return fmt.Errorf("failed to scan status code: %w", err)
		}
		if i, ok := index[method+" "+url]; ok {
			statsList[i].StatusCodes[status] = count
		}
	}
	return rows.Err()
}
