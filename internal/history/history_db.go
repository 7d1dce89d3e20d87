package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/studiowebux/apiprobe/internal/config"
	"github.com/studiowebux/apiprobe/internal/migrations"
	"github.com/studiowebux/apiprobe/internal/types"
)

// timestampLayout is how timestamps are stored in SQLite
const timestampLayout = "2006-01-02 15:04:05.000"

// Archive is an optional durable mirror of the in-memory Log, backed by SQLite.
// It implements Sink.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (or creates) the archive database at dbPath.
// ":memory:" keeps the archive in process memory.
func OpenArchive(dbPath string) (*Archive, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), config.DirPermissions); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// every connection to :memory: would otherwise get its own database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Archive{db: db}, nil
}

// Save stores a history entry
func (a *Archive) Save(entry types.HistoryEntry) error {
	headersJSON, err := json.Marshal(entry.Request.Headers)
	if err != nil {
		return fmt.Errorf("failed to marshal headers: %w", err)
	}

	responseHeadersJSON, err := json.Marshal(entry.Response.Headers)
	if err != nil {
		return fmt.Errorf("failed to marshal response headers: %w", err)
	}

	var bodyJSON []byte
	if entry.Request.Body != nil {
		bodyJSON, err = json.Marshal(entry.Request.Body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
	}

	query := `
		INSERT INTO history (
			entry_id, timestamp, request_id, request_name, method, url, headers, body,
			response_status, response_status_text, response_headers, response_body,
			duration_ms, response_size, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = a.db.Exec(query,
		entry.ID,
		entry.Timestamp.UTC().Format(timestampLayout),
		entry.Request.ID,
		entry.Request.Name,
		string(entry.Request.Method),
		entry.Request.URL,
		string(headersJSON),
		string(bodyJSON),
		entry.Response.Status,
		entry.Response.StatusText,
		string(responseHeadersJSON),
		entry.Response.Body,
		entry.Response.Duration,
		entry.Response.Size,
		entry.Response.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save history entry: %w", err)
	}

	return nil
}

// Load returns up to limit entries, newest first. limit <= 0 returns all.
func (a *Archive) Load(limit int) ([]types.HistoryEntry, error) {
	query := `
		SELECT entry_id, timestamp, request_id, request_name, method, url, headers, body,
		       response_status, response_status_text, response_headers, response_body,
		       duration_ms, response_size, error
		FROM history
		ORDER BY timestamp DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]types.HistoryEntry, error) {
	var entries []types.HistoryEntry

	for rows.Next() {
		var (
			entry               types.HistoryEntry
			timestamp           string
			requestID           sql.NullString
			requestName         sql.NullString
			method              string
			headersJSON         string
			bodyJSON            sql.NullString
			responseHeadersJSON string
			errorMsg            sql.NullString
		)

		err := rows.Scan(
			&entry.ID,
			&timestamp,
			&requestID,
			&requestName,
			&method,
			&entry.Request.URL,
			&headersJSON,
			&bodyJSON,
			&entry.Response.Status,
			&entry.Response.StatusText,
			&responseHeadersJSON,
			&entry.Response.Body,
			&entry.Response.Duration,
			&entry.Response.Size,
			&errorMsg,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		entry.Request.ID = requestID.String
		entry.Request.Name = requestName.String
		entry.Request.Method = types.Method(method)
		entry.Response.Error = errorMsg.String

		if err := json.Unmarshal([]byte(headersJSON), &entry.Request.Headers); err != nil {
			entry.Request.Headers = nil
		}
		if err := json.Unmarshal([]byte(responseHeadersJSON), &entry.Response.Headers); err != nil {
			entry.Response.Headers = make(map[string]string)
		}
		if bodyJSON.Valid && bodyJSON.String != "" {
			var body types.Body
			if err := json.Unmarshal([]byte(bodyJSON.String), &body); err == nil {
				entry.Request.Body = &body
			}
		}

		parsed, err := time.ParseInLocation(timestampLayout, timestamp, time.UTC)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339, timestamp)
			if err != nil {
				parsed = time.Time{}
			}
		}
		entry.Timestamp = parsed

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Clear deletes every archived entry
func (a *Archive) Clear() error {
	if _, err := a.db.Exec("DELETE FROM history"); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Count returns the number of archived entries
func (a *Archive) Count() (int, error) {
	var count int
	if err := a.db.QueryRow("SELECT COUNT(*) FROM history").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get history count: %w", err)
	}
	return count, nil
}

// Close closes the database
func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
