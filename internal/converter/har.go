// Package converter turns captured traffic into collections.
package converter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/studiowebux/apiprobe/internal/types"
)

// HAROptions controls FromHAR
type HAROptions struct {
	Name          string // collection name, default "HAR import"
	Filter        string // keep only entries whose URL contains Filter
	ImportHeaders bool   // keep cookies and credentials
	Log           logr.Logger
}

// HARFile represents the HAR file structure
type HARFile struct {
	Log HARLog `json:"log"`
}

// HARLog represents the log section of HAR
type HARLog struct {
	Version string     `json:"version"`
	Creator HARCreator `json:"creator"`
	Entries []HAREntry `json:"entries"`
}

// HARCreator represents the tool that created the HAR
type HARCreator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HAREntry represents a single HTTP request/response
type HAREntry struct {
	Request HARRequest `json:"request"`
}

// HARRequest represents the request part of an entry
type HARRequest struct {
	Method   string       `json:"method"`
	URL      string       `json:"url"`
	Headers  []HARHeader  `json:"headers"`
	PostData *HARPostData `json:"postData,omitempty"`
}

// HARHeader represents a single header
type HARHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HARPostData represents POST data
type HARPostData struct {
	MimeType string     `json:"mimeType"`
	Text     string     `json:"text"`
	Params   []HARParam `json:"params,omitempty"`
}

// HARParam represents a form parameter
type HARParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// sensitiveHeaders are dropped unless HAROptions.ImportHeaders is set
var sensitiveHeaders = map[string]bool{
	"cookie":        true,
	"authorization": true,
	"x-auth-token":  true,
	"x-api-key":     true,
}

// transportHeaders are recomputed by the client on send
var transportHeaders = map[string]bool{
	"host":              true,
	"content-length":    true,
	"connection":        true,
	"accept-encoding":   true,
	"transfer-encoding": true,
}

// FromHAR converts the entries of a HAR document into a Collection.
// Non-HTTP entries and unsupported methods are skipped.
func FromHAR(data []byte, opts HAROptions) (types.Collection, error) {
	log := opts.Log

	var har HARFile
	if err := json.Unmarshal(data, &har); err != nil {
		return types.Collection{}, fmt.Errorf("failed to parse HAR file: %w", err)
	}
	if len(har.Log.Entries) == 0 {
		return types.Collection{}, fmt.Errorf("no entries found in HAR file")
	}

	name := opts.Name
	if name == "" {
		name = "HAR import"
	}

	col := types.Collection{
		ID:       uuid.NewString(),
		Name:     name,
		Requests: []types.Request{},
	}
	if har.Log.Creator.Name != "" {
		col.Description = fmt.Sprintf("Captured with %s %s", har.Log.Creator.Name, har.Log.Creator.Version)
	}

	for i, entry := range har.Log.Entries {
		rawURL := entry.Request.URL
		if opts.Filter != "" && !strings.Contains(rawURL, opts.Filter) {
			continue
		}
		if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
			continue
		}

		req, token, err := convertEntry(entry.Request, opts.ImportHeaders)
		if err != nil {
			log.Info("skipping HAR entry", "index", i, "error", err.Error())
			continue
		}
		if token != "" {
			if col.Variables == nil {
				col.Variables = make(map[string]string)
			}
			col.Variables["token"] = token
		}
		col.Requests = append(col.Requests, req)
	}

	log.V(1).Info("converted HAR", "requests", len(col.Requests), "entries", len(har.Log.Entries))
	return col, nil
}

// convertEntry builds a Request. A bearer token found in Authorization is
// replaced by {{token}} and returned separately.
func convertEntry(hr HARRequest, importHeaders bool) (types.Request, string, error) {
	method, err := types.ParseMethod(hr.Method)
	if err != nil {
		return types.Request{}, "", err
	}

	req := types.Request{
		ID:     uuid.NewString(),
		Name:   fmt.Sprintf("%s %s", method, extractPath(hr.URL)),
		Method: method,
		URL:    hr.URL,
	}

	var token string
	for _, h := range hr.Headers {
		lower := strings.ToLower(h.Name)
		// HTTP/2 pseudo-headers
		if strings.HasPrefix(h.Name, ":") || transportHeaders[lower] {
			continue
		}
		if sensitiveHeaders[lower] && !importHeaders {
			continue
		}

		value := h.Value
		if lower == "authorization" && strings.HasPrefix(value, "Bearer ") {
			token = strings.TrimPrefix(value, "Bearer ")
			value = "Bearer {{token}}"
		}
		req.Headers = append(req.Headers, types.Header{Key: h.Name, Value: value, Enabled: true})
	}

	if pd := hr.PostData; pd != nil {
		req.Body = convertPostData(pd)
	}

	return req, token, nil
}

func convertPostData(pd *HARPostData) *types.Body {
	mimeType := strings.ToLower(pd.MimeType)

	if len(pd.Params) > 0 {
		mode := types.BodyURLEncoded
		if strings.HasPrefix(mimeType, "multipart/form-data") {
			mode = types.BodyFormData
		}
		fields := make([]types.FormField, 0, len(pd.Params))
		for _, p := range pd.Params {
			fields = append(fields, types.FormField{Key: p.Name, Value: p.Value, Enabled: true})
		}
		return &types.Body{Mode: mode, Fields: fields}
	}

	if strings.HasPrefix(mimeType, "application/x-www-form-urlencoded") && pd.Text != "" {
		if values, err := url.ParseQuery(pd.Text); err == nil {
			var fields []types.FormField
			for _, pair := range strings.Split(pd.Text, "&") {
				key, _, _ := strings.Cut(pair, "=")
				if k, err := url.QueryUnescape(key); err == nil && values.Has(k) {
					fields = append(fields, types.FormField{Key: k, Value: values.Get(k), Enabled: true})
					values.Del(k)
				}
			}
			return &types.Body{Mode: types.BodyURLEncoded, Fields: fields}
		}
	}

	if pd.Text == "" {
		return nil
	}
	return &types.Body{Mode: types.BodyRaw, Raw: pd.Text}
}

// extractPath extracts the path from a URL
func extractPath(urlStr string) string {
	parts := strings.SplitN(urlStr, "://", 2)
	if len(parts) != 2 {
		return "/"
	}

	pathStart := strings.Index(parts[1], "/")
	if pathStart == -1 {
		return "/"
	}

	path := parts[1][pathStart:]
	if idx := strings.IndexAny(path, "?#"); idx != -1 {
		path = path[:idx]
	}
	return path
}
