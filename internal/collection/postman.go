package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaURL identifies the interchange format written by Export
const SchemaURL = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

// Postman v2.1 wire types. Only the fields this tool understands are mapped;
// everything else is ignored on import.

type postmanCollection struct {
	Info     postmanInfo       `json:"info"`
	Item     []postmanItem     `json:"item"`
	Variable []postmanVariable `json:"variable,omitempty"`
	Auth     *postmanAuth      `json:"auth,omitempty"`
}

type postmanInfo struct {
	PostmanID   string      `json:"_postman_id,omitempty"`
	Name        string      `json:"name"`
	Description description `json:"description,omitempty"`
	Schema      string      `json:"schema,omitempty"`
}

type postmanItem struct {
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name"`
	Item    []postmanItem   `json:"item,omitempty"`
	Request *postmanRequest `json:"request,omitempty"`
}

type postmanRequest struct {
	Method string          `json:"method"`
	Header []postmanHeader `json:"header"`
	Body   *postmanBody    `json:"body,omitempty"`
	URL    *postmanURL     `json:"url,omitempty"`
}

// UnmarshalJSON accepts the short form where request is just a URL string
func (r *postmanRequest) UnmarshalJSON(data []byte) error {
	if s, ok := asString(data); ok {
		*r = postmanRequest{URL: &postmanURL{Raw: s}}
		return nil
	}
	type plain postmanRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = postmanRequest(p)
	return nil
}

type postmanHeader struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}

type postmanBody struct {
	Mode       string           `json:"mode"`
	Raw        string           `json:"raw,omitempty"`
	FormData   []postmanKeyPair `json:"formdata,omitempty"`
	URLEncoded []postmanKeyPair `json:"urlencoded,omitempty"`
}

type postmanKeyPair struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Type     string `json:"type,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

type postmanQuery struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

type postmanURL struct {
	Raw      string         `json:"raw"`
	Protocol string         `json:"protocol,omitempty"`
	Host     stringList     `json:"host,omitempty"`
	Port     string         `json:"port,omitempty"`
	Path     stringList     `json:"path,omitempty"`
	Query    []postmanQuery `json:"query,omitempty"`
}

// UnmarshalJSON accepts either a plain string or the structured object
func (u *postmanURL) UnmarshalJSON(data []byte) error {
	if s, ok := asString(data); ok {
		*u = postmanURL{Raw: s}
		return nil
	}
	type plain postmanURL
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = postmanURL(p)
	return nil
}

// String returns raw when present, otherwise rebuilds the URL from its parts
func (u *postmanURL) String() string {
	if u == nil {
		return ""
	}
	if u.Raw != "" {
		return u.Raw
	}

	var sb strings.Builder
	if u.Protocol != "" {
		sb.WriteString(u.Protocol)
		sb.WriteString("://")
	}
	sb.WriteString(strings.Join(u.Host, "."))
	if u.Port != "" {
		sb.WriteString(":")
		sb.WriteString(u.Port)
	}
	if len(u.Path) > 0 {
		sb.WriteString("/")
		sb.WriteString(strings.Join(u.Path, "/"))
	}

	var query []string
	for _, q := range u.Query {
		if q.Disabled {
			continue
		}
		query = append(query, q.Key+"="+q.Value)
	}
	if len(query) > 0 {
		sb.WriteString("?")
		sb.WriteString(strings.Join(query, "&"))
	}
	return sb.String()
}

type postmanVariable struct {
	Key   string     `json:"key"`
	Value looseValue `json:"value"`
}

type postmanAuth struct {
	Type   string             `json:"type"`
	Bearer []postmanAuthParam `json:"bearer,omitempty"`
	Basic  []postmanAuthParam `json:"basic,omitempty"`
	APIKey []postmanAuthParam `json:"apikey,omitempty"`
	OAuth2 []postmanAuthParam `json:"oauth2,omitempty"`
}

type postmanAuthParam struct {
	Key   string     `json:"key"`
	Value looseValue `json:"value"`
	Type  string     `json:"type,omitempty"`
}

// description is a string that may also arrive as {"content": "..."}
type description string

func (d *description) UnmarshalJSON(data []byte) error {
	if s, ok := asString(data); ok {
		*d = description(s)
		return nil
	}
	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("description must be a string or an object with content: %w", err)
	}
	*d = description(obj.Content)
	return nil
}

// stringList is an array of strings that may also arrive as a single string
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	if s, ok := asString(data); ok {
		*l = stringList{s}
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// looseValue decodes any JSON scalar into its string form
type looseValue string

func (v *looseValue) UnmarshalJSON(data []byte) error {
	if s, ok := asString(data); ok {
		*v = looseValue(s)
		return nil
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*v = ""
		return nil
	}
	*v = looseValue(trimmed)
	return nil
}

func asString(data []byte) (string, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}
