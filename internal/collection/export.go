package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/studiowebux/apiprobe/internal/types"
)

// Export renders col as an indented Postman v2.1 document with a flat item
// list. It reads nothing but col.
func Export(col types.Collection) ([]byte, error) {
	pc := postmanCollection{
		Info: postmanInfo{
			PostmanID:   col.ID,
			Name:        col.Name,
			Description: description(col.Description),
			Schema:      SchemaURL,
		},
		Item: make([]postmanItem, 0, len(col.Requests)),
		Auth: exportAuth(col.Auth),
	}

	for _, req := range col.Requests {
		pc.Item = append(pc.Item, exportItem(req))
	}

	if len(col.Variables) > 0 {
		keys := make([]string, 0, len(col.Variables))
		for k := range col.Variables {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pc.Variable = append(pc.Variable, postmanVariable{Key: k, Value: looseValue(col.Variables[k])})
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pc); err != nil {
		return nil, fmt.Errorf("failed to marshal collection: %w", err)
	}
	return buf.Bytes(), nil
}

func exportItem(req types.Request) postmanItem {
	method := req.Method
	if method == "" {
		method = types.MethodGet
	}

	pr := &postmanRequest{
		Method: string(method),
		Header: make([]postmanHeader, 0, len(req.Headers)),
		Body:   exportBody(req.Body),
		URL:    exportURL(req.URL),
	}
	for _, h := range req.Headers {
		pr.Header = append(pr.Header, postmanHeader{Key: h.Key, Value: h.Value, Disabled: !h.Enabled})
	}

	return postmanItem{ID: req.ID, Name: req.Name, Request: pr}
}

// exportURL splits raw on "/" into host and path segments. The query string
// is split off first so it doesn't end up inside the last path segment.
func exportURL(raw string) *postmanURL {
	u := &postmanURL{Raw: raw}
	if raw == "" {
		return u
	}

	rest := raw
	if i := strings.Index(rest, "://"); i >= 0 {
		u.Protocol = rest[:i]
		rest = rest[i+3:]
	}

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		for _, pair := range strings.Split(rest[i+1:], "&") {
			if pair == "" {
				continue
			}
			key, value, _ := strings.Cut(pair, "=")
			u.Query = append(u.Query, postmanQuery{Key: key, Value: value})
		}
		rest = rest[:i]
	}

	segments := strings.Split(rest, "/")
	host := segments[0]
	if strings.Contains(host, ":") && !strings.Contains(host, "{{") {
		if h, port, err := net.SplitHostPort(host); err == nil {
			host, u.Port = h, port
			if strings.Contains(h, ":") {
				host = "[" + h + "]"
			}
		}
	}
	switch {
	case host == "":
	case strings.HasPrefix(host, "["):
		// IPv6 literals stay whole
		u.Host = []string{host}
	default:
		u.Host = strings.Split(host, ".")
	}
	for _, seg := range segments[1:] {
		if seg != "" {
			u.Path = append(u.Path, seg)
		}
	}
	return u
}

func exportBody(b *types.Body) *postmanBody {
	if b == nil {
		return nil
	}

	switch b.Mode {
	case types.BodyNone:
		if b.Raw == "" {
			return nil
		}
		return &postmanBody{Mode: string(types.BodyRaw), Raw: b.Raw}
	case types.BodyRaw:
		return &postmanBody{Mode: string(types.BodyRaw), Raw: b.Raw}
	case types.BodyFormData:
		return &postmanBody{Mode: string(b.Mode), FormData: exportFields(b.Fields, "text")}
	case types.BodyURLEncoded:
		return &postmanBody{Mode: string(b.Mode), URLEncoded: exportFields(b.Fields, "")}
	default:
		return &postmanBody{Mode: string(b.Mode)}
	}
}

func exportFields(fields []types.FormField, fieldType string) []postmanKeyPair {
	pairs := make([]postmanKeyPair, 0, len(fields))
	for _, f := range fields {
		pairs = append(pairs, postmanKeyPair{Key: f.Key, Value: f.Value, Type: fieldType, Disabled: !f.Enabled})
	}
	return pairs
}

func exportAuth(a *types.Auth) *postmanAuth {
	if a == nil {
		return nil
	}

	param := func(key, value string) postmanAuthParam {
		return postmanAuthParam{Key: key, Value: looseValue(value), Type: "string"}
	}

	switch a.Type {
	case types.AuthBearer:
		return &postmanAuth{Type: "bearer", Bearer: []postmanAuthParam{param("token", a.Token)}}
	case types.AuthBasic:
		return &postmanAuth{Type: "basic", Basic: []postmanAuthParam{
			param("username", a.Username),
			param("password", a.Password),
		}}
	case types.AuthAPIKey:
		in := a.In
		if in == "" {
			in = "header"
		}
		return &postmanAuth{Type: "apikey", APIKey: []postmanAuthParam{
			param("key", a.Key),
			param("value", a.Value),
			param("in", in),
		}}
	case types.AuthOAuth2:
		return &postmanAuth{Type: "oauth2", OAuth2: []postmanAuthParam{
			param("grant_type", "client_credentials"),
			param("accessTokenUrl", a.TokenURL),
			param("clientId", a.ClientID),
			param("clientSecret", a.ClientSecret),
			param("scope", strings.Join(a.Scopes, " ")),
		}}
	}
	return nil
}
