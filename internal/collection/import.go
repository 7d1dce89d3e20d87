package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/studiowebux/apiprobe/internal/types"
)

var (
	// ErrInvalidCollection wraps every import failure
	ErrInvalidCollection = errors.New("invalid collection")
	// ErrNotFound is returned for unknown collection or request IDs
	ErrNotFound = errors.New("not found")
)

// Import parses a Postman v2.1 document into a new Collection with fresh IDs.
// Folders are flattened in document order. It either returns a complete
// Collection or an error wrapping ErrInvalidCollection.
func Import(data []byte) (types.Collection, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return types.Collection{}, fmt.Errorf("%w: not valid JSON: %v", ErrInvalidCollection, err)
	}

	problems, err := validate(data)
	if err != nil {
		return types.Collection{}, fmt.Errorf("%w: %v", ErrInvalidCollection, err)
	}
	if len(problems) > 0 {
		return types.Collection{}, fmt.Errorf("%w: %s", ErrInvalidCollection, strings.Join(problems, "; "))
	}

	var pc postmanCollection
	if err := json.Unmarshal(data, &pc); err != nil {
		return types.Collection{}, fmt.Errorf("%w: %v", ErrInvalidCollection, err)
	}

	col := types.Collection{
		ID:          uuid.NewString(),
		Name:        pc.Info.Name,
		Description: string(pc.Info.Description),
		Requests:    []types.Request{},
		Auth:        importAuth(pc.Auth),
	}

	if len(pc.Variable) > 0 {
		col.Variables = make(map[string]string, len(pc.Variable))
		for _, v := range pc.Variable {
			if v.Key != "" {
				col.Variables[v.Key] = string(v.Value)
			}
		}
	}

	if err := flattenItems(pc.Item, "", &col.Requests); err != nil {
		return types.Collection{}, fmt.Errorf("%w: %v", ErrInvalidCollection, err)
	}

	return col, nil
}

// flattenItems appends every leaf request under items to out, depth first
func flattenItems(items []postmanItem, folder string, out *[]types.Request) error {
	for i, item := range items {
		path := item.Name
		if folder != "" {
			path = folder + "/" + item.Name
		}

		if item.Request != nil {
			req, err := importRequest(item)
			if err != nil {
				return fmt.Errorf("item %q (#%d): %w", path, i, err)
			}
			*out = append(*out, req)
		}

		if len(item.Item) > 0 {
			if err := flattenItems(item.Item, path, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func importRequest(item postmanItem) (types.Request, error) {
	pr := item.Request

	method, err := types.ParseMethod(pr.Method)
	if err != nil {
		return types.Request{}, err
	}

	req := types.Request{
		ID:     uuid.NewString(),
		Name:   item.Name,
		Method: method,
		URL:    pr.URL.String(),
	}
	if req.Name == "" {
		req.Name = fmt.Sprintf("%s %s", req.Method, req.URL)
	}

	for _, h := range pr.Header {
		req.Headers = append(req.Headers, types.Header{
			Key:     h.Key,
			Value:   h.Value,
			Enabled: !h.Disabled,
		})
	}

	req.Body = importBody(pr.Body)
	return req, nil
}

func importBody(pb *postmanBody) *types.Body {
	if pb == nil {
		return nil
	}

	switch pb.Mode {
	case "", string(types.BodyRaw):
		if pb.Mode == "" && pb.Raw == "" {
			return nil
		}
		return &types.Body{Mode: types.BodyRaw, Raw: pb.Raw}
	case string(types.BodyFormData):
		return &types.Body{Mode: types.BodyFormData, Fields: importFields(pb.FormData)}
	case string(types.BodyURLEncoded):
		return &types.Body{Mode: types.BodyURLEncoded, Fields: importFields(pb.URLEncoded)}
	default:
		// file, graphql, ...: kept so the mode survives a round trip, never sent
		return &types.Body{Mode: types.BodyMode(pb.Mode)}
	}
}

func importFields(pairs []postmanKeyPair) []types.FormField {
	fields := make([]types.FormField, 0, len(pairs))
	for _, p := range pairs {
		if p.Type == "file" {
			continue
		}
		fields = append(fields, types.FormField{Key: p.Key, Value: p.Value, Enabled: !p.Disabled})
	}
	return fields
}

func importAuth(pa *postmanAuth) *types.Auth {
	if pa == nil {
		return nil
	}

	switch pa.Type {
	case "bearer":
		params := authParams(pa.Bearer)
		return &types.Auth{Type: types.AuthBearer, Token: params["token"]}
	case "basic":
		params := authParams(pa.Basic)
		return &types.Auth{Type: types.AuthBasic, Username: params["username"], Password: params["password"]}
	case "apikey":
		params := authParams(pa.APIKey)
		in := params["in"]
		if in == "" {
			in = "header"
		}
		return &types.Auth{Type: types.AuthAPIKey, Key: params["key"], Value: params["value"], In: in}
	case "oauth2":
		params := authParams(pa.OAuth2)
		auth := &types.Auth{
			Type:         types.AuthOAuth2,
			TokenURL:     params["accessTokenUrl"],
			ClientID:     params["clientId"],
			ClientSecret: params["clientSecret"],
		}
		if scope := strings.TrimSpace(params["scope"]); scope != "" {
			auth.Scopes = strings.Fields(scope)
		}
		return auth
	}

	// noauth and schemes the executor can't apply
	return nil
}

func authParams(params []postmanAuthParam) map[string]string {
	out := make(map[string]string, len(params))
	for _, p := range params {
		out[p.Key] = string(p.Value)
	}
	return out
}
