package collection

import "github.com/studiowebux/apiprobe/internal/types"

// DefaultCollections builds the demo collections a fresh store starts with.
// Every call returns new values.
func DefaultCollections() []types.Collection {
	jsonHeader := func() []types.Header {
		return []types.Header{{Key: "Content-Type", Value: "application/json", Enabled: true}}
	}

	return []types.Collection{
		{
			ID:          "demo-jsonplaceholder",
			Name:        "JSONPlaceholder",
			Description: "CRUD calls against a public fake REST API",
			Variables:   map[string]string{"base": "https://jsonplaceholder.typicode.com"},
			Requests: []types.Request{
				{
					ID:     "demo-list-posts",
					Name:   "List posts",
					Method: types.MethodGet,
					URL:    "{{base}}/posts",
				},
				{
					ID:     "demo-get-post",
					Name:   "Get post",
					Method: types.MethodGet,
					URL:    "{{base}}/posts/{{postId}}",
				},
				{
					ID:      "demo-create-post",
					Name:    "Create post",
					Method:  types.MethodPost,
					URL:     "{{base}}/posts",
					Headers: jsonHeader(),
					Body: &types.Body{
						Mode: types.BodyRaw,
						Raw:  "{\n  \"title\": \"Hello\",\n  \"body\": \"From apiprobe\",\n  \"userId\": 1\n}",
					},
				},
				{
					ID:      "demo-update-post",
					Name:    "Update post",
					Method:  types.MethodPut,
					URL:     "{{base}}/posts/{{postId}}",
					Headers: jsonHeader(),
					Body: &types.Body{
						Mode: types.BodyRaw,
						Raw:  "{\n  \"id\": {{postId}},\n  \"title\": \"Updated\"\n}",
					},
				},
				{
					ID:     "demo-delete-post",
					Name:   "Delete post",
					Method: types.MethodDelete,
					URL:    "{{base}}/posts/{{postId}}",
				},
			},
		},
		{
			ID:          "demo-httpbin",
			Name:        "HTTPBin",
			Description: "Request inspection endpoints",
			Variables:   map[string]string{"base": "https://httpbin.org"},
			Auth:        &types.Auth{Type: types.AuthBearer, Token: "{{token}}"},
			Requests: []types.Request{
				{
					ID:     "demo-headers",
					Name:   "Echo headers",
					Method: types.MethodGet,
					URL:    "{{base}}/headers",
					Headers: []types.Header{
						{Key: "Accept", Value: "application/json", Enabled: true},
						{Key: "X-Debug", Value: "1", Enabled: false},
					},
				},
				{
					ID:     "demo-form",
					Name:   "Submit form",
					Method: types.MethodPost,
					URL:    "{{base}}/post",
					Body: &types.Body{
						Mode: types.BodyURLEncoded,
						Fields: []types.FormField{
							{Key: "name", Value: "apiprobe", Enabled: true},
							{Key: "debug", Value: "true", Enabled: false},
						},
					},
				},
				{
					ID:     "demo-status",
					Name:   "Status code",
					Method: types.MethodGet,
					URL:    "{{base}}/status/{{status}}",
				},
			},
		},
	}
}
