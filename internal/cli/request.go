package cli

import (
	"fmt"
	"strings"

	"github.com/studiowebux/apiprobe/internal/types"
)

// BuildRequest assembles an ad-hoc request from command-line parts.
// Headers use the curl form "Key: Value".
func BuildRequest(method, url string, headers []string, body string) (types.Request, error) {
	m, err := types.ParseMethod(method)
	if err != nil {
		return types.Request{}, err
	}

	req := types.Request{
		Name:   fmt.Sprintf("%s %s", m, url),
		Method: m,
		URL:    url,
	}

	for _, h := range headers {
		key, value, ok := strings.Cut(h, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return types.Request{}, fmt.Errorf("invalid header %q (expected 'Key: Value')", h)
		}
		req.Headers = append(req.Headers, types.Header{
			Key:     key,
			Value:   strings.TrimSpace(value),
			Enabled: true,
		})
	}

	if body != "" {
		req.Body = &types.Body{Mode: types.BodyRaw, Raw: body}
	}

	return req, nil
}
