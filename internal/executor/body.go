package executor

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/url"

	"github.com/studiowebux/apiprobe/internal/types"
)

// Content types set when the request doesn't carry its own
const (
	ContentTypeURLEncoded = "application/x-www-form-urlencoded"
)

// encodeBody serializes body for transmission. It returns a nil payload for
// an absent body or an unknown mode, and the Content-Type the mode implies.
func encodeBody(body *types.Body) ([]byte, string, error) {
	if body == nil {
		return nil, "", nil
	}

	switch body.Mode {
	case types.BodyRaw:
		if body.Raw == "" {
			return nil, "", nil
		}
		return []byte(body.Raw), "", nil

	case types.BodyURLEncoded:
		values := url.Values{}
		for _, f := range body.Fields {
			if f.Enabled && f.Key != "" {
				values.Add(f.Key, f.Value)
			}
		}
		return []byte(values.Encode()), ContentTypeURLEncoded, nil

	case types.BodyFormData:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, f := range body.Fields {
			if !f.Enabled || f.Key == "" {
				continue
			}
			if err := w.WriteField(f.Key, f.Value); err != nil {
				return nil, "", fmt.Errorf("failed to write form field %s: %w", f.Key, err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
		}
		return buf.Bytes(), w.FormDataContentType(), nil
	}

	return nil, "", nil
}
