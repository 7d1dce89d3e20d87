package executor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/studiowebux/apiprobe/internal/oauth"
	"github.com/studiowebux/apiprobe/internal/parser"
	"github.com/studiowebux/apiprobe/internal/types"
)

// resolveAuth substitutes variables into every string field of auth
func resolveAuth(r *parser.VariableResolver, auth *types.Auth) *types.Auth {
	if auth == nil {
		return nil
	}
	out := *auth
	out.Token = r.Resolve(auth.Token)
	out.Username = r.Resolve(auth.Username)
	out.Password = r.Resolve(auth.Password)
	out.Key = r.Resolve(auth.Key)
	out.Value = r.Resolve(auth.Value)
	out.TokenURL = r.Resolve(auth.TokenURL)
	out.ClientID = r.Resolve(auth.ClientID)
	out.ClientSecret = r.Resolve(auth.ClientSecret)
	out.Scopes = append([]string(nil), auth.Scopes...)
	return &out
}

// applyAuth attaches collection-level credentials to req
func (e *Executor) applyAuth(ctx context.Context, req *http.Request, auth *types.Auth) error {
	if auth == nil {
		return nil
	}

	switch auth.Type {
	case types.AuthNone:
	case types.AuthBearer:
		if auth.Token != "" {
			req.Header.Set("Authorization", "Bearer "+auth.Token)
		}
	case types.AuthBasic:
		req.SetBasicAuth(auth.Username, auth.Password)
	case types.AuthAPIKey:
		if auth.Key == "" {
			return fmt.Errorf("apikey auth requires a key")
		}
		if auth.In == "query" {
			q := req.URL.Query()
			q.Set(auth.Key, auth.Value)
			req.URL.RawQuery = q.Encode()
		} else {
			req.Header.Set(auth.Key, auth.Value)
		}
	case types.AuthOAuth2:
		tok, err := e.tokens.Token(ctx, oauth.Config{
			TokenURL:     auth.TokenURL,
			ClientID:     auth.ClientID,
			ClientSecret: auth.ClientSecret,
			Scopes:       auth.Scopes,
		})
		if err != nil {
			return err
		}
		tok.SetAuthHeader(req)
	default:
		return fmt.Errorf("unsupported auth type: %s", auth.Type)
	}

	return nil
}
