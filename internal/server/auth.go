package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"tadweer/internal/identity"
)

// AuthConfig configures the session token surface.
type AuthConfig struct {
	Tokens identity.TokenProvider
}

type userKey struct{}

func withUser(ctx context.Context, u identity.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func userFromContext(ctx context.Context) identity.User {
	if u, ok := ctx.Value(userKey{}).(identity.User); ok {
		return u
	}
	return identity.User{IsLoaded: true}
}

func requireUser(ctx context.Context) (identity.User, huma.StatusError) {
	u := userFromContext(ctx)
	if !u.IsSignedIn {
		return identity.User{}, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
	}
	return u, nil
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// sessionCookie lets page navigation carry the session where setting an
// Authorization header is not possible.
const sessionCookie = "tadweer_session"

// newSessionMiddleware resolves the request's user from its bearer token or
// session cookie. No token means a signed-out session, not an error. A
// malformed or expired bearer token is rejected; a cookie in that state is
// treated as signed out instead, so page navigation falls through to the
// route guard's redirect rather than a JSON 401.
func newSessionMiddleware(auth AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if authz := strings.TrimSpace(req.Header.Get("Authorization")); authz != "" {
				token, ok := bearerToken(authz)
				if !ok {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
					return
				}
				u, err := auth.Tokens.Parse(token)
				if err != nil {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
					return
				}
				next.ServeHTTP(w, req.WithContext(withUser(req.Context(), u)))
				return
			}
			if c, err := req.Cookie(sessionCookie); err == nil && c.Value != "" {
				if u, err := auth.Tokens.Parse(c.Value); err == nil {
					next.ServeHTTP(w, req.WithContext(withUser(req.Context(), u)))
					return
				}
			}
			ctx := withUser(req.Context(), identity.User{IsLoaded: true})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}
