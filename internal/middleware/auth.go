package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/openmusic/openmusic/internal/auth"
	"github.com/openmusic/openmusic/internal/model"
)

const (
	missingAuthBody = `{"status":"fail","message":"Missing authentication"}`
	invalidAuthBody = `{"status":"fail","message":"Invalid token"}`
)

// TokenVerifier turns a bearer token into a credential.
// *auth.TokenVerifier implements it.
type TokenVerifier interface {
	Verify(token string) (*model.Credential, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier TokenVerifier
}

// Auth returns a middleware that authenticates requests with a bearer
// access token and injects the credential into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeJSONBody(w, http.StatusUnauthorized, missingAuthBody)
				return
			}

			cred, err := cfg.Verifier.Verify(token)
			if err != nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_token"),
					slog.String("error", err.Error()),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeJSONBody(w, http.StatusUnauthorized, invalidAuthBody)
				return
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("user_id", cred.UserID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithCredential(r.Context(), cred)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken returns the token from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}
