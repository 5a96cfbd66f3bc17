// Package auth reads the authenticated principal of a request.
// Access tokens are issued elsewhere; this package only verifies them.
package auth

import (
	"context"

	"github.com/openmusic/openmusic/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const credentialContextKey contextKey = "credential"

// ContextWithCredential adds the credential to the context.
func ContextWithCredential(ctx context.Context, cred *model.Credential) context.Context {
	return context.WithValue(ctx, credentialContextKey, cred)
}

// CredentialFromContext retrieves the credential from the context.
// Returns nil if not present.
func CredentialFromContext(ctx context.Context) *model.Credential {
	cred, ok := ctx.Value(credentialContextKey).(*model.Credential)
	if !ok {
		return nil
	}
	return cred
}

// UserIDFromContext returns the authenticated user ID, or "" if unauthenticated.
func UserIDFromContext(ctx context.Context) string {
	cred := CredentialFromContext(ctx)
	if cred == nil {
		return ""
	}
	return cred.UserID
}
