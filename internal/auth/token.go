package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/openmusic/openmusic/internal/model"
)

// ErrMissingUserID is returned when a valid token carries no user id.
var ErrMissingUserID = errors.New("token has no user id")

// TokenVerifier checks access tokens signed with a shared HS256 key.
type TokenVerifier struct {
	key []byte
}

// NewTokenVerifier creates a verifier for the given access token key.
func NewTokenVerifier(key string) (*TokenVerifier, error) {
	if key == "" {
		return nil, fmt.Errorf("access token key is required")
	}
	return &TokenVerifier{key: []byte(key)}, nil
}

// Verify validates the token's signature and expiry and returns the credential.
// The user id is read from the "id" claim, falling back to "sub".
func (v *TokenVerifier) Verify(token string) (*model.Credential, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unsupported claim type %T", tok.Claims)
	}

	userID, _ := claims["id"].(string)
	if userID == "" {
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return nil, ErrMissingUserID
	}

	return &model.Credential{UserID: userID}, nil
}
