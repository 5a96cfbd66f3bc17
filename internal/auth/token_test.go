package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/openmusic/openmusic/internal/model"
)

const testKey = "test-access-token-key"

func signToken(t *testing.T, key string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestNewTokenVerifier_RequiresKey(t *testing.T) {
	if _, err := NewTokenVerifier(""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestTokenVerifier_Verify(t *testing.T) {
	v, err := NewTokenVerifier(testKey)
	if err != nil {
		t.Fatalf("NewTokenVerifier failed: %v", err)
	}

	tests := []struct {
		name       string
		token      string
		wantUserID string
		wantErr    bool
	}{
		{
			name:       "id claim",
			token:      signToken(t, testKey, jwt.SigningMethodHS256, jwt.MapClaims{"id": "user-1"}),
			wantUserID: "user-1",
		},
		{
			name:       "sub claim fallback",
			token:      signToken(t, testKey, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-2"}),
			wantUserID: "user-2",
		},
		{
			name:    "no user id",
			token:   signToken(t, testKey, jwt.SigningMethodHS256, jwt.MapClaims{"name": "x"}),
			wantErr: true,
		},
		{
			name:    "wrong key",
			token:   signToken(t, "other-key", jwt.SigningMethodHS256, jwt.MapClaims{"id": "user-1"}),
			wantErr: true,
		},
		{
			name:    "wrong algorithm",
			token:   signToken(t, testKey, jwt.SigningMethodHS512, jwt.MapClaims{"id": "user-1"}),
			wantErr: true,
		},
		{
			name: "expired",
			token: signToken(t, testKey, jwt.SigningMethodHS256, jwt.MapClaims{
				"id":  "user-1",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   "not.a.token",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, err := v.Verify(tt.token)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got credential %+v", cred)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cred.UserID != tt.wantUserID {
				t.Errorf("UserID = %q, want %q", cred.UserID, tt.wantUserID)
			}
		})
	}
}

func TestTokenVerifier_MissingUserIDSentinel(t *testing.T) {
	v, _ := NewTokenVerifier(testKey)
	_, err := v.Verify(signToken(t, testKey, jwt.SigningMethodHS256, jwt.MapClaims{}))
	if !errors.Is(err, ErrMissingUserID) {
		t.Errorf("expected ErrMissingUserID, got %v", err)
	}
}

func TestCredentialContext(t *testing.T) {
	ctx := context.Background()
	if CredentialFromContext(ctx) != nil {
		t.Error("expected nil credential on empty context")
	}
	if UserIDFromContext(ctx) != "" {
		t.Error("expected empty user id on empty context")
	}

	ctx = ContextWithCredential(ctx, &model.Credential{UserID: "user-1"})
	if got := UserIDFromContext(ctx); got != "user-1" {
		t.Errorf("UserIDFromContext() = %q, want user-1", got)
	}
}
