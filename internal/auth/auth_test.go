package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
)

func newTestAuthenticator(t *testing.T) *PasswordAuthenticator {
	t.Helper()
	store, err := sqlstore.NewSQLite(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	a := newTestAuthenticator(t)
	ctx := context.Background()

	user, err := a.Register(ctx, "alice", "Alice@Example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email not normalized: %s", user.Email)
	}
	if user.PasswordHash == "correct-horse" {
		t.Error("password stored in plain text")
	}

	tests := []struct {
		name     string
		login    string
		password string
		wantErr  error
	}{
		{"username", "alice", "correct-horse", nil},
		{"email", "ALICE@example.com", "correct-horse", nil},
		{"wrong password", "alice", "wrong-horse", ErrInvalidCredentials},
		{"unknown user", "bob", "correct-horse", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Authenticate(ctx, tt.login, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got.ID != user.ID {
				t.Errorf("Authenticate() returned user %s, want %s", got.ID, user.ID)
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	a := newTestAuthenticator(t)
	ctx := context.Background()

	if _, err := a.Register(ctx, "alice", "alice@example.com", "password1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{"short password", "bob", "bob@example.com", "short", ErrWeakPassword},
		{"password over 72 bytes", "bob", "bob@example.com", strings.Repeat("p", 73), ErrWeakPassword},
		{"multibyte password over 72 bytes", "bob", "bob@example.com", strings.Repeat("é", 37), ErrWeakPassword},
		{"short username", "bo", "bob@example.com", "password1", ErrInvalidUsername},
		{"username with @", "bob@home", "bob@example.com", "password1", ErrInvalidUsername},
		{"username with space", "bob smith", "bob@example.com", "password1", ErrInvalidUsername},
		{"duplicate username", "alice", "other@example.com", "password1", ErrUsernameExists},
		{"duplicate email", "alice2", "ALICE@example.com", "password1", ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.username, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterLongestPassword(t *testing.T) {
	a := newTestAuthenticator(t)
	ctx := context.Background()
	password := strings.Repeat("p", 72)

	if _, err := a.Register(ctx, "carol", "carol@example.com", password); err != nil {
		t.Fatalf("Register with a 72-byte password failed: %v", err)
	}
	if _, err := a.Authenticate(ctx, "carol", password); err != nil {
		t.Errorf("Authenticate() error = %v", err)
	}
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager(strings.Repeat("s", 32), time.Hour)
	user := &models.User{ID: "user-1", Username: "alice"}

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager(strings.Repeat("x", 32), time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTManager(strings.Repeat("s", 32), -time.Minute)
		tok, err := expired.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if _, err := m.Validate(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("other signing method", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1"})
		s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("SignedString failed: %v", err)
		}
		if _, err := m.Validate(s); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}
