package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/mmynk/splitledger/internal/auth"
)

func TestTokenFromHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  http.Header
		want    string
		wantErr error
	}{
		{
			name:   "bearer",
			header: http.Header{"Authorization": {"Bearer abc"}},
			want:   "abc",
		},
		{
			name:   "cookie",
			header: http.Header{"Cookie": {"session=xyz; theme=dark"}},
			want:   "xyz",
		},
		{
			name:   "header wins over cookie",
			header: http.Header{"Authorization": {"Bearer abc"}, "Cookie": {"session=xyz"}},
			want:   "abc",
		},
		{
			name:    "malformed header",
			header:  http.Header{"Authorization": {"Token abc"}},
			wantErr: auth.ErrInvalidToken,
		},
		{
			name:    "nothing",
			header:  http.Header{},
			wantErr: auth.ErrMissingToken,
		},
		{
			name:    "other cookie only",
			header:  http.Header{"Cookie": {"theme=dark"}},
			wantErr: auth.ErrMissingToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TokenFromHeader(tt.header, "session")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("TokenFromHeader() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("TokenFromHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithUser(t *testing.T) {
	ctx := WithUser(context.Background(), &auth.Claims{UserID: "u1", Username: "alice"})
	if GetUserID(ctx) != "u1" {
		t.Errorf("GetUserID() = %q", GetUserID(ctx))
	}
	if GetUsername(ctx) != "alice" {
		t.Errorf("GetUsername() = %q", GetUsername(ctx))
	}
	if GetUserID(context.Background()) != "" {
		t.Error("expected empty user id on bare context")
	}
}
