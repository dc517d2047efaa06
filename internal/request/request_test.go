package request

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/nicunursekatie/adhd-planner/internal/models"
)

func TestClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		wantIP  string
	}{
		{"x-forwarded-for", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "", "1.2.3.4"},
		{"x-forwarded-for first", map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8 "}, "", "1.2.3.4"},
		{"x-real-ip", map[string]string{"X-Real-IP": "9.9.9.9"}, "", "9.9.9.9"},
		{"remote addr", nil, "10.0.0.1:12345", "10.0.0.1:12345"},
		{"xff over xri", map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "9.9.9.9"}, "", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if tt.remote != "" {
				r.RemoteAddr = tt.remote
			}
			got := ClientIP(r)
			if got != tt.wantIP {
				t.Errorf("ClientIP() = %q, want %q", got, tt.wantIP)
			}
		})
	}
}

func TestOwnerFromContext(t *testing.T) {
	t.Parallel()
	o := &models.Owner{ID: "auth0|abc123", Email: "a@b.c"}
	ctx := WithOwner(context.Background(), o)
	r := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	got := OwnerFromContext(r)
	if got != o {
		t.Errorf("OwnerFromContext() = %p, want %p", got, o)
	}
	if got != nil && got.Email != "a@b.c" {
		t.Errorf("OwnerFromContext().Email = %q, want a@b.c", got.Email)
	}
}

func TestOwnerFromContext_NoOwner(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest("GET", "/", nil)
	got := OwnerFromContext(r)
	if got != nil {
		t.Errorf("OwnerFromContext() = %+v, want nil", got)
	}
}

func TestOwnerFromContext_WrongType(t *testing.T) {
	t.Parallel()
	ctx := context.WithValue(context.Background(), OwnerContextKey(), "not an owner")
	r := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	got := OwnerFromContext(r)
	if got != nil {
		t.Errorf("OwnerFromContext() = %+v, want nil when wrong type", got)
	}
}
