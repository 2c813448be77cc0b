package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthLogin(t *testing.T) {
	a, err := NewAuth(nil, "pw", "test-secret", bcrypt.MinCost, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.Login("nope", "1.1.1.1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	token, err := a.Login("pw", "1.1.1.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := a.ValidateToken(token); err != nil {
		t.Errorf("issued token rejected: %v", err)
	}

	other, _ := NewAuth(nil, "pw", "another-secret", bcrypt.MinCost, zaptest.NewLogger(t))
	if err := other.ValidateToken(token); err == nil {
		t.Error("token signed with another secret should be rejected")
	}
}

func TestAuthDisabled(t *testing.T) {
	a, err := NewAuth(nil, "", "", bcrypt.MinCost, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if a.Enabled() {
		t.Error("auth without password should be disabled")
	}
	if _, err := a.Login("", "1.1.1.1"); !errors.Is(err, ErrAdminDisabled) {
		t.Errorf("err = %v, want ErrAdminDisabled", err)
	}
}

func TestAuthRateLimit(t *testing.T) {
	a, _ := NewAuth(nil, "pw", "s", bcrypt.MinCost, zaptest.NewLogger(t))
	for i := 0; i < maxLoginAttempts; i++ {
		a.Login("wrong", "2.2.2.2")
	}
	if _, err := a.Login("pw", "2.2.2.2"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
	// Other addresses are unaffected
	if _, err := a.Login("pw", "3.3.3.3"); err != nil {
		t.Errorf("other ip: %v", err)
	}
}

func TestSecretPersisted(t *testing.T) {
	db := openTestDB(t)
	log := zaptest.NewLogger(t)

	a1, _ := NewAuth(db, "pw", "", bcrypt.MinCost, log)
	token, err := a1.Login("pw", "1.1.1.1")
	if err != nil {
		t.Fatal(err)
	}
	a2, _ := NewAuth(db, "pw", "", bcrypt.MinCost, log)
	if err := a2.ValidateToken(token); err != nil {
		t.Errorf("token should survive a restart with the stored secret: %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	a, _ := NewAuth(nil, "pw", "s", bcrypt.MinCost, zaptest.NewLogger(t))
	token, _ := a.Login("pw", "1.1.1.1")

	h := a.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/regenerate", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: status %d, want %d", tt.name, rec.Code, tt.want)
		}
	}
}
