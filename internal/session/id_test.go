package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewIDValidates(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Fatalf("NewID() returned the same id twice: %q", a)
	}
	for _, id := range []string{a, b} {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) error = %v", id, err)
		}
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid v4", "9b2f3c4e-8a1d-4f6b-9c7e-2d5a6b7c8d9e", false},
		{"empty", "", true},
		{"garbage", "not-a-session", true},
		{"uppercase", "9B2F3C4E-8A1D-4F6B-9C7E-2D5A6B7C8D9E", true},
		{"braced", "{9b2f3c4e-8a1d-4f6b-9c7e-2d5a6b7c8d9e}", true},
		{"urn", "urn:uuid:9b2f3c4e-8a1d-4f6b-9c7e-2d5a6b7c8d9e", true},
		{"version 1", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestFromRequest(t *testing.T) {
	valid := NewID()
	tests := []struct {
		name      string
		cookie    *http.Cookie
		wantFresh bool
	}{
		{"no cookie", nil, true},
		{"valid cookie", &http.Cookie{Name: "sid", Value: valid}, false},
		{"tampered cookie", &http.Cookie{Name: "sid", Value: "../../etc/passwd"}, true},
		{"other cookie", &http.Cookie{Name: "other", Value: valid}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}
			id, fresh := FromRequest(r, "sid")
			if fresh != tt.wantFresh {
				t.Errorf("fresh = %v, want %v", fresh, tt.wantFresh)
			}
			if !fresh && id != valid {
				t.Errorf("id = %q, want %q", id, valid)
			}
			if err := ValidateID(id); err != nil {
				t.Errorf("returned id %q is invalid: %v", id, err)
			}
		})
	}
}

func TestSetCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	id := NewID()
	SetCookie(rec, id, CookieOptions{Name: "sid", Secure: true, MaxAge: time.Hour})

	header := rec.Header().Get("Set-Cookie")
	for _, want := range []string{"sid=" + id, "Path=/", "Max-Age=3600", "HttpOnly", "Secure", "SameSite=Lax"} {
		if !strings.Contains(header, want) {
			t.Errorf("Set-Cookie = %q, missing %q", header, want)
		}
	}
}
