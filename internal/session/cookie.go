package session

import (
	"net/http"
	"time"
)

// CookieOptions describes the session cookie.
type CookieOptions struct {
	Name   string
	Path   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

// FromRequest returns the session id carried by the request's cookie. A
// missing or malformed cookie yields a new id and fresh=true; the caller
// must then send the cookie with SetCookie.
func FromRequest(r *http.Request, name string) (id string, fresh bool) {
	c, err := r.Cookie(name)
	if err == nil && ValidateID(c.Value) == nil {
		return c.Value, false
	}
	return NewID(), true
}

// SetCookie writes the session cookie. It must run before the response
// header is written.
func SetCookie(w http.ResponseWriter, id string, opts CookieOptions) {
	path := opts.Path
	if path == "" {
		path = "/"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    id,
		Path:     path,
		Domain:   opts.Domain,
		MaxAge:   int(opts.MaxAge / time.Second),
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
