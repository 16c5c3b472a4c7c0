package kv

import (
	"net/http"
	"net/url"
	"time"
)

// Cookie is a request-scoped Store backed by browser cookies: reads come from
// the request's cookies, writes become Set-Cookie headers on the response.
// This is the server-side equivalent of browser local storage for the session
// keys, and keeps the persisted state on the visitor's device.
type Cookie struct {
	r       *http.Request
	w       http.ResponseWriter
	secure  bool
	maxAge  time.Duration
	written map[string]*string // nil value means deleted
}

// NewCookie returns a cookie-backed store for one request/response pair.
// secure controls the cookie Secure attribute; maxAge bounds cookie lifetime.
func NewCookie(w http.ResponseWriter, r *http.Request, secure bool, maxAge time.Duration) *Cookie {
	return &Cookie{
		r:       r,
		w:       w,
		secure:  secure,
		maxAge:  maxAge,
		written: make(map[string]*string),
	}
}

// Get returns the value for key, observing writes made earlier in the same
// request before falling back to the request cookies.
func (s *Cookie) Get(key string) (string, bool) {
	if v, ok := s.written[key]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	c, err := s.r.Cookie(key)
	if err != nil {
		return "", false
	}
	v, err := url.QueryUnescape(c.Value)
	if err != nil {
		return "", false
	}
	return v, true
}

func (s *Cookie) Set(key, value string) {
	s.written[key] = &value
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    url.QueryEscape(value),
		Path:     "/",
		MaxAge:   int(s.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Cookie) Delete(key string) {
	s.written[key] = nil
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
