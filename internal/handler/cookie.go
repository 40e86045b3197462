package handler

import (
	"net/http"
	"time"
)

// CookieConfig carries the cookie attributes that depend on deployment:
// Secure only works behind HTTPS and Domain matters when the API and the
// frontend sit on different subdomains.
type CookieConfig struct {
	Secure      bool
	Domain      string
	StaffMaxAge time.Duration
	// ResidentMaxAge is shorter than the staff lifetime; resident sessions
	// live on shared devices.
	ResidentMaxAge time.Duration
}

// setSessionCookie issues a session cookie, HTTP only so scripts can
// never read it.
func (c CookieConfig) setSessionCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires a session cookie immediately.
func (c CookieConfig) clearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
