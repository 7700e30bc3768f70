package utils

import (
	"net/http"
	"time"
)

func CookieExists(r *http.Request, name string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value != ""
}

// CookieValue returns the cookie's value or "" when it is missing.
func CookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// SetClientCookie pins the browser's storage namespace for maxAge.
func SetClientCookie(w http.ResponseWriter, name, value string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
	})
}

// GetUserAgent returns the User-Agent string from the request
func GetUserAgent(r *http.Request) string {
	return r.Header.Get("User-Agent")
}

// GetIP returns the IP address of the client from the request
func GetIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
	}
	return ip
}
