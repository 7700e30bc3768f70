package proxy

import (
	"net/http"
	"strings"
)

const (
	HeadersContentType = "Content-Type"
	HeadersWithAuth    = "Content-Type, Authorization"
)

// CORS is the cross-origin policy a route answers with, preflight included.
type CORS struct {
	Origin      string
	Methods     []string
	Headers     string
	Credentials bool
}

// Public allows any origin without credentials.
func Public(methods ...string) CORS {
	return CORS{Origin: "*", Methods: methods, Headers: HeadersWithAuth}
}

// Credentialed allows exactly origin and lets the browser send cookies.
func Credentialed(origin, headers string, methods ...string) CORS {
	return CORS{Origin: origin, Methods: methods, Headers: headers, Credentials: true}
}

func (c CORS) Apply(h http.Header) {
	h.Set("Access-Control-Allow-Origin", c.Origin)
	methods := append([]string{}, c.Methods...)
	if !contains(methods, http.MethodOptions) {
		methods = append(methods, http.MethodOptions)
	}
	h.Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))
	if c.Headers != "" {
		h.Set("Access-Control-Allow-Headers", c.Headers)
	}
	if c.Credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if c.Origin != "*" {
		h.Add("Vary", "Origin")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
