// Package handlers serves the storefront's same-origin API: thin proxies to
// the commerce backend plus the session endpoints the UI reads its login
// state from.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/proxy"
	"storefront/session"
	"storefront/storage"
	"storefront/utils"
)

// maxBodyBytes caps inbound JSON bodies.
const maxBodyBytes = 1 << 20

// Deps is everything a handler needs. Build it once in main.
type Deps struct {
	// Auth tries the primary backend then the fallback.
	Auth *proxy.Forwarder
	// Backend talks to the primary backend only.
	Backend *proxy.Forwarder

	Storage  storage.Backend
	Notifier *session.Notifier
	// Mailer is nil when welcome mail is disabled.
	Mailer utils.Mailer
	Logger *zap.Logger

	// Origin is the storefront UI origin allowed to send credentials.
	Origin     string
	SessionTTL time.Duration

	ClientCookie string
	// ClientCookieMaxAge is how long a browser keeps its storage namespace.
	ClientCookieMaxAge time.Duration
	SecureCookies      bool

	// Now is the clock for sessions. Nil means time.Now.
	Now func() time.Time
}

func (d *Deps) log(r *http.Request) *zap.Logger {
	l := d.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return l.With(zap.String("method", r.Method), zap.String("path", r.URL.Path))
}

// Session returns the session store for the browser behind r.
func (d *Deps) Session(r *http.Request, revoker session.Revoker) *session.Store {
	client := ClientID(r.Context())
	return &session.Store{
		Storage:  d.Storage.Scope(client),
		Revoker:  revoker,
		Notifier: d.Notifier,
		Client:   client,
		TTL:      d.SessionTTL,
		Logger:   d.Logger,
		Now:      d.Now,
	}
}

var errEmptyBody = errors.New("request body is empty")

// readJSON reads a JSON body and returns it verbatim once it is known to parse.
func readJSON(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, errEmptyBody
	}
	if !json.Valid(body) {
		return nil, errors.New("request body is not valid JSON")
	}
	return body, nil
}

// decodeJSON reads and decodes a JSON object into v.
func decodeJSON(r *http.Request, v any) error {
	body, err := readJSON(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// forwardedCookies rebuilds the Cookie header without this service's own
// client cookie.
func (d *Deps) forwardedCookies(r *http.Request) string {
	var parts []string
	for _, c := range r.Cookies() {
		if c.Name == d.ClientCookie {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// jsonHeader is the outbound header set used for every backend call.
func jsonHeader() http.Header {
	return http.Header{"Content-Type": {"application/json"}}
}
