package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/utils"
)

type ctxKey int

const clientIDKey ctxKey = iota

// ClientID returns the browser id placed in ctx by WithClientID.
func ClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey).(string)
	return id
}

// WithClientID makes sure every browser carries a client cookie naming its
// storage namespace, minting one on first contact.
func (d *Deps) WithClientID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := utils.CookieValue(r, d.ClientCookie)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		// refresh on every visit so active browsers never lose their namespace
		utils.SetClientCookie(w, d.ClientCookie, id, d.ClientCookieMaxAge, d.SecureCookies)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIDKey, id)))
	})
}

type loggingWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (lw *loggingWriter) WriteHeader(code int) {
	lw.status = code
	lw.ResponseWriter.WriteHeader(code)
}

func (lw *loggingWriter) Write(b []byte) (int, error) {
	n, err := lw.ResponseWriter.Write(b)
	lw.bytes += n
	return n, err
}

// LogRequests writes one line per request.
func (d *Deps) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lw, r)

		d.log(r).Info("request",
			zap.Int("status", lw.status),
			zap.Int("bytes", lw.bytes),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", utils.GetIP(r)),
			zap.String("user_agent", utils.GetUserAgent(r)),
		)
	})
}
