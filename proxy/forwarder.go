// Package proxy forwards storefront calls to the remote commerce API and
// relays the answers back to the browser.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrUnreachable is returned when no base URL produced an HTTP response.
var ErrUnreachable = errors.New("backend unreachable")

// Call is one outbound request, relative to a base URL.
type Call struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Forwarder sends a Call to each base URL in order until one answers.
// Any HTTP response, including 4xx and 5xx, ends the loop; only transport
// failures move on to the next base.
type Forwarder struct {
	client *resty.Client
	bases  []string
	logger *zap.Logger

	// OnAttempt, when set, sees every attempt. err is nil when the base
	// answered with any status.
	OnAttempt func(base string, err error)
}

func NewForwarder(bases []string, timeout time.Duration, logger *zap.Logger) *Forwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(timeout).
		// cookies belong to the browser that sent them, never to the proxy
		SetCookieJar(nil).
		SetLogger(logger.Sugar())

	trimmed := make([]string, 0, len(bases))
	for _, b := range bases {
		trimmed = append(trimmed, strings.TrimRight(b, "/"))
	}
	return &Forwarder{client: client, bases: trimmed, logger: logger}
}

func (f *Forwarder) Bases() []string { return f.bases }

func (f *Forwarder) Do(ctx context.Context, call Call) (*Response, error) {
	if len(f.bases) == 0 {
		return nil, fmt.Errorf("%w: no base urls configured", ErrUnreachable)
	}

	var lastErr error
	for _, base := range f.bases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := f.attempt(ctx, base, call)
		if f.OnAttempt != nil {
			f.OnAttempt(base, err)
		}
		if err == nil {
			f.logger.Debug("backend answered",
				zap.String("base", base),
				zap.String("method", call.Method),
				zap.String("path", call.Path),
				zap.Int("status", resp.Status),
			)
			return resp, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		f.logger.Warn("backend attempt failed",
			zap.String("base", base),
			zap.String("path", call.Path),
			zap.Error(err),
		)
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %w", ErrUnreachable, lastErr)
}

func (f *Forwarder) attempt(ctx context.Context, base string, call Call) (*Response, error) {
	req := f.client.R().SetContext(ctx)
	for k, vs := range call.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if call.Body != nil {
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
		req.SetBody(call.Body)
	}

	method := call.Method
	if method == "" {
		method = http.MethodGet
	}
	res, err := req.Execute(method, base+call.Path)
	if err != nil {
		return nil, err
	}
	return &Response{
		Status: res.StatusCode(),
		Header: res.Header(),
		Body:   res.Body(),
		Base:   base,
	}, nil
}
