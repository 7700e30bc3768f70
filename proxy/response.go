package proxy

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Response is a fully read backend answer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	// Base is the base URL that produced the answer.
	Base string
}

func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// StatusText mirrors the reason phrase a browser fetch would report.
func (r *Response) StatusText() string { return http.StatusText(r.Status) }

// IsJSON reports whether the backend labelled the body as JSON and it parses.
func (r *Response) IsJSON() bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json") && json.Valid(r.Body)
}

// Payload returns the body ready to relay: JSON verbatim, anything else as
// a JSON string.
func (r *Response) Payload() json.RawMessage {
	if r.IsJSON() {
		return json.RawMessage(r.Body)
	}
	b, _ := json.Marshal(string(r.Body))
	return b
}

// Object decodes the body as a JSON object. ok is false for any other shape.
func (r *Response) Object() (obj map[string]json.RawMessage, ok bool) {
	if !r.IsJSON() {
		return nil, false
	}
	if err := json.Unmarshal(r.Body, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// HasTruthyError reports whether the body is an object whose "error" field
// is set to anything but false, null, 0 or "".
func (r *Response) HasTruthyError() bool {
	obj, ok := r.Object()
	if !ok {
		return false
	}
	return truthy(obj["error"])
}

func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// LooksLikeFieldErrors reports whether a body resembles a validation error
// payload: an error-ish key, or any field holding a list of strings.
func (r *Response) LooksLikeFieldErrors() bool {
	obj, ok := r.Object()
	if !ok {
		return false
	}
	for _, key := range []string{"error", "non_field_errors", "detail"} {
		if truthy(obj[key]) {
			return true
		}
	}
	for _, raw := range obj {
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
			return true
		}
	}
	return false
}
