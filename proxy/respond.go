package proxy

import (
	"encoding/json"
	"net/http"

	"storefront/models"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	WriteRaw(w, status, b)
}

// WriteRaw writes an already encoded JSON body.
func WriteRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// WriteError writes {"error": msg, "message": err} with status.
func WriteError(w http.ResponseWriter, status int, msg string, err error) {
	resp := models.ErrorResponse{Error: msg}
	if err != nil {
		resp.Message = err.Error()
	}
	WriteJSON(w, status, resp)
}

// Relay writes the backend answer with its own status.
func Relay(w http.ResponseWriter, resp *Response) {
	WriteRaw(w, resp.Status, resp.Payload())
}

// CopySetCookies re-emits every backend Set-Cookie line on dst.
func CopySetCookies(dst http.Header, src http.Header) {
	for _, c := range src.Values("Set-Cookie") {
		dst.Add("Set-Cookie", c)
	}
}
