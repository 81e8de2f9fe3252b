package httpserver

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

// errorBody builds the JSON error envelope. details is included only when
// non-nil; production handlers pass nil so internals never leak.
func errorBody(message string, details error) map[string]string {
	body := map[string]string{"error": message}
	if details != nil {
		body["details"] = details.Error()
	}
	return body
}
