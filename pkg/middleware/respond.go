// Package middleware provides the HTTP middleware stack.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/souq/pkg/ctx"
)

func writeJSON(w http.ResponseWriter, status int, body ctx.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ctx.Envelope{Status: status, Message: message})
}
