package fixture

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// writeJSON serialises v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writeJSON: failed to encode response", "error", err)
	}
}

// writeError writes the flat error body the triage clients know how to read.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Status: "error", Message: msg})
}
