package http

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error  string           `json:"error"`
	Reason string           `json:"reason,omitempty"`
	Fields []fieldErrorJSON `json:"fields,omitempty"`
}

type fieldErrorJSON struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// respondJSON writes data as a JSON body with the given status.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
