package httputil

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// best-effort fallback; don't override status for the caller
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// Envelope is the response body shape of the verification API. Every endpoint
// response is one of exactly two forms: a success envelope carrying data, or a
// failure envelope with a message and null data.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// WriteSuccess writes the success envelope (HTTP 201 with matching body status).
func WriteSuccess(w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusCreated, Envelope{
		Status:  http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// WriteFailure writes the failure envelope (HTTP 500 with matching body status
// and null data).
func WriteFailure(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusInternalServerError, Envelope{
		Status:  http.StatusInternalServerError,
		Message: message,
		Data:    nil,
	})
}
