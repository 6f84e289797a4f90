package common

import (
	"encoding/json"
	"net/http"
)

// errorBody is the payload of every error answer that carries no field details
type errorBody struct {
	Error string `json:"error"`
}

// WriteJSONResponse encodes data as the JSON body of a response with the given status
func WriteJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	// Headers are already sent, so an encoding failure can only truncate the body
	_ = json.NewEncoder(w).Encode(data)
}

// WriteErrorResponse answers with {"error": message}
func WriteErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	WriteJSONResponse(w, errorBody{Error: message}, statusCode)
}
