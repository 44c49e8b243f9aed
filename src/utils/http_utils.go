// backend/src/utils/http_utils.go
package utils

import (
	"encoding/json"
	"net/http"

	"github.com/username/freightpay/backend/src/logger"
)

// APIResponse is the envelope every JSON endpoint answers with. Code
// repeats the HTTP status so browser clients behind intermediaries that
// rewrite statuses can still branch on it.
type APIResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// SendJSONResponse writes data inside the standard envelope.
func SendJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(APIResponse{Code: statusCode, Message: "success", Data: data}); err != nil {
		if logger.L != nil {
			logger.L.Error("Error encoding JSON response", "error", err)
		}
	}
}

// SendJSONError is a helper function to send JSON formatted error responses.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if logger.L != nil { // Check if logger is initialized
		logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	}
	// Even if logger isn't ready, still try to send the error response
	json.NewEncoder(w).Encode(APIResponse{Code: statusCode, Message: message})
}
