// backend/src/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/username/freightpay/backend/src/logger"
	"github.com/username/freightpay/backend/src/model"
	"github.com/username/freightpay/backend/src/services"
	"github.com/username/freightpay/backend/src/utils"
)

// handleServiceError translates service-layer sentinel errors into HTTP
// statuses. Anything unrecognized is an internal error and is logged
// without leaking detail to the client.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrFeeNotFound),
		errors.Is(err, model.ErrAccountNotFound),
		errors.Is(err, model.ErrDriverNotFound),
		errors.Is(err, model.ErrCompanyNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, model.ErrInsufficientBalance):
		utils.SendJSONError(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, services.ErrInvalidState), errors.Is(err, model.ErrFeeSettled):
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrInvalidArgument):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		logger.L.Error("Internal error handling request", "error", err)
		utils.SendJSONError(w, "An internal error occurred. Please try again later.", http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	valueStr := r.URL.Query().Get(key)
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}
