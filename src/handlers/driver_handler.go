// backend/src/handlers/driver_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/freightpay/backend/src/logger"
	"github.com/username/freightpay/backend/src/models"
	"github.com/username/freightpay/backend/src/services"
	"github.com/username/freightpay/backend/src/utils"
)

type DriverHandler struct {
	settlementService services.SettlementService
}

func NewDriverHandler(service services.SettlementService) *DriverHandler {
	return &DriverHandler{
		settlementService: service,
	}
}

// HandleSubmitFee files a new expense claim for a finished trip.
func (h *DriverHandler) HandleSubmitFee(w http.ResponseWriter, r *http.Request) {
	var req models.DriverSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.L.Warn("Failed to decode driver submit payload", "error", err)
		utils.SendJSONError(w, "Invalid request payload.", http.StatusBadRequest)
		return
	}

	fee, err := h.settlementService.SubmitFee(req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, fee)
}

// HandleGetFee returns the driver's view of a claim: the approved
// amounts next to the originally asked ones.
func (h *DriverHandler) HandleGetFee(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	pathID := r.URL.Query().Get("path_id")
	if orderID == "" || pathID == "" {
		utils.SendJSONError(w, "order_id and path_id query parameters are required.", http.StatusBadRequest)
		return
	}

	fee, err := h.settlementService.GetDriverFee(orderID, pathID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, fee)
}

// HandleConfirmFee acknowledges a claim after review. Confirming twice
// is harmless.
func (h *DriverHandler) HandleConfirmFee(w http.ResponseWriter, r *http.Request) {
	var req models.DriverConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.L.Warn("Failed to decode driver confirm payload", "error", err)
		utils.SendJSONError(w, "Invalid request payload.", http.StatusBadRequest)
		return
	}

	if err := h.settlementService.ConfirmFee(req); err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, nil)
}

// HandleListFees pages through the driver's own claims, newest first.
func (h *DriverHandler) HandleListFees(w http.ResponseWriter, r *http.Request) {
	filter := models.FeeFilter{
		Page:   queryInt(r, "page", 1),
		Size:   queryInt(r, "size", 10),
		Status: r.URL.Query().Get("status"),
	}

	fees, err := h.settlementService.ListDriverFees(filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, fees)
}

// HandlePay executes the settlement transfer for a claim.
func (h *DriverHandler) HandlePay(w http.ResponseWriter, r *http.Request) {
	var req models.FeePayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.L.Warn("Failed to decode pay payload", "error", err)
		utils.SendJSONError(w, "Invalid request payload.", http.StatusBadRequest)
		return
	}

	result, err := h.settlementService.Pay(req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, result)
}
