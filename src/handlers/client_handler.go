// backend/src/handlers/client_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/username/freightpay/backend/src/logger"
	"github.com/username/freightpay/backend/src/models"
	"github.com/username/freightpay/backend/src/services"
	"github.com/username/freightpay/backend/src/utils"
)

// ClientHandler serves the client console: settlement review, the
// prepaid account, and the drill-down detail view.
type ClientHandler struct {
	settlementService services.SettlementService
	accountService    services.AccountService
}

func NewClientHandler(settlementService services.SettlementService, accountService services.AccountService) *ClientHandler {
	return &ClientHandler{
		settlementService: settlementService,
		accountService:    accountService,
	}
}

// HandleFeeList pages through settlements awaiting or past payment.
func (h *ClientHandler) HandleFeeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.FeeFilter{
		Page:            queryInt(r, "page", 1),
		Size:            queryInt(r, "size", 10),
		Status:          q.Get("status"),
		DispatchChannel: q.Get("dispatch_channel"),
		PathID:          q.Get("path_id"),
		OrderID:         q.Get("order_id"),
	}

	if v := q.Get("start_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			utils.SendJSONError(w, "Invalid start_time, expected RFC3339.", http.StatusBadRequest)
			return
		}
		filter.StartTime = &t
	}
	if v := q.Get("end_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			utils.SendJSONError(w, "Invalid end_time, expected RFC3339.", http.StatusBadRequest)
			return
		}
		filter.EndTime = &t
	}

	fees, err := h.settlementService.ListSettlements(filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, fees)
}

// HandleRejectFee sends a claim back to the driver, optionally trimming
// the billed amounts.
func (h *ClientHandler) HandleRejectFee(w http.ResponseWriter, r *http.Request) {
	var req models.FeeRejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.L.Warn("Failed to decode reject payload", "error", err)
		utils.SendJSONError(w, "Invalid request payload.", http.StatusBadRequest)
		return
	}

	fee, err := h.settlementService.RejectFee(req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, fee)
}

// HandleRequestSettlement flags a reviewed claim as payable and tells
// the platform to execute the transfer. No money moves here.
func (h *ClientHandler) HandleRequestSettlement(w http.ResponseWriter, r *http.Request) {
	var req models.FeeSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.L.Warn("Failed to decode settlement request payload", "error", err)
		utils.SendJSONError(w, "Invalid request payload.", http.StatusBadRequest)
		return
	}

	fee, err := h.settlementService.RequestSettlement(req.FeeID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, fee)
}

// HandleRecharge files a top-up request for review.
func (h *ClientHandler) HandleRecharge(w http.ResponseWriter, r *http.Request) {
	var req models.AccountRechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.L.Warn("Failed to decode recharge payload", "error", err)
		utils.SendJSONError(w, "Invalid request payload.", http.StatusBadRequest)
		return
	}

	account, err := h.accountService.Recharge(req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, account)
}

// HandleApproveRecharge verifies the bank-side figure and credits it.
func (h *ClientHandler) HandleApproveRecharge(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")

	var req struct {
		ReceivedAmount int64 `json:"received_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.L.Warn("Failed to decode approve-recharge payload", "error", err)
		utils.SendJSONError(w, "Invalid request payload.", http.StatusBadRequest)
		return
	}

	account, err := h.accountService.ApproveRecharge(accountID, req.ReceivedAmount)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, account)
}

// HandleBalanceWarning stores the low-balance alert configuration.
func (h *ClientHandler) HandleBalanceWarning(w http.ResponseWriter, r *http.Request) {
	var req models.BalanceWarningUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.L.Warn("Failed to decode balance warning payload", "error", err)
		utils.SendJSONError(w, "Invalid request payload.", http.StatusBadRequest)
		return
	}

	account, err := h.accountService.UpdateBalanceWarning(req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, account)
}

// HandleListAccounts pages through the prepaid accounts.
func (h *ClientHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.ListAccounts(queryInt(r, "page", 1), queryInt(r, "size", 10))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, accounts)
}

// HandleDetail returns the combined fee, trip and driver view for one
// settlement.
func (h *ClientHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	pathID := r.URL.Query().Get("path_id")

	detail, err := h.settlementService.OrderDetail(orderID, pathID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, detail)
}
