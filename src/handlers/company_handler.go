// backend/src/handlers/company_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/freightpay/backend/src/logger"
	"github.com/username/freightpay/backend/src/models"
	"github.com/username/freightpay/backend/src/services"
	"github.com/username/freightpay/backend/src/utils"
)

type CompanyHandler struct {
	companyService services.CompanyService
}

func NewCompanyHandler(service services.CompanyService) *CompanyHandler {
	return &CompanyHandler{
		companyService: service,
	}
}

func (h *CompanyHandler) HandleGetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.companyService.GetCompany(r.PathValue("id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, company)
}

func (h *CompanyHandler) HandleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	var req models.CompanyUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.L.Warn("Failed to decode company update payload", "error", err)
		utils.SendJSONError(w, "Invalid request payload.", http.StatusBadRequest)
		return
	}

	company, err := h.companyService.UpdateCompany(r.PathValue("id"), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, company)
}
