// backend/src/services/company_service.go
package services

import (
	"database/sql"
	"fmt"

	"github.com/username/freightpay/backend/src/logger"
	"github.com/username/freightpay/backend/src/model"
	"github.com/username/freightpay/backend/src/models"
	"github.com/username/freightpay/backend/src/security"
)

type CompanyService interface {
	GetCompany(companyID string) (*models.Company, error)
	UpdateCompany(companyID string, req models.CompanyUpdateRequest) (*models.Company, error)
}

type companyServiceImpl struct {
	db   *sql.DB
	auth *security.AuthService
}

func NewCompanyService(db *sql.DB, auth *security.AuthService) CompanyService {
	return &companyServiceImpl{db: db, auth: auth}
}

func (s *companyServiceImpl) GetCompany(companyID string) (*models.Company, error) {
	return model.GetCompanyByID(s.db, companyID)
}

// UpdateCompany replaces the administrator contact fields. Empty request
// fields keep their current value; a non-empty password is re-hashed
// before it is stored.
func (s *companyServiceImpl) UpdateCompany(companyID string, req models.CompanyUpdateRequest) (*models.Company, error) {
	if companyID == "" {
		return nil, fmt.Errorf("%w: company_id is required", ErrInvalidArgument)
	}

	company, err := model.GetCompanyByID(s.db, companyID)
	if err != nil {
		return nil, err
	}

	name := company.AdministratorName
	if req.AdministratorName != "" {
		name = req.AdministratorName
	}
	phone := company.AdministratorPhone
	if req.AdministratorPhone != "" {
		phone = req.AdministratorPhone
	}
	passwordHash := company.AdministratorPasswordHash
	if req.AdministratorPassword != "" {
		passwordHash, err = s.auth.HashPassword(req.AdministratorPassword)
		if err != nil {
			return nil, fmt.Errorf("error hashing administrator password: %w", err)
		}
	}

	if err := model.UpdateCompanyAdmin(s.db, companyID, name, phone, passwordHash); err != nil {
		return nil, err
	}

	logger.L.Info("Company administrator updated", "companyID", companyID)
	return model.GetCompanyByID(s.db, companyID)
}
