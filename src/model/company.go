package model

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/username/freightpay/backend/src/models"
)

const companyColumns = `company_id, company_name, invite_code, operator_type,
	administrator_name, administrator_phone, administrator_password, created_at, updated_at`

// InsertCompany creates a client company record.
func InsertCompany(db DBTX, c *models.Company) error {
	now := time.Now().UTC()
	if c.CompanyID == "" {
		c.CompanyID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.OperatorType == "" {
		c.OperatorType = "CLIENT"
	}

	_, err := db.Exec(`INSERT INTO companies (`+companyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CompanyID, c.CompanyName, c.InviteCode, c.OperatorType,
		c.AdministratorName, c.AdministratorPhone, c.AdministratorPasswordHash,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting company: %w", err)
	}
	return nil
}

func GetCompanyByID(db DBTX, companyID string) (*models.Company, error) {
	row := db.QueryRow(`SELECT `+companyColumns+` FROM companies WHERE company_id = ?`, companyID)

	var c models.Company
	err := row.Scan(&c.CompanyID, &c.CompanyName, &c.InviteCode, &c.OperatorType,
		&c.AdministratorName, &c.AdministratorPhone, &c.AdministratorPasswordHash,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("error fetching company: %w", err)
	}
	return &c, nil
}

// UpdateCompanyAdmin replaces the administrator contact fields. The
// password arrives already hashed.
func UpdateCompanyAdmin(db DBTX, companyID, name, phone, passwordHash string) error {
	res, err := db.Exec(`UPDATE companies
		SET administrator_name = ?, administrator_phone = ?, administrator_password = ?, updated_at = ?
		WHERE company_id = ?`,
		name, phone, passwordHash, time.Now().UTC(), companyID)
	if err != nil {
		return fmt.Errorf("error updating company administrator: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCompanyNotFound
	}
	return nil
}
