package services

import (
	"errors"
	"testing"

	"github.com/username/freightpay/backend/src/model"
	"github.com/username/freightpay/backend/src/models"
	"github.com/username/freightpay/backend/src/security"
)

func TestCompanyUpdate(t *testing.T) {
	db := newTestDB(t)
	auth := security.NewAuthService("test-secret-key-at-least-32-bytes-long!!")
	service := NewCompanyService(db, auth)

	company := &models.Company{
		CompanyName:        "Transportes Norte",
		AdministratorName:  "Carlos",
		AdministratorPhone: "911000000",
	}
	if err := model.InsertCompany(db, company); err != nil {
		t.Fatalf("InsertCompany: %v", err)
	}

	t.Run("unknown company", func(t *testing.T) {
		_, err := service.UpdateCompany("missing", models.CompanyUpdateRequest{AdministratorName: "x"})
		if !errors.Is(err, model.ErrCompanyNotFound) {
			t.Errorf("error = %v, want ErrCompanyNotFound", err)
		}
	})

	t.Run("empty fields keep current values", func(t *testing.T) {
		got, err := service.UpdateCompany(company.CompanyID, models.CompanyUpdateRequest{
			AdministratorPhone: "911999888",
		})
		if err != nil {
			t.Fatalf("UpdateCompany: %v", err)
		}
		if got.AdministratorName != "Carlos" {
			t.Errorf("name = %q, want kept Carlos", got.AdministratorName)
		}
		if got.AdministratorPhone != "911999888" {
			t.Errorf("phone = %q, want 911999888", got.AdministratorPhone)
		}
	})

	t.Run("password is stored hashed", func(t *testing.T) {
		got, err := service.UpdateCompany(company.CompanyID, models.CompanyUpdateRequest{
			AdministratorPassword: "s3cret-pass",
		})
		if err != nil {
			t.Fatalf("UpdateCompany: %v", err)
		}
		if got.AdministratorPasswordHash == "s3cret-pass" || got.AdministratorPasswordHash == "" {
			t.Fatal("password not hashed before storage")
		}
		if err := auth.CompareHashAndPassword(got.AdministratorPasswordHash, "s3cret-pass"); err != nil {
			t.Errorf("stored hash does not verify: %v", err)
		}
	})
}
