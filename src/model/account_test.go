package model

import (
	"errors"
	"testing"

	"github.com/username/freightpay/backend/src/models"
)

func seedAccount(t *testing.T, db DBTX, balance int64) *models.Account {
	t.Helper()
	account := &models.Account{
		CompanyID:      "cmp-1",
		Balance:        balance,
		RechargeStatus: models.RechargeApproved,
	}
	if err := InsertAccount(db, account); err != nil {
		t.Fatalf("InsertAccount: %v", err)
	}
	return account
}

func TestDebitAccount(t *testing.T) {
	db := newTestDB(t)
	account := seedAccount(t, db, 10000)

	if err := DebitAccount(db, account.CompanyAccountID, 4000); err != nil {
		t.Fatalf("DebitAccount: %v", err)
	}
	got, err := GetAccountByID(db, account.CompanyAccountID)
	if err != nil {
		t.Fatalf("GetAccountByID: %v", err)
	}
	if got.Balance != 6000 {
		t.Errorf("balance = %d, want 6000", got.Balance)
	}

	t.Run("insufficient balance refused untouched", func(t *testing.T) {
		err := DebitAccount(db, account.CompanyAccountID, 6001)
		if !errors.Is(err, ErrInsufficientBalance) {
			t.Fatalf("error = %v, want ErrInsufficientBalance", err)
		}
		got, err := GetAccountByID(db, account.CompanyAccountID)
		if err != nil {
			t.Fatalf("GetAccountByID: %v", err)
		}
		if got.Balance != 6000 {
			t.Errorf("balance changed to %d after refused debit", got.Balance)
		}
	})

	t.Run("exact balance drains to zero", func(t *testing.T) {
		if err := DebitAccount(db, account.CompanyAccountID, 6000); err != nil {
			t.Fatalf("DebitAccount: %v", err)
		}
		got, err := GetAccountByID(db, account.CompanyAccountID)
		if err != nil {
			t.Fatalf("GetAccountByID: %v", err)
		}
		if got.Balance != 0 {
			t.Errorf("balance = %d, want 0", got.Balance)
		}
	})

	t.Run("missing account", func(t *testing.T) {
		if err := DebitAccount(db, "missing", 1); !errors.Is(err, ErrAccountNotFound) {
			t.Errorf("error = %v, want ErrAccountNotFound", err)
		}
	})
}

func TestCreditAccount(t *testing.T) {
	db := newTestDB(t)
	account := seedAccount(t, db, 100)

	if err := CreditAccount(db, account.CompanyAccountID, 900); err != nil {
		t.Fatalf("CreditAccount: %v", err)
	}
	got, err := GetAccountByID(db, account.CompanyAccountID)
	if err != nil {
		t.Fatalf("GetAccountByID: %v", err)
	}
	if got.Balance != 1000 {
		t.Errorf("balance = %d, want 1000", got.Balance)
	}

	if err := CreditAccount(db, "missing", 1); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("error = %v, want ErrAccountNotFound", err)
	}
}

func TestRechargeApprovalFlow(t *testing.T) {
	db := newTestDB(t)
	account := seedAccount(t, db, 500)

	if err := RecordRechargeRequest(db, models.AccountRechargeRequest{
		CompanyAccountID: account.CompanyAccountID,
		RechargeName:     "Ana",
		RechargePhone:    "912000000",
		RechargeAmount:   2000,
	}); err != nil {
		t.Fatalf("RecordRechargeRequest: %v", err)
	}

	got, err := GetAccountByID(db, account.CompanyAccountID)
	if err != nil {
		t.Fatalf("GetAccountByID: %v", err)
	}
	if got.RechargeStatus != models.RechargeUnderReview {
		t.Fatalf("recharge status = %q, want %q", got.RechargeStatus, models.RechargeUnderReview)
	}
	if got.Balance != 500 {
		t.Errorf("balance moved to %d on request alone", got.Balance)
	}

	// The approver verified a different figure bank-side.
	if err := SetReceivedAmount(db, account.CompanyAccountID, 1800); err != nil {
		t.Fatalf("SetReceivedAmount: %v", err)
	}
	if err := ApproveRecharge(db, account.CompanyAccountID); err != nil {
		t.Fatalf("ApproveRecharge: %v", err)
	}

	got, err = GetAccountByID(db, account.CompanyAccountID)
	if err != nil {
		t.Fatalf("GetAccountByID: %v", err)
	}
	if got.RechargeStatus != models.RechargeApproved {
		t.Errorf("recharge status = %q, want %q", got.RechargeStatus, models.RechargeApproved)
	}
	if got.Balance != 2300 {
		t.Errorf("balance = %d, want 2300 (received amount credited, not requested)", got.Balance)
	}

	// A second approval finds no UNDER_REVIEW row and credits nothing.
	if err := ApproveRecharge(db, account.CompanyAccountID); err != nil {
		t.Fatalf("second ApproveRecharge: %v", err)
	}
	got, err = GetAccountByID(db, account.CompanyAccountID)
	if err != nil {
		t.Fatalf("GetAccountByID: %v", err)
	}
	if got.Balance != 2300 {
		t.Errorf("balance = %d after repeated approval, want 2300", got.Balance)
	}
}

func TestUpdateBalanceWarning(t *testing.T) {
	db := newTestDB(t)
	account := seedAccount(t, db, 0)

	if err := UpdateBalanceWarning(db, models.BalanceWarningUpdateRequest{
		CompanyAccountID: account.CompanyAccountID,
		WarningVal:       5000,
		WarningPhone:     "912111222",
		WarningEnable:    true,
	}); err != nil {
		t.Fatalf("UpdateBalanceWarning: %v", err)
	}

	got, err := GetAccountByID(db, account.CompanyAccountID)
	if err != nil {
		t.Fatalf("GetAccountByID: %v", err)
	}
	if !got.WarningEnable || got.WarningVal != 5000 || got.WarningPhone != "912111222" {
		t.Errorf("warning config = enable=%v val=%d phone=%q", got.WarningEnable, got.WarningVal, got.WarningPhone)
	}
}

func TestCreditDriverAccount(t *testing.T) {
	db := newTestDB(t)

	driver := &models.DriverAccount{DriverName: "Rui", DriverPhone: "913000000"}
	if err := InsertDriverAccount(db, driver); err != nil {
		t.Fatalf("InsertDriverAccount: %v", err)
	}

	if err := CreditDriverAccount(db, driver.DriverAccountID, 7500); err != nil {
		t.Fatalf("CreditDriverAccount: %v", err)
	}
	got, err := GetDriverAccountByID(db, driver.DriverAccountID)
	if err != nil {
		t.Fatalf("GetDriverAccountByID: %v", err)
	}
	if got.Balance != 7500 {
		t.Errorf("balance = %d, want 7500", got.Balance)
	}

	if err := CreditDriverAccount(db, "missing", 1); !errors.Is(err, ErrDriverNotFound) {
		t.Errorf("error = %v, want ErrDriverNotFound", err)
	}
}
