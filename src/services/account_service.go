// backend/src/services/account_service.go
package services

import (
	"database/sql"
	"fmt"

	"github.com/username/freightpay/backend/src/logger"
	"github.com/username/freightpay/backend/src/model"
	"github.com/username/freightpay/backend/src/models"
)

// AccountService covers the prepaid-account side of the system: the
// recharge review flow, the balance warning configuration, and the
// account listings the client console paginates through.
type AccountService interface {
	GetAccount(accountID string) (*models.Account, error)
	Recharge(req models.AccountRechargeRequest) (*models.Account, error)
	ApproveRecharge(accountID string, receivedAmount int64) (*models.Account, error)
	UpdateBalanceWarning(req models.BalanceWarningUpdateRequest) (*models.Account, error)
	ListAccounts(page, size int) (*models.PaginatedAccounts, error)
}

type accountServiceImpl struct {
	db *sql.DB
}

func NewAccountService(db *sql.DB) AccountService {
	return &accountServiceImpl{db: db}
}

func (s *accountServiceImpl) GetAccount(accountID string) (*models.Account, error) {
	return model.GetAccountByID(s.db, accountID)
}

// Recharge files a recharge request for review. Money never moves here;
// the balance changes only when the platform approves.
func (s *accountServiceImpl) Recharge(req models.AccountRechargeRequest) (*models.Account, error) {
	if req.CompanyAccountID == "" {
		return nil, fmt.Errorf("%w: company_account_id is required", ErrInvalidArgument)
	}
	if req.RechargeAmount <= 0 {
		return nil, fmt.Errorf("%w: recharge_amount must be positive", ErrInvalidArgument)
	}

	if err := model.RecordRechargeRequest(s.db, req); err != nil {
		return nil, err
	}

	logger.L.Info("Recharge request recorded",
		"companyAccountID", req.CompanyAccountID,
		"amount", req.RechargeAmount)
	return model.GetAccountByID(s.db, req.CompanyAccountID)
}

// ApproveRecharge verifies the bank-side figure and credits it. The
// credit is guarded on the UNDER_REVIEW sub-state so a repeated approval
// cannot pay twice.
func (s *accountServiceImpl) ApproveRecharge(accountID string, receivedAmount int64) (*models.Account, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: company_account_id is required", ErrInvalidArgument)
	}
	if receivedAmount <= 0 {
		return nil, fmt.Errorf("%w: received_amount must be positive", ErrInvalidArgument)
	}

	account, err := model.GetAccountByID(s.db, accountID)
	if err != nil {
		return nil, err
	}
	if account.RechargeStatus != models.RechargeUnderReview {
		return nil, fmt.Errorf("%w: recharge is %s, expected %s",
			ErrInvalidState, account.RechargeStatus, models.RechargeUnderReview)
	}

	if err := model.SetReceivedAmount(s.db, accountID, receivedAmount); err != nil {
		return nil, err
	}
	if err := model.ApproveRecharge(s.db, accountID); err != nil {
		return nil, err
	}

	account, err = model.GetAccountByID(s.db, accountID)
	if err != nil {
		return nil, err
	}
	if account.RechargeStatus != models.RechargeApproved {
		// The guarded update lost a race with another approver.
		return nil, fmt.Errorf("%w: recharge is %s, expected %s",
			ErrInvalidState, account.RechargeStatus, models.RechargeUnderReview)
	}

	logger.L.Info("Recharge approved",
		"companyAccountID", accountID,
		"receivedAmount", receivedAmount,
		"balance", account.Balance)
	return account, nil
}

func (s *accountServiceImpl) UpdateBalanceWarning(req models.BalanceWarningUpdateRequest) (*models.Account, error) {
	if req.CompanyAccountID == "" {
		return nil, fmt.Errorf("%w: company_account_id is required", ErrInvalidArgument)
	}
	if req.WarningVal < 0 {
		return nil, fmt.Errorf("%w: warning threshold cannot be negative", ErrInvalidArgument)
	}

	if err := model.UpdateBalanceWarning(s.db, req); err != nil {
		return nil, err
	}
	return model.GetAccountByID(s.db, req.CompanyAccountID)
}

func (s *accountServiceImpl) ListAccounts(page, size int) (*models.PaginatedAccounts, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}

	accounts, total, err := model.ListAccounts(s.db, page, size)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.Account{}
	}

	return &models.PaginatedAccounts{
		Items:      accounts,
		Total:      total,
		Page:       page,
		Size:       size,
		TotalPages: (total + int64(size) - 1) / int64(size),
	}, nil
}
