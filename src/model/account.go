package model

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/username/freightpay/backend/src/models"
)

const accountColumns = `company_account_id, company_id, created_at, updated_at,
	company_account_updatetime, company_account_balance,
	company_account_balance_warning_val, company_account_balance_warning_phone,
	company_account_balance_warning_enable, recharge_status, recharge_time,
	recharge_name, recharge_phone, recharge_amount, received_amount`

func scanAccount(row interface{ Scan(dest ...any) error }) (*models.Account, error) {
	var a models.Account
	var rechargeTime sql.NullTime
	err := row.Scan(
		&a.CompanyAccountID, &a.CompanyID, &a.CreatedAt, &a.UpdatedAt,
		&a.BalanceUpdatedAt, &a.Balance,
		&a.WarningVal, &a.WarningPhone,
		&a.WarningEnable, &a.RechargeStatus, &rechargeTime,
		&a.RechargeName, &a.RechargePhone, &a.RechargeAmount, &a.ReceivedAmount,
	)
	if err != nil {
		return nil, err
	}
	if rechargeTime.Valid {
		a.RechargeTime = &rechargeTime.Time
	}
	return &a, nil
}

// InsertAccount creates a company's prepaid account.
func InsertAccount(db DBTX, a *models.Account) error {
	now := time.Now().UTC()
	if a.CompanyAccountID == "" {
		a.CompanyAccountID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.BalanceUpdatedAt.IsZero() {
		a.BalanceUpdatedAt = now
	}
	if a.RechargeStatus == "" {
		a.RechargeStatus = models.RechargeUnderReview
	}

	query := `INSERT INTO company_accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var rechargeTime any
	if a.RechargeTime != nil {
		rechargeTime = *a.RechargeTime
	}
	_, err := db.Exec(query,
		a.CompanyAccountID, a.CompanyID, a.CreatedAt, a.UpdatedAt,
		a.BalanceUpdatedAt, a.Balance,
		a.WarningVal, a.WarningPhone,
		a.WarningEnable, a.RechargeStatus, rechargeTime,
		a.RechargeName, a.RechargePhone, a.RechargeAmount, a.ReceivedAmount,
	)
	if err != nil {
		return fmt.Errorf("error inserting company account: %w", err)
	}
	return nil
}

func GetAccountByID(db DBTX, accountID string) (*models.Account, error) {
	row := db.QueryRow(`SELECT `+accountColumns+` FROM company_accounts WHERE company_account_id = ?`, accountID)
	a, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("error fetching company account: %w", err)
	}
	return a, nil
}

func GetAccountByCompanyID(db DBTX, companyID string) (*models.Account, error) {
	row := db.QueryRow(`SELECT `+accountColumns+` FROM company_accounts WHERE company_id = ?`, companyID)
	a, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("error fetching company account: %w", err)
	}
	return a, nil
}

// DebitAccount subtracts amount from the account balance as one guarded
// statement: the WHERE clause refuses the mutation when it would drive
// the balance negative, so concurrent debits cannot interleave past the
// check.
func DebitAccount(db DBTX, accountID string, amount int64) error {
	now := time.Now().UTC()
	res, err := db.Exec(`UPDATE company_accounts
		SET company_account_balance = company_account_balance - ?,
			company_account_updatetime = ?, updated_at = ?
		WHERE company_account_id = ? AND company_account_balance >= ?`,
		amount, now, now, accountID, amount)
	if err != nil {
		return fmt.Errorf("error debiting company account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error debiting company account: %w", err)
	}
	if n == 0 {
		// Either the account is missing or the balance is short;
		// distinguish for the caller.
		if _, err := GetAccountByID(db, accountID); err != nil {
			return err
		}
		return ErrInsufficientBalance
	}
	return nil
}

// CreditAccount adds amount to the account balance.
func CreditAccount(db DBTX, accountID string, amount int64) error {
	now := time.Now().UTC()
	res, err := db.Exec(`UPDATE company_accounts
		SET company_account_balance = company_account_balance + ?,
			company_account_updatetime = ?, updated_at = ?
		WHERE company_account_id = ?`,
		amount, now, now, accountID)
	if err != nil {
		return fmt.Errorf("error crediting company account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// RecordRechargeRequest stores the pending recharge and moves the
// review sub-state to UNDER_REVIEW.
func RecordRechargeRequest(db DBTX, req models.AccountRechargeRequest) error {
	now := time.Now().UTC()
	res, err := db.Exec(`UPDATE company_accounts
		SET recharge_status = ?, recharge_time = ?, recharge_name = ?,
			recharge_phone = ?, recharge_amount = ?, updated_at = ?
		WHERE company_account_id = ?`,
		models.RechargeUnderReview, now, req.RechargeName,
		req.RechargePhone, req.RechargeAmount, now, req.CompanyAccountID)
	if err != nil {
		return fmt.Errorf("error recording recharge request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ApproveRecharge credits the received amount and flips the sub-state
// to APPROVED, guarded on UNDER_REVIEW so double approval cannot credit
// twice.
func ApproveRecharge(db DBTX, accountID string) error {
	now := time.Now().UTC()
	res, err := db.Exec(`UPDATE company_accounts
		SET company_account_balance = company_account_balance + received_amount,
			recharge_status = ?, recharge_time = ?,
			company_account_updatetime = ?, updated_at = ?
		WHERE company_account_id = ? AND recharge_status = ?`,
		models.RechargeApproved, now, now, now, accountID, models.RechargeUnderReview)
	if err != nil {
		return fmt.Errorf("error approving recharge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error approving recharge: %w", err)
	}
	if n == 0 {
		return nil // caller re-checks state to report NotFound vs InvalidState
	}
	return nil
}

// SetReceivedAmount records the bank-side figure the approver verified.
func SetReceivedAmount(db DBTX, accountID string, amount int64) error {
	res, err := db.Exec(`UPDATE company_accounts SET received_amount = ?, updated_at = ? WHERE company_account_id = ?`,
		amount, time.Now().UTC(), accountID)
	if err != nil {
		return fmt.Errorf("error setting received amount: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// UpdateBalanceWarning stores the warning threshold configuration.
func UpdateBalanceWarning(db DBTX, req models.BalanceWarningUpdateRequest) error {
	now := time.Now().UTC()
	res, err := db.Exec(`UPDATE company_accounts
		SET company_account_balance_warning_val = ?,
			company_account_balance_warning_phone = ?,
			company_account_balance_warning_enable = ?,
			company_account_updatetime = ?, updated_at = ?
		WHERE company_account_id = ?`,
		req.WarningVal, req.WarningPhone, req.WarningEnable,
		now, now, req.CompanyAccountID)
	if err != nil {
		return fmt.Errorf("error updating balance warning settings: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ListAccounts returns one page of accounts, newest first.
func ListAccounts(db DBTX, page, size int) ([]models.Account, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}

	var total int64
	if err := db.QueryRow(`SELECT COUNT(company_account_id) FROM company_accounts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting company accounts: %w", err)
	}

	rows, err := db.Query(`SELECT `+accountColumns+` FROM company_accounts ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("error fetching company accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning company account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating over company accounts: %w", err)
	}

	return accounts, total, nil
}
