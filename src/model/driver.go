package model

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/username/freightpay/backend/src/models"
)

const driverColumns = `driver_account_id, created_at, updated_at, driver_name, driver_phone, driver_account_balance`

func scanDriver(row interface{ Scan(dest ...any) error }) (*models.DriverAccount, error) {
	var d models.DriverAccount
	err := row.Scan(&d.DriverAccountID, &d.CreatedAt, &d.UpdatedAt, &d.DriverName, &d.DriverPhone, &d.Balance)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// InsertDriverAccount creates a driver's payout account.
func InsertDriverAccount(db DBTX, d *models.DriverAccount) error {
	now := time.Now().UTC()
	if d.DriverAccountID == "" {
		d.DriverAccountID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	_, err := db.Exec(`INSERT INTO driver_accounts (`+driverColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		d.DriverAccountID, d.CreatedAt, d.UpdatedAt, d.DriverName, d.DriverPhone, d.Balance)
	if err != nil {
		return fmt.Errorf("error inserting driver account: %w", err)
	}
	return nil
}

func GetDriverAccountByID(db DBTX, driverAccountID string) (*models.DriverAccount, error) {
	row := db.QueryRow(`SELECT `+driverColumns+` FROM driver_accounts WHERE driver_account_id = ?`, driverAccountID)
	d, err := scanDriver(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDriverNotFound
		}
		return nil, fmt.Errorf("error fetching driver account: %w", err)
	}
	return d, nil
}

// CreditDriverAccount adds a payout to the driver's balance.
func CreditDriverAccount(db DBTX, driverAccountID string, amount int64) error {
	res, err := db.Exec(`UPDATE driver_accounts
		SET driver_account_balance = driver_account_balance + ?, updated_at = ?
		WHERE driver_account_id = ?`,
		amount, time.Now().UTC(), driverAccountID)
	if err != nil {
		return fmt.Errorf("error crediting driver account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error crediting driver account: %w", err)
	}
	if n == 0 {
		return ErrDriverNotFound
	}
	return nil
}
