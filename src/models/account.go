package models

import "time"

// Account is a client company's prepaid account. Balance is integer
// minor units and may never go negative: debits that would cross zero
// are rejected outright.
type Account struct {
	CompanyAccountID string    `json:"company_account_id"`
	CompanyID        string    `json:"company_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	BalanceUpdatedAt time.Time `json:"company_account_updatetime"`

	Balance int64 `json:"company_account_balance"`

	// Balance-warning configuration, orthogonal to settlement.
	WarningVal    int64  `json:"company_account_balance_warning_val"`
	WarningPhone  string `json:"company_account_balance_warning_phone,omitempty"`
	WarningEnable bool   `json:"company_account_balance_warning_enable"`

	// Recharge review sub-state. RechargeAmount is what the company
	// asked to add; ReceivedAmount is what actually arrived bank-side
	// and is the figure credited on approval.
	RechargeStatus string     `json:"recharge_status"`
	RechargeTime   *time.Time `json:"recharge_time,omitempty"`
	RechargeName   string     `json:"recharge_name,omitempty"`
	RechargePhone  string     `json:"recharge_phone,omitempty"`
	RechargeAmount int64      `json:"recharge_amount"`
	ReceivedAmount int64      `json:"received_amount"`
}

// DriverAccount holds a driver's balance; within settlement it only
// grows, via payouts.
type DriverAccount struct {
	DriverAccountID string    `json:"driver_account_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	DriverName      string    `json:"driver_name"`
	DriverPhone     string    `json:"driver_phone"`
	Balance         int64     `json:"driver_account_balance"`
}

type PaginatedAccounts struct {
	Items      []Account `json:"items"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Size       int       `json:"size"`
	TotalPages int64     `json:"total_pages"`
}

type AccountRechargeRequest struct {
	CompanyAccountID string `json:"company_account_id"`
	RechargeName     string `json:"recharge_name"`
	RechargePhone    string `json:"recharge_phone"`
	RechargeAmount   int64  `json:"recharge_amount"`
}

type BalanceWarningUpdateRequest struct {
	CompanyAccountID string `json:"company_account_id"`
	WarningVal       int64  `json:"company_account_balance_warning_val"`
	WarningPhone     string `json:"company_account_balance_warning_phone"`
	WarningEnable    bool   `json:"company_account_balance_warning_enable"`
}
