package models

import "time"

// Fee is one shipment expense claim. All monetary fields are integer
// minor currency units (cents); floating point never touches money.
type Fee struct {
	FeeID     string    `json:"fee_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PathID  string `json:"path_id"`  // waybill number
	OrderID string `json:"order_id"` // commercial order number
	Status  string `json:"status"`

	TotalPrice int64 `json:"total_price"`
	DriverFee  int64 `json:"driver_fee"`
	HighwayFee int64 `json:"highway_fee"`
	ParkingFee int64 `json:"parking_fee"`
	CarryFee   int64 `json:"carry_fee"`
	WaitFee    int64 `json:"wait_fee"`

	// The driver's original ask, kept so the platform-approved amounts
	// above can be shown against it after a bill reject.
	ExpectHighwayFee int64 `json:"expect_highway_fee"`
	ExpectParkingFee int64 `json:"expect_parking_fee"`
	ExpectCarryFee   int64 `json:"expect_carry_fee"`
	ExpectWaitFee    int64 `json:"expect_wait_fee"`

	RejectHighwayFee int64 `json:"reject_highway_fee"`
	RejectParkingFee int64 `json:"reject_parking_fee"`

	BillRejectReason    string `json:"bill_reject_reason,omitempty"`
	ReceiptRejectReason string `json:"receipt_reject_reason,omitempty"`

	HighwayBillImgs string `json:"highway_bill_imgs,omitempty"`
	ParkingBillImgs string `json:"parking_bill_imgs,omitempty"`
	ReceiptImgs     string `json:"receipt_imgs,omitempty"`

	DispatchChannel   string `json:"dispatch_channel,omitempty"`
	LogisticsPlatform string `json:"logistics_platform,omitempty"`

	CompanyID       string `json:"company_id,omitempty"`
	DriverAccountID string `json:"driver_account_id,omitempty"`

	// Set by the client's request-settlement action; a pure gate flag,
	// never a money movement on its own.
	SettlementEnable bool `json:"settlement_enable"`

	OrderTime time.Time `json:"order_time"`
}

// TransferAmount is the total moved from the company account to the
// driver account when the fee is paid.
func (f *Fee) TransferAmount() int64 {
	return f.TotalPrice + f.CarryFee + f.WaitFee + f.HighwayFee + f.ParkingFee
}

// FeeFilter describes a paged query over fee records. The fields the
// handler already validated arrive here as-is.
type FeeFilter struct {
	Page int
	Size int

	// Status accepts the client-facing alias; the store translates it
	// before querying. Empty means the caller's default scope.
	Status string

	// DefaultStatuses is the stored-status scope applied when Status is
	// empty. Nil means no status constraint at all.
	DefaultStatuses []string

	DispatchChannel string
	PathID          string // substring match
	OrderID         string // substring match

	StartTime *time.Time
	EndTime   *time.Time

	// OrderByCreatedAt switches sorting (and the time-range column) from
	// order_time to created_at.
	OrderByCreatedAt bool
}

// PaginatedFees is the paged query envelope shared by the driver and
// client list endpoints.
type PaginatedFees struct {
	Items      []Fee `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int64 `json:"total_pages"`
}

type DriverSubmitRequest struct {
	DriverID        string `json:"driver_id"`
	OrderID         string `json:"order_id"`
	PathID          string `json:"path_id"`
	HighwayFee      int64  `json:"highway_fee"`
	ParkingFee      int64  `json:"parking_fee"`
	CarryFee        int64  `json:"carry_fee"`
	WaitFee         int64  `json:"wait_fee"`
	HighwayBillImgs string `json:"highway_bill_imgs,omitempty"`
	ParkingBillImgs string `json:"parking_bill_imgs,omitempty"`
}

type DriverConfirmRequest struct {
	DriverID string `json:"driver_id"`
	OrderID  string `json:"order_id"`
	PathID   string `json:"path_id"`
}

// DriverFeeResponse mirrors what the driver sees when fetching a claim:
// the approved amounts next to the originally expected ones.
type DriverFeeResponse struct {
	HighwayFee       int64  `json:"highway_fee"`
	ParkingFee       int64  `json:"parking_fee"`
	CarryFee         int64  `json:"carry_fee"`
	WaitFee          int64  `json:"wait_fee"`
	HighwayBillImgs  string `json:"highway_bill_imgs"`
	ParkingBillImgs  string `json:"parking_bill_imgs"`
	ExpectHighwayFee int64  `json:"expect_highway_fee"`
	ExpectParkingFee int64  `json:"expect_parking_fee"`
	ExpectCarryFee   int64  `json:"expect_carry_fee"`
	ExpectWaitFee    int64  `json:"expect_wait_fee"`
}

// Reject flavors. Bill rejects adjust amounts; receipt rejects only
// record a reason.
const (
	RejectTypeBill    = "bill"
	RejectTypeReceipt = "receipt"
)

type FeeRejectRequest struct {
	FeeID            string `json:"fee_id"`
	RejectType       string `json:"reject_type"`
	RejectReason     string `json:"reject_reason"`
	RejectHighwayFee *int64 `json:"reject_highway_fee,omitempty"`
	RejectParkingFee *int64 `json:"reject_parking_fee,omitempty"`
}

type FeeSettlementRequest struct {
	FeeID string `json:"fee_id"`
}

// FeePayRequest resolves the record either by fee_id or by the
// (order_id, path_id) pair.
type FeePayRequest struct {
	FeeID   string `json:"fee_id,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	PathID  string `json:"path_id,omitempty"`
}

// PayResult reports the completed transfer.
type PayResult struct {
	FeeID          string `json:"fee_id"`
	Status         string `json:"status"`
	Amount         int64  `json:"amount"`
	CompanyBalance int64  `json:"company_account_balance"`
	DriverBalance  int64  `json:"driver_account_balance"`
}
