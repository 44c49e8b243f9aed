package models

// Fee settlement states as stored in the database. The driver-facing
// vocabulary calls the open state "pending payment"; the client-facing
// vocabulary calls the very same state "pending settlement". Only
// StatusPendingPayment is ever stored; the alias exists purely at the
// query/response boundary.
const (
	StatusAppealing         = "APPEALING"
	StatusPendingPayment    = "PENDING_PAYMENT"
	StatusPendingSettlement = "PENDING_SETTLEMENT"
	StatusSettled           = "SETTLED"
)

// Recharge review states for a company account.
const (
	RechargeUnderReview = "UNDER_REVIEW"
	RechargeApproved    = "APPROVED"
)

// StoredStatus maps an externally supplied status filter to the value
// actually stored in the fees table.
func StoredStatus(status string) string {
	if status == StatusPendingSettlement {
		return StatusPendingPayment
	}
	return status
}

// DisplayStatus maps a stored status to the client-facing vocabulary.
func DisplayStatus(status string) string {
	if status == StatusPendingPayment {
		return StatusPendingSettlement
	}
	return status
}

// ValidStatus reports whether status is one of the stored states or the
// client-facing alias.
func ValidStatus(status string) bool {
	switch status {
	case StatusAppealing, StatusPendingPayment, StatusPendingSettlement, StatusSettled:
		return true
	}
	return false
}
