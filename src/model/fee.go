package model

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/freightpay/backend/src/models"
)

const feeColumns = `fee_id, created_at, updated_at, path_id, order_id, status,
	total_price, driver_fee, highway_fee, parking_fee, carry_fee, wait_fee,
	expect_highway_fee, expect_parking_fee, expect_carry_fee, expect_wait_fee,
	reject_highway_fee, reject_parking_fee, bill_reject_reason, receipt_reject_reason,
	highway_bill_imgs, parking_bill_imgs, receipt_imgs, dispatch_channel,
	logistics_platform, company_id, driver_account_id, settlement_enable, order_time`

func scanFee(row interface{ Scan(dest ...any) error }) (*models.Fee, error) {
	var f models.Fee
	err := row.Scan(
		&f.FeeID, &f.CreatedAt, &f.UpdatedAt, &f.PathID, &f.OrderID, &f.Status,
		&f.TotalPrice, &f.DriverFee, &f.HighwayFee, &f.ParkingFee, &f.CarryFee, &f.WaitFee,
		&f.ExpectHighwayFee, &f.ExpectParkingFee, &f.ExpectCarryFee, &f.ExpectWaitFee,
		&f.RejectHighwayFee, &f.RejectParkingFee, &f.BillRejectReason, &f.ReceiptRejectReason,
		&f.HighwayBillImgs, &f.ParkingBillImgs, &f.ReceiptImgs, &f.DispatchChannel,
		&f.LogisticsPlatform, &f.CompanyID, &f.DriverAccountID, &f.SettlementEnable, &f.OrderTime,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// InsertFee stores a new fee record, assigning the fee_id and
// timestamps if unset.
func InsertFee(db DBTX, f *models.Fee) error {
	now := time.Now().UTC()
	if f.FeeID == "" {
		f.FeeID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if f.Status == "" {
		f.Status = models.StatusPendingPayment
	}
	if f.OrderTime.IsZero() {
		f.OrderTime = now
	}

	query := `INSERT INTO fees (` + feeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.Exec(query,
		f.FeeID, f.CreatedAt, f.UpdatedAt, f.PathID, f.OrderID, f.Status,
		f.TotalPrice, f.DriverFee, f.HighwayFee, f.ParkingFee, f.CarryFee, f.WaitFee,
		f.ExpectHighwayFee, f.ExpectParkingFee, f.ExpectCarryFee, f.ExpectWaitFee,
		f.RejectHighwayFee, f.RejectParkingFee, f.BillRejectReason, f.ReceiptRejectReason,
		f.HighwayBillImgs, f.ParkingBillImgs, f.ReceiptImgs, f.DispatchChannel,
		f.LogisticsPlatform, f.CompanyID, f.DriverAccountID, f.SettlementEnable, f.OrderTime,
	)
	if err != nil {
		return fmt.Errorf("error inserting fee record: %w", err)
	}
	return nil
}

func GetFeeByID(db DBTX, feeID string) (*models.Fee, error) {
	row := db.QueryRow(`SELECT `+feeColumns+` FROM fees WHERE fee_id = ?`, feeID)
	f, err := scanFee(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrFeeNotFound
		}
		return nil, fmt.Errorf("error fetching fee record: %w", err)
	}
	return f, nil
}

// GetFeeByOrderAndPath returns the first open match for the pair; the
// combination is expected unique per open claim.
func GetFeeByOrderAndPath(db DBTX, orderID, pathID string) (*models.Fee, error) {
	row := db.QueryRow(`SELECT `+feeColumns+` FROM fees WHERE order_id = ? AND path_id = ? ORDER BY created_at DESC LIMIT 1`, orderID, pathID)
	f, err := scanFee(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrFeeNotFound
		}
		return nil, fmt.Errorf("error fetching fee record: %w", err)
	}
	return f, nil
}

// GetFeeByOrderID returns the newest record for an order number.
func GetFeeByOrderID(db DBTX, orderID string) (*models.Fee, error) {
	row := db.QueryRow(`SELECT `+feeColumns+` FROM fees WHERE order_id = ? ORDER BY created_at DESC LIMIT 1`, orderID)
	f, err := scanFee(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrFeeNotFound
		}
		return nil, fmt.Errorf("error fetching fee record: %w", err)
	}
	return f, nil
}

// GetFeeByPathID returns the newest record for a waybill number.
func GetFeeByPathID(db DBTX, pathID string) (*models.Fee, error) {
	row := db.QueryRow(`SELECT `+feeColumns+` FROM fees WHERE path_id = ? ORDER BY created_at DESC LIMIT 1`, pathID)
	f, err := scanFee(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrFeeNotFound
		}
		return nil, fmt.Errorf("error fetching fee record: %w", err)
	}
	return f, nil
}

// UpdateFeeStatus writes a new status and bumps updated_at.
func UpdateFeeStatus(db DBTX, feeID, status string) error {
	res, err := db.Exec(`UPDATE fees SET status = ?, updated_at = ? WHERE fee_id = ?`,
		status, time.Now().UTC(), feeID)
	if err != nil {
		return fmt.Errorf("error updating fee status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFeeNotFound
	}
	return nil
}

// UpdateFeeReject applies a reject decision: new amounts (already
// clamped by the caller), recorded deltas, reasons and the new status.
func UpdateFeeReject(db DBTX, f *models.Fee) error {
	f.UpdatedAt = time.Now().UTC()
	res, err := db.Exec(`UPDATE fees SET
		status = ?, highway_fee = ?, parking_fee = ?,
		reject_highway_fee = ?, reject_parking_fee = ?,
		bill_reject_reason = ?, receipt_reject_reason = ?, updated_at = ?
		WHERE fee_id = ?`,
		f.Status, f.HighwayFee, f.ParkingFee,
		f.RejectHighwayFee, f.RejectParkingFee,
		f.BillRejectReason, f.ReceiptRejectReason, f.UpdatedAt, f.FeeID)
	if err != nil {
		return fmt.Errorf("error updating fee reject fields: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFeeNotFound
	}
	return nil
}

// SetSettlementEnable flips the client's settlement-request gate.
func SetSettlementEnable(db DBTX, feeID string, enable bool) error {
	res, err := db.Exec(`UPDATE fees SET settlement_enable = ?, updated_at = ? WHERE fee_id = ?`,
		enable, time.Now().UTC(), feeID)
	if err != nil {
		return fmt.Errorf("error updating settlement gate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFeeNotFound
	}
	return nil
}

// MarkFeeSettled is the terminal transition for a paid fee. It only
// succeeds while the record is not yet settled, which is the guard
// against paying the same claim twice.
func MarkFeeSettled(db DBTX, feeID string) error {
	res, err := db.Exec(`UPDATE fees SET status = ?, updated_at = ? WHERE fee_id = ? AND status != ?`,
		models.StatusSettled, time.Now().UTC(), feeID, models.StatusSettled)
	if err != nil {
		return fmt.Errorf("error settling fee record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either the record is missing or a concurrent payment settled
		// it first; distinguish for the caller.
		fee, err := GetFeeByID(db, feeID)
		if err != nil {
			return err
		}
		if fee.Status == models.StatusSettled {
			return ErrFeeSettled
		}
		return fmt.Errorf("error settling fee record %s: no row updated", feeID)
	}
	return nil
}

// ListFees runs the paged filter query. Status aliasing
// (PENDING_SETTLEMENT storing as PENDING_PAYMENT) is applied on the
// way in; DisplayStatus is the caller's concern on the way out.
func ListFees(db DBTX, filter models.FeeFilter) ([]models.Fee, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Size < 1 {
		filter.Size = 10
	}

	var conds []string
	var args []any

	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, models.StoredStatus(filter.Status))
	} else if len(filter.DefaultStatuses) > 0 {
		placeholders := make([]string, len(filter.DefaultStatuses))
		for i, s := range filter.DefaultStatuses {
			placeholders[i] = "?"
			args = append(args, s)
		}
		conds = append(conds, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if s := strings.TrimSpace(filter.DispatchChannel); s != "" {
		conds = append(conds, "dispatch_channel = ?")
		args = append(args, s)
	}
	if s := strings.TrimSpace(filter.PathID); s != "" {
		conds = append(conds, "path_id LIKE ?")
		args = append(args, "%"+s+"%")
	}
	if s := strings.TrimSpace(filter.OrderID); s != "" {
		conds = append(conds, "order_id LIKE ?")
		args = append(args, "%"+s+"%")
	}

	timeColumn := "order_time"
	if filter.OrderByCreatedAt {
		timeColumn = "created_at"
	}
	if filter.StartTime != nil && filter.EndTime != nil {
		conds = append(conds, timeColumn+" >= ?", timeColumn+" <= ?")
		args = append(args, *filter.StartTime, *filter.EndTime)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := db.QueryRow(`SELECT COUNT(fee_id) FROM fees`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting fee records: %w", err)
	}

	offset := (filter.Page - 1) * filter.Size
	query := `SELECT ` + feeColumns + ` FROM fees` + where +
		` ORDER BY ` + timeColumn + ` DESC LIMIT ? OFFSET ?`
	rows, err := db.Query(query, append(args, filter.Size, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("error fetching fee records: %w", err)
	}
	defer rows.Close()

	var fees []models.Fee
	for rows.Next() {
		f, err := scanFee(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning fee record: %w", err)
		}
		fees = append(fees, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating over fee records: %w", err)
	}

	return fees, total, nil
}

// GetOrderDetail fetches the trip facts attached to an order, or nil
// when none were recorded.
func GetOrderDetail(db DBTX, orderID string) (*models.OrderDetail, error) {
	row := db.QueryRow(`SELECT order_id, finish_time, car_plate, loading_addr,
		sender_name, sender_phone, unloading_addr, receiver_name, receiver_phone,
		goods_volume, goods_num, goods_weight, demand_car_type, is_carpool,
		need_carry, other_loading_demand, total_distance, loading_goods_imgs,
		loading_car_imgs, unloading_goods_imgs, unloading_car_imgs
		FROM order_details WHERE order_id = ?`, orderID)

	var d models.OrderDetail
	var finishTime sql.NullTime
	err := row.Scan(&d.OrderID, &finishTime, &d.CarPlate, &d.LoadingAddr,
		&d.SenderName, &d.SenderPhone, &d.UnloadingAddr, &d.ReceiverName, &d.ReceiverPhone,
		&d.GoodsVolume, &d.GoodsNum, &d.GoodsWeight, &d.DemandCarType, &d.IsCarpool,
		&d.NeedCarry, &d.OtherLoadingDemand, &d.TotalDistance, &d.LoadingGoodsImgs,
		&d.LoadingCarImgs, &d.UnloadingGoodsImgs, &d.UnloadingCarImgs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching order detail: %w", err)
	}
	if finishTime.Valid {
		d.FinishTime = &finishTime.Time
	}
	return &d, nil
}
