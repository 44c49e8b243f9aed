package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/freightpay/backend/src/config"
	"github.com/username/freightpay/backend/src/logger"
	"github.com/username/freightpay/backend/src/model"
	"github.com/username/freightpay/backend/src/models"
	"github.com/username/freightpay/backend/src/notify"
)

const (
	ckOrderDetail = "detail_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// SettlementService is the state machine governing how a fee claim
// moves through review states and how money moves from a client
// account to a driver account.
type SettlementService interface {
	SubmitFee(req models.DriverSubmitRequest) (*models.Fee, error)
	GetDriverFee(orderID, pathID string) (*models.DriverFeeResponse, error)
	ConfirmFee(req models.DriverConfirmRequest) error
	RejectFee(req models.FeeRejectRequest) (*models.Fee, error)
	RequestSettlement(feeID string) (*models.Fee, error)
	Pay(req models.FeePayRequest) (*models.PayResult, error)
	ListDriverFees(filter models.FeeFilter) (*models.PaginatedFees, error)
	ListSettlements(filter models.FeeFilter) (*models.PaginatedFees, error)
	OrderDetail(orderID, pathID string) (map[string]any, error)
}

type settlementServiceImpl struct {
	db          *sql.DB
	hub         *notify.Hub
	reportCache *cache.Cache
	alerts      BalanceAlertService
}

func NewSettlementService(db *sql.DB, hub *notify.Hub, reportCache *cache.Cache, alerts BalanceAlertService) SettlementService {
	return &settlementServiceImpl{
		db:          db,
		hub:         hub,
		reportCache: reportCache,
		alerts:      alerts,
	}
}

// SubmitFee creates the claim from the driver's ask. The four fee
// amounts are part of the validation contract: each must be present
// and non-zero.
func (s *settlementServiceImpl) SubmitFee(req models.DriverSubmitRequest) (*models.Fee, error) {
	if req.DriverID == "" || req.OrderID == "" || req.PathID == "" {
		return nil, fmt.Errorf("%w: driver_id, order_id and path_id are required", ErrInvalidArgument)
	}
	if req.HighwayFee == 0 || req.ParkingFee == 0 || req.CarryFee == 0 || req.WaitFee == 0 {
		return nil, fmt.Errorf("%w: all fee amounts are required", ErrInvalidArgument)
	}

	now := time.Now().UTC()
	fee := &models.Fee{
		PathID:  req.PathID,
		OrderID: req.OrderID,
		Status:  models.StatusPendingPayment,

		HighwayFee: req.HighwayFee,
		ParkingFee: req.ParkingFee,
		CarryFee:   req.CarryFee,
		WaitFee:    req.WaitFee,

		// The submitted ask is frozen so later reject deductions can be
		// shown against it.
		ExpectHighwayFee: req.HighwayFee,
		ExpectParkingFee: req.ParkingFee,
		ExpectCarryFee:   req.CarryFee,
		ExpectWaitFee:    req.WaitFee,

		HighwayBillImgs: req.HighwayBillImgs,
		ParkingBillImgs: req.ParkingBillImgs,
		DriverAccountID: req.DriverID,
		OrderTime:       now,
	}

	if err := model.InsertFee(s.db, fee); err != nil {
		return nil, err
	}
	s.invalidate(fee)

	// The submitter already knows; everyone else gets told.
	s.hub.BroadcastExcept(notify.RoleDriver, notify.Event{
		"type": "fee_submitted",
		"data": map[string]any{
			"driver_id":         req.DriverID,
			"order_id":          req.OrderID,
			"path_id":           req.PathID,
			"highway_fee":       req.HighwayFee,
			"parking_fee":       req.ParkingFee,
			"carry_fee":         req.CarryFee,
			"wait_fee":          req.WaitFee,
			"highway_bill_imgs": req.HighwayBillImgs,
			"parking_bill_imgs": req.ParkingBillImgs,
			"submit_time":       now.Format(time.RFC3339),
		},
	})

	logger.L.Info("Fee claim submitted", "feeID", fee.FeeID, "orderID", req.OrderID, "pathID", req.PathID)
	return fee, nil
}

func (s *settlementServiceImpl) GetDriverFee(orderID, pathID string) (*models.DriverFeeResponse, error) {
	fee, err := model.GetFeeByOrderAndPath(s.db, orderID, pathID)
	if err != nil {
		return nil, err
	}
	return &models.DriverFeeResponse{
		HighwayFee:       fee.HighwayFee,
		ParkingFee:       fee.ParkingFee,
		CarryFee:         fee.CarryFee,
		WaitFee:          fee.WaitFee,
		HighwayBillImgs:  fee.HighwayBillImgs,
		ParkingBillImgs:  fee.ParkingBillImgs,
		ExpectHighwayFee: fee.ExpectHighwayFee,
		ExpectParkingFee: fee.ExpectParkingFee,
		ExpectCarryFee:   fee.ExpectCarryFee,
		ExpectWaitFee:    fee.ExpectWaitFee,
	}, nil
}

// ConfirmFee is a no-value-transfer acknowledgement: it re-asserts
// PENDING_PAYMENT and moves no money. Confirming twice is harmless.
func (s *settlementServiceImpl) ConfirmFee(req models.DriverConfirmRequest) error {
	if req.DriverID == "" || req.OrderID == "" || req.PathID == "" {
		return fmt.Errorf("%w: driver_id, order_id and path_id are required", ErrInvalidArgument)
	}

	fee, err := model.GetFeeByOrderAndPath(s.db, req.OrderID, req.PathID)
	if err != nil {
		return err
	}
	if err := model.UpdateFeeStatus(s.db, fee.FeeID, models.StatusPendingPayment); err != nil {
		return err
	}
	s.invalidate(fee)

	s.hub.BroadcastExcept(notify.RoleDriver, notify.Event{
		"type": "fee_confirmed",
		"data": map[string]any{
			"driver_id":    req.DriverID,
			"order_id":     req.OrderID,
			"path_id":      req.PathID,
			"confirm_time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	return nil
}

// RejectFee handles both reject flavors. A bill reject deducts the
// supplied amounts from the highway/parking fees, clamped at zero; a
// receipt reject records the reason only. The record returns to
// APPEALING unless the legacy compatibility switch is on, in which
// case it settles as the historical system did.
func (s *settlementServiceImpl) RejectFee(req models.FeeRejectRequest) (*models.Fee, error) {
	if req.RejectType != models.RejectTypeBill && req.RejectType != models.RejectTypeReceipt {
		return nil, fmt.Errorf("%w: unknown reject_type %q", ErrInvalidArgument, req.RejectType)
	}
	if req.RejectReason == "" {
		return nil, fmt.Errorf("%w: reject_reason is required", ErrInvalidArgument)
	}

	fee, err := model.GetFeeByID(s.db, req.FeeID)
	if err != nil {
		return nil, err
	}
	if fee.Status != models.StatusPendingPayment && fee.Status != models.StatusAppealing {
		return nil, fmt.Errorf("%w: cannot reject fee in status %s", ErrInvalidState, fee.Status)
	}

	if req.RejectType == models.RejectTypeBill {
		fee.BillRejectReason = req.RejectReason
		if req.RejectHighwayFee != nil {
			fee.RejectHighwayFee = *req.RejectHighwayFee
			fee.HighwayFee = max(0, fee.HighwayFee-*req.RejectHighwayFee)
		}
		if req.RejectParkingFee != nil {
			fee.RejectParkingFee = *req.RejectParkingFee
			fee.ParkingFee = max(0, fee.ParkingFee-*req.RejectParkingFee)
		}
	} else {
		fee.ReceiptRejectReason = req.RejectReason
	}

	if config.Cfg != nil && config.Cfg.LegacyRejectSettles {
		fee.Status = models.StatusSettled
	} else {
		fee.Status = models.StatusAppealing
	}

	if err := model.UpdateFeeReject(s.db, fee); err != nil {
		return nil, err
	}
	s.invalidate(fee)

	// The deduction keys are always on the wire; absent deductions ride
	// as null.
	event := notify.Event{
		"type":               "reject_fee",
		"fee_id":             fee.FeeID,
		"status":             fee.Status,
		"reject_reason":      req.RejectReason,
		"reject_highway_fee": nil,
		"reject_parking_fee": nil,
	}
	if req.RejectHighwayFee != nil {
		event["reject_highway_fee"] = *req.RejectHighwayFee
	}
	if req.RejectParkingFee != nil {
		event["reject_parking_fee"] = *req.RejectParkingFee
	}
	s.hub.Broadcast(notify.RoleDriver, event)

	logger.L.Info("Fee claim rejected", "feeID", fee.FeeID, "rejectType", req.RejectType, "newStatus", fee.Status)
	return fee, nil
}

// RequestSettlement flips the settlement gate. It deliberately moves
// no money and leaves the status alone; the transfer happens when the
// platform side follows up with Pay.
func (s *settlementServiceImpl) RequestSettlement(feeID string) (*models.Fee, error) {
	fee, err := model.GetFeeByID(s.db, feeID)
	if err != nil {
		return nil, err
	}
	if err := model.SetSettlementEnable(s.db, feeID, true); err != nil {
		return nil, err
	}
	fee.SettlementEnable = true
	s.invalidate(fee)

	s.hub.Broadcast(notify.RolePlatform, notify.Event{
		"type":   "pay_fee",
		"fee_id": fee.FeeID,
		"status": fee.Status,
	})
	return fee, nil
}

// Pay executes the transfer: debit the company account, credit the
// driver account and settle the record, all inside one transaction.
// SETTLED is terminal for Pay; a second call on the same claim fails
// before any balance is touched.
func (s *settlementServiceImpl) Pay(req models.FeePayRequest) (*models.PayResult, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning payment transaction: %w", err)
	}
	defer tx.Rollback()

	var fee *models.Fee
	if req.FeeID != "" {
		fee, err = model.GetFeeByID(tx, req.FeeID)
	} else {
		fee, err = model.GetFeeByOrderAndPath(tx, req.OrderID, req.PathID)
	}
	if err != nil {
		return nil, err
	}

	if fee.Status == models.StatusSettled {
		return nil, fmt.Errorf("%w: fee %s is already settled", ErrInvalidState, fee.FeeID)
	}
	if fee.CompanyID == "" {
		return nil, fmt.Errorf("%w: fee %s has no payer bound", model.ErrAccountNotFound, fee.FeeID)
	}
	if fee.DriverAccountID == "" {
		return nil, fmt.Errorf("%w: fee %s has no payee bound", model.ErrDriverNotFound, fee.FeeID)
	}

	account, err := model.GetAccountByCompanyID(tx, fee.CompanyID)
	if err != nil {
		return nil, err
	}

	amount := fee.TransferAmount()
	if err := model.DebitAccount(tx, account.CompanyAccountID, amount); err != nil {
		return nil, err
	}
	if err := model.CreditDriverAccount(tx, fee.DriverAccountID, amount); err != nil {
		return nil, err
	}
	if err := model.MarkFeeSettled(tx, fee.FeeID); err != nil {
		if errors.Is(err, model.ErrFeeSettled) {
			// A concurrent payment won the race after our status read.
			return nil, fmt.Errorf("%w: fee %s is already settled", ErrInvalidState, fee.FeeID)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing payment transaction: %w", err)
	}
	s.invalidate(fee)

	s.hub.Broadcast(notify.RoleDriver, notify.Event{
		"type":              "fee_paid",
		"fee_id":            fee.FeeID,
		"status":            models.StatusSettled,
		"amount":            amount,
		"driver_account_id": fee.DriverAccountID,
	})

	logger.L.Info("Fee claim paid", "feeID", fee.FeeID, "amount", amount,
		"companyAccountID", account.CompanyAccountID, "driverAccountID", fee.DriverAccountID)

	result := &models.PayResult{
		FeeID:          fee.FeeID,
		Status:         models.StatusSettled,
		Amount:         amount,
		CompanyBalance: account.Balance - amount,
		DriverBalance:  0,
	}
	if driver, err := model.GetDriverAccountByID(s.db, fee.DriverAccountID); err == nil {
		result.DriverBalance = driver.Balance
	}

	s.checkBalanceWarning(account.CompanyAccountID)
	return result, nil
}

// checkBalanceWarning fires the low-balance alert after a debit.
// Fire-and-forget: a failed alert never surfaces to the payer.
func (s *settlementServiceImpl) checkBalanceWarning(accountID string) {
	account, err := model.GetAccountByID(s.db, accountID)
	if err != nil {
		logger.L.Error("Error re-reading account for balance warning", "accountID", accountID, "error", err)
		return
	}
	if !account.WarningEnable || account.Balance >= account.WarningVal {
		return
	}
	if err := s.alerts.SendLowBalanceAlert(account); err != nil {
		logger.L.Error("Error sending low balance alert", "accountID", accountID, "error", err)
	}
}

func (s *settlementServiceImpl) ListDriverFees(filter models.FeeFilter) (*models.PaginatedFees, error) {
	filter.OrderByCreatedAt = true
	return s.listFees(filter)
}

// ListSettlements is the client-facing list: unfiltered it scopes to
// the open and settled states, and statuses are translated through the
// PendingSettlement alias both ways.
func (s *settlementServiceImpl) ListSettlements(filter models.FeeFilter) (*models.PaginatedFees, error) {
	if filter.Status != "" && !models.ValidStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, filter.Status)
	}
	filter.DefaultStatuses = []string{models.StatusPendingPayment, models.StatusSettled}

	page, err := s.listFees(filter)
	if err != nil {
		return nil, err
	}
	for i := range page.Items {
		page.Items[i].Status = models.DisplayStatus(page.Items[i].Status)
	}
	return page, nil
}

func (s *settlementServiceImpl) listFees(filter models.FeeFilter) (*models.PaginatedFees, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Size < 1 {
		filter.Size = 10
	}

	fees, total, err := model.ListFees(s.db, filter)
	if err != nil {
		return nil, err
	}
	if fees == nil {
		fees = []models.Fee{}
	}

	return &models.PaginatedFees{
		Items:      fees,
		Total:      total,
		Page:       filter.Page,
		Size:       filter.Size,
		TotalPages: (total + int64(filter.Size) - 1) / int64(filter.Size),
	}, nil
}

// OrderDetail joins the fee record with the trip facts and driver
// info for the settlement detail view. Results are cached; any state
// transition on the fee invalidates them.
func (s *settlementServiceImpl) OrderDetail(orderID, pathID string) (map[string]any, error) {
	if orderID == "" && pathID == "" {
		return nil, fmt.Errorf("%w: order_id or path_id is required", ErrInvalidArgument)
	}

	var fee *models.Fee
	var err error
	if orderID != "" {
		fee, err = s.feeByOrderID(orderID)
	} else {
		fee, err = s.feeByPathID(pathID)
	}
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf(ckOrderDetail, fee.FeeID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for order detail", "feeID", fee.FeeID)
		return cached.(map[string]any), nil
	}

	detail, err := model.GetOrderDetail(s.db, fee.OrderID)
	if err != nil {
		return nil, err
	}

	response := map[string]any{
		"path_id":            fee.PathID,
		"order_id":           fee.OrderID,
		"status":             models.DisplayStatus(fee.Status),
		"order_time":         fee.OrderTime.Format(time.RFC3339),
		"logistics_platform": fee.LogisticsPlatform,
		"receipt_imgs":       fee.ReceiptImgs,
		"parking_bill_imgs":  fee.ParkingBillImgs,
		"highway_bill_imgs":  fee.HighwayBillImgs,
		"total_price":        fee.TotalPrice,
		"highway_fee":        fee.HighwayFee,
		"parking_fee":        fee.ParkingFee,
		"carry_fee":          fee.CarryFee,
		"wait_fee":           fee.WaitFee,
	}

	if detail != nil {
		response["car_plate"] = detail.CarPlate
		response["loading_addr"] = detail.LoadingAddr
		response["sender_name"] = detail.SenderName
		response["sender_phone"] = detail.SenderPhone
		response["unloading_addr"] = detail.UnloadingAddr
		response["receiver_name"] = detail.ReceiverName
		response["receiver_phone"] = detail.ReceiverPhone
		response["goods_volume"] = detail.GoodsVolume
		response["goods_num"] = detail.GoodsNum
		response["goods_weight"] = detail.GoodsWeight
		response["demand_car_type"] = detail.DemandCarType
		response["is_carpool"] = detail.IsCarpool
		response["need_carry"] = detail.NeedCarry
		response["other_loading_demand"] = detail.OtherLoadingDemand
		response["total_distance"] = detail.TotalDistance
		response["loading_goods_imgs"] = detail.LoadingGoodsImgs
		response["loading_car_imgs"] = detail.LoadingCarImgs
		response["unloading_goods_imgs"] = detail.UnloadingGoodsImgs
		response["unloading_car_imgs"] = detail.UnloadingCarImgs
		if detail.FinishTime != nil {
			response["finish_time"] = detail.FinishTime.Format(time.RFC3339)
		}
	}

	if fee.DriverAccountID != "" {
		if driver, err := model.GetDriverAccountByID(s.db, fee.DriverAccountID); err == nil {
			response["driver_name"] = driver.DriverName
			response["driver_phone"] = driver.DriverPhone
		}
	}

	s.reportCache.Set(cacheKey, response, DefaultCacheExpiration)
	return response, nil
}

func (s *settlementServiceImpl) feeByOrderID(orderID string) (*models.Fee, error) {
	return model.GetFeeByOrderID(s.db, orderID)
}

func (s *settlementServiceImpl) feeByPathID(pathID string) (*models.Fee, error) {
	return model.GetFeeByPathID(s.db, pathID)
}

func (s *settlementServiceImpl) invalidate(fee *models.Fee) {
	s.reportCache.Delete(fmt.Sprintf(ckOrderDetail, fee.FeeID))
}
