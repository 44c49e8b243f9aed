package services

import (
	"errors"
	"testing"

	"github.com/username/freightpay/backend/src/config"
	"github.com/username/freightpay/backend/src/model"
	"github.com/username/freightpay/backend/src/models"
)

func submitRequest() models.DriverSubmitRequest {
	return models.DriverSubmitRequest{
		DriverID:   "drv-1",
		OrderID:    "ORD-1",
		PathID:     "WB-1",
		HighwayFee: 1200,
		ParkingFee: 300,
		CarryFee:   5000,
		WaitFee:    800,
	}
}

// seedPayableFee inserts a claim bound to a funded company account and
// an existing driver, ready for Pay.
func seedPayableFee(t *testing.T, env *testEnv, balance int64) (*models.Fee, *models.Account, *models.DriverAccount) {
	t.Helper()

	account := &models.Account{CompanyID: "cmp-1", Balance: balance, RechargeStatus: models.RechargeApproved}
	if err := model.InsertAccount(env.db, account); err != nil {
		t.Fatalf("InsertAccount: %v", err)
	}
	driver := &models.DriverAccount{DriverName: "Rui"}
	if err := model.InsertDriverAccount(env.db, driver); err != nil {
		t.Fatalf("InsertDriverAccount: %v", err)
	}
	fee := &models.Fee{
		OrderID:         "ORD-1",
		PathID:          "WB-1",
		TotalPrice:      10000,
		HighwayFee:      1200,
		ParkingFee:      300,
		CarryFee:        5000,
		WaitFee:         800,
		CompanyID:       "cmp-1",
		DriverAccountID: driver.DriverAccountID,
	}
	if err := model.InsertFee(env.db, fee); err != nil {
		t.Fatalf("InsertFee: %v", err)
	}
	return fee, account, driver
}

func TestSubmitFee(t *testing.T) {
	t.Run("missing identifiers", func(t *testing.T) {
		env := newTestEnv(t)
		req := submitRequest()
		req.OrderID = ""
		if _, err := env.service.SubmitFee(req); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("zero fee amount", func(t *testing.T) {
		env := newTestEnv(t)
		req := submitRequest()
		req.WaitFee = 0
		if _, err := env.service.SubmitFee(req); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("success freezes the ask and notifies reviewers", func(t *testing.T) {
		env := newTestEnv(t)
		fee, err := env.service.SubmitFee(submitRequest())
		if err != nil {
			t.Fatalf("SubmitFee: %v", err)
		}
		if fee.Status != models.StatusPendingPayment {
			t.Errorf("status = %q, want %q", fee.Status, models.StatusPendingPayment)
		}
		if fee.ExpectHighwayFee != 1200 || fee.ExpectWaitFee != 800 {
			t.Errorf("expected-fee mirror not set: %+v", fee)
		}

		if got := len(env.driver.received()); got != 0 {
			t.Errorf("driver received %d events, want 0", got)
		}
		for name, conn := range map[string]*fakeConn{"platform": env.platform, "client": env.client} {
			event := conn.lastEvent(t)
			if event["type"] != "fee_submitted" {
				t.Errorf("%s event type = %v, want fee_submitted", name, event["type"])
			}
		}
	})
}

func TestConfirmFee(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.service.SubmitFee(submitRequest()); err != nil {
		t.Fatalf("SubmitFee: %v", err)
	}

	req := models.DriverConfirmRequest{DriverID: "drv-1", OrderID: "ORD-1", PathID: "WB-1"}
	if err := env.service.ConfirmFee(req); err != nil {
		t.Fatalf("ConfirmFee: %v", err)
	}
	if event := env.client.lastEvent(t); event["type"] != "fee_confirmed" {
		t.Errorf("client event type = %v, want fee_confirmed", event["type"])
	}

	// Confirming again changes nothing and still succeeds.
	if err := env.service.ConfirmFee(req); err != nil {
		t.Errorf("repeated ConfirmFee: %v", err)
	}

	fee, err := model.GetFeeByOrderAndPath(env.db, "ORD-1", "WB-1")
	if err != nil {
		t.Fatalf("GetFeeByOrderAndPath: %v", err)
	}
	if fee.Status != models.StatusPendingPayment {
		t.Errorf("status = %q, want %q", fee.Status, models.StatusPendingPayment)
	}

	t.Run("unknown claim", func(t *testing.T) {
		err := env.service.ConfirmFee(models.DriverConfirmRequest{DriverID: "drv-1", OrderID: "ORD-x", PathID: "WB-x"})
		if !errors.Is(err, model.ErrFeeNotFound) {
			t.Errorf("error = %v, want ErrFeeNotFound", err)
		}
	})
}

func TestRejectFee(t *testing.T) {
	deduct := func(v int64) *int64 { return &v }

	t.Run("unknown reject type", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.service.RejectFee(models.FeeRejectRequest{FeeID: "x", RejectType: "invoice", RejectReason: "r"})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("missing reason", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.service.RejectFee(models.FeeRejectRequest{FeeID: "x", RejectType: models.RejectTypeBill})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("settled claim refuses reject", func(t *testing.T) {
		env := newTestEnv(t)
		fee, _, _ := seedPayableFee(t, env, 100000)
		if err := model.MarkFeeSettled(env.db, fee.FeeID); err != nil {
			t.Fatalf("MarkFeeSettled: %v", err)
		}
		_, err := env.service.RejectFee(models.FeeRejectRequest{
			FeeID: fee.FeeID, RejectType: models.RejectTypeBill, RejectReason: "late",
		})
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("error = %v, want ErrInvalidState", err)
		}
	})

	t.Run("bill reject deducts and clamps at zero", func(t *testing.T) {
		env := newTestEnv(t)
		fee, _, _ := seedPayableFee(t, env, 100000)

		got, err := env.service.RejectFee(models.FeeRejectRequest{
			FeeID:            fee.FeeID,
			RejectType:       models.RejectTypeBill,
			RejectReason:     "toll receipt illegible",
			RejectHighwayFee: deduct(500),
			RejectParkingFee: deduct(9999), // far above the 300 billed
		})
		if err != nil {
			t.Fatalf("RejectFee: %v", err)
		}
		if got.Status != models.StatusAppealing {
			t.Errorf("status = %q, want %q", got.Status, models.StatusAppealing)
		}
		if got.HighwayFee != 700 {
			t.Errorf("highway fee = %d, want 700", got.HighwayFee)
		}
		if got.ParkingFee != 0 {
			t.Errorf("parking fee = %d, want 0 (clamped)", got.ParkingFee)
		}
		if got.ExpectHighwayFee != fee.ExpectHighwayFee {
			t.Errorf("expected-fee mirror changed on reject")
		}

		event := env.driver.lastEvent(t)
		if event["type"] != "reject_fee" {
			t.Errorf("driver event type = %v, want reject_fee", event["type"])
		}
		if event["reject_highway_fee"] != int64(500) {
			t.Errorf("event reject_highway_fee = %v, want 500", event["reject_highway_fee"])
		}
		if got := len(env.client.received()); got != 0 {
			t.Errorf("client received %d events, want 0", got)
		}
	})

	t.Run("receipt reject records reason only", func(t *testing.T) {
		env := newTestEnv(t)
		fee, _, _ := seedPayableFee(t, env, 100000)

		got, err := env.service.RejectFee(models.FeeRejectRequest{
			FeeID:        fee.FeeID,
			RejectType:   models.RejectTypeReceipt,
			RejectReason: "receipt photo missing",
		})
		if err != nil {
			t.Fatalf("RejectFee: %v", err)
		}
		if got.ReceiptRejectReason != "receipt photo missing" {
			t.Errorf("receipt reason = %q", got.ReceiptRejectReason)
		}
		if got.HighwayFee != fee.HighwayFee || got.ParkingFee != fee.ParkingFee {
			t.Errorf("amounts changed on receipt reject: %+v", got)
		}

		// The deduction keys stay on the wire even without deductions.
		event := env.driver.lastEvent(t)
		for _, key := range []string{"reject_highway_fee", "reject_parking_fee"} {
			v, ok := event[key]
			if !ok {
				t.Errorf("event missing %s key", key)
			} else if v != nil {
				t.Errorf("event %s = %v, want null", key, v)
			}
		}
	})

	t.Run("legacy switch settles instead of appealing", func(t *testing.T) {
		env := newTestEnv(t)
		fee, _, _ := seedPayableFee(t, env, 100000)

		config.Cfg.LegacyRejectSettles = true
		defer func() { config.Cfg.LegacyRejectSettles = false }()

		got, err := env.service.RejectFee(models.FeeRejectRequest{
			FeeID: fee.FeeID, RejectType: models.RejectTypeReceipt, RejectReason: "r",
		})
		if err != nil {
			t.Fatalf("RejectFee: %v", err)
		}
		if got.Status != models.StatusSettled {
			t.Errorf("status = %q, want %q under legacy switch", got.Status, models.StatusSettled)
		}
	})
}

func TestRequestSettlement(t *testing.T) {
	env := newTestEnv(t)
	fee, _, _ := seedPayableFee(t, env, 100000)

	got, err := env.service.RequestSettlement(fee.FeeID)
	if err != nil {
		t.Fatalf("RequestSettlement: %v", err)
	}
	if !got.SettlementEnable {
		t.Error("settlement gate not set")
	}
	if got.Status != models.StatusPendingPayment {
		t.Errorf("status = %q, want unchanged %q", got.Status, models.StatusPendingPayment)
	}

	// No money moved.
	account, err := model.GetAccountByCompanyID(env.db, "cmp-1")
	if err != nil {
		t.Fatalf("GetAccountByCompanyID: %v", err)
	}
	if account.Balance != 100000 {
		t.Errorf("balance = %d, want untouched 100000", account.Balance)
	}

	event := env.platform.lastEvent(t)
	if event["type"] != "pay_fee" {
		t.Errorf("platform event type = %v, want pay_fee", event["type"])
	}
	if got := len(env.driver.received()); got != 0 {
		t.Errorf("driver received %d events, want 0", got)
	}
}

func TestPay(t *testing.T) {
	t.Run("transfers and settles", func(t *testing.T) {
		env := newTestEnv(t)
		fee, account, driver := seedPayableFee(t, env, 100000)
		amount := fee.TransferAmount() // 10000+1200+300+5000+800 = 17300

		result, err := env.service.Pay(models.FeePayRequest{FeeID: fee.FeeID})
		if err != nil {
			t.Fatalf("Pay: %v", err)
		}
		if result.Amount != amount {
			t.Errorf("amount = %d, want %d", result.Amount, amount)
		}
		if result.Status != models.StatusSettled {
			t.Errorf("result status = %q, want %q", result.Status, models.StatusSettled)
		}

		gotAccount, _ := model.GetAccountByID(env.db, account.CompanyAccountID)
		if gotAccount.Balance != 100000-amount {
			t.Errorf("company balance = %d, want %d", gotAccount.Balance, 100000-amount)
		}
		gotDriver, _ := model.GetDriverAccountByID(env.db, driver.DriverAccountID)
		if gotDriver.Balance != amount {
			t.Errorf("driver balance = %d, want %d", gotDriver.Balance, amount)
		}
		gotFee, _ := model.GetFeeByID(env.db, fee.FeeID)
		if gotFee.Status != models.StatusSettled {
			t.Errorf("fee status = %q, want %q", gotFee.Status, models.StatusSettled)
		}

		event := env.driver.lastEvent(t)
		if event["type"] != "fee_paid" {
			t.Errorf("driver event type = %v, want fee_paid", event["type"])
		}
		if event["amount"] != amount {
			t.Errorf("event amount = %v, want %d", event["amount"], amount)
		}
	})

	t.Run("resolves by order and path", func(t *testing.T) {
		env := newTestEnv(t)
		fee, _, _ := seedPayableFee(t, env, 100000)

		result, err := env.service.Pay(models.FeePayRequest{OrderID: "ORD-1", PathID: "WB-1"})
		if err != nil {
			t.Fatalf("Pay: %v", err)
		}
		if result.FeeID != fee.FeeID {
			t.Errorf("resolved fee %q, want %q", result.FeeID, fee.FeeID)
		}
	})

	t.Run("second pay refused before any balance moves", func(t *testing.T) {
		env := newTestEnv(t)
		fee, account, driver := seedPayableFee(t, env, 100000)

		if _, err := env.service.Pay(models.FeePayRequest{FeeID: fee.FeeID}); err != nil {
			t.Fatalf("first Pay: %v", err)
		}
		if _, err := env.service.Pay(models.FeePayRequest{FeeID: fee.FeeID}); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("second Pay error = %v, want ErrInvalidState", err)
		}

		amount := fee.TransferAmount()
		gotAccount, _ := model.GetAccountByID(env.db, account.CompanyAccountID)
		if gotAccount.Balance != 100000-amount {
			t.Errorf("company balance = %d after refused second pay, want %d", gotAccount.Balance, 100000-amount)
		}
		gotDriver, _ := model.GetDriverAccountByID(env.db, driver.DriverAccountID)
		if gotDriver.Balance != amount {
			t.Errorf("driver balance = %d after refused second pay, want %d", gotDriver.Balance, amount)
		}
	})

	t.Run("insufficient balance rolls everything back", func(t *testing.T) {
		env := newTestEnv(t)
		fee, account, driver := seedPayableFee(t, env, 100) // far below the 17300 owed

		_, err := env.service.Pay(models.FeePayRequest{FeeID: fee.FeeID})
		if !errors.Is(err, model.ErrInsufficientBalance) {
			t.Fatalf("error = %v, want ErrInsufficientBalance", err)
		}

		gotAccount, _ := model.GetAccountByID(env.db, account.CompanyAccountID)
		if gotAccount.Balance != 100 {
			t.Errorf("company balance = %d, want untouched 100", gotAccount.Balance)
		}
		gotDriver, _ := model.GetDriverAccountByID(env.db, driver.DriverAccountID)
		if gotDriver.Balance != 0 {
			t.Errorf("driver balance = %d, want 0", gotDriver.Balance)
		}
		gotFee, _ := model.GetFeeByID(env.db, fee.FeeID)
		if gotFee.Status != models.StatusPendingPayment {
			t.Errorf("fee status = %q, want still %q", gotFee.Status, models.StatusPendingPayment)
		}
	})

	t.Run("no payer bound", func(t *testing.T) {
		env := newTestEnv(t)
		fee := &models.Fee{OrderID: "ORD-9", PathID: "WB-9", DriverAccountID: "drv-9"}
		if err := model.InsertFee(env.db, fee); err != nil {
			t.Fatalf("InsertFee: %v", err)
		}
		_, err := env.service.Pay(models.FeePayRequest{FeeID: fee.FeeID})
		if !errors.Is(err, model.ErrAccountNotFound) {
			t.Errorf("error = %v, want ErrAccountNotFound", err)
		}
	})

	t.Run("low balance alert fires after debit", func(t *testing.T) {
		env := newTestEnv(t)
		fee, account, _ := seedPayableFee(t, env, 20000)
		if err := model.UpdateBalanceWarning(env.db, models.BalanceWarningUpdateRequest{
			CompanyAccountID: account.CompanyAccountID,
			WarningVal:       5000,
			WarningEnable:    true,
		}); err != nil {
			t.Fatalf("UpdateBalanceWarning: %v", err)
		}

		// 20000 - 17300 = 2700, below the 5000 threshold.
		if _, err := env.service.Pay(models.FeePayRequest{FeeID: fee.FeeID}); err != nil {
			t.Fatalf("Pay: %v", err)
		}

		sent := env.alerts.sent()
		if len(sent) != 1 || sent[0] != account.CompanyAccountID {
			t.Errorf("alerts sent = %v, want one for %s", sent, account.CompanyAccountID)
		}
	})
}

func TestListSettlements(t *testing.T) {
	env := newTestEnv(t)
	for _, f := range []models.Fee{
		{OrderID: "ORD-1", PathID: "WB-1", Status: models.StatusPendingPayment},
		{OrderID: "ORD-2", PathID: "WB-2", Status: models.StatusSettled},
		{OrderID: "ORD-3", PathID: "WB-3", Status: models.StatusAppealing},
	} {
		fee := f
		if err := model.InsertFee(env.db, &fee); err != nil {
			t.Fatalf("InsertFee: %v", err)
		}
	}

	t.Run("default scope hides appealing and aliases statuses", func(t *testing.T) {
		page, err := env.service.ListSettlements(models.FeeFilter{})
		if err != nil {
			t.Fatalf("ListSettlements: %v", err)
		}
		if page.Total != 2 {
			t.Fatalf("total = %d, want 2", page.Total)
		}
		for _, item := range page.Items {
			if item.Status == models.StatusPendingPayment {
				t.Errorf("stored vocabulary leaked to client list: %q", item.Status)
			}
			if item.Status != models.StatusPendingSettlement && item.Status != models.StatusSettled {
				t.Errorf("unexpected status %q", item.Status)
			}
		}
	})

	t.Run("alias filter round-trips", func(t *testing.T) {
		page, err := env.service.ListSettlements(models.FeeFilter{Status: models.StatusPendingSettlement})
		if err != nil {
			t.Fatalf("ListSettlements: %v", err)
		}
		if page.Total != 1 || page.Items[0].OrderID != "ORD-1" {
			t.Errorf("got total=%d, want the single open claim", page.Total)
		}
		if page.Items[0].Status != models.StatusPendingSettlement {
			t.Errorf("status = %q, want %q", page.Items[0].Status, models.StatusPendingSettlement)
		}
	})

	t.Run("unknown status refused", func(t *testing.T) {
		_, err := env.service.ListSettlements(models.FeeFilter{Status: "PAID"})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestOrderDetail(t *testing.T) {
	env := newTestEnv(t)
	fee, _, driver := seedPayableFee(t, env, 100000)
	if _, err := env.db.Exec(`INSERT INTO order_details (order_id, car_plate, loading_addr, unloading_addr)
		VALUES (?, ?, ?, ?)`, fee.OrderID, "AA-12-BB", "Porto", "Lisboa"); err != nil {
		t.Fatalf("seeding order detail: %v", err)
	}

	t.Run("requires an identifier", func(t *testing.T) {
		if _, err := env.service.OrderDetail("", ""); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("joins fee, trip and driver", func(t *testing.T) {
		detail, err := env.service.OrderDetail(fee.OrderID, "")
		if err != nil {
			t.Fatalf("OrderDetail: %v", err)
		}
		if detail["status"] != models.StatusPendingSettlement {
			t.Errorf("status = %v, want display alias", detail["status"])
		}
		if detail["car_plate"] != "AA-12-BB" {
			t.Errorf("car_plate = %v", detail["car_plate"])
		}
		if detail["driver_name"] != driver.DriverName {
			t.Errorf("driver_name = %v, want %q", detail["driver_name"], driver.DriverName)
		}
	})

	t.Run("resolves by waybill alone", func(t *testing.T) {
		detail, err := env.service.OrderDetail("", fee.PathID)
		if err != nil {
			t.Fatalf("OrderDetail: %v", err)
		}
		if detail["order_id"] != fee.OrderID {
			t.Errorf("order_id = %v, want %q", detail["order_id"], fee.OrderID)
		}
	})

	t.Run("settling invalidates the cached view", func(t *testing.T) {
		if _, err := env.service.Pay(models.FeePayRequest{FeeID: fee.FeeID}); err != nil {
			t.Fatalf("Pay: %v", err)
		}
		detail, err := env.service.OrderDetail(fee.OrderID, "")
		if err != nil {
			t.Fatalf("OrderDetail: %v", err)
		}
		if detail["status"] != models.StatusSettled {
			t.Errorf("status = %v, want %q after settlement", detail["status"], models.StatusSettled)
		}
	})
}

func TestListDriverFees(t *testing.T) {
	env := newTestEnv(t)
	for _, order := range []string{"ORD-1", "ORD-2", "ORD-3"} {
		if err := model.InsertFee(env.db, &models.Fee{OrderID: order, PathID: "WB-" + order}); err != nil {
			t.Fatalf("InsertFee: %v", err)
		}
	}

	page, err := env.service.ListDriverFees(models.FeeFilter{Page: 1, Size: 2})
	if err != nil {
		t.Fatalf("ListDriverFees: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 2 {
		t.Errorf("got total=%d len=%d, want 3/2", page.Total, len(page.Items))
	}
	if page.TotalPages != 2 {
		t.Errorf("total pages = %d, want 2", page.TotalPages)
	}
}
