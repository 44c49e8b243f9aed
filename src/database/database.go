package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/freightpay/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateFeesTable()

	if err := CreateSchema(DB); err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// CreateSchema ensures all tables exist. Split out from InitDB so tests
// can run against an in-memory database without the global.
func CreateSchema(db *sql.DB) error {
	createTableStatement := `
	CREATE TABLE IF NOT EXISTS fees (
		fee_id					TEXT PRIMARY KEY,
		created_at				TIMESTAMP NOT NULL,
		updated_at				TIMESTAMP NOT NULL,
		path_id					TEXT NOT NULL,
		order_id				TEXT NOT NULL,
		status					TEXT NOT NULL DEFAULT 'PENDING_PAYMENT',
		total_price				INTEGER NOT NULL DEFAULT 0,
		driver_fee				INTEGER NOT NULL DEFAULT 0,
		highway_fee				INTEGER NOT NULL DEFAULT 0,
		parking_fee				INTEGER NOT NULL DEFAULT 0,
		carry_fee				INTEGER NOT NULL DEFAULT 0,
		wait_fee				INTEGER NOT NULL DEFAULT 0,
		expect_highway_fee		INTEGER NOT NULL DEFAULT 0,
		expect_parking_fee		INTEGER NOT NULL DEFAULT 0,
		expect_carry_fee		INTEGER NOT NULL DEFAULT 0,
		expect_wait_fee			INTEGER NOT NULL DEFAULT 0,
		reject_highway_fee		INTEGER NOT NULL DEFAULT 0,
		reject_parking_fee		INTEGER NOT NULL DEFAULT 0,
		bill_reject_reason		TEXT NOT NULL DEFAULT '',
		receipt_reject_reason	TEXT NOT NULL DEFAULT '',
		highway_bill_imgs		TEXT NOT NULL DEFAULT '',
		parking_bill_imgs		TEXT NOT NULL DEFAULT '',
		receipt_imgs			TEXT NOT NULL DEFAULT '',
		dispatch_channel		TEXT NOT NULL DEFAULT '',
		logistics_platform		TEXT NOT NULL DEFAULT '',
		company_id				TEXT NOT NULL DEFAULT '',
		driver_account_id		TEXT NOT NULL DEFAULT '',
		settlement_enable		BOOLEAN NOT NULL DEFAULT FALSE,
		order_time				TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS company_accounts (
		company_account_id						TEXT PRIMARY KEY,
		company_id								TEXT NOT NULL,
		created_at								TIMESTAMP NOT NULL,
		updated_at								TIMESTAMP NOT NULL,
		company_account_updatetime				TIMESTAMP NOT NULL,
		company_account_balance					INTEGER NOT NULL DEFAULT 0,
		company_account_balance_warning_val		INTEGER NOT NULL DEFAULT 0,
		company_account_balance_warning_phone	TEXT NOT NULL DEFAULT '',
		company_account_balance_warning_enable	BOOLEAN NOT NULL DEFAULT FALSE,
		recharge_status							TEXT NOT NULL DEFAULT 'UNDER_REVIEW',
		recharge_time							TIMESTAMP,
		recharge_name							TEXT NOT NULL DEFAULT '',
		recharge_phone							TEXT NOT NULL DEFAULT '',
		recharge_amount							INTEGER NOT NULL DEFAULT 0,
		received_amount							INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS driver_accounts (
		driver_account_id		TEXT PRIMARY KEY,
		created_at				TIMESTAMP NOT NULL,
		updated_at				TIMESTAMP NOT NULL,
		driver_name				TEXT NOT NULL DEFAULT '',
		driver_phone			TEXT NOT NULL DEFAULT '',
		driver_account_balance	INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS companies (
		company_id				TEXT PRIMARY KEY,
		company_name			TEXT NOT NULL,
		invite_code				TEXT NOT NULL DEFAULT '',
		operator_type			TEXT NOT NULL DEFAULT 'CLIENT',
		administrator_name		TEXT NOT NULL DEFAULT '',
		administrator_phone		TEXT NOT NULL DEFAULT '',
		administrator_password	TEXT NOT NULL DEFAULT '',
		created_at				TIMESTAMP NOT NULL,
		updated_at				TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS order_details (
		order_id				TEXT PRIMARY KEY,
		finish_time				TIMESTAMP,
		car_plate				TEXT NOT NULL DEFAULT '',
		loading_addr			TEXT NOT NULL DEFAULT '',
		sender_name				TEXT NOT NULL DEFAULT '',
		sender_phone			TEXT NOT NULL DEFAULT '',
		unloading_addr			TEXT NOT NULL DEFAULT '',
		receiver_name			TEXT NOT NULL DEFAULT '',
		receiver_phone			TEXT NOT NULL DEFAULT '',
		goods_volume			TEXT NOT NULL DEFAULT '',
		goods_num				TEXT NOT NULL DEFAULT '',
		goods_weight			TEXT NOT NULL DEFAULT '',
		demand_car_type			TEXT NOT NULL DEFAULT '',
		is_carpool				BOOLEAN NOT NULL DEFAULT FALSE,
		need_carry				BOOLEAN NOT NULL DEFAULT FALSE,
		other_loading_demand	TEXT NOT NULL DEFAULT '',
		total_distance			TEXT NOT NULL DEFAULT '',
		loading_goods_imgs		TEXT NOT NULL DEFAULT '',
		loading_car_imgs		TEXT NOT NULL DEFAULT '',
		unloading_goods_imgs	TEXT NOT NULL DEFAULT '',
		unloading_car_imgs		TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_fees_order_path ON fees(order_id, path_id);
	CREATE INDEX IF NOT EXISTS idx_fees_status ON fees(status);
	CREATE INDEX IF NOT EXISTS idx_company_accounts_company ON company_accounts(company_id);
	`

	_, err := db.Exec(createTableStatement)
	return err
}

// migrateFeesTable adds the columns introduced after the first release
// (reject bookkeeping and the settlement gate) to databases created
// before them.
func migrateFeesTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='fees'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'fees' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'fees' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'fees' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'fees' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(fees)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'fees'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'fees': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'fees'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'fees': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'fees'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'fees': %v", err)
		}
		return
	}

	addColumn := func(name, definition string) {
		if columnExists[name] {
			return
		}
		_, err := DB.Exec("ALTER TABLE fees ADD COLUMN " + name + " " + definition)
		if err != nil {
			logger.L.Error("Error adding column to 'fees' table", "column", name, "error", err)
		} else {
			logger.L.Info("Added column to 'fees' table", "column", name)
		}
	}

	addColumn("expect_highway_fee", "INTEGER NOT NULL DEFAULT 0")
	addColumn("expect_parking_fee", "INTEGER NOT NULL DEFAULT 0")
	addColumn("expect_carry_fee", "INTEGER NOT NULL DEFAULT 0")
	addColumn("expect_wait_fee", "INTEGER NOT NULL DEFAULT 0")
	addColumn("reject_highway_fee", "INTEGER NOT NULL DEFAULT 0")
	addColumn("reject_parking_fee", "INTEGER NOT NULL DEFAULT 0")
	addColumn("bill_reject_reason", "TEXT NOT NULL DEFAULT ''")
	addColumn("receipt_reject_reason", "TEXT NOT NULL DEFAULT ''")
	addColumn("receipt_imgs", "TEXT NOT NULL DEFAULT ''")
	addColumn("dispatch_channel", "TEXT NOT NULL DEFAULT ''")
	addColumn("logistics_platform", "TEXT NOT NULL DEFAULT ''")
	addColumn("settlement_enable", "BOOLEAN NOT NULL DEFAULT FALSE")

	if columnExists["expect_highway_fee"] {
		return
	}
	// Databases migrated just now have no recorded ask; backfill it from
	// the approved amounts so the driver view stays coherent.
	_, err = DB.Exec(`UPDATE fees SET
		expect_highway_fee = highway_fee,
		expect_parking_fee = parking_fee,
		expect_carry_fee = carry_fee,
		expect_wait_fee = wait_fee
		WHERE expect_highway_fee = 0 AND expect_parking_fee = 0
		AND expect_carry_fee = 0 AND expect_wait_fee = 0`)
	if err != nil {
		logger.L.Error("Error backfilling expected fee columns", "error", err)
	}
}
