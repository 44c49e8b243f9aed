package model

import (
	"database/sql"
	"testing"

	"github.com/username/freightpay/backend/src/database"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	// Each pool connection would get its own empty in-memory database.
	db.SetMaxOpenConns(1)
	if err := database.CreateSchema(db); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
