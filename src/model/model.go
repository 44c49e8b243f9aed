package model

import (
	"database/sql"
	"errors"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so the same entity
// operations run standalone or inside the payment transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

var (
	ErrFeeNotFound         = errors.New("fee record not found")
	ErrFeeSettled          = errors.New("fee record already settled")
	ErrAccountNotFound     = errors.New("company account not found")
	ErrDriverNotFound      = errors.New("driver account not found")
	ErrCompanyNotFound     = errors.New("company not found")
	ErrInsufficientBalance = errors.New("insufficient account balance")
)
