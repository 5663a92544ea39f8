// Package db pkg/db/sql_wrappers.go wraps the concrete sql package types so
// the db.Service interface can be mocked in tests. SQLRow, SQLRows, SQLResult,
// and SQLTx wrap the sql.Row, sql.Rows, sql.Result, and sql.Tx types to
// implement the Row, Rows, Result, and Transaction interfaces.
package db

import (
	"database/sql"
)

// SQLRow wraps sql.Row to implement Row interface.
type SQLRow struct {
	*sql.Row
}

// SQLRows wraps sql.Rows to implement Rows interface.
type SQLRows struct {
	*sql.Rows
}

// SQLResult wraps sql.Result to implement Result interface.
type SQLResult struct {
	sql.Result
}

// SQLTx wraps sql.Tx to implement Transaction interface.
type SQLTx struct {
	*sql.Tx
}

func (tx *SQLTx) Exec(query string, args ...interface{}) (Result, error) {
	result, err := tx.Tx.Exec(query, args...)
	if err != nil {
		return nil, err
	}

	return &SQLResult{result}, nil
}

func (tx *SQLTx) Query(query string, args ...interface{}) (Rows, error) {
	rows, err := tx.Tx.Query(query, args...)
	if err != nil {
		return nil, err
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &SQLRows{rows}, nil
}

func (tx *SQLTx) QueryRow(query string, args ...interface{}) Row {
	return &SQLRow{tx.Tx.QueryRow(query, args...)}
}

// ToTransaction converts a concrete sql.Tx to the Transaction interface.
func ToTransaction(tx *sql.Tx) Transaction {
	return &SQLTx{tx}
}

// FromTransaction converts a Transaction back to the concrete sql.Tx.
func FromTransaction(tx Transaction) (*sql.Tx, error) {
	sqlTx, ok := tx.(*SQLTx)
	if !ok {
		return nil, ErrInvalidTransaction
	}

	return sqlTx.Tx, nil
}
