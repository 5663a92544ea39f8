// Package db pkg/db/interfaces.go
package db

import (
	"time"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/cyberasio/core/pkg/db Row,Result,Rows,Transaction,Service

// Row represents a database row.
type Row interface {
	Scan(dest ...interface{}) error
}

// Result represents the result of a database operation.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Rows represents multiple database rows.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Transaction represents operations that can be performed within a database transaction.
type Transaction interface {
	Exec(query string, args ...interface{}) (Result, error)
	Query(query string, args ...interface{}) (Rows, error)
	QueryRow(query string, args ...interface{}) Row
	Commit() error
	Rollback() error
}

// Service represents all database operations.
type Service interface {
	// Core database operations.

	Begin() (Transaction, error)
	Close() error
	Exec(query string, args ...interface{}) (Result, error)
	Query(query string, args ...interface{}) (Rows, error)
	QueryRow(query string, args ...interface{}) Row

	// Settings operations.

	SaveSetting(key, value string) error
	GetSetting(key string) (string, error)
	GetSettings() (map[string]string, error)

	// Device profile operations.

	SaveDeviceProfile(profile *DeviceProfile) error
	GetDeviceProfile(deviceID int) (*DeviceProfile, error)
	GetDeviceProfiles() ([]DeviceProfile, error)
	DeleteDeviceProfile(deviceID int) error

	// Audit operations.

	AddAuditEntry(entry *AuditEntry) error
	GetAuditEntries(limit int) ([]AuditEntry, error)

	// Maintenance operations.

	CleanAuditLog(retentionPeriod time.Duration) error
}
