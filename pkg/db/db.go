// Package db pkg/db/db.go provides SQLite persistence for CyberASIO Core:
// saved settings, per-device audio profiles, and the audit log.
package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"
)

const createTablesSQL = `
	-- Saved settings as a flat key-value store
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Audio configuration last applied per device
	CREATE TABLE IF NOT EXISTS device_profiles (
		device_id INTEGER PRIMARY KEY,
		sample_rate INTEGER NOT NULL,
		buffer_size INTEGER NOT NULL,
		bit_depth INTEGER NOT NULL,
		channels INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Configuration and transport change log
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		detail TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_audit_log_time
		ON audit_log(timestamp);

	PRAGMA foreign_keys=ON;
	`

// DB represents the database connection and operations.
type DB struct {
	*sql.DB
	log *zap.Logger
}

// New creates a new database connection and initializes the schema.
func New(dbPath string, logger *zap.Logger) (Service, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToEnableWAL, err)
	}

	db := &DB{DB: sqlDB, log: logger}
	if err := db.initSchema(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToInit, err)
	}

	return db, nil
}

// initSchema creates the database tables if they don't exist.
func (db *DB) initSchema() error {
	_, err := db.DB.Exec(createTablesSQL)

	return err
}

// Begin starts a transaction.
func (db *DB) Begin() (Transaction, error) {
	tx, err := db.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToBeginTx, err)
	}

	return &SQLTx{tx}, nil
}

// Exec runs a statement against the database.
func (db *DB) Exec(query string, args ...interface{}) (Result, error) {
	result, err := db.DB.Exec(query, args...)
	if err != nil {
		return nil, err
	}

	return &SQLResult{result}, nil
}

// Query runs a query against the database.
func (db *DB) Query(query string, args ...interface{}) (Rows, error) {
	rows, err := db.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &SQLRows{rows}, nil
}

// QueryRow runs a single-row query against the database.
func (db *DB) QueryRow(query string, args ...interface{}) Row {
	return &SQLRow{db.DB.QueryRow(query, args...)}
}

// SaveSetting stores or replaces a single setting.
func (db *DB) SaveSetting(key, value string) error {
	_, err := db.Exec(`
        INSERT INTO settings (key, value, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(key) DO UPDATE SET
            value = excluded.value,
            updated_at = CURRENT_TIMESTAMP
    `, key, value)
	if err != nil {
		return fmt.Errorf("%w setting: %w", ErrFailedToInsert, err)
	}

	return nil
}

// GetSetting retrieves a single setting by key.
func (db *DB) GetSetting(key string) (string, error) {
	var value string

	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSettingNotFound
	}

	if err != nil {
		return "", fmt.Errorf("%w setting: %w", ErrFailedToQuery, err)
	}

	return value, nil
}

// GetSettings retrieves all saved settings.
func (db *DB) GetSettings() (map[string]string, error) {
	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("%w settings: %w", ErrFailedToQuery, err)
	}
	defer db.closeRows(rows)

	settings := make(map[string]string)

	for rows.Next() {
		var key, value string

		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%w setting row: %w", ErrFailedToScan, err)
		}

		settings[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w settings: %w", ErrFailedToQuery, err)
	}

	return settings, nil
}

// SaveDeviceProfile stores or replaces the audio profile for a device.
func (db *DB) SaveDeviceProfile(profile *DeviceProfile) error {
	_, err := db.Exec(`
        INSERT INTO device_profiles
            (device_id, sample_rate, buffer_size, bit_depth, channels, updated_at)
        VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(device_id) DO UPDATE SET
            sample_rate = excluded.sample_rate,
            buffer_size = excluded.buffer_size,
            bit_depth = excluded.bit_depth,
            channels = excluded.channels,
            updated_at = CURRENT_TIMESTAMP
    `, profile.DeviceID, profile.SampleRate, profile.BufferSize, profile.BitDepth, profile.Channels)
	if err != nil {
		return fmt.Errorf("%w device profile: %w", ErrFailedToInsert, err)
	}

	return nil
}

// GetDeviceProfile retrieves the audio profile for a device.
func (db *DB) GetDeviceProfile(deviceID int) (*DeviceProfile, error) {
	const query = `
        SELECT device_id, sample_rate, buffer_size, bit_depth, channels, updated_at
        FROM device_profiles
        WHERE device_id = ?
    `

	var profile DeviceProfile

	err := db.QueryRow(query, deviceID).Scan(
		&profile.DeviceID,
		&profile.SampleRate,
		&profile.BufferSize,
		&profile.BitDepth,
		&profile.Channels,
		&profile.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w device profile: %w", ErrFailedToQuery, err)
	}

	return &profile, nil
}

// GetDeviceProfiles retrieves all stored device profiles.
func (db *DB) GetDeviceProfiles() ([]DeviceProfile, error) {
	const query = `
        SELECT device_id, sample_rate, buffer_size, bit_depth, channels, updated_at
        FROM device_profiles
        ORDER BY device_id
    `

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w device profiles: %w", ErrFailedToQuery, err)
	}
	defer db.closeRows(rows)

	var profiles []DeviceProfile

	for rows.Next() {
		var p DeviceProfile

		if err := rows.Scan(&p.DeviceID, &p.SampleRate, &p.BufferSize, &p.BitDepth, &p.Channels, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w device profile row: %w", ErrFailedToScan, err)
		}

		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w device profiles: %w", ErrFailedToQuery, err)
	}

	return profiles, nil
}

// DeleteDeviceProfile removes the stored profile for a device.
func (db *DB) DeleteDeviceProfile(deviceID int) error {
	if _, err := db.Exec("DELETE FROM device_profiles WHERE device_id = ?", deviceID); err != nil {
		return fmt.Errorf("failed to delete device profile: %w", err)
	}

	return nil
}

// AddAuditEntry appends an entry to the audit log and fills in its ID.
func (db *DB) AddAuditEntry(entry *AuditEntry) error {
	result, err := db.Exec(`
        INSERT INTO audit_log (source, detail, timestamp)
        VALUES (?, ?, ?)
    `, entry.Source, entry.Detail, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("%w audit entry: %w", ErrFailedToInsert, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}

	return nil
}

// GetAuditEntries retrieves the most recent audit entries, newest first.
func (db *DB) GetAuditEntries(limit int) ([]AuditEntry, error) {
	const query = `
        SELECT id, source, detail, timestamp
        FROM audit_log
        ORDER BY timestamp DESC, id DESC
        LIMIT ?
    `

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w audit entries: %w", ErrFailedToQuery, err)
	}
	defer db.closeRows(rows)

	var entries []AuditEntry

	for rows.Next() {
		var e AuditEntry

		if err := rows.Scan(&e.ID, &e.Source, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("%w audit row: %w", ErrFailedToScan, err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w audit entries: %w", ErrFailedToQuery, err)
	}

	return entries, nil
}

func (db *DB) closeRows(rows Rows) {
	if err := rows.Close(); err != nil {
		db.log.Warn("failed to close rows", zap.Error(err))
	}
}
