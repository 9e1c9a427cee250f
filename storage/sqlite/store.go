// Package sqlite provides a SQLite implementation of the journal-sync
// EntityStore.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	stdSync "sync"
	"time"

	journalsync "github.com/c0deZ3R0/journal-sync"
	syncErrors "github.com/c0deZ3R0/journal-sync/errors"
	"github.com/c0deZ3R0/journal-sync/logging"
	"github.com/c0deZ3R0/journal-sync/payload"

	// Go SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// Operation constants for consistent error reporting
const (
	opGet             = "sqlite.Get"
	opUpsert          = "sqlite.Upsert"
	opListByStatus    = "sqlite.ListByStatus"
	opCountByStatus   = "sqlite.CountByStatus"
	opAddConflict     = "sqlite.AddConflict"
	opListConflicts   = "sqlite.ListPendingConflicts"
	opGetConflict     = "sqlite.GetConflict"
	opResolveConflict = "sqlite.ResolveConflict"
	opCountConflicts  = "sqlite.CountPendingConflicts"
)

// ErrStoreClosed is returned by all operations after Close.
var ErrStoreClosed = errors.New("store is closed")

// Config holds configuration options for the EntityStore.
//
// Production-ready defaults are applied by DefaultConfig() including WAL mode
// and a bounded connection pool.
type Config struct {
	// DataSourceName is the connection string for the SQLite database.
	DataSourceName string

	// EnableWAL enables Write-Ahead Logging mode for better concurrency.
	// Recommended for production use and enabled by default. When true,
	// automatically appends "?_journal_mode=WAL" to DataSourceName.
	EnableWAL bool

	// Connection pool settings.
	// Defaults: MaxOpen=25, MaxIdle=5, Lifetime=1h, IdleTime=5m
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// setDefaults applies default values to the config
func (c *Config) setDefaults() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.EnableWAL {
		if !strings.Contains(c.DataSourceName, "?_journal_mode=") {
			c.DataSourceName += "?_journal_mode=WAL"
		}
	}
}

// DefaultConfig returns a Config with production-ready defaults.
func DefaultConfig(dataSourceName string) *Config {
	config := &Config{
		DataSourceName: dataSourceName,
		EnableWAL:      true,
	}
	config.setDefaults()
	return config
}

// NewWithDataSource is a convenience constructor
func NewWithDataSource(dataSourceName string) (*EntityStore, error) {
	return New(DefaultConfig(dataSourceName))
}

// EntityStore implements journalsync.EntityStore backed by SQLite.
type EntityStore struct {
	db     *sql.DB
	mu     stdSync.RWMutex
	closed bool
}

// Compile-time check
var _ journalsync.EntityStore = (*EntityStore)(nil)

// New creates an EntityStore from a Config.
func New(config *Config) (*EntityStore, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	config.setDefaults()

	if config.DataSourceName == "" {
		return nil, fmt.Errorf("DataSourceName is required")
	}

	logger := logging.WithComponent(logging.Component("sqlite-store"))
	logger.InfoContext(context.Background(), "Opening SQLite database",
		slog.String("data_source", config.DataSourceName),
		slog.Bool("wal_enabled", config.EnableWAL),
	)

	db, err := sql.Open("sqlite3", config.DataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	store := &EntityStore{db: db}

	err = logging.Default().LogOperation(context.Background(), "setup_schema", "sqlite-store", store.setupSchema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database schema: %w", err)
	}

	logger.InfoContext(context.Background(), "SQLite EntityStore successfully initialized")
	return store, nil
}

// setupSchema creates the bookkeeping tables if they don't exist.
func (s *EntityStore) setupSchema() error {
	query := `
    CREATE TABLE IF NOT EXISTS sync_records (
        entity_type     TEXT NOT NULL,
        entity_id       TEXT NOT NULL,
        status          TEXT NOT NULL,
        last_hash       TEXT NOT NULL DEFAULT '',
        last_synced_at  TIMESTAMP,
        direction       TEXT NOT NULL DEFAULT '',
        PRIMARY KEY (entity_type, entity_id)
    );
    CREATE INDEX IF NOT EXISTS idx_sync_records_status ON sync_records (status);

    CREATE TABLE IF NOT EXISTS conflicts (
        id                  TEXT PRIMARY KEY,
        entity_type         TEXT NOT NULL,
        entity_id           TEXT NOT NULL,
        local_payload       TEXT,
        remote_payload      TEXT,
        detected_at         TIMESTAMP NOT NULL,
        resolution_strategy TEXT NOT NULL DEFAULT '',
        resolved            INTEGER NOT NULL DEFAULT 0,
        resolved_at         TIMESTAMP,
        resolution_payload  TEXT
    );
    CREATE INDEX IF NOT EXISTS idx_conflicts_pending ON conflicts (resolved) WHERE resolved = 0;
    `
	_, err := s.db.Exec(query)
	return err
}

func (s *EntityStore) guard() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Get returns the sync record for the key, or nil if the key has never
// synced.
func (s *EntityStore) Get(ctx context.Context, entityType, entityID string) (*journalsync.SyncRecord, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	query := `SELECT entity_type, entity_id, status, last_hash, last_synced_at, direction
	          FROM sync_records WHERE entity_type = ? AND entity_id = ?`
	row := s.db.QueryRowContext(ctx, query, entityType, entityID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, syncErrors.WrapOpComponentCode(err, opGet, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
	}
	return rec, nil
}

// Upsert creates or replaces the record for its key.
func (s *EntityStore) Upsert(ctx context.Context, record *journalsync.SyncRecord) error {
	if err := s.guard(); err != nil {
		return err
	}

	query := `INSERT INTO sync_records (entity_type, entity_id, status, last_hash, last_synced_at, direction)
	          VALUES (?, ?, ?, ?, ?, ?)
	          ON CONFLICT (entity_type, entity_id) DO UPDATE SET
	              status = excluded.status,
	              last_hash = excluded.last_hash,
	              last_synced_at = excluded.last_synced_at,
	              direction = excluded.direction`
	_, err := s.db.ExecContext(ctx, query,
		record.EntityType, record.EntityID, string(record.Status),
		record.LastHash, nullTime(record.LastSyncedAt), string(record.Direction))
	return syncErrors.WrapOpComponentCode(err, opUpsert, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
}

// ListByStatus returns records in a status, optionally restricted to those
// synced at or after since.
func (s *EntityStore) ListByStatus(ctx context.Context, status journalsync.SyncStatus, since *time.Time) ([]*journalsync.SyncRecord, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	query := `SELECT entity_type, entity_id, status, last_hash, last_synced_at, direction
	          FROM sync_records WHERE status = ?`
	args := []interface{}{string(status)}
	if since != nil {
		query += ` AND last_synced_at >= ?`
		args = append(args, since.UTC())
	}
	query += ` ORDER BY entity_type, entity_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, syncErrors.WrapOpComponentCode(err, opListByStatus, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
	}
	defer rows.Close()

	var records []*journalsync.SyncRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, syncErrors.WrapOpComponentCode(err, opListByStatus, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, syncErrors.WrapOpComponentCode(err, opListByStatus, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
	}
	return records, nil
}

// CountByStatus returns the number of records in a status.
func (s *EntityStore) CountByStatus(ctx context.Context, status journalsync.SyncStatus) (int, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}

	var n int
	query := `SELECT COUNT(*) FROM sync_records WHERE status = ?`
	err := s.db.QueryRowContext(ctx, query, string(status)).Scan(&n)
	return n, syncErrors.WrapOpComponentCode(err, opCountByStatus, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
}

// AddConflict appends a conflict record.
func (s *EntityStore) AddConflict(ctx context.Context, record *journalsync.ConflictRecord) error {
	if err := s.guard(); err != nil {
		return err
	}

	localJSON, err := marshalPayload(record.LocalPayload)
	if err != nil {
		return syncErrors.WrapOpComponentCode(err, opAddConflict, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
	}
	remoteJSON, err := marshalPayload(record.RemotePayload)
	if err != nil {
		return syncErrors.WrapOpComponentCode(err, opAddConflict, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
	}

	query := `INSERT INTO conflicts
	          (id, entity_type, entity_id, local_payload, remote_payload, detected_at, resolution_strategy, resolved)
	          VALUES (?, ?, ?, ?, ?, ?, ?, 0)`
	_, err = s.db.ExecContext(ctx, query,
		record.ID, record.EntityType, record.EntityID,
		localJSON, remoteJSON, record.DetectedAt.UTC(), record.ResolutionStrategy)
	return syncErrors.WrapOpComponentCode(err, opAddConflict, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
}

// ListPendingConflicts returns all unresolved conflicts, oldest first.
func (s *EntityStore) ListPendingConflicts(ctx context.Context) ([]*journalsync.ConflictRecord, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	query := conflictSelect + ` WHERE resolved = 0 ORDER BY detected_at ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, syncErrors.WrapOpComponentCode(err, opListConflicts, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
	}
	defer rows.Close()

	var conflicts []*journalsync.ConflictRecord
	for rows.Next() {
		rec, err := scanConflict(rows)
		if err != nil {
			return nil, syncErrors.WrapOpComponentCode(err, opListConflicts, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
		}
		conflicts = append(conflicts, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, syncErrors.WrapOpComponentCode(err, opListConflicts, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
	}
	return conflicts, nil
}

// GetConflict returns the conflict with the given id, or nil if unknown.
func (s *EntityStore) GetConflict(ctx context.Context, id string) (*journalsync.ConflictRecord, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, conflictSelect+` WHERE id = ?`, id)
	rec, err := scanConflict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, syncErrors.WrapOpComponentCode(err, opGetConflict, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
	}
	return rec, nil
}

// ResolveConflict marks a conflict resolved exactly once. The guarded UPDATE
// returns false when the id is unknown or the conflict is already resolved.
func (s *EntityStore) ResolveConflict(ctx context.Context, id string, resolution payload.Payload) (bool, error) {
	if err := s.guard(); err != nil {
		return false, err
	}

	resolutionJSON, err := marshalPayload(resolution)
	if err != nil {
		return false, syncErrors.WrapOpComponentCode(err, opResolveConflict, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
	}

	query := `UPDATE conflicts SET resolved = 1, resolved_at = ?, resolution_payload = ?
	          WHERE id = ? AND resolved = 0`
	res, err := s.db.ExecContext(ctx, query, time.Now().UTC(), resolutionJSON, id)
	if err != nil {
		return false, syncErrors.WrapOpComponentCode(err, opResolveConflict, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, syncErrors.WrapOpComponentCode(err, opResolveConflict, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
	}
	return affected == 1, nil
}

// CountPendingConflicts returns the number of unresolved conflicts.
func (s *EntityStore) CountPendingConflicts(ctx context.Context) (int, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}

	var n int
	query := `SELECT COUNT(*) FROM conflicts WHERE resolved = 0`
	err := s.db.QueryRowContext(ctx, query).Scan(&n)
	return n, syncErrors.WrapOpComponentCode(err, opCountConflicts, "storage/sqlite", syncErrors.ErrCodeStorageFailure)
}

// Close closes the database connection.
func (s *EntityStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Stats returns database statistics for monitoring
func (s *EntityStore) Stats() sql.DBStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return sql.DBStats{}
	}
	return s.db.Stats()
}

const conflictSelect = `SELECT id, entity_type, entity_id, local_payload, remote_payload,
	       detected_at, resolution_strategy, resolved, resolved_at, resolution_payload
	FROM conflicts`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*journalsync.SyncRecord, error) {
	var rec journalsync.SyncRecord
	var status, direction string
	var syncedAt sql.NullTime

	if err := row.Scan(&rec.EntityType, &rec.EntityID, &status, &rec.LastHash, &syncedAt, &direction); err != nil {
		return nil, err
	}
	rec.Status = journalsync.SyncStatus(status)
	rec.Direction = journalsync.SyncDirection(direction)
	if syncedAt.Valid {
		t := syncedAt.Time.UTC()
		rec.LastSyncedAt = &t
	}
	return &rec, nil
}

func scanConflict(row rowScanner) (*journalsync.ConflictRecord, error) {
	var rec journalsync.ConflictRecord
	var local, remote, resolution sql.NullString
	var resolved int
	var resolvedAt sql.NullTime

	if err := row.Scan(&rec.ID, &rec.EntityType, &rec.EntityID, &local, &remote,
		&rec.DetectedAt, &rec.ResolutionStrategy, &resolved, &resolvedAt, &resolution); err != nil {
		return nil, err
	}

	var err error
	if rec.LocalPayload, err = unmarshalPayload(local); err != nil {
		return nil, err
	}
	if rec.RemotePayload, err = unmarshalPayload(remote); err != nil {
		return nil, err
	}
	if rec.ResolutionPayload, err = unmarshalPayload(resolution); err != nil {
		return nil, err
	}

	rec.Resolved = resolved != 0
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		rec.ResolvedAt = &t
	}
	rec.DetectedAt = rec.DetectedAt.UTC()
	return &rec, nil
}

func marshalPayload(p payload.Payload) (interface{}, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return string(b), nil
}

func unmarshalPayload(s sql.NullString) (payload.Payload, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var p payload.Payload
	if err := json.Unmarshal([]byte(s.String), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return p, nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
