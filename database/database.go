package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// SyncCursor records how far the indexer has scanned the chain for an account
type SyncCursor struct {
	Height    int64
	UpdatedAt int64
}

func InitDB(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// enable write-ahead Logging for better concurrency
	_, err = db.Exec("PRAGMA journal_mode=WAL;")
	if err != nil {
		log.Printf("warning: failed to set WAL mode: %v", err)
	}

	sqlStmt := `
	CREATE TABLE IF NOT EXISTS sync_cursor (
		account TEXT PRIMARY KEY,
		height INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err = db.Exec(sqlStmt)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sync_cursor table: %w", err)
	}

	log.Println("database initialized successfully at", dataSourceName)
	return db, nil
}

// GetSyncCursor retrieves the last fully scanned height for account
func GetSyncCursor(db *sql.DB, account string) (SyncCursor, error) {
	var cursor SyncCursor

	queryBuilder := psql.Select("height", "updated_at").
		From("sync_cursor").
		Where(sq.Eq{"account": account}).
		Limit(1)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return SyncCursor{}, fmt.Errorf("failed to build SQL query for GetSyncCursor: %w", err)
	}

	err = db.QueryRow(sqlStr, args...).Scan(&cursor.Height, &cursor.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return SyncCursor{}, sql.ErrNoRows // Explicitly return ErrNoRows
		}
		return SyncCursor{}, fmt.Errorf("failed to query or scan sync cursor for %s: %w", account, err)
	}
	return cursor, nil
}

// SetSyncCursor inserts or updates the scanned height for account
func SetSyncCursor(db *sql.DB, account string, height int64) error {

	queryBuilder := psql.Insert("sync_cursor").
		Columns("account", "height", "updated_at").
		Values(account, height, time.Now().Unix()).
		Suffix("ON CONFLICT(account) DO UPDATE SET").
		Suffix("height = excluded.height,").
		Suffix("updated_at = excluded.updated_at")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL query for SetSyncCursor: %w", err)
	}

	_, err = db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute set sync cursor for %s: %w", account, err)
	}
	return nil
}

// ResetSyncCursor removes the cursor so the next sync rescans from genesis
func ResetSyncCursor(db *sql.DB, account string) error {
	sqlStr, args, err := psql.Delete("sync_cursor").Where(sq.Eq{"account": account}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL query for ResetSyncCursor: %w", err)
	}
	if _, err := db.Exec(sqlStr, args...); err != nil {
		return fmt.Errorf("failed to reset sync cursor for %s: %w", account, err)
	}
	return nil
}
