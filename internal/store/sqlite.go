package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"coin-gateway/internal/models"
)

type sessionRow struct {
	bun.BaseModel `bun:"table:sessions"`

	Key        string     `bun:"key,pk"`
	Status     string     `bun:"status,notnull"`
	Coins      int        `bun:"coins,notnull"`
	PaidAt     time.Time  `bun:"paid_at,notnull"`
	RedeemedAt *time.Time `bun:"redeemed_at"`
	Version    int64      `bun:"version,notnull"`
}

// SQLite is the durable Store, backed by a single-file SQLite database.
type SQLite struct {
	db *bun.DB
}

func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model((*sessionRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	var row sessionRow
	err := s.db.NewSelect().
		Model(&row).
		Where("key = ?", key(sessionID)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return &models.Session{
		Status:     row.Status,
		Coins:      row.Coins,
		PaidAt:     row.PaidAt,
		RedeemedAt: row.RedeemedAt,
		Version:    row.Version,
	}, nil
}

func (s *SQLite) Put(ctx context.Context, sessionID string, sess models.Session) error {
	row := sessionRow{
		Key:        key(sessionID),
		Status:     sess.Status,
		Coins:      sess.Coins,
		PaidAt:     sess.PaidAt,
		RedeemedAt: sess.RedeemedAt,
		Version:    sess.Version + 1,
	}

	if sess.Version == 0 {
		res, err := s.db.NewInsert().
			Model(&row).
			On("CONFLICT (key) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrConflict
		}
		return nil
	}

	res, err := s.db.NewUpdate().
		Model((*sessionRow)(nil)).
		Set("status = ?", row.Status).
		Set("coins = ?", row.Coins).
		Set("paid_at = ?", row.PaidAt).
		Set("redeemed_at = ?", row.RedeemedAt).
		Set("version = ?", row.Version).
		Where("key = ? AND version = ?", row.Key, sess.Version).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
