package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"brevio/web/internal/model"
	"brevio/web/internal/snowflake"
)

// SlotRepository stores per-session slot values with an expiry.
type SlotRepository interface {
	// Get returns nil when the slot is absent or expired at now.
	Get(ctx context.Context, sessionID, key string, now time.Time) (*model.Slot, error)
	Put(ctx context.Context, sessionID, key string, value []byte, expiresAt time.Time) error
	Delete(ctx context.Context, sessionID, key string) error
	// Replace writes key and deletes clearKey in one transaction.
	Replace(ctx context.Context, sessionID, key string, value []byte, expiresAt time.Time, clearKey string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type slotRepository struct {
	db *sql.DB
}

func NewSlotRepository(db *sql.DB) SlotRepository {
	return &slotRepository{db: db}
}

func (r *slotRepository) Get(ctx context.Context, sessionID, key string, now time.Time) (*model.Slot, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, session_id, key, value, expires_at, created_at
		 FROM slots WHERE session_id = ? AND key = ? AND expires_at > ?`,
		sessionID, key, formatTime(now),
	)

	var s model.Slot
	var expiresAt, createdAt string
	err := row.Scan(&s.ID, &s.SessionID, &s.Key, &s.Value, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.ExpiresAt, _ = parseTime(expiresAt)
	s.CreatedAt, _ = parseTime(createdAt)
	return &s, nil
}

func (r *slotRepository) Put(ctx context.Context, sessionID, key string, value []byte, expiresAt time.Time) error {
	return upsertSlot(ctx, r.db, sessionID, key, value, expiresAt)
}

func (r *slotRepository) Delete(ctx context.Context, sessionID, key string) error {
	return deleteSlot(ctx, r.db, sessionID, key)
}

func (r *slotRepository) Replace(ctx context.Context, sessionID, key string, value []byte, expiresAt time.Time, clearKey string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertSlot(ctx, tx, sessionID, key, value, expiresAt); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	if err := deleteSlot(ctx, tx, sessionID, clearKey); err != nil {
		return fmt.Errorf("clear %s: %w", clearKey, err)
	}
	return tx.Commit()
}

func (r *slotRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func upsertSlot(ctx context.Context, db dbtx, sessionID, key string, value []byte, expiresAt time.Time) error {
	_, err := db.ExecContext(
		ctx,
		`INSERT INTO slots (id, session_id, key, value, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id, key) DO UPDATE SET
		   value = excluded.value,
		   expires_at = excluded.expires_at,
		   created_at = excluded.created_at`,
		snowflake.NextID(), sessionID, key, value, formatTime(expiresAt), formatTime(time.Now()),
	)
	return err
}

func deleteSlot(ctx context.Context, db dbtx, sessionID, key string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM slots WHERE session_id = ? AND key = ?`, sessionID, key)
	return err
}
