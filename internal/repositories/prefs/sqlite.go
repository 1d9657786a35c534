package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/escolario/internal/dbx"
)

type SQLiteRepository struct {
	db     dbx.DBTX
	bucket string
}

// NewSQLiteRepository binds the repository to bucket. db may be a *sql.DB or
// a *sql.Tx.
func NewSQLiteRepository(db dbx.DBTX, bucket string) *SQLiteRepository {
	return &SQLiteRepository{db: db, bucket: bucket}
}

func (r *SQLiteRepository) Bucket() string { return r.bucket }

func (r *SQLiteRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE bucket = ? AND key = ?`, r.bucket, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s[%s]: %w", r.bucket, key, err)
	}
	return value, true, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences (bucket, key, value) VALUES (?, ?, ?)
		ON CONFLICT(bucket, key) DO UPDATE SET value = excluded.value
	`, r.bucket, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s[%s]: %w", r.bucket, key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM preferences WHERE bucket = ? AND key = ?`, r.bucket, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", r.bucket, key, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM preferences WHERE bucket = ?`, r.bucket)
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", r.bucket, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM preferences WHERE bucket = ?`, r.bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.bucket, err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", r.bucket, err)
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", r.bucket, err)
	}

	return result, nil
}
