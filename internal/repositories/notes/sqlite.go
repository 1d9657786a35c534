package notes

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/escolario/internal/dbx"
	"github.com/dmitrijs2005/escolario/internal/live"
	"github.com/dmitrijs2005/escolario/internal/models"
)

const tableNotes = "notes"

type SQLiteRepository struct {
	db      dbx.DBTX
	tracker *live.Tracker
}

func NewSQLiteRepository(db dbx.DBTX, tracker *live.Tracker) *SQLiteRepository {
	return &SQLiteRepository{db: db, tracker: tracker}
}

func (r *SQLiteRepository) Insert(ctx context.Context, n *models.Note) error {
	query := `INSERT INTO notes (user_id, subject, type, content, date)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`

	if err := r.db.QueryRowContext(ctx, query,
		n.UserID, n.Subject, n.Type, n.Content, n.Date).Scan(&n.ID); err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}

	r.tracker.Invalidate(tableNotes)
	return nil
}

func (r *SQLiteRepository) list(ctx context.Context, userID int64) ([]models.Note, error) {
	query := `SELECT id, user_id, subject, type, content, date
		FROM notes WHERE user_id = ? ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()

	result := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Subject, &n.Type, &n.Content, &n.Date); err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate note rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) ListByUser(userID int64) *live.Query[[]models.Note] {
	return live.NewQuery(r.tracker, func(ctx context.Context) ([]models.Note, error) {
		return r.list(ctx, userID)
	}, tableNotes)
}
