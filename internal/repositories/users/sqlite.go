package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/escolario/internal/common"
	"github.com/dmitrijs2005/escolario/internal/dbx"
	"github.com/dmitrijs2005/escolario/internal/live"
	"github.com/dmitrijs2005/escolario/internal/models"
	"github.com/dmitrijs2005/escolario/internal/validator"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

const (
	tableUsers = "users"
	tableNotes = "notes"
)

const (
	writeRetries = 3
	writeBackoff = 20 * time.Millisecond
)

type SQLiteRepository struct {
	db      *sql.DB
	tracker *live.Tracker

	// writes are applied one at a time
	mu sync.Mutex

	retryable func(error) bool
}

func NewSQLiteRepository(db *sql.DB, tracker *live.Tracker) *SQLiteRepository {
	return &SQLiteRepository{db: db, tracker: tracker, retryable: dbx.IsBusy}
}

// write runs fn under the write lock, retrying while the database is busy.
func (r *SQLiteRepository) write(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := retry.WithMaxRetries(writeRetries, retry.NewExponential(writeBackoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && r.retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func checkRequired(u *models.User) error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", u.Name},
		{"email", u.Email},
		{"password", u.Password},
		{"cpf", u.CPF},
	} {
		if validator.IsBlank(f.value) {
			missing = append(missing, f.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return oops.
		Code(common.CodeInvalidInput).
		With("missing", missing).
		Public("Preencha todos os campos").
		Errorf("user has empty required fields")
}

func (r *SQLiteRepository) Insert(ctx context.Context, u *models.User) error {
	if err := checkRequired(u); err != nil {
		return err
	}

	query := `INSERT INTO users (name, email, password, cpf, is_admin)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`

	var id int64
	err := r.write(ctx, func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx, query,
			u.Name, u.Email, u.Password, u.CPF, u.IsAdmin).Scan(&id)
	})
	if err != nil {
		if column, ok := dbx.UniqueViolation(err); ok {
			return oops.
				Code(common.CodeConflict).
				With("column", column).
				Wrapf(err, "user with this %s already exists", column)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	u.ID = id
	r.tracker.Invalidate(tableUsers)
	return nil
}

const userColumns = `id, name, email, password, cpf, is_admin`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CPF, &u.IsAdmin); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *SQLiteRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, u *models.User) error {
	err := r.write(ctx, func(ctx context.Context) error {
		return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE user_id = ?`, u.ID); err != nil {
				return fmt.Errorf("failed to delete notes of user %d: %w", u.ID, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, u.ID); err != nil {
				return fmt.Errorf("failed to delete user %d: %w", u.ID, err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	r.tracker.Invalidate(tableUsers, tableNotes)
	return nil
}

// password hashes never leave the store through the roster queries
func (r *SQLiteRepository) listRegular(ctx context.Context, pattern *string) ([]models.User, error) {
	query := `SELECT id, name, email, cpf, is_admin FROM users WHERE is_admin = 0`
	var args []any
	if pattern != nil {
		query += ` AND name LIKE ?`
		args = append(args, *pattern)
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select users: %w", err)
	}
	defer rows.Close()

	result := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CPF, &u.IsAdmin); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) ListRegularUsers() *live.Query[[]models.User] {
	return live.NewQuery(r.tracker, func(ctx context.Context) ([]models.User, error) {
		return r.listRegular(ctx, nil)
	}, tableUsers)
}

func (r *SQLiteRepository) SearchRegularUsers(pattern string) *live.Query[[]models.User] {
	return live.NewQuery(r.tracker, func(ctx context.Context) ([]models.User, error) {
		return r.listRegular(ctx, &pattern)
	}, tableUsers)
}
