package cli

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/escolario/internal/auth"
	"github.com/dmitrijs2005/escolario/internal/config"
	"github.com/dmitrijs2005/escolario/internal/cryptox"
	"github.com/dmitrijs2005/escolario/internal/dispatch"
	"github.com/dmitrijs2005/escolario/internal/live"
	"github.com/dmitrijs2005/escolario/internal/logging"
	"github.com/dmitrijs2005/escolario/internal/notes"
	notesrepo "github.com/dmitrijs2005/escolario/internal/repositories/notes"
	"github.com/dmitrijs2005/escolario/internal/repositories/users"
	"github.com/dmitrijs2005/escolario/internal/session"
	"github.com/dmitrijs2005/escolario/internal/storage"
)

// Env is the composition root: every long-lived component of the client,
// built once per process.
type Env struct {
	DB      *sql.DB
	Tracker *live.Tracker
	Users   *users.SQLiteRepository
	Session *session.Store
	Tasks   *dispatch.Dispatcher
	Auth    *auth.Service
	Notes   *notes.Service
}

// Build opens the database at cfg.DatabasePath and assembles the client.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Env, error) {
	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	env, err := Assemble(ctx, db, cryptox.NewBcryptHasher(), cfg.Workers, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return env, nil
}

// Assemble wires the components on top of an already migrated db and starts
// the worker pool. The returned Env owns db.
func Assemble(ctx context.Context, db *sql.DB, hasher cryptox.Hasher, workers int, logger logging.Logger) (*Env, error) {
	sess, err := session.Open(ctx, db, logger)
	if err != nil {
		return nil, err
	}

	tracker := live.NewTracker()
	userRepo := users.NewSQLiteRepository(db, tracker)

	tasks := dispatch.New(workers, logger)
	// in-flight work is never cancelled by the caller
	tasks.Start(context.WithoutCancel(ctx))

	authService := auth.NewService(userRepo, sess, hasher, tasks, logger)
	noteService := notes.NewService(notesrepo.NewSQLiteRepository(db, tracker), authService, logger)

	return &Env{
		DB:      db,
		Tracker: tracker,
		Users:   userRepo,
		Session: sess,
		Tasks:   tasks,
		Auth:    authService,
		Notes:   noteService,
	}, nil
}

// Close drains the worker pool, flushes the session and closes the
// database, in that order.
func (e *Env) Close(ctx context.Context) error {
	return errors.Join(
		e.Tasks.Close(),
		e.Session.Close(ctx),
		e.DB.Close(),
	)
}
