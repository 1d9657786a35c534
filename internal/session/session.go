// Package session keeps the signed-in principal of this installation.
//
// The principal lives in memory behind an atomic pointer, so reads never
// block, and is mirrored to the ESCOLARIO_SESSION preferences bucket by a
// single background writer so that it survives restarts.
package session

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/escolario/internal/dbx"
	"github.com/dmitrijs2005/escolario/internal/logging"
	"github.com/dmitrijs2005/escolario/internal/repositories/prefs"
)

const (
	Bucket = "ESCOLARIO_SESSION"

	KeyUserID   = "user_id"
	KeyIsAdmin  = "is_admin"
	KeyUserName = "user_name"

	// NoUser is the persisted user_id of a signed-out installation.
	NoUser int64 = -1

	DefaultUserName = "Usuário"
)

var ErrClosed = errors.New("session store closed")

// Principal is the identity bound to the session.
type Principal struct {
	UserID   int64
	IsAdmin  bool
	UserName string
}

type job struct {
	// principal to persist; nil clears the bucket
	principal *Principal
	// flush marker when non-nil
	ack chan struct{}
}

type Store struct {
	db     *sql.DB
	logger logging.Logger

	current atomic.Pointer[Principal]

	mu     sync.Mutex // orders swaps with their writes
	closed bool
	jobs   chan job
	done   chan struct{}
}

// Open loads the persisted session and starts the writer. Close must be
// called to release it.
func Open(ctx context.Context, db *sql.DB, logger logging.Logger) (*Store, error) {
	s := &Store{
		db:     db,
		logger: logging.Component(logger, "session"),
		jobs:   make(chan job, 64),
		done:   make(chan struct{}),
	}

	p, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if p != nil {
		s.current.Store(p)
	}

	go s.run()
	return s, nil
}

func (s *Store) load(ctx context.Context) (*Principal, error) {
	kv, err := prefs.NewSQLiteRepository(s.db, Bucket).List(ctx)
	if err != nil {
		return nil, err
	}

	raw, ok := kv[KeyUserID]
	if !ok {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.logger.Warn(ctx, "ignoring malformed persisted session", "user_id", raw)
		return nil, nil
	}
	if id == NoUser {
		return nil, nil
	}

	isAdmin, _ := strconv.ParseBool(kv[KeyIsAdmin])
	return &Principal{UserID: id, IsAdmin: isAdmin, UserName: kv[KeyUserName]}, nil
}

func (s *Store) run() {
	defer close(s.done)
	for j := range s.jobs {
		if j.ack != nil {
			close(j.ack)
			continue
		}
		s.persist(j.principal)
	}
}

// persist replaces the whole bucket in one transaction.
func (s *Store) persist(p *Principal) {
	ctx := context.Background()
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := prefs.NewSQLiteRepository(tx, Bucket)
		if err := repo.Clear(ctx); err != nil {
			return err
		}
		if p == nil {
			return nil
		}
		if err := repo.Set(ctx, KeyUserID, strconv.FormatInt(p.UserID, 10)); err != nil {
			return err
		}
		if err := repo.Set(ctx, KeyIsAdmin, strconv.FormatBool(p.IsAdmin)); err != nil {
			return err
		}
		return repo.Set(ctx, KeyUserName, p.UserName)
	})
	if err != nil {
		logging.LogError(ctx, s.logger, "failed to persist session", err)
	}
}

func (s *Store) swap(p *Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Store(p)
	if s.closed {
		s.logger.Warn(context.Background(), "session store closed, change kept in memory only")
		return
	}
	s.jobs <- job{principal: p}
}

// CreateSession replaces any previous session. The new principal is visible
// as soon as the call returns; the durable write happens in the background.
func (s *Store) CreateSession(userID int64, isAdmin bool, userName string) {
	s.swap(&Principal{UserID: userID, IsAdmin: isAdmin, UserName: userName})
}

// Logout clears the session.
func (s *Store) Logout() {
	s.swap(nil)
}

func (s *Store) Principal() (Principal, bool) {
	p := s.current.Load()
	if p == nil || p.UserID == NoUser {
		return Principal{}, false
	}
	return *p, true
}

func (s *Store) IsLoggedIn() bool {
	_, ok := s.Principal()
	return ok
}

// UserName returns the signed-in user's name or DefaultUserName.
func (s *Store) UserName() string {
	if p, ok := s.Principal(); ok {
		return p.UserName
	}
	return DefaultUserName
}

// Flush waits until every change made before the call is on disk.
func (s *Store) Flush(ctx context.Context) error {
	ack := make(chan struct{})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.jobs <- job{ack: ack}
	s.mu.Unlock()

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending writes and stops the writer. Calling it twice is safe.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
