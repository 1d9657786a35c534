// Package auth orchestrates the identity lifecycle: seeding the
// administrator, registration, login, logout and the guard used by
// protected screens.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/escolario/internal/common"
	"github.com/dmitrijs2005/escolario/internal/cryptox"
	"github.com/dmitrijs2005/escolario/internal/logging"
	"github.com/dmitrijs2005/escolario/internal/models"
	"github.com/dmitrijs2005/escolario/internal/repositories/users"
	"github.com/dmitrijs2005/escolario/internal/session"
	"github.com/dmitrijs2005/escolario/internal/validator"
	"github.com/samber/oops"
)

// Seeded administrator.
const (
	AdminName     = "Administrador"
	AdminEmail    = "admin@escolario.com"
	AdminPassword = "Admin123"
	AdminCPF      = "00000000000"
)

const minPasswordLength = 6

// Redirect tells the UI where to go after an operation.
type Redirect int

const (
	RedirectNone Redirect = iota
	RedirectAdmin
	RedirectUser
	RedirectToLogin
)

func (r Redirect) String() string {
	switch r {
	case RedirectAdmin:
		return "admin"
	case RedirectUser:
		return "user"
	case RedirectToLogin:
		return "login"
	default:
		return "none"
	}
}

// SessionStore is the part of *session.Store the service needs.
type SessionStore interface {
	CreateSession(userID int64, isAdmin bool, userName string)
	Logout()
	Principal() (session.Principal, bool)
}

// RegistrationForm carries the raw values typed by the user.
type RegistrationForm struct {
	Name     string
	Email    string
	CPF      string
	Password string
}

type Service struct {
	users   users.Repository
	session SessionStore
	hasher  cryptox.Hasher
	tasks   Submitter
	logger  logging.Logger

	gateMu sync.Mutex
	gate   chan struct{}

	dummyOnce sync.Once
	dummyHash string
}

// NewService wires the service. tasks may be nil when only the blocking
// operations are used.
func NewService(repo users.Repository, sess SessionStore, hasher cryptox.Hasher, tasks Submitter, logger logging.Logger) *Service {
	return &Service{
		users:   repo,
		session: sess,
		hasher:  hasher,
		tasks:   tasks,
		logger:  logging.Component(logger, "auth"),
	}
}

func storeError(err error) error {
	return oops.Code(common.CodeStoreError).Wrap(err)
}

// arm closes the readiness gate and returns the function that reopens it.
func (s *Service) arm() (release func()) {
	gate := make(chan struct{})
	s.gateMu.Lock()
	s.gate = gate
	s.gateMu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Bootstrapper closes the readiness gate and returns the work that seeds the
// administrator and reopens it. Register and Login called in between wait
// for the work to finish, so the seeded account always wins a race for
// AdminEmail.
func (s *Service) Bootstrapper() func(ctx context.Context) error {
	release := s.arm()
	return func(ctx context.Context) error {
		defer release()
		return s.bootstrap(ctx)
	}
}

// Bootstrap makes sure the seeded administrator exists. It is idempotent.
func (s *Service) Bootstrap(ctx context.Context) error {
	return s.Bootstrapper()(ctx)
}

func (s *Service) bootstrap(ctx context.Context) error {
	_, err := s.users.FindByEmail(ctx, AdminEmail)
	if err == nil {
		s.logger.Debug(ctx, "seeded admin already present")
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return storeError(err)
	}

	hash, err := s.hasher.Hash(AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Name:     AdminName,
		Email:    AdminEmail,
		Password: hash,
		CPF:      AdminCPF,
		IsAdmin:  true,
	}
	if err := s.users.Insert(ctx, admin); err != nil {
		if common.HasCode(err, common.CodeConflict) {
			s.logger.Info(ctx, "seeded admin created concurrently")
			return nil
		}
		return storeError(err)
	}

	s.logger.Info(ctx, "seeded admin created", "user_id", admin.ID)
	return nil
}

// waitReady blocks while a bootstrap is in flight.
func (s *Service) waitReady(ctx context.Context) error {
	s.gateMu.Lock()
	gate := s.gate
	s.gateMu.Unlock()

	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return storeError(ctx.Err())
	}
}

func validateRegistration(f RegistrationForm) error {
	if validator.IsBlank(f.Name) {
		return common.InvalidInput(MsgNameRequired)
	}
	if !validator.IsValidEmail(validator.NormalizeEmail(f.Email)) {
		return common.InvalidInput(MsgInvalidEmail)
	}
	if !validator.IsValidCPF(f.CPF) {
		return common.InvalidInput(MsgInvalidCPF)
	}
	if utf8.RuneCountInString(f.Password) < minPasswordLength {
		return common.InvalidInput(MsgPasswordTooShort)
	}
	if len(f.Password) > cryptox.MaxPasswordBytes {
		return common.InvalidInput(MsgPasswordTooLong)
	}
	return nil
}

// Register creates a regular user from the form.
func (s *Service) Register(ctx context.Context, f RegistrationForm) (*models.User, error) {
	if err := validateRegistration(f); err != nil {
		return nil, err
	}
	if err := s.waitReady(ctx); err != nil {
		return nil, err
	}

	email := validator.NormalizeEmail(f.Email)

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, oops.
			Code(common.CodeEmailAlreadyRegistered).
			With("email", email).
			Public(MsgEmailTaken).
			Errorf("email already registered")
	case !errors.Is(err, common.ErrorNotFound):
		return nil, storeError(err)
	}

	hash, err := s.hasher.Hash(f.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Name:     strings.TrimSpace(f.Name),
		Email:    email,
		Password: hash,
		CPF:      validator.DigitsOnly(f.CPF),
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if common.HasCode(err, common.CodeConflict) {
			return nil, err
		}
		return nil, storeError(err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// dummy returns a bcrypt hash that no user input matches. Unknown e-mails
// are verified against it so both failure paths cost one bcrypt comparison.
func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		secret, err := common.MakeRandHexString(16)
		if err == nil {
			s.dummyHash, err = s.hasher.Hash(secret)
		}
		if err != nil {
			s.logger.Warn(context.Background(), "failed to generate dummy hash", "error", err)
			s.dummyHash = "$2a$12$invalidinvalidinvalidinvalidinvalidinvalidinvalidinv"
		}
	})
	return s.dummyHash
}

func authFailed() error {
	return oops.
		Code(common.CodeAuthFailed).
		Public(MsgInvalidCredentials).
		Errorf("invalid credentials")
}

// Login verifies the credentials and, on success, opens the session.
// Unknown e-mail and wrong password fail the same way.
func (s *Service) Login(ctx context.Context, emailRaw, passwordRaw string) (Redirect, error) {
	email := validator.NormalizeEmail(emailRaw)
	if email == "" || validator.IsBlank(passwordRaw) {
		return RedirectNone, common.InvalidInput(MsgFillAllFields)
	}
	if err := s.waitReady(ctx); err != nil {
		return RedirectNone, err
	}

	u, err := s.users.FindByEmail(ctx, email)
	found := err == nil
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return RedirectNone, storeError(err)
	}

	target := s.dummy()
	if found {
		target = u.Password
	}

	ok, err := s.hasher.Verify(passwordRaw, target)
	if err != nil || !ok || !found {
		s.logger.Info(ctx, "login failed", "user_found", found)
		return RedirectNone, authFailed()
	}

	s.session.CreateSession(u.ID, u.IsAdmin, u.Name)
	s.logger.Info(ctx, "login succeeded", "user_id", u.ID, "admin", u.IsAdmin)

	if u.IsAdmin {
		return RedirectAdmin, nil
	}
	return RedirectUser, nil
}

// Logout ends the session.
func (s *Service) Logout() Redirect {
	s.session.Logout()
	return RedirectToLogin
}

// Authorize returns the signed-in principal, requiring the admin flag when
// requireAdmin is set. Only the session is consulted.
func (s *Service) Authorize(requireAdmin bool) (session.Principal, error) {
	p, ok := s.session.Principal()
	if !ok {
		return session.Principal{}, oops.
			Code(common.CodeUnauthenticated).
			Public(MsgLoginRequired).
			Errorf("no active session")
	}
	if requireAdmin && !p.IsAdmin {
		return session.Principal{}, oops.
			Code(common.CodeForbidden).
			With("user_id", p.UserID).
			Public(MsgAdminOnly).
			Errorf("admin required")
	}
	return p, nil
}
