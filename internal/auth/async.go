package auth

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/escolario/internal/dispatch"
	"github.com/dmitrijs2005/escolario/internal/logging"
	"github.com/dmitrijs2005/escolario/internal/models"
	"github.com/google/uuid"
)

// Submitter runs tasks off the UI goroutine. *dispatch.Dispatcher
// implements it.
type Submitter interface {
	Go(task dispatch.Task) error
}

var ErrNoSubmitter = errors.New("auth: no task submitter configured")

// Outcome is what an async operation hands back to the UI goroutine.
type Outcome struct {
	Redirect Redirect
	// Message is the text to show, empty when there is nothing to say.
	Message string
	Err     error
	// User is set by a successful registration.
	User *models.User
}

// submit runs op on a worker and posts done(outcome) back to the UI queue.
func (s *Service) submit(flow string, op func(ctx context.Context) Outcome, done func(Outcome)) error {
	if s.tasks == nil {
		return ErrNoSubmitter
	}

	log := s.logger.With("flow", flow, "flow_id", uuid.NewString())

	return s.tasks.Go(func(ctx context.Context) func() {
		start := time.Now()
		log.Debug(ctx, "flow started")

		out := op(ctx)

		if out.Err != nil {
			logging.LogError(ctx, log, "flow failed", out.Err)
		} else {
			log.Debug(ctx, "flow finished", "redirect", out.Redirect.String(), "took", time.Since(start))
		}

		if done == nil {
			return nil
		}
		return func() { done(out) }
	})
}

// LoginAsync runs Login on a worker. done runs on the UI goroutine.
func (s *Service) LoginAsync(email, password string, done func(Outcome)) error {
	return s.submit("login", func(ctx context.Context) Outcome {
		r, err := s.Login(ctx, email, password)
		return Outcome{Redirect: r, Message: Message(err), Err: err}
	}, done)
}

// RegisterAsync runs Register on a worker. progress(true) is called before
// submitting, progress(false) right before done on the UI goroutine.
func (s *Service) RegisterAsync(f RegistrationForm, progress func(busy bool), done func(Outcome)) error {
	if progress == nil {
		progress = func(bool) {}
	}
	progress(true)

	err := s.submit("register", func(ctx context.Context) Outcome {
		u, err := s.Register(ctx, f)
		if err != nil {
			return Outcome{Message: Message(err), Err: err}
		}
		return Outcome{Redirect: RedirectToLogin, Message: MsgRegistered, User: u}
	}, func(out Outcome) {
		progress(false)
		if done != nil {
			done(out)
		}
	})
	if err != nil {
		progress(false)
	}
	return err
}

// BootstrapAsync closes the readiness gate right away and seeds the
// administrator on a worker.
func (s *Service) BootstrapAsync(done func(Outcome)) error {
	release := s.arm()
	err := s.submit("bootstrap", func(ctx context.Context) Outcome {
		defer release()
		err := s.bootstrap(ctx)
		return Outcome{Message: Message(err), Err: err}
	}, done)
	if err != nil {
		release()
	}
	return err
}
