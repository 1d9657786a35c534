// Package notes is the note-entry service used by regular users.
package notes

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/escolario/internal/common"
	"github.com/dmitrijs2005/escolario/internal/live"
	"github.com/dmitrijs2005/escolario/internal/logging"
	"github.com/dmitrijs2005/escolario/internal/models"
	notesrepo "github.com/dmitrijs2005/escolario/internal/repositories/notes"
	"github.com/dmitrijs2005/escolario/internal/session"
	"github.com/dmitrijs2005/escolario/internal/validator"
	"github.com/samber/oops"
)

const (
	MsgSubjectRequired = "Informe a matéria"
	MsgTypeRequired    = "Selecione o tipo"
	MsgInvalidDate     = "Data inválida! Use o formato dd/mm/aaaa"
	MsgContentRequired = "Escreva uma descrição"
	MsgSaved           = "Nota salva com sucesso!"
)

// Authorizer resolves the current principal. *auth.Service implements it.
type Authorizer interface {
	Authorize(requireAdmin bool) (session.Principal, error)
}

// NoteForm carries the raw values of the note screen.
type NoteForm struct {
	Subject string
	Type    string
	Date    string
	Content string
}

type Service struct {
	repo   notesrepo.Repository
	auth   Authorizer
	logger logging.Logger
}

func NewService(repo notesrepo.Repository, auth Authorizer, logger logging.Logger) *Service {
	return &Service{repo: repo, auth: auth, logger: logging.Component(logger, "notes")}
}

// owner is the signed-in regular user. The id always comes from the
// session, never from the form.
func (s *Service) owner() (int64, error) {
	p, err := s.auth.Authorize(false)
	if err != nil {
		return 0, err
	}
	if p.IsAdmin {
		return 0, oops.
			Code(common.CodeForbidden).
			With("user_id", p.UserID).
			Public("Notas são apenas para alunos").
			Errorf("admin cannot own notes")
	}
	return p.UserID, nil
}

func validate(f NoteForm) error {
	switch {
	case validator.IsBlank(f.Subject):
		return common.InvalidInput(MsgSubjectRequired)
	case !models.IsNoteType(f.Type):
		return common.InvalidInput(MsgTypeRequired)
	case !validator.IsValidDate(strings.TrimSpace(f.Date)):
		return common.InvalidInput(MsgInvalidDate)
	case validator.IsBlank(f.Content):
		return common.InvalidInput(MsgContentRequired)
	}
	return nil
}

// Save validates f and stores it for the signed-in user.
func (s *Service) Save(ctx context.Context, f NoteForm) (*models.Note, error) {
	userID, err := s.owner()
	if err != nil {
		return nil, err
	}
	if err := validate(f); err != nil {
		return nil, err
	}

	n := &models.Note{
		UserID:  userID,
		Subject: strings.TrimSpace(f.Subject),
		Type:    f.Type,
		Content: strings.TrimSpace(f.Content),
		Date:    strings.TrimSpace(f.Date),
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return nil, oops.Code(common.CodeStoreError).Wrap(err)
	}

	s.logger.Info(ctx, "note saved", "note_id", n.ID, "user_id", userID)
	return n, nil
}

// Watch returns the live list of the signed-in user's notes.
func (s *Service) Watch() (*live.Query[[]models.Note], error) {
	userID, err := s.owner()
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(userID), nil
}

// List returns the signed-in user's notes, newest first.
func (s *Service) List(ctx context.Context) ([]models.Note, error) {
	q, err := s.Watch()
	if err != nil {
		return nil, err
	}
	list, err := q.Get(ctx)
	if err != nil {
		return nil, oops.Code(common.CodeStoreError).Wrap(err)
	}
	return list, nil
}
