// Package notes persists study notes.
package notes

import (
	"context"

	"github.com/dmitrijs2005/escolario/internal/live"
	"github.com/dmitrijs2005/escolario/internal/models"
)

type Repository interface {
	// Insert stores n and sets n.ID.
	Insert(ctx context.Context, n *models.Note) error
	// ListByUser returns the user's notes, newest first.
	ListByUser(userID int64) *live.Query[[]models.Note]
}
