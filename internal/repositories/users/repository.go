// Package users is the identity store: user records, their uniqueness rules
// and the live roster queries of the admin screen.
package users

import (
	"context"

	"github.com/dmitrijs2005/escolario/internal/live"
	"github.com/dmitrijs2005/escolario/internal/models"
)

type Repository interface {
	// Insert stores u and sets u.ID. A duplicate email or cpf yields a
	// CONFLICT error and writes nothing.
	Insert(ctx context.Context, u *models.User) error

	// FindByEmail matches case-insensitively and returns
	// common.ErrorNotFound when no user has the address.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	FindByID(ctx context.Context, id int64) (*models.User, error)

	// Delete removes the user and their notes. Deleting a missing user is
	// not an error.
	Delete(ctx context.Context, u *models.User) error

	ListRegularUsers() *live.Query[[]models.User]

	// SearchRegularUsers filters by name with a LIKE pattern supplied by the
	// caller (wrap in %...% for a substring search).
	SearchRegularUsers(pattern string) *live.Query[[]models.User]
}
