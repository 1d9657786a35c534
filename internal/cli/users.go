package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/escolario/internal/auth"
	"github.com/dmitrijs2005/escolario/internal/common"
	"github.com/dmitrijs2005/escolario/internal/live"
	"github.com/dmitrijs2005/escolario/internal/models"
)

const (
	msgNoUsers       = "Nenhum usuário cadastrado"
	msgUserDeleted   = "Usuário excluído"
	msgUserNotFound  = "Usuário não encontrado"
	msgDeleteAdmin   = "O administrador não pode ser excluído"
	msgDeleteAborted = "Exclusão cancelada"
	msgInvalidID     = "ID inválido"
	msgConfirmDelete = "Excluir usuário %s? (s/n)"
)

// watch is the live roster shown on the users screen.
type watch struct {
	obs *live.Observer
	// pending holds the prompt until the first result is printed
	pending bool
}

// watchUsers replaces the observed roster: the full list for an empty
// filter, otherwise a name search.
func (a *App) watchUsers(filter string) {
	q := a.users.ListRegularUsers()
	if filter != "" {
		q = a.users.SearchRegularUsers("%" + filter + "%")
	}
	a.observe(q)
}

func (a *App) observe(q *live.Query[[]models.User]) {
	a.stopWatch()

	w := &watch{pending: true}
	a.watching = w
	a.begin()

	w.obs = q.Observe(a.ctx, func(list []models.User, err error) {
		a.tasks.Post(func() {
			if a.watching != w {
				return
			}
			if w.pending {
				w.pending = false
				a.end()
			}
			a.printUsers(list, err)
		})
	})
}

func (a *App) stopWatch() {
	w := a.watching
	if w == nil {
		return
	}
	a.watching = nil
	w.obs.Cancel()
	if w.pending {
		w.pending = false
		a.end()
	}
}

func (a *App) printUsers(list []models.User, err error) {
	if err != nil {
		a.println(auth.Message(err))
		return
	}
	if len(list) == 0 {
		a.println(msgNoUsers)
		return
	}
	for _, u := range list {
		a.printf("%4d  %-30s %-30s %s\n", u.ID, u.Name, u.Email, u.CPF)
	}
}

func (a *App) search(args []string) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		a.println("Uso: search <texto>")
		return
	}
	a.watchUsers(text)
}

func (a *App) deleteUser(args []string) {
	if len(args) != 1 {
		a.println("Uso: delete <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		a.println(msgInvalidID)
		return
	}
	if _, err := a.auth.Authorize(true); err != nil {
		a.stopWatch()
		a.denied(err)
		return
	}

	a.run(func(ctx context.Context) func() {
		u, err := a.users.FindByID(ctx, id)
		return func() {
			switch {
			case errors.Is(err, common.ErrorNotFound):
				a.println(msgUserNotFound)
			case err != nil:
				a.println(auth.Message(err))
			case u.IsAdmin:
				a.println(msgDeleteAdmin)
			default:
				a.confirmDelete(u)
			}
		}
	})
}

func (a *App) confirmDelete(u *models.User) {
	a.ask(fmt.Sprintf(msgConfirmDelete, u.Name), false, func(answer string) {
		if !strings.EqualFold(strings.TrimSpace(answer), "s") {
			a.println(msgDeleteAborted)
			return
		}
		a.run(func(ctx context.Context) func() {
			if _, err := a.auth.Authorize(true); err != nil {
				return func() { a.stopWatch(); a.denied(err) }
			}
			err := a.users.Delete(ctx, u)
			return func() {
				if err != nil {
					a.println(auth.Message(err))
					return
				}
				a.println(msgUserDeleted)
			}
		})
	})
}
