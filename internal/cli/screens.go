package cli

import (
	"strings"

	"github.com/dmitrijs2005/escolario/internal/auth"
	"github.com/dmitrijs2005/escolario/internal/session"
)

const (
	msgBye            = "Até logo!"
	msgUnknownCommand = "Comando desconhecido:"
	msgLoggedOut      = "Sessão encerrada"
	msgRegistering    = "Cadastrando..."
)

var helpTexts = map[Screen]string{
	ScreenLogin: "Comandos: login, register, help, exit",
	ScreenNotes: "Comandos: add, notes, logout, help, exit",
	ScreenUsers: "Comandos: users, search <texto>, delete <id>, logout, help, exit",
}

// command runs a line typed at the screen prompt.
func (a *App) command(line string) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return
	}
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "help":
		a.println(helpTexts[a.screen])
		return
	case "exit", "quit":
		a.println(msgBye)
		a.quit = true
		return
	}

	switch a.screen {
	case ScreenLogin:
		switch cmd {
		case "login":
			a.login()
			return
		case "register":
			a.register()
			return
		}

	case ScreenNotes:
		switch cmd {
		case "add":
			a.addNote()
			return
		case "notes":
			a.listNotes()
			return
		case "logout":
			a.logout()
			return
		}

	case ScreenUsers:
		switch cmd {
		case "users":
			a.watchUsers("")
			return
		case "search":
			a.search(args)
			return
		case "delete":
			a.deleteUser(args)
			return
		case "logout":
			a.logout()
			return
		}
	}

	a.println(msgUnknownCommand, cmd)
}

// route moves to the screen a redirect points at.
func (a *App) route(r auth.Redirect) {
	switch r {
	case auth.RedirectAdmin:
		a.enter(ScreenUsers)
	case auth.RedirectUser:
		a.enter(ScreenNotes)
	case auth.RedirectToLogin:
		a.enter(ScreenLogin)
	}
}

// enter switches screens. Guarded screens check the session first and fall
// back to login when it does not allow them.
func (a *App) enter(s Screen) {
	a.stopWatch()

	switch s {
	case ScreenNotes:
		p, err := a.auth.Authorize(false)
		if err != nil {
			a.denied(err)
			return
		}
		a.screen, a.user = ScreenNotes, displayName(p)
		a.printf("Olá, %s!\n", a.user)

	case ScreenUsers:
		p, err := a.auth.Authorize(true)
		if err != nil {
			a.denied(err)
			return
		}
		a.screen, a.user = ScreenUsers, displayName(p)
		a.watchUsers("")

	default:
		a.screen, a.user = ScreenLogin, ""
	}
}

func (a *App) denied(err error) {
	a.println(auth.Message(err))
	a.screen, a.user = ScreenLogin, ""
}

func displayName(p session.Principal) string {
	if p.UserName == "" {
		return session.DefaultUserName
	}
	return p.UserName
}

// resume routes a persisted session straight to its screen.
func (a *App) resume() {
	p, err := a.auth.Authorize(false)
	if err != nil {
		return
	}
	if p.IsAdmin {
		a.enter(ScreenUsers)
	} else {
		a.enter(ScreenNotes)
	}
}
