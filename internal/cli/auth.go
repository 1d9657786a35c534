package cli

import (
	"github.com/dmitrijs2005/escolario/internal/auth"
)

// bootstrap seeds the administrator in the background. Login and register
// wait for it on the worker side, so the prompt is not held.
func (a *App) bootstrap() {
	err := a.auth.BootstrapAsync(func(out auth.Outcome) {
		if out.Err != nil {
			a.println(out.Message)
		}
	})
	if err != nil {
		a.println(auth.Message(err))
	}
}

// report prints the outcome of an auth flow and follows its redirect.
func (a *App) report(out auth.Outcome) {
	if out.Message != "" {
		a.println(out.Message)
	}
	a.route(out.Redirect)
}

func (a *App) login() {
	a.ask("Email", false, func(email string) {
		a.ask("Senha", true, func(password string) {
			a.begin()
			err := a.auth.LoginAsync(email, password, func(out auth.Outcome) {
				a.end()
				a.report(out)
			})
			if err != nil {
				a.end()
				a.println(auth.Message(err))
			}
		})
	})
}

func (a *App) register() {
	var f auth.RegistrationForm

	a.ask("Nome completo", false, func(name string) {
		f.Name = name
		a.ask("Email", false, func(email string) {
			f.Email = email
			a.ask("CPF", false, func(cpf string) {
				f.CPF = cpf
				a.ask("Senha", true, func(password string) {
					f.Password = password
					a.submitRegistration(f)
				})
			})
		})
	})
}

func (a *App) submitRegistration(f auth.RegistrationForm) {
	progress := func(busy bool) {
		if busy {
			a.begin()
			a.println(msgRegistering)
			return
		}
		a.end()
	}

	if err := a.auth.RegisterAsync(f, progress, a.report); err != nil {
		a.println(auth.Message(err))
	}
}

func (a *App) logout() {
	r := a.auth.Logout()
	a.println(msgLoggedOut)
	a.route(r)
}
