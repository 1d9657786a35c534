package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/escolario/internal/auth"
	"github.com/dmitrijs2005/escolario/internal/dispatch"
	"github.com/dmitrijs2005/escolario/internal/notes"
	"github.com/dmitrijs2005/escolario/internal/repositories/users"
)

// Screen is the REPL's current route.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenNotes
	ScreenUsers
)

func (s Screen) String() string {
	switch s {
	case ScreenNotes:
		return "notas"
	case ScreenUsers:
		return "usuários"
	default:
		return "login"
	}
}

// Tasks is the two-queue surface the REPL runs on. *dispatch.Dispatcher
// implements it.
type Tasks interface {
	Go(task dispatch.Task) error
	Post(fn func())
	Events() <-chan func()
}

type readResult struct {
	line string
	err  error
}

// App is the REPL. Every field below is owned by the goroutine inside Run.
type App struct {
	auth  *auth.Service
	notes *notes.Service
	users users.Repository
	tasks Tasks

	in  LineReader
	out io.Writer

	ctx    context.Context
	screen Screen
	user   string
	busy   int
	quit   bool

	// next consumes the answer to the question opened by ask.
	next   func(string)
	prompt string
	secret bool

	watching *watch
}

func NewApp(env *Env, in LineReader, out io.Writer) *App {
	return &App{
		auth:  env.Auth,
		notes: env.Notes,
		users: env.Users,
		tasks: env.Tasks,
		in:    in,
		out:   out,
		ctx:   context.Background(),
	}
}

// Run seeds the administrator, resumes a persisted session and serves
// commands until exit, EOF on the input or ctx is done.
//
// A line is read only while no background work is pending, so answers are
// always consumed by the screen that asked for them. A read blocked on the
// terminal is abandoned when ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx
	defer a.stopWatch()

	a.println("Escolario (digite 'help' para ver os comandos)")
	a.bootstrap()
	a.resume()

	results := make(chan readResult, 1)
	reading := false

	for !a.quit {
		if !reading && a.busy == 0 {
			reading = true
			prompt, secret := a.nextPrompt()
			go func() {
				line, err := a.in.ReadLine(prompt, secret)
				results <- readResult{line: line, err: err}
			}()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-a.tasks.Events():
			fn()
		case r := <-results:
			reading = false
			if r.err != nil {
				if errors.Is(r.err, io.EOF) {
					return nil
				}
				return r.err
			}
			a.handle(r.line)
		}
	}
	return nil
}

func (a *App) handle(line string) {
	if a.next != nil {
		fn := a.next
		a.next = nil
		fn(line)
		return
	}
	a.command(line)
}

func (a *App) nextPrompt() (string, bool) {
	if a.next != nil {
		return a.prompt, a.secret
	}
	return "escolario " + a.status(), false
}

func (a *App) status() string {
	if a.user == "" {
		return fmt.Sprintf("(%s)", a.screen)
	}
	return fmt.Sprintf("(%s %s)", a.user, a.screen)
}

// ask opens a question; fn receives the next line typed.
func (a *App) ask(prompt string, secret bool, fn func(answer string)) {
	a.prompt = prompt
	a.secret = secret
	a.next = fn
}

func (a *App) begin() { a.busy++ }

func (a *App) end() {
	if a.busy > 0 {
		a.busy--
	}
}

// run executes task on a worker; the completion it returns runs back on the
// REPL goroutine. The prompt is held until then.
func (a *App) run(task func(ctx context.Context) func()) {
	a.begin()
	err := a.tasks.Go(func(ctx context.Context) func() {
		done := task(ctx)
		return func() {
			a.end()
			if done != nil {
				done()
			}
		}
	})
	if err != nil {
		a.end()
		a.println(auth.Message(err))
	}
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
