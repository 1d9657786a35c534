package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/escolario/internal/auth"
	"github.com/dmitrijs2005/escolario/internal/models"
	"github.com/dmitrijs2005/escolario/internal/notes"
)

const msgNoNotes = "Nenhuma nota cadastrada"

func typePrompt() string {
	var b strings.Builder
	b.WriteString("Tipo")
	for i, t := range models.NoteTypes {
		fmt.Fprintf(&b, " [%d] %s", i+1, t)
	}
	return b.String()
}

// noteType accepts the menu number or the type name in any case.
func noteType(answer string) string {
	answer = strings.TrimSpace(answer)
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(models.NoteTypes) {
		return models.NoteTypes[n-1]
	}
	for _, t := range models.NoteTypes {
		if strings.EqualFold(t, answer) {
			return t
		}
	}
	return answer
}

func (a *App) addNote() {
	var f notes.NoteForm

	a.ask("Matéria", false, func(subject string) {
		f.Subject = subject
		a.ask(typePrompt(), false, func(typ string) {
			f.Type = noteType(typ)
			a.ask("Data (dd/mm/aaaa)", false, func(date string) {
				f.Date = date
				a.ask("Descrição", false, func(content string) {
					f.Content = content
					a.saveNote(f)
				})
			})
		})
	})
}

func (a *App) saveNote(f notes.NoteForm) {
	a.run(func(ctx context.Context) func() {
		_, err := a.notes.Save(ctx, f)
		return func() {
			if err != nil {
				a.println(auth.Message(err))
				return
			}
			a.println(notes.MsgSaved)
		}
	})
}

func (a *App) listNotes() {
	a.run(func(ctx context.Context) func() {
		list, err := a.notes.List(ctx)
		return func() {
			if err != nil {
				a.println(auth.Message(err))
				return
			}
			if len(list) == 0 {
				a.println(msgNoNotes)
				return
			}
			for _, n := range list {
				a.printf("%s  %-10s %s: %s\n", n.Date, n.Type, n.Subject, n.Content)
			}
		}
	})
}
