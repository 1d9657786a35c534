// Package models defines the records persisted by Escolario.
package models

// User is an account. Password always holds a bcrypt hash, Email is stored
// lower-case and CPF as eleven digits.
type User struct {
	ID       int64
	Name     string
	Email    string
	Password string
	CPF      string
	IsAdmin  bool
}

// Note is a study note owned by a regular user.
type Note struct {
	ID      int64
	UserID  int64
	Subject string
	Type    string
	Content string
	// Date is kept as typed in the form (dd/mm/yyyy).
	Date string
}

// NoteTypes lists the accepted values of Note.Type, in display order.
var NoteTypes = []string{"Prova", "Trabalho", "Atividade", "Anotação"}

// IsNoteType reports whether t is one of NoteTypes.
func IsNoteType(t string) bool {
	for _, v := range NoteTypes {
		if v == t {
			return true
		}
	}
	return false
}
