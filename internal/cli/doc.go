// Package cli provides the interactive Escolario terminal client.
//
// It wires configuration, local storage and the auth/notes services, and
// drives an interactive REPL with three screens:
//
//	login  - login, register, help, exit
//	notes  - add, notes, logout (signed-in students)
//	users  - users, search <text>, delete <id>, logout (administrator)
//
// All store access and hashing run on the dispatcher's worker pool. The REPL
// goroutine only reads input, prints, and runs the completions the workers
// post back. See App.Run.
package cli
