package dbx

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// UniqueViolation reports whether err is a UNIQUE (or PRIMARY KEY) constraint
// failure and, when the driver message names it, which column collided.
func UniqueViolation(err error) (column string, ok bool) {
	if err == nil {
		return "", false
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			ok = true
		default:
			return "", false
		}
	}

	// message format: "UNIQUE constraint failed: users.email"
	msg := err.Error()
	idx := strings.Index(msg, "UNIQUE constraint failed:")
	if idx < 0 {
		return "", ok
	}
	rest := strings.TrimSpace(msg[idx+len("UNIQUE constraint failed:"):])
	if f := strings.FieldsFunc(rest, func(r rune) bool { return r == ',' || r == ' ' || r == ')' }); len(f) > 0 {
		rest = f[0]
	}
	if dot := strings.LastIndexByte(rest, '.'); dot >= 0 {
		rest = rest[dot+1:]
	}
	return rest, true
}

// IsBusy reports whether err is SQLITE_BUSY / SQLITE_LOCKED, i.e. a write
// that may succeed when retried.
func IsBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	primary := se.Code() & 0xff
	return primary == sqlite3.SQLITE_BUSY || primary == sqlite3.SQLITE_LOCKED
}
