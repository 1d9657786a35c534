// Package common defines shared sentinel errors, error codes and small
// helpers used across Escolario layers. Callers should use errors.Is for
// sentinels and CodeOf for coded errors.
package common

import (
	"errors"

	"github.com/samber/oops"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
)

// Error codes attached to oops errors. Every coded error also carries a
// public message that is safe to show to the user.
const (
	CodeInvalidInput           = "INVALID_INPUT"
	CodeEmailAlreadyRegistered = "EMAIL_ALREADY_REGISTERED"
	CodeConflict               = "CONFLICT"
	CodeAuthFailed             = "AUTH_FAILED"
	CodeStoreError             = "STORE_ERROR"
	CodeUnauthenticated        = "UNAUTHENTICATED"
	CodeForbidden              = "FORBIDDEN"
)

// InvalidInput builds a validation error whose public message is msg.
func InvalidInput(msg string) error {
	return oops.Code(CodeInvalidInput).Public(msg).Errorf("%s", msg)
}

// CodeOf returns the oops code carried by err, or "" for plain errors.
func CodeOf(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
