package main

import (
	"fmt"
	"strings"
	"time"
)

// CLIError marks errors the CLI renders to the user verbatim. Anything
// outside this taxonomy is reported generically with its type name.
type CLIError interface {
	error
	cliError()
}

// NameClashError is returned when a folder creation target name already
// exists and force replacement was not requested.
type NameClashError struct {
	Name     string
	ParentID int64
}

func (e *NameClashError) Error() string {
	return fmt.Sprintf("A file or folder with name `%s` in `%d` already exists.", e.Name, e.ParentID)
}

func (e *NameClashError) cliError() {}

// NameClashWithFileError is returned when the clashing sibling is a file.
// Files are never replaced, with or without force.
type NameClashWithFileError struct {
	Name     string
	ParentID int64
}

func (e *NameClashWithFileError) Error() string {
	return fmt.Sprintf("A file with name `%s` in `%d` already exists and cannot be replaced.", e.Name, e.ParentID)
}

func (e *NameClashWithFileError) cliError() {}

// UnknownAPIError wraps any remote failure outside the clash cases, carrying
// a description of the attempted action.
type UnknownAPIError struct {
	Context string
	Err     error
}

func (e *UnknownAPIError) Error() string {
	context := e.Context
	if context != "" {
		context = strings.ToLower(context[:1]) + context[1:]
	}
	return fmt.Sprintf("An unknown error occurred while %s.", context)
}

func (e *UnknownAPIError) Unwrap() error { return e.Err }

func (e *UnknownAPIError) cliError() {}

// AuthError is returned when a token can't be acquired or verified.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("User couldn't be authorized: %s.", e.Reason)
}

func (e *AuthError) cliError() {}

// PollTimeoutError is returned when the OAuth polling budget runs out
// before the relay hands over a token.
type PollTimeoutError struct {
	Budget time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("Timed out waiting for authorization after %s.", e.Budget)
}

func (e *PollTimeoutError) cliError() {}
