// Package apperr holds the error taxonomy shared by the services and
// rendered by the bot and the HTTP API.
package apperr

import (
	"errors"
	"fmt"
)

// Check names the booking rule a ConflictError violated.
type Check string

const (
	CheckCapacity  Check = "capacity"
	CheckOverlap   Check = "overlap"
	CheckDuplicate Check = "duplicate"
	CheckLink      Check = "link"
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type ConflictError struct {
	Check  Check
	Detail string
}

func (e *ConflictError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("conflict (%s)", e.Check)
	}
	return fmt.Sprintf("conflict (%s): %s", e.Check, e.Detail)
}

type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

type AlreadyRegisteredError struct {
	Handle string
	Role   string
}

func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("@%s is already registered as %s", e.Handle, e.Role)
}

type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "not authorised: " + e.Reason
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func Conflict(check Check, detail string) error {
	return &ConflictError{Check: check, Detail: detail}
}

func NotFound(entity, key string) error {
	return &NotFoundError{Entity: entity, Key: key}
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsAlreadyRegistered(err error) bool {
	var e *AlreadyRegisteredError
	return errors.As(err, &e)
}

func IsAuth(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

// ConflictCheck returns the violated check when err is a ConflictError.
func ConflictCheck(err error) (Check, bool) {
	var e *ConflictError
	if errors.As(err, &e) {
		return e.Check, true
	}
	return "", false
}

// Wrap adds op context to infrastructure failures and returns taxonomy
// errors unchanged so boundaries can render them as they are.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		vErr *ValidationError
		cErr *ConflictError
		nErr *NotFoundError
		rErr *AlreadyRegisteredError
		aErr *AuthError
	)
	if errors.As(err, &vErr) || errors.As(err, &cErr) || errors.As(err, &nErr) ||
		errors.As(err, &rErr) || errors.As(err, &aErr) {
		return err
	}

	return fmt.Errorf("%s: %w", op, err)
}
