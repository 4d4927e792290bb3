package response

import (
	"careBooker/internal/lib/apperr"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"net/http"
	"strings"
)

type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "gt", "gtfield":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is too small", err.Field()))
		case "max":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMsgs, ", "),
	}
}

// FromError picks the HTTP status for a service error. Taxonomy errors are
// shown to the client as they are; anything else becomes fallback.
func FromError(err error, fallback string) (int, Response) {
	var conflict *apperr.ConflictError

	switch {
	case apperr.IsValidation(err):
		return http.StatusBadRequest, Error(err.Error())
	case apperr.IsNotFound(err):
		return http.StatusNotFound, Error(err.Error())
	case errors.As(err, &conflict):
		return http.StatusConflict, Error(conflict.Error())
	case apperr.IsAlreadyRegistered(err):
		return http.StatusConflict, Error(err.Error())
	case apperr.IsAuth(err):
		return http.StatusUnauthorized, Error(err.Error())
	default:
		return http.StatusInternalServerError, Error(fallback)
	}
}
