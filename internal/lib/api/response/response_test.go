package response

import (
	"careBooker/internal/lib/apperr"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        apperr.Validation("Capacity", "must be greater than 0"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "invalid Capacity: must be greater than 0",
		},
		{
			name:       "not found",
			err:        apperr.NotFound("event", "7"),
			wantStatus: http.StatusNotFound,
			wantMsg:    "event 7 not found",
		},
		{
			name:       "wrapped conflict names the check",
			err:        fmt.Errorf("op: %w", apperr.Conflict(apperr.CheckCapacity, `"Pottery" is full`)),
			wantStatus: http.StatusConflict,
			wantMsg:    `conflict (capacity): "Pottery" is full`,
		},
		{
			name:       "infrastructure",
			err:        errors.New("disk I/O error"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "failed to book event",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			status, resp := FromError(tc.err, "failed to book event")
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, Error(tc.wantMsg), resp)
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	type request struct {
		Holder   string `validate:"required"`
		Capacity int    `validate:"gt=0"`
		Title    string `validate:"max=3"`
	}

	err := validator.New().Struct(request{Title: "Pottery"})
	var errs validator.ValidationErrors
	require.True(t, errors.As(err, &errs))

	resp := ValidationError(errs)
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "field Holder is a required field, field Capacity is too small, field Title is too long", resp.Error)
}
