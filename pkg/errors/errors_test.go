package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{NotFound("appointment", nil), http.StatusNotFound},
		{BadRequest("bad input", nil), http.StatusBadRequest},
		{Unauthorized(nil), http.StatusUnauthorized},
		{Forbidden("nope"), http.StatusForbidden},
		{SlotNotAvailable(), http.StatusConflict},
		{CannotReschedule("completed"), http.StatusConflict},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.StatusCode(), tc.err.Message)
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "appointment not found", NotFound("appointment", nil).Error())
	assert.Equal(t, "cannot reschedule a completed appointment", CannotReschedule("completed").Error())

	wrapped := BadRequest("invalid booking request", errors.New("missing date"))
	assert.Equal(t, "invalid booking request: missing date", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("row not found")
	err := NotFound("appointment", cause)
	assert.ErrorIs(t, err, cause)
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("booking rejected: %w", SlotNotAvailable())

	assert.True(t, IsCode(err, ErrSlotNotAvailable))
	assert.False(t, IsCode(err, ErrNotFound))
	assert.False(t, IsCode(errors.New("plain"), ErrSlotNotAvailable))
	assert.False(t, IsCode(nil, ErrSlotNotAvailable))
}
