package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatchingSurvivesWithDetail(t *testing.T) {
	err := ErrInsufficientCapacity.WithDetail("only %d seats left", 3)

	assert.True(t, errors.Is(err, ErrInsufficientCapacity))
	assert.False(t, errors.Is(err, ErrNotPending))
	assert.Equal(t, "only 3 seats left", Detail(err))
	assert.Equal(t, "INSUFFICIENT_CAPACITY", CodeOf(err))
}

func TestSentinelMatchingSurvivesWrapping(t *testing.T) {
	cause := errors.New("row not found")
	err := fmt.Errorf("loading booking: %w", ErrNotFound.Wrap(cause))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, cause))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validationf("quantity out of range"), http.StatusUnprocessableEntity},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"not found", NotFoundf("booking %d not found", 7), http.StatusNotFound},
		{"domain conflict", ErrInsufficientCapacity, http.StatusBadRequest},
		{"expired", ErrExpired, http.StatusBadRequest},
		{"locked", ErrResourceLocked, http.StatusServiceUnavailable},
		{"version conflict", ErrVersionConflict, http.StatusConflict},
		{"already exists", ErrAlreadyExists, http.StatusConflict},
		{"infrastructure", Internal(errors.New("db down")), http.StatusInternalServerError},
		{"untyped", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestUntypedErrorsStayGeneric(t *testing.T) {
	err := errors.New("pq: connection refused")

	assert.Equal(t, "internal server error", Detail(err))
	assert.Equal(t, "INTERNAL", CodeOf(err))
}

func TestKindMatchingWithoutCode(t *testing.T) {
	kindOnly := &Error{Kind: KindDomainConflict}

	assert.True(t, errors.Is(ErrHasAvailability, kindOnly))
	assert.False(t, errors.Is(ErrResourceLocked, kindOnly))
}
