package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainErrorPassesThroughWrapped(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", NewValidationError("subject required", nil))

	got := ToDomainError(wrapped)

	assert.Equal(t, CodeValidation, got.Code)
	assert.Equal(t, http.StatusBadRequest, got.HTTPStatus)
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	got := ToDomainError(pgx.ErrNoRows)

	assert.Equal(t, CodeNotFound, got.Code)
	assert.Equal(t, http.StatusNotFound, got.HTTPStatus)
}

func TestToDomainErrorDefaultsToInternal(t *testing.T) {
	cause := errors.New("boom")

	got := ToDomainError(cause)

	assert.Equal(t, CodeInternal, got.Code)
	assert.ErrorIs(t, got, cause)
	assert.Nil(t, ToDomainError(nil))
}

func TestMaliciousContentDisclosesCount(t *testing.T) {
	got := ToDomainError(NewMaliciousContent(1, 70))

	assert.Equal(t, http.StatusBadRequest, got.HTTPStatus)
	assert.Contains(t, got.Message, "1 of 70")
	assert.Equal(t, 1, got.Details["detections"])
	assert.True(t, HasCode(got, CodeMaliciousContent))
}

func TestPersistenceErrorHidesCause(t *testing.T) {
	got := ToDomainError(NewPersistenceError(errors.New("duplicate key value violates constraint")))

	assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
	assert.Equal(t, "error submitting complaint", got.Message)
}
