package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Constructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantCode int
		is       func(error) bool
	}{
		{"validation", NewValidationError("unknown service", "service=foo"), ErrorTypeValidation, http.StatusBadRequest, IsValidationError},
		{"not found", NewNotFoundError("request not found"), ErrorTypeNotFound, http.StatusNotFound, IsNotFoundError},
		{"conflict", NewConflictError("already decided"), ErrorTypeConflict, http.StatusConflict, IsConflictError},
		{"forbidden", NewForbiddenError("not an operator"), ErrorTypeForbidden, http.StatusForbidden, IsForbiddenError},
		{"unavailable", NewServiceUnavailableError("provider declined"), ErrorTypeUnavailable, http.StatusServiceUnavailable, IsUnavailableError},
		{"internal", NewInternalError("invariant broken"), ErrorTypeInternal, http.StatusInternalServerError, IsInternalError},
		{"store unavailable", NewStoreUnavailableError("get request", stderrors.New("database is locked")), ErrorTypeStoreUnavailable, http.StatusServiceUnavailable, IsStoreUnavailableError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.True(t, tt.is(tt.err))
			assert.True(t, tt.is(fmt.Errorf("wrapped: %w", tt.err)))
			assert.True(t, IsAppError(tt.err))
		})
	}
}

func TestAppError_ErrorString(t *testing.T) {
	assert.Equal(t, "validation_error: unknown service (service=foo)", NewValidationError("unknown service", "service=foo").Error())
	assert.Equal(t, "not_found: missing", NewNotFoundError("missing").Error())
}

func TestStoreUnavailableError_KeepsCause(t *testing.T) {
	cause := stderrors.New("database is locked")
	err := NewStoreUnavailableError("get request", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store_unavailable: store temporarily unavailable (get request)", err.Error())
	assert.False(t, IsUnavailableError(err), "store failures are not provider failures")
	assert.False(t, IsInternalError(err))
}

func TestGetAppError_PlainError(t *testing.T) {
	assert.Nil(t, GetAppError(stderrors.New("boom")))
	assert.False(t, IsConflictError(stderrors.New("boom")))
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(stderrors.New("Error 1062: Duplicate entry 'A1' for key 'uk_activation'")))
	assert.True(t, IsDuplicateError(stderrors.New(`ERROR: duplicate key value violates unique constraint "allocations_pkey"`)))
	assert.True(t, IsDuplicateError(stderrors.New("UNIQUE constraint failed: allocations.provider_activation_id")))
	assert.False(t, IsDuplicateError(stderrors.New("connection refused")))
	assert.False(t, IsDuplicateError(nil))
}
