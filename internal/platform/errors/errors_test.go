package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/pscheid92/spotthefake/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name       string
		err        *Error
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", ValidationError("bad input"), TypeValidation, http.StatusBadRequest},
		{"not found", NotFoundError("missing"), TypeNotFound, http.StatusNotFound},
		{"conflict", ConflictError("wrong state"), TypeConflict, http.StatusConflict},
		{"unavailable", UnavailableError("try later", cause), TypeUnavailable, http.StatusServiceUnavailable},
		{"internal", InternalError("boom", cause), TypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus())
			assert.NotNil(t, tt.err.Context)
			assert.Contains(t, tt.err.Error(), string(tt.wantType))
		})
	}
}

func TestError_MessageIncludesCause(t *testing.T) {
	err := InternalError("failed to store artifact", fmt.Errorf("disk full"))
	assert.Equal(t, "internal: failed to store artifact: disk full", err.Error())

	noCause := InternalError("something went wrong", nil)
	assert.NotContains(t, noCause.Error(), "<nil>")
}

func TestWithField_Chaining(t *testing.T) {
	err := NotFoundError("artifact not found").
		WithField("artifact_id", "abc").
		WithField("round", 3)

	assert.Len(t, err.Context, 2)
	assert.Equal(t, "abc", err.Context["artifact_id"])
	assert.Equal(t, 3, err.Context["round"])
}

func TestWithField_NilMap(t *testing.T) {
	err := &Error{Type: TypeValidation, Message: "test"}
	err = err.WithField("key", "value")
	assert.Equal(t, "value", err.Context["key"])
}

func TestToResponse(t *testing.T) {
	resp := ValidationError("invalid guess").WithField("guess", "maybe").ToResponse()

	assert.Equal(t, "invalid guess", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
	assert.Equal(t, "maybe", resp.Context["guess"])
}

func TestUnwrapAndIs(t *testing.T) {
	root := fmt.Errorf("root")
	wrapped := InternalError("wrapped", root)

	assert.Equal(t, root, errors.Unwrap(wrapped))
	assert.ErrorIs(t, wrapped, root)
	assert.Nil(t, errors.Unwrap(ValidationError("no cause")))
}

func TestAsStructuredError_Passthrough(t *testing.T) {
	original := ConflictError("original")
	wrapped := fmt.Errorf("handler: %w", original)

	assert.Same(t, original, AsStructuredError(original))
	assert.Same(t, original, AsStructuredError(wrapped))
	assert.Nil(t, AsStructuredError(nil))
}

func TestAsStructuredError_DomainSentinels(t *testing.T) {
	tests := []struct {
		err        error
		wantType   ErrorType
		wantStatus int
	}{
		{domain.ErrInvalidLabel, TypeValidation, http.StatusBadRequest},
		{domain.ErrInvalidRounds, TypeValidation, http.StatusBadRequest},
		{domain.ErrArtifactNotFound, TypeNotFound, http.StatusNotFound},
		{domain.ErrNoActiveRound, TypeConflict, http.StatusConflict},
		{domain.ErrSessionClosed, TypeConflict, http.StatusConflict},
		{domain.ErrProviderUnavailable, TypeUnavailable, http.StatusServiceUnavailable},
		{domain.ErrEmptyCorpus, TypeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("next round: %w", tt.err)
			got := AsStructuredError(wrapped)

			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus())
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestAsStructuredError_UnknownIsInternal(t *testing.T) {
	original := fmt.Errorf("standard error")
	result := AsStructuredError(original)

	assert.Equal(t, TypeInternal, result.Type)
	assert.Equal(t, "internal server error", result.Message)
	assert.Equal(t, original, result.Cause)
}
