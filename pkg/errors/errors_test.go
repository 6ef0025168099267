package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("create enrollment: %w", ErrAlreadyEnrolled)

	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, "ALREADY_ENROLLED", appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestFromErrorHidesUnknownErrors(t *testing.T) {
	appErr := FromError(stdErrors.New("pq: connection refused"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, ErrInternal.Message, appErr.Message)
	assert.NotContains(t, appErr.Message, "pq:")
}

func TestIsMatchesByCode(t *testing.T) {
	clone := Clone(ErrNotFound, "course not found")
	assert.True(t, stdErrors.Is(clone, ErrNotFound))
	assert.False(t, stdErrors.Is(clone, ErrForbidden))
}

func TestLocalizedMessages(t *testing.T) {
	assert.Equal(t, "Sie sind bereits für diesen Kurs angemeldet.", ErrAlreadyEnrolled.Message)
	assert.Equal(t, http.StatusTooManyRequests, ErrRateLimited.Status)
}
