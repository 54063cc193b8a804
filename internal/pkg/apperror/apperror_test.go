package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMatchesKind(t *testing.T) {
	errRequestNotFound := New(ErrNotFound, "leave request not found")
	wrapped := fmt.Errorf("failed to decide: %w", errRequestNotFound)

	assert.True(t, errors.Is(wrapped, errRequestNotFound))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrConflict))
	assert.Equal(t, "leave request not found", errRequestNotFound.Error())
}

func TestKind(t *testing.T) {
	assert.Equal(t, ErrConflict, Kind(fmt.Errorf("x: %w", New(ErrConflict, "version changed"))))
	assert.Equal(t, ErrUpstreamUnavailable, Kind(ErrUpstreamUnavailable))
	assert.Nil(t, Kind(errors.New("plain")))
	assert.Nil(t, Kind(nil))
}
