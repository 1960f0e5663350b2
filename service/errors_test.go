package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_MatchesKind(t *testing.T) {
	err := NewConflictError("utr %s already used", "ABC123")

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "utr ABC123 already used", err.Error())
}

func TestDomainError_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("failed to settle: %w", NewNotFoundError("transaction not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsDomainError(err))
	assert.False(t, IsDomainError(errors.New("database down")))
}
