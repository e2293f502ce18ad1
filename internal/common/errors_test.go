package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDomain(t *testing.T) {
	assert.True(t, IsDomain(ErrNoActiveDrop))
	assert.True(t, IsDomain(fmt.Errorf("claim: %w", ErrAlreadyClaimed)))
	assert.True(t, IsDomain(&CooldownError{Action: "daily", Remaining: 5}))
	assert.False(t, IsDomain(errors.New("connection reset")))
	assert.False(t, IsDomain(nil))
}

func TestClassify(t *testing.T) {
	require.NoError(t, Classify("op", nil))

	assert.Same(t, ErrInsufficientFunds, Classify("debit", ErrInsufficientFunds))

	cause := errors.New("db down")
	err := Classify("debit", cause)
	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "debit")

	// already classified errors are not wrapped twice
	assert.Same(t, err, Classify("outer", err))
}

func TestCooldownError(t *testing.T) {
	err := error(&CooldownError{Action: "work", Remaining: 42})

	assert.ErrorIs(t, err, ErrCooldownActive)
	assert.Equal(t, "cooldown active: work available in 42s", err.Error())

	var ce *CooldownError
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &ce)
	assert.EqualValues(t, 42, ce.Remaining)
}
