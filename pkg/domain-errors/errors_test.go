package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeOutOfOrderEvent, "late event")
		assert.True(t, HasCode(err, CodeOutOfOrderEvent))
		assert.False(t, HasCode(err, CodeRedundantStatus))
	})

	t.Run("matches wrapped inner code", func(t *testing.T) {
		inner := New(CodeStorageUnavailable, "postgres down")
		err := Wrap(inner, CodePersistence, "append event")
		assert.True(t, HasCode(err, CodePersistence))
		assert.True(t, HasCode(err, CodeStorageUnavailable))
		assert.Equal(t, CodePersistence, CodeOf(err))
	})

	t.Run("survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("submit: %w", New(CodeDuplicateSequence, "seq 4 exists"))
		assert.True(t, HasCode(err, CodeDuplicateSequence))
	})

	t.Run("uncoded error has no code", func(t *testing.T) {
		err := errors.New("plain")
		assert.False(t, HasCode(err, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(err))
	})
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "nothing"))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(New(CodePersistence, "x")))
	assert.True(t, Retryable(New(CodeStorageUnavailable, "x")))
	assert.False(t, Retryable(New(CodeOutOfOrderEvent, "x")))
	assert.False(t, Retryable(New(CodeCacheInconsistency, "x")))
	assert.True(t, IsValidation(New(CodeRedundantStatus, "x")))
	assert.False(t, IsValidation(New(CodePersistence, "x")))
}
