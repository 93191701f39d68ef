package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	wrapped := fmt.Errorf("regenerate: %w", Locked("Summary %s is locked", "2024-05"))

	assert.ErrorIs(t, wrapped, ErrLocked)
	assert.NotErrorIs(t, wrapped, ErrConflict)
	assert.Equal(t, KindLocked, KindOf(wrapped))
	assert.Equal(t, "Summary 2024-05 is locked", MessageOf(wrapped))
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal(cause, "")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "Internal server error", MessageOf(err))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}
