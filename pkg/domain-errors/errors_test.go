package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeDependencyFailure, "send email")

	assert.True(t, HasCode(err, CodeDependencyFailure))
	assert.False(t, HasCode(err, CodeInternal))
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("notify buyer: %w", err)
	assert.True(t, HasCode(wrapped, CodeDependencyFailure), "code survives fmt wrapping")
	assert.Equal(t, CodeDependencyFailure, CodeOf(wrapped))
}

func TestCodeOf_UncodedIsInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.False(t, Is(nil, CodeNotFound))
}
