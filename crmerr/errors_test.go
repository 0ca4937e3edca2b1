// ABOUTME: Tests for error classification helpers
// ABOUTME: Verifies errors.Is matching by kind and message formatting
package crmerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := Validation("update contacts", "status is invalid", map[string]string{"status": "unknown value"})
	wrapped := fmt.Errorf("update failed: %w", err)

	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.False(t, errors.Is(wrapped, ErrNetwork))
	assert.Equal(t, KindValidation, KindOf(wrapped))
}

func TestErrorMessage(t *testing.T) {
	err := Validation("update contacts", "bad input", map[string]string{"status": "unknown", "email": "invalid"})
	assert.Equal(t, "update contacts: validation error: bad input (email: invalid; status: unknown)", err.Error())

	netErr := Network("fetch", errors.New("connection refused"))
	assert.Equal(t, "fetch: network error: connection refused", netErr.Error())
}

func TestMutationFailedUnwrapsOriginal(t *testing.T) {
	orig := Authentication("update", "token expired")
	mf := &MutationFailed{Resource: "contacts", ID: "c1", Op: "update", Err: orig}

	assert.True(t, errors.Is(mf, ErrAuthentication))
	var target *Error
	assert.True(t, errors.As(mf, &target))
	assert.Same(t, orig, target)
}

func TestKindOfUnknown(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}
