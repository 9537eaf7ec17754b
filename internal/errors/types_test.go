package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCodeUnwraps(t *testing.T) {
	base := New(ErrCodeNotFound, "missing")
	wrapped := fmt.Errorf("load commitments: %w", base)

	assert.Equal(t, ErrCodeNotFound, GetCode(wrapped))
	assert.True(t, Is(wrapped, ErrCodeNotFound))
	assert.False(t, Is(wrapped, ErrCodeNetwork))
	assert.Equal(t, ErrorCode(""), GetCode(fmt.Errorf("plain")))
	assert.Equal(t, ErrorCode(""), GetCode(nil))
}

func TestMessage(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(fmt.Errorf("dial tcp"), ErrCodeNetwork, "Cannot connect"))
	assert.Equal(t, "Cannot connect", Message(err))
	assert.Equal(t, "plain", Message(fmt.Errorf("plain")))
	assert.Equal(t, "", Message(nil))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrCodeConflict, "exists").WithDetail("email", "a@b.c")
	assert.Equal(t, "a@b.c", err.Details["email"])
	assert.Contains(t, err.ToJSON(), `"CONFLICT"`)
	assert.Equal(t, "CONFLICT: exists", err.Error())
}
