package packeteer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StringAndCode(t *testing.T) {
	err := NewError(InvalidOption, "bad scheme")
	assert.Equal(t, InvalidOption, err.Code())
	assert.Equal(t, "invalid-option: bad scheme", err.Error())
}

func TestError_CodeOnNil(t *testing.T) {
	var err *Error
	assert.Equal(t, Success, err.Code())
}

func TestError_WrapAndUnwrap(t *testing.T) {
	cause := errors.New("underlying syscall failure")
	err := WrapError(FSError, "open failed", cause)
	require.Equal(t, cause, errors.Unwrap(err))
	assert.Equal(t, "fs-error: open failed: underlying syscall failure", err.Error())
}

func TestError_Is(t *testing.T) {
	a := NewError(RepeatAction, "retry me")
	b := NewError(RepeatAction, "different message, same kind")
	c := NewError(TimeoutError, "different kind entirely")

	assert.True(t, errors.Is(a, b), "same Kind should satisfy errors.Is")
	assert.False(t, errors.Is(a, c), "different Kind should not satisfy errors.Is")
}

func TestErrorKind_StringStable(t *testing.T) {
	cases := map[ErrorKind]string{
		Success:           "success",
		UnsupportedAction: "unsupported-action",
		EmptyCallback:     "empty-callback",
		AddressInUse:      "address-in-use",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}

func TestErrorKind_StringUnknown(t *testing.T) {
	unknown := ErrorKind(9999)
	assert.NotEmpty(t, unknown.String())
}
