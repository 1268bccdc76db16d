package errx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = errors.New("sentinel")

func TestWrapMatchesBoth(t *testing.T) {
	cause := errors.New("cause")
	err := Wrap(errSentinel, cause)

	assert.ErrorIs(t, err, errSentinel)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "sentinel: cause", err.Error())
}

func TestWrapNilCause(t *testing.T) {
	assert.Equal(t, errSentinel, Wrap(errSentinel, nil))
}

func TestWith(t *testing.T) {
	err := With(errSentinel, ": %s", "detail")

	assert.ErrorIs(t, err, errSentinel)
	assert.Equal(t, "sentinel: detail", err.Error())
}
