package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrite(t *testing.T) {
	var got string
	s := New(func(text string) error {
		got = text
		return nil
	})

	assert.True(t, s.Write("hello"))
	assert.Equal(t, "hello", got)
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	s := New(func(string) error {
		return errors.New("no display")
	})

	assert.False(t, s.Write("hello"))
}
