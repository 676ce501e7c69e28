package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestControlStack(t *testing.T) {
	var s ControlStack

	assert.True(t, s.Execute())
	assert.True(t, s.IsEmpty())
	assert.False(t, s.Toggle())
	assert.False(t, s.Pop())

	s.Push(true)
	assert.True(t, s.Execute())

	s.Push(false)
	assert.False(t, s.Execute())

	// a true branch inside a skipped one does not execute
	s.Push(true)
	assert.False(t, s.Execute())
	assert.True(t, s.Toggle())
	assert.False(t, s.Execute())
	assert.True(t, s.Pop())

	assert.True(t, s.Toggle())
	assert.True(t, s.Execute())
	assert.True(t, s.Toggle())
	assert.False(t, s.Execute())

	assert.Equal(t, 2, s.Depth())
	assert.True(t, s.Pop())
	assert.True(t, s.Pop())
	assert.True(t, s.IsEmpty())
}
