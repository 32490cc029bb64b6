package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloseRunsHooksInReverseOrder(t *testing.T) {
	l := New()
	var order []int
	l.Register(func() { order = append(order, 1) })
	l.Register(func() { order = append(order, 2) })
	l.Register(func() { order = append(order, 3) })

	l.Close()

	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestCloseWithNoHooksDoesNotPanic(t *testing.T) {
	l := New()
	assert.NotPanics(t, func() { l.Close() })
}
