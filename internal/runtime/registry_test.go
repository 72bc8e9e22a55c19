package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistrySnapshot(t *testing.T) {
	handlers := Handlers[peer]{"b": addHandler, "a": addHandler, "nil": nil}
	r := newHandlerRegistry(handlers)

	assert.Equal(t, []string{"a", "b"}, r.methods())

	delete(handlers, "a")
	_, ok := r.lookup("a")
	assert.True(t, ok, "caller mutations must not leak into the registry")

	_, ok = r.lookup("nil")
	assert.False(t, ok)
}

func TestHandlerRegistryNilMap(t *testing.T) {
	r := newHandlerRegistry[peer](nil)

	assert.Empty(t, r.methods())
	_, ok := r.lookup("anything")
	assert.False(t, ok)
}
