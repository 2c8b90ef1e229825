package typeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	set := NewSet(1, 2, 3)
	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contain(1, 2))
	assert.False(t, set.Contain(1, 4))

	set.Insert(3, 4)
	assert.Equal(t, 4, set.Len())

	set.Remove(1, 100)
	assert.False(t, set.Contain(1))
	assert.ElementsMatch(t, []int{2, 3, 4}, set.Collect())

	clone := set.Clone()
	clone.Remove(2)
	assert.True(t, set.Contain(2))
	assert.False(t, clone.Contain(2))
}

func TestSetNilRemove(t *testing.T) {
	var set Set[string]
	assert.NotPanics(t, func() { set.Remove("a") })
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.Collect())
}
