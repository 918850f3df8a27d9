package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferences_ZeroValueIsEmpty(t *testing.T) {
	var r References
	assert.True(t, r.Empty())
	assert.Empty(t, r.Paths())
	assert.Empty(t, r.Libraries())
}

func TestReferences_DuplicatesCollapse(t *testing.T) {
	r := NewReferences([]string{"a", "a", "b"}, fakeLibrary{name: "lib"}, fakeLibrary{name: "lib"})
	assert.Equal(t, []string{"a", "b"}, r.Paths())
	assert.Len(t, r.Libraries(), 1)
}

func TestReferences_PathsSorted(t *testing.T) {
	r := NewReferences([]string{"z", "a", "m"})
	assert.Equal(t, []string{"a", "m", "z"}, r.Paths())
}

func TestReferences_Union(t *testing.T) {
	a := NewReferences([]string{"a", "b"})
	b := NewReferences([]string{"b", "c"}, fakeLibrary{name: "lib"})

	u := a.Union(b)
	assert.Equal(t, []string{"a", "b", "c"}, u.Paths())
	assert.Len(t, u.Libraries(), 1)

	// Inputs untouched.
	assert.Equal(t, []string{"a", "b"}, a.Paths())
	assert.Equal(t, []string{"b", "c"}, b.Paths())
}

func TestReferences_UnionWithZero(t *testing.T) {
	var zero References
	a := NewReferences([]string{"a"})
	assert.True(t, a.Union(zero).Equal(a))
	assert.True(t, zero.Union(a).Equal(a))
}

func TestReferences_Except(t *testing.T) {
	a := NewReferences([]string{"a", "b", "c"}, fakeLibrary{name: "keep"}, fakeLibrary{name: "drop"})
	b := NewReferences([]string{"b"}, fakeLibrary{name: "drop"})

	d := a.Except(b)
	assert.Equal(t, []string{"a", "c"}, d.Paths())
	libs := d.Libraries()
	assert.Len(t, libs, 1)
	assert.Equal(t, "keep", libs[0].Name())

	assert.True(t, a.Except(a).Empty())
}

func TestReferences_Equal(t *testing.T) {
	a := NewReferences([]string{"a", "b"})
	b := NewReferences([]string{"b", "a"})
	c := NewReferences([]string{"a"})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(NewReferences([]string{"a", "b"}, fakeLibrary{name: "x"})))

	var zero References
	assert.True(t, zero.Equal(References{}))
}
