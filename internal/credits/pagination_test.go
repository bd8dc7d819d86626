package credits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0))
	assert.Equal(t, 1, ClampPage(-5))
	assert.Equal(t, 3, ClampPage(3))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultPageSize, ClampLimit(0))
	assert.Equal(t, DefaultPageSize, ClampLimit(-1))
	assert.Equal(t, 50, ClampLimit(50))
	assert.Equal(t, MaxPageSize, ClampLimit(1000))
}

func TestNewPage(t *testing.T) {
	t.Run("second page of 25 records", func(t *testing.T) {
		p := NewPage(2, 20, 25)
		assert.Equal(t, 2, p.TotalPages)
		assert.False(t, p.HasNextPage)
		assert.True(t, p.HasPrevPage)
	})

	t.Run("first page with more to come", func(t *testing.T) {
		p := NewPage(1, 20, 25)
		assert.True(t, p.HasNextPage)
		assert.False(t, p.HasPrevPage)
	})

	t.Run("empty history", func(t *testing.T) {
		p := NewPage(1, 20, 0)
		assert.Equal(t, 0, p.TotalPages)
		assert.False(t, p.HasNextPage)
		assert.False(t, p.HasPrevPage)
	})

	t.Run("exact multiple", func(t *testing.T) {
		p := NewPage(2, 20, 40)
		assert.Equal(t, 2, p.TotalPages)
		assert.False(t, p.HasNextPage)
	})
}
