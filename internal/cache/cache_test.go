package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fern-notes/internal/models"
)

func TestGetSetInvalidate(t *testing.T) {
	c := New()

	_, ok := c.Get("u1")
	assert.False(t, ok)

	c.Set("u1", []models.Note{{ID: "n1"}})
	notes, ok := c.Get("u1")
	require.True(t, ok)
	require.Len(t, notes, 1)
	assert.Equal(t, "n1", notes[0].ID)

	c.Set("u1", []models.Note{{ID: "n1"}, {ID: "n2"}})
	notes, _ = c.Get("u1")
	assert.Len(t, notes, 2)

	c.Invalidate("u1")
	_, ok = c.Get("u1")
	assert.False(t, ok)

	// Invalidating a missing key is fine.
	c.Invalidate("u1")
}

func TestEvictsOldestAtCapacity(t *testing.T) {
	c := New()

	for i := 0; i < MaxCacheSize+10; i++ {
		c.Set(fmt.Sprintf("u%d", i), nil)
	}

	_, ok := c.Get("u0")
	assert.False(t, ok, "oldest entries are evicted")
	_, ok = c.Get(fmt.Sprintf("u%d", MaxCacheSize+9))
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	c := New()
	c.Set("u1", nil)
	c.Clear()
	_, ok := c.Get("u1")
	assert.False(t, ok)
}
