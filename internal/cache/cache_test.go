package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docsql/internal/row"
)

func TestTTLCache_PutGet(t *testing.T) {
	c := NewTTL(8, time.Minute)
	rows := []*row.Row{row.Of("id", 1), row.Of("id", 2)}

	_, ok := c.Get("p1", "t1")
	assert.False(t, ok)

	c.Put("p1", "t1", rows)
	got, ok := c.Get("p1", "t1")
	require.True(t, ok)
	assert.Equal(t, rows, got)

	// Keyed by project as well as table.
	_, ok = c.Get("p2", "t1")
	assert.False(t, ok)
}

func TestTTLCache_GetReturnsCopyOfSlice(t *testing.T) {
	c := NewTTL(8, time.Minute)
	c.Put("p1", "t1", []*row.Row{row.Of("id", 1)})

	got, _ := c.Get("p1", "t1")
	got[0] = row.Of("id", 99)

	again, _ := c.Get("p1", "t1")
	v, _ := again[0].Get("id")
	assert.Equal(t, float64(1), v)
}

func TestTTLCache_Invalidate(t *testing.T) {
	c := NewTTL(8, time.Minute)
	c.Put("p1", "t1", []*row.Row{row.Of("id", 1)})
	c.Put("p1", "t2", []*row.Row{row.Of("id", 2)})

	c.Invalidate("p1", "t1")

	_, ok := c.Get("p1", "t1")
	assert.False(t, ok)
	_, ok = c.Get("p1", "t2")
	assert.True(t, ok)
}

func TestTTLCache_Expires(t *testing.T) {
	c := NewTTL(8, 20*time.Millisecond)
	c.Put("p1", "t1", []*row.Row{row.Of("id", 1)})

	assert.Eventually(t, func() bool {
		_, ok := c.Get("p1", "t1")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestTTLCache_SizeBound(t *testing.T) {
	c := NewTTL(2, time.Minute)
	c.Put("p", "a", nil)
	c.Put("p", "b", nil)
	c.Put("p", "c", nil)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("p", "a")
	assert.False(t, ok, "least recently used entry is evicted")
}

func TestNewTTL_Defaults(t *testing.T) {
	c := NewTTL(0, 0)
	for i := 0; i < DefaultSize+1; i++ {
		c.Put("p", string(rune('a'+i%26))+string(rune('0'+i/26)), nil)
	}
	assert.Equal(t, DefaultSize, c.Len())
}

func TestNop(t *testing.T) {
	var c RowCache = Nop{}
	c.Put("p", "t", []*row.Row{row.Of("id", 1)})
	_, ok := c.Get("p", "t")
	assert.False(t, ok)
	c.Invalidate("p", "t")
}
