package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintIsDeterministic(t *testing.T) {
	a := Fingerprint([]byte("receipt bytes"))
	b := Fingerprint([]byte("receipt bytes"))
	c := Fingerprint([]byte("other bytes"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64) // hex sha-256
}

func TestResultCachePutGet(t *testing.T) {
	c := newResultCache(4)
	r := &Result{ID: "one"}
	c.Put("k", r)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Same(t, r, got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestResultCachePutIsWriteOnce(t *testing.T) {
	c := newResultCache(4)
	c.Put("k", &Result{ID: "first"})
	c.Put("k", &Result{ID: "second"})

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "first", got.ID)
	assert.Equal(t, 1, c.Len())
}

func TestResultCacheEvictsOldestFirst(t *testing.T) {
	c := newResultCache(3)
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("k%d", i)
		c.Put(key, &Result{ID: key})
	}

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("k0")
	assert.False(t, ok)
	_, ok = c.Get("k1")
	assert.False(t, ok)
	_, ok = c.Get("k4")
	assert.True(t, ok)
}

func TestResultCacheDefaultSize(t *testing.T) {
	c := newResultCache(0)
	assert.Equal(t, 128, c.maxSize)
}
