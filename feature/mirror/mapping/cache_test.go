package mapping

import (
	"testing"
	"time"

	"stock-mirror/feature/mirror/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func TestCache_GetPut(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(5*time.Minute, clock.Now)

	_, ok := c.Get("111")
	assert.False(t, ok)

	c.Put(&models.ProductMapping{
		Barcode:         "111",
		RemoteVariantID: "V1",
		DiscoveryMethod: models.DiscoveryPersisted,
	})

	got, ok := c.Get("111")
	require.True(t, ok)
	assert.Equal(t, "V1", got.RemoteVariantID)
	assert.Equal(t, 1, c.Len())
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(5*time.Minute, clock.Now)

	c.Put(&models.ProductMapping{Barcode: "111", RemoteVariantID: "V1"})

	clock.Advance(5*time.Minute - time.Second)
	_, ok := c.Get("111")
	assert.True(t, ok, "entry within TTL must hit")

	clock.Advance(2 * time.Second)
	_, ok = c.Get("111")
	assert.False(t, ok, "entry past TTL must miss")
}

func TestCache_PutRestartsTTL(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(time.Minute, clock.Now)

	c.Put(&models.ProductMapping{Barcode: "111", RemoteVariantID: "V1"})
	clock.Advance(45 * time.Second)
	c.Put(&models.ProductMapping{Barcode: "111", RemoteVariantID: "V1"})
	clock.Advance(45 * time.Second)

	_, ok := c.Get("111")
	assert.True(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	c := NewCache(time.Minute, nil)

	c.Put(&models.ProductMapping{Barcode: "111"})
	c.Invalidate("111")

	_, ok := c.Get("111")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_CopiesOnRead(t *testing.T) {
	c := NewCache(time.Minute, nil)
	c.Put(&models.ProductMapping{Barcode: "111", RemoteVariantID: "V1"})

	got, ok := c.Get("111")
	require.True(t, ok)
	got.RemoteVariantID = "mutated"

	again, ok := c.Get("111")
	require.True(t, ok)
	assert.Equal(t, "V1", again.RemoteVariantID)
}
