package collection

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("creates a fresh collection with defaults", func(t *testing.T) {
		dir := t.TempDir()
		c, err := Open(dir, DefaultConfig("widgets", 4))
		require.NoError(t, err)
		require.NotNil(t, c)
		defer c.Close()

		assert.Equal(t, "widgets", c.config.Name)
		assert.Equal(t, 4, c.config.Dimension)
	})

	t.Run("rejects a second opener while the first still holds the lock", func(t *testing.T) {
		dir := t.TempDir()
		c, err := Open(dir, DefaultConfig("widgets", 4))
		require.NoError(t, err)
		defer c.Close()

		_, err = Open(dir, DefaultConfig("widgets", 4))
		assert.Error(t, err)
	})

	t.Run("reopen restores points inserted before close", func(t *testing.T) {
		dir := t.TempDir()
		c, err := Open(dir, DefaultConfig("widgets", 4))
		require.NoError(t, err)

		require.NoError(t, c.Upsert(Point{
			ID:      1,
			Vector:  []float32{1, 0, 0, 0},
			Payload: json.RawMessage(`{"label":"widget","name":"a"}`),
		}))
		require.NoError(t, c.Close())

		reopened, err := Open(dir, nil)
		require.NoError(t, err)
		defer reopened.Close()

		assert.Equal(t, 1, reopened.ids.Len())
		v, err := reopened.vecSource.Vector(0)
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0, 0, 0}, v)
	})
}

func TestUpsertAndDelete(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir, DefaultConfig("widgets", 4))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Upsert(Point{
		ID:      7,
		Vector:  []float32{0, 1, 0, 0},
		Payload: json.RawMessage(`{"label":"widget","name":"gear"}`),
	}))
	assert.Equal(t, 1, c.ids.Len())

	t.Run("upsert on an existing id replaces in place", func(t *testing.T) {
		require.NoError(t, c.Upsert(Point{
			ID:      7,
			Vector:  []float32{0, 0, 1, 0},
			Payload: json.RawMessage(`{"label":"widget","name":"cog"}`),
		}))
		assert.Equal(t, 1, c.ids.Len())
		idx, ok := c.ids.GetIdx(7)
		require.True(t, ok)
		v, err := c.vecSource.Vector(idx)
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 0, 1, 0}, v)
	})

	t.Run("dimension mismatch is rejected", func(t *testing.T) {
		err := c.Upsert(Point{ID: 8, Vector: []float32{1, 2}})
		assert.Error(t, err)
	})

	t.Run("delete removes the payload and is idempotent", func(t *testing.T) {
		require.NoError(t, c.Delete(7))
		_, ok, err := c.payloads.Get(7)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, c.Delete(7))
	})
}

func TestUpsertWithTTLExpires(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir, DefaultConfig("widgets", 4))
	require.NoError(t, err)
	defer c.Close()

	ttl := time.Millisecond
	require.NoError(t, c.Upsert(Point{
		ID:      1,
		Vector:  []float32{1, 0, 0, 0},
		Payload: json.RawMessage(`{}`),
		TTL:     &ttl,
	}))

	time.Sleep(2 * time.Millisecond)
	assert.True(t, c.ttls.IsExpired(1))
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir, DefaultConfig("widgets", 4))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Upsert(Point{ID: 1, Vector: []float32{1, 0, 0, 0}, Payload: json.RawMessage(`{}`)}))
	require.NoError(t, c.Upsert(Point{ID: 2, Vector: []float32{0, 1, 0, 0}, Payload: json.RawMessage(`{}`)}))

	stats := c.Stats()
	assert.Equal(t, 2, stats.PointCount)
	assert.Equal(t, "widgets", stats.Name)
}
