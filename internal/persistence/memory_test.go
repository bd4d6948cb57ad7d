package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKVGetSet(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	val, err := kv.Get(ctx, "users")
	require.NoError(t, err)
	assert.Nil(t, val)

	payload := []byte(`[{"id":"1"}]`)
	require.NoError(t, kv.Set(ctx, "users", payload))
	payload[0] = 'x'

	val, err = kv.Get(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(val))

	require.NoError(t, kv.Delete(ctx, "users", "missing"))
	val, err = kv.Get(ctx, "users")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestMemoryKVApply(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, "pdf_a", []byte(`"AAAA"`)))

	batch := Batch{
		Sets:    map[string][]byte{"users": []byte(`[]`), "requests": []byte(`[]`)},
		Deletes: []string{"pdf_a"},
	}
	assert.False(t, batch.Empty())
	require.NoError(t, kv.Apply(ctx, batch))

	assert.ElementsMatch(t, []string{"users", "requests"}, kv.Keys())
	assert.True(t, Batch{}.Empty())
}
