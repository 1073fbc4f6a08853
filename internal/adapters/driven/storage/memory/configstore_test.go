package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Seeded(t *testing.T) {
	seed := map[string]any{"llm.provider": "ollama"}

	store := NewConfigStore(seed)
	seed["llm.provider"] = "changed"

	assert.Equal(t, "ollama", store.GetString("llm.provider"))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"s":       "text",
		"i":       7,
		"i64":     int64(8),
		"f":       9.0,
		"b":       true,
		"strings": []string{"a", "b"},
		"anys":    []any{"x", 1, "y"},
	})

	assert.Equal(t, "text", store.GetString("s"))
	assert.Equal(t, 7, store.GetInt("i"))
	assert.Equal(t, 8, store.GetInt("i64"))
	assert.Equal(t, 9, store.GetInt("f"))
	assert.True(t, store.GetBool("b"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("strings"))
	assert.Equal(t, []string{"x", "y"}, store.GetStringSlice("anys"))

	assert.Equal(t, "", store.GetString("i"))
	assert.Equal(t, 0, store.GetInt("s"))
	assert.False(t, store.GetBool("missing"))
	assert.Nil(t, store.GetStringSlice("s"))
}

func TestConfigStore_SetAndSnapshot(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("engine.cache_size", 25))
	snap := store.Snapshot()
	snap["engine.cache_size"] = 1

	val, ok := store.Get("engine.cache_size")
	assert.True(t, ok)
	assert.Equal(t, 25, val)
}

func TestConfigStore_NoPersistence(t *testing.T) {
	store := NewConfigStore()

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Empty(t, store.Path())
	assert.Equal(t, 1, store.saves)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("k", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("k")
		}()
	}
	wg.Wait()

	_, ok := store.Get("k")
	assert.True(t, ok)
}
