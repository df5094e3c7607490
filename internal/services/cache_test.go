package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cacheStatusOutput = `Current status:
                        config: 1
                        layout: 0
                    block_html: 1
                     full_page: 0
`

func TestParseCacheStatus(t *testing.T) {
	types := ParseCacheStatus(cacheStatusOutput)
	require.Len(t, types, 4)
	assert.Equal(t, "block_html", types[0].ID)
	assert.Equal(t, "Blocks HTML output", types[0].Label)
	assert.True(t, types[0].Enabled)
	assert.Equal(t, "full_page", types[2].ID)
	assert.False(t, types[2].Enabled)
}

func TestCacheLabelFallsBackToID(t *testing.T) {
	assert.Equal(t, "Page Cache", CacheLabel("full_page"))
	assert.Equal(t, "vendor_custom", CacheLabel("vendor_custom"))
}

func TestCacheListReadsEnv(t *testing.T) {
	mage := newFakeMagento(t)
	mage.setArray("app/etc/env.php", map[string]any{
		"cache_types": map[string]any{"layout": float64(0), "config": float64(1)},
	})
	svc := &CacheService{base: newTestBase(mage)}

	types, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, CacheType{ID: "config", Label: "Configuration", Enabled: true}, types[0])
	assert.Equal(t, CacheType{ID: "layout", Label: "Layouts", Enabled: false}, types[1])
	assert.False(t, mage.ran("cache:status"))
}

func TestCacheListFallsBackToStatus(t *testing.T) {
	mage := newFakeMagento(t)
	mage.outputs["cache:status"] = cacheStatusOutput
	svc := &CacheService{base: newTestBase(mage)}

	types, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, types, 4)
}

func TestCacheDisableAllThenStats(t *testing.T) {
	ids := []string{"config", "layout", "block_html", "collections", "full_page"}
	mage := newFakeMagento(t)
	state := func(v float64) map[string]any {
		m := map[string]any{}
		for _, id := range ids {
			m[id] = v
		}
		return map[string]any{"cache_types": m}
	}
	mage.setArray("app/etc/env.php", state(1))
	mage.onRun = func(args []string) {
		if len(args) == 1 && args[0] == "cache:disable" {
			mage.setArray("app/etc/env.php", state(0))
		}
	}
	svc := &CacheService{base: newTestBase(mage)}
	ctx := context.Background()

	enabled, disabled, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, enabled)
	assert.Equal(t, 0, disabled)

	require.NoError(t, svc.DisableAll(ctx))

	enabled, disabled, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, enabled)
	assert.Equal(t, 5, disabled)
}

func TestCacheToggle(t *testing.T) {
	mage := newFakeMagento(t)
	mage.setArray("app/etc/env.php", map[string]any{
		"cache_types": map[string]any{"config": true},
	})
	svc := &CacheService{base: newTestBase(mage)}
	ctx := context.Background()

	on, err := svc.Toggle(ctx, "config")
	require.NoError(t, err)
	assert.False(t, on)
	assert.True(t, mage.ran("cache:disable config"))

	_, err = svc.Toggle(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCacheFlushReportsCommandFailure(t *testing.T) {
	mage := newFakeMagento(t)
	mage.errs["cache:clean layout"] = errors.New("exit status 1")
	svc := &CacheService{base: newTestBase(mage)}

	err := svc.Flush(context.Background(), "layout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush layout")
}

func TestCacheFlushAllFlushesStorage(t *testing.T) {
	mage := newFakeMagento(t)
	svc := &CacheService{base: newTestBase(mage)}

	require.NoError(t, svc.FlushAll(context.Background()))
	assert.True(t, mage.ran("cache:flush"))
	assert.False(t, mage.ran("cache:clean"))
}
