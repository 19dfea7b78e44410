package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizor-ai/vizor/internal/apperr"
	"github.com/vizor-ai/vizor/internal/model"
)

type fakeDescriber struct {
	calls  int
	schema model.Schema
	err    error
}

func (f *fakeDescriber) Describe(context.Context) (model.Schema, error) {
	f.calls++
	if f.err != nil {
		return model.Schema{}, f.err
	}
	return f.schema, nil
}

func oneTable(name string) model.Schema {
	return model.Schema{Tables: []model.Table{
		{Name: name, Columns: []model.Column{{Name: "id", Type: "INTEGER"}}},
	}}
}

func TestDescribe_CachesWithinTTL(t *testing.T) {
	src := &fakeDescriber{schema: oneTable("products")}
	now := time.Unix(1000, 0)
	c := New(src, 30*time.Second)
	c.now = func() time.Time { return now }

	first, err := c.Describe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	now = now.Add(10 * time.Second)
	second, err := c.Describe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "within TTL must serve the cache")
	assert.Equal(t, first, second)
}

func TestDescribe_RefreshesPastTTL(t *testing.T) {
	src := &fakeDescriber{schema: oneTable("products")}
	now := time.Unix(1000, 0)
	c := New(src, 30*time.Second)
	c.now = func() time.Time { return now }

	_, err := c.Describe(context.Background())
	require.NoError(t, err)

	src.schema = oneTable("sales")
	now = now.Add(31 * time.Second)

	schema, err := c.Describe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, "sales", schema.Tables[0].Name)
}

func TestDescribe_ZeroTTLDisablesCache(t *testing.T) {
	src := &fakeDescriber{schema: oneTable("products")}
	c := New(src, 0)

	for range 3 {
		_, err := c.Describe(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.calls)
}

func TestDescribe_ErrorIsNotCached(t *testing.T) {
	src := &fakeDescriber{err: apperr.New(apperr.KindCatalogUnavailable, "db down")}
	c := New(src, time.Minute)

	_, err := c.Describe(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindCatalogUnavailable))

	// Source recovers; the failed fetch must not have populated the cache.
	src.err = nil
	src.schema = oneTable("products")
	schema, err := c.Describe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "products", schema.Tables[0].Name)
}

type slowDescriber struct {
	mu    sync.Mutex
	calls int
}

func (s *slowDescriber) Describe(context.Context) (model.Schema, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	return oneTable("products"), nil
}

func TestDescribe_ConcurrentMissesCollapse(t *testing.T) {
	src := &slowDescriber{}
	c := New(src, time.Minute)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Describe(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, 1, src.calls, "concurrent misses should share one fetch")
}

func TestInvalidate_ForcesRefresh(t *testing.T) {
	src := &fakeDescriber{schema: oneTable("products")}
	c := New(src, time.Hour)

	_, err := c.Describe(context.Background())
	require.NoError(t, err)
	c.Invalidate()
	_, err = c.Describe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}
