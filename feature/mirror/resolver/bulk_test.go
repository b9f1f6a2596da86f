package resolver

import (
	"context"
	"testing"

	"stock-mirror/core/remote"
	"stock-mirror/core/remote/mocks"
	"stock-mirror/feature/mirror/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolveAll_PartitionsAcrossTiers(t *testing.T) {
	api := new(mocks.API)

	// "333" carries an import hint.
	api.On("GetVariant", mock.Anything, "V3").Return(&remote.Variant{
		ID: "V3", Barcode: "333", InventoryItemID: "I3",
	}, nil).Once()

	// "444" and "555" go to one batch search; only "444" exists remotely.
	api.On("SearchVariants", mock.Anything, `barcode:"444" OR barcode:"555"`, 250).
		Return([]remote.Variant{
			{ID: "V4", Barcode: "444", InventoryItemID: "I4"},
		}, nil).Once()

	r, store, cache := newTestResolver(api, Config{})

	// "111" is cached, "222" is persisted.
	cache.Put(&models.ProductMapping{Barcode: "111", RemoteVariantID: "V1"})
	require.NoError(t, store.Put(context.Background(), &models.ProductMapping{
		Barcode: "222", RemoteVariantID: "V2",
	}))

	result, err := r.ResolveAll(context.Background(), []BulkRequest{
		{Barcode: "111"},
		{Barcode: "222"},
		{Barcode: "333", Hint: &Hint{VariantID: "V3"}},
		{Barcode: "444"},
		{Barcode: "555"},
	})
	require.NoError(t, err)
	require.Len(t, result.Resolutions, 5)

	assert.Equal(t, models.DiscoveryCache, result.Resolutions["111"].Method)
	assert.Equal(t, models.DiscoveryPersisted, result.Resolutions["222"].Method)
	assert.Equal(t, models.DiscoveryImportHint, result.Resolutions["333"].Method)
	assert.Equal(t, models.DiscoveryBatch, result.Resolutions["444"].Method)
	assert.False(t, result.Resolutions["555"].Found)

	assert.Equal(t, 1, result.Stats.Counts[models.DiscoveryCache])
	assert.Equal(t, 1, result.Stats.Counts[models.DiscoveryPersisted])
	assert.Equal(t, 1, result.Stats.Counts[models.DiscoveryImportHint])
	assert.Equal(t, 1, result.Stats.Counts[models.DiscoveryBatch])
	assert.Equal(t, 1, result.Stats.NotFound)

	// No exhaustive fallback on bulk runs.
	api.AssertNotCalled(t, "ListVariants", mock.Anything, mock.Anything, mock.Anything)
	api.AssertExpectations(t)
}

func TestResolveAll_ChunksBatchSearches(t *testing.T) {
	api := new(mocks.API)
	api.On("SearchVariants", mock.Anything, `barcode:"1" OR barcode:"2"`, 250).
		Return([]remote.Variant{{ID: "V1", Barcode: "1"}}, nil).Once()
	api.On("SearchVariants", mock.Anything, `barcode:"3"`, 250).
		Return([]remote.Variant{{ID: "V3", Barcode: "3"}}, nil).Once()

	r, _, _ := newTestResolver(api, Config{BatchSize: 2})

	result, err := r.ResolveAll(context.Background(), []BulkRequest{
		{Barcode: "1"}, {Barcode: "2"}, {Barcode: "3"},
	})
	require.NoError(t, err)
	assert.True(t, result.Resolutions["1"].Found)
	assert.False(t, result.Resolutions["2"].Found)
	assert.True(t, result.Resolutions["3"].Found)
	api.AssertExpectations(t)
}

func TestResolveAll_DedupesBarcodes(t *testing.T) {
	api := new(mocks.API)
	api.On("SearchVariants", mock.Anything, `barcode:"1"`, 250).
		Return([]remote.Variant{{ID: "V1", Barcode: "1"}}, nil).Once()

	r, _, _ := newTestResolver(api, Config{})

	result, err := r.ResolveAll(context.Background(), []BulkRequest{
		{Barcode: "1"}, {Barcode: "1"}, {Barcode: " 1 "},
	})
	require.NoError(t, err)
	assert.Len(t, result.Resolutions, 1)
	api.AssertExpectations(t)
}

func TestResolveAll_FailedHintFallsBackToSearch(t *testing.T) {
	api := new(mocks.API)
	api.On("GetVariant", mock.Anything, "V1").
		Return(nil, assert.AnError).Once()
	api.On("SearchVariants", mock.Anything, `barcode:"1"`, 250).
		Return([]remote.Variant{{ID: "V1", Barcode: "1"}}, nil).Once()

	r, _, _ := newTestResolver(api, Config{})

	result, err := r.ResolveAll(context.Background(), []BulkRequest{
		{Barcode: "1", Hint: &Hint{VariantID: "V1"}},
	})
	require.NoError(t, err)
	assert.True(t, result.Resolutions["1"].Found)
	assert.Equal(t, models.DiscoveryBatch, result.Resolutions["1"].Method)
	api.AssertExpectations(t)
}

func TestResolveAll_SearchFailureLeavesChunkUnresolved(t *testing.T) {
	api := new(mocks.API)
	api.On("SearchVariants", mock.Anything, `barcode:"1" OR barcode:"2"`, 250).
		Return(nil, assert.AnError).Once()

	r, _, _ := newTestResolver(api, Config{})

	result, err := r.ResolveAll(context.Background(), []BulkRequest{
		{Barcode: "1"}, {Barcode: "2"},
	})
	require.NoError(t, err)
	assert.False(t, result.Resolutions["1"].Found)
	assert.False(t, result.Resolutions["2"].Found)
	// A failed search is not the same as a confirmed absence; the chunk's
	// resolutions carry the distinction.
	assert.Equal(t, "batch search failed", result.Resolutions["1"].Message)
	assert.Equal(t, "batch search failed", result.Resolutions["2"].Message)
	assert.Equal(t, 2, result.Stats.NotFound)
	api.AssertExpectations(t)
}

// Batch search matches barcodes verbatim: "00123" on the remote side does
// not satisfy a lookup for "123", even though the exhaustive comparator
// treats them as equivalent. Known precision gap between the tiers.
func TestResolveAll_BatchSearchIsExactMatchOnly(t *testing.T) {
	api := new(mocks.API)
	api.On("SearchVariants", mock.Anything, `barcode:"123"`, 250).
		Return([]remote.Variant{{ID: "V1", Barcode: "00123"}}, nil).Once()

	r, _, _ := newTestResolver(api, Config{})

	result, err := r.ResolveAll(context.Background(), []BulkRequest{{Barcode: "123"}})
	require.NoError(t, err)
	assert.False(t, result.Resolutions["123"].Found)
	assert.True(t, Equivalent("00123", "123"))
	api.AssertExpectations(t)
}

func TestResolveAll_EmptyInput(t *testing.T) {
	api := new(mocks.API)
	r, _, _ := newTestResolver(api, Config{})

	result, err := r.ResolveAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Resolutions)
	assert.Equal(t, 0, result.Stats.NotFound)
}
