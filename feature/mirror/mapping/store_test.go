package mapping

import (
	"context"
	"testing"
	"time"

	"stock-mirror/feature/mirror/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockStore wires a gormStore against sqlmock.
func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewStore(db), mock
}

func TestGormStore_GetHit(t *testing.T) {
	store, mock := newMockStore(t)

	discovered := time.Unix(1700000000, 0)
	rows := sqlmock.NewRows([]string{
		"barcode", "remote_product_id", "remote_variant_id",
		"remote_inventory_item_id", "discovery_method", "discovered_at", "search_time_ms",
	}).AddRow("111", "P1", "V1", "I1", "batch_search", discovered, 42)

	mock.ExpectQuery("SELECT (.+) FROM `product_mappings` WHERE barcode = ?").
		WillReturnRows(rows)

	m, err := store.Get(context.Background(), "111")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "V1", m.RemoteVariantID)
	assert.Equal(t, models.DiscoveryBatch, m.DiscoveryMethod)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_GetMissIsNotAnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM `product_mappings` WHERE barcode = ?").
		WillReturnRows(sqlmock.NewRows([]string{"barcode"}))

	m, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_PutUpserts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `product_mappings` (.+) ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Put(context.Background(), &models.ProductMapping{
		Barcode:               "111",
		RemoteProductID:       "P1",
		RemoteVariantID:       "V1",
		RemoteInventoryItemID: "I1",
		DiscoveryMethod:       models.DiscoveryImportHint,
		DiscoveredAt:          time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_PutRequiresBarcode(t *testing.T) {
	store, _ := newMockStore(t)

	assert.Error(t, store.Put(context.Background(), &models.ProductMapping{}))
	assert.Error(t, store.Put(context.Background(), nil))
}

func TestGormStore_Invalidate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `product_mappings` WHERE barcode = ?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Invalidate(context.Background(), "111"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	m, err := store.Get(ctx, "111")
	require.NoError(t, err)
	assert.Nil(t, m)

	require.NoError(t, store.Put(ctx, &models.ProductMapping{Barcode: "111", RemoteVariantID: "V1"}))
	require.NoError(t, store.Put(ctx, &models.ProductMapping{Barcode: "111", RemoteVariantID: "V2"}))
	assert.Equal(t, 1, store.Len(), "put is an upsert keyed by barcode")

	m, err = store.Get(ctx, "111")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "V2", m.RemoteVariantID)

	require.NoError(t, store.Invalidate(ctx, "111"))
	m, err = store.Get(ctx, "111")
	require.NoError(t, err)
	assert.Nil(t, m)
}
