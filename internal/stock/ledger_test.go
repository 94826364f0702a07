package stock

import (
	"fmt"
	"testing"

	"masapos-backend/internal/apperrors"
	"masapos-backend/internal/database"
	"masapos-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func intPtr(v int) *int { return &v }

func seedTracked(t *testing.T, db *gorm.DB, name string, stock int, threshold *int) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		Name:              name,
		Price:             100,
		Status:            models.MenuItemAvailable,
		StockQuantity:     intPtr(stock),
		LowStockThreshold: threshold,
		Unit:              "adet",
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func stockOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var item models.MenuItem
	require.NoError(t, db.First(&item, id).Error)
	require.NotNil(t, item.StockQuantity)
	return *item.StockQuantity
}

func TestDebitWritesLedgerRowAndDecrements(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	item := seedTracked(t, db, "Köfte", 10, nil)

	res, err := ledger.Debit(item.ID, 3, 42, "order")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 7, res.Remaining)
	assert.Equal(t, 7, stockOf(t, db, item.ID))

	var row models.InventoryTransaction
	require.NoError(t, db.First(&row, "menu_item_id = ?", item.ID).Error)
	assert.Equal(t, models.InventorySale, row.Type)
	assert.Equal(t, -3, row.Quantity)
	require.NotNil(t, row.OrderID)
	assert.Equal(t, uint(42), *row.OrderID)
}

func TestDebitInsufficientLeavesNoTrace(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	item := seedTracked(t, db, "Levrek", 2, nil)

	_, err := ledger.Debit(item.ID, 5, 1, "order")
	var se *apperrors.InsufficientStockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 5, se.Requested)
	assert.Equal(t, 2, se.Available)

	assert.Equal(t, 2, stockOf(t, db, item.ID))
	var count int64
	db.Model(&models.InventoryTransaction{}).Count(&count)
	assert.Zero(t, count)
}

func TestDebitUntrackedItemIsSkipped(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	item := models.MenuItem{Name: "Çay", Price: 50, Status: models.MenuItemAvailable}
	require.NoError(t, db.Create(&item).Error)

	res, err := ledger.Debit(item.ID, 100, 1, "order")
	require.NoError(t, err)
	assert.False(t, res.Applied)

	var count int64
	db.Model(&models.InventoryTransaction{}).Count(&count)
	assert.Zero(t, count, "takipsiz ürün defter satırı üretmemeli")
}

func TestDebitLowStockAtThreshold(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	item := seedTracked(t, db, "Köfte", 5, intPtr(3))

	// 5 -> 3: tam eşikte de uyarı üretilmeli
	res, err := ledger.Debit(item.ID, 2, 1, "order")
	require.NoError(t, err)
	assert.True(t, res.IsLowStock)
	assert.Equal(t, 3, res.Remaining)
	assert.Equal(t, 3, res.Threshold)
}

func TestDebitAboveThresholdNotLow(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	item := seedTracked(t, db, "Köfte", 10, intPtr(3))

	res, err := ledger.Debit(item.ID, 2, 1, "order")
	require.NoError(t, err)
	assert.False(t, res.IsLowStock)
}

func TestRestockIncrementsAndLogs(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	item := seedTracked(t, db, "Köfte", 4, nil)

	row, err := ledger.Restock(item.ID, 20, "", "haftalık alım", 1, "Ahmet")
	require.NoError(t, err)
	assert.Equal(t, models.InventoryRestock, row.Type)
	assert.Equal(t, 20, row.Quantity)
	assert.Equal(t, "adet", row.Unit)
	assert.Equal(t, 24, stockOf(t, db, item.ID))
}

func TestRestockStartsTrackingUntrackedItem(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	item := models.MenuItem{Name: "Şişe Su", Price: 20, Status: models.MenuItemAvailable}
	require.NoError(t, db.Create(&item).Error)

	_, err := ledger.Restock(item.ID, 50, "şişe", "", 1, "Ahmet")
	require.NoError(t, err)
	assert.Equal(t, 50, stockOf(t, db, item.ID))

	sum, err := ledger.LedgerSum(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, sum)
}

func TestAdjustWritesNegativeRow(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	item := seedTracked(t, db, "Levrek", 10, nil)

	row, floored, err := ledger.Adjust(item.ID, 2, AdjustWaste, "bozulma", 1, "Ahmet")
	require.NoError(t, err)
	assert.False(t, floored)
	assert.Equal(t, models.InventoryWaste, row.Type)
	assert.Equal(t, -2, row.Quantity)
	assert.Equal(t, 8, stockOf(t, db, item.ID))
}

func TestAdjustFloorsAtZeroAndReportsIt(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	item := seedTracked(t, db, "Levrek", 3, nil)

	row, floored, err := ledger.Adjust(item.ID, 10, AdjustLoss, "sayım farkı", 1, "Ahmet")
	require.NoError(t, err)
	assert.True(t, floored)
	assert.Equal(t, 0, stockOf(t, db, item.ID))
	// Defter gerçeği yazar, materialize stok tabanda kalır
	assert.Equal(t, -10, row.Quantity)
}

func TestAdjustRejectsUntrackedItem(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	item := models.MenuItem{Name: "Çay", Price: 50, Status: models.MenuItemAvailable}
	require.NoError(t, db.Create(&item).Error)

	_, _, err := ledger.Adjust(item.ID, 1, AdjustWaste, "x", 1, "Ahmet")
	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestAdjustRequiresKnownType(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	item := seedTracked(t, db, "Köfte", 5, nil)

	_, _, err := ledger.Adjust(item.ID, 1, AdjustType("theft"), "x", 1, "Ahmet")
	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestLedgerSumMatchesMaterializedStock(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	item := models.MenuItem{Name: "Kola", Price: 40, Status: models.MenuItemAvailable}
	require.NoError(t, db.Create(&item).Error)

	_, err := ledger.Restock(item.ID, 30, "şişe", "", 1, "Ahmet")
	require.NoError(t, err)
	_, err = ledger.Debit(item.ID, 4, 1, "order")
	require.NoError(t, err)
	_, err = ledger.Debit(item.ID, 6, 2, "order")
	require.NoError(t, err)
	_, _, err = ledger.Adjust(item.ID, 3, AdjustWaste, "kırık şişe", 1, "Ahmet")
	require.NoError(t, err)

	sum, err := ledger.LedgerSum(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 17, sum)
	assert.Equal(t, 17, stockOf(t, db, item.ID))
}

func TestDebitRejectsNonPositiveQuantity(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	item := seedTracked(t, db, "Köfte", 5, nil)

	var ve *apperrors.ValidationError
	_, err := ledger.Debit(item.ID, 0, 1, "order")
	require.ErrorAs(t, err, &ve)
	_, err = ledger.Debit(item.ID, -2, 1, "order")
	require.ErrorAs(t, err, &ve)
}
