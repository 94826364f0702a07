package order

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"masapos-backend/internal/apperrors"
	"masapos-backend/internal/database"
	"masapos-backend/internal/events"
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

func uintPtr(v uint) *uint { return &v }

func seedMenuItem(t *testing.T, db *gorm.DB, name string, price float64, stock, threshold *int) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		Name:              name,
		Price:             price,
		Status:            models.MenuItemAvailable,
		PrepArea:          models.PrepAreaKitchen,
		StockQuantity:     stock,
		LowStockThreshold: threshold,
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *events.Bus) {
	t.Helper()
	db := newTestDB(t)
	bus := events.NewBus(16)
	t.Cleanup(bus.Close)
	return NewService(db, bus, 0.18), db, bus
}

func TestCreateComputesTotalsFromLines(t *testing.T) {
	svc, db, _ := newTestService(t)
	tea := seedMenuItem(t, db, "Çay", 50, nil, nil)
	kofte := seedMenuItem(t, db, "Köfte", 200, intPtr(10), nil)

	o, err := svc.Create(CreateInput{Lines: []CreateLine{
		{MenuItemID: kofte.ID, Quantity: 2},
		{MenuItemID: tea.ID, Quantity: 3},
	}})
	require.NoError(t, err)

	assert.InDelta(t, 550.0, o.Subtotal, 0.001)
	assert.InDelta(t, 99.0, o.Tax, 0.001)
	assert.InDelta(t, 649.0, o.Total, 0.001)
	assert.Equal(t, models.OrderPending, o.Status)
}

func TestCreateAssignsOrderNumberFromID(t *testing.T) {
	svc, db, _ := newTestService(t)
	item := seedMenuItem(t, db, "Ayran", 30, nil, nil)

	o1, err := svc.Create(CreateInput{Lines: []CreateLine{{MenuItemID: item.ID, Quantity: 1}}})
	require.NoError(t, err)
	o2, err := svc.Create(CreateInput{Lines: []CreateLine{{MenuItemID: item.ID, Quantity: 1}}})
	require.NoError(t, err)

	prefix := "ORD-" + time.Now().Format("20060102") + "-"
	assert.True(t, strings.HasPrefix(o1.OrderNumber, prefix), o1.OrderNumber)
	assert.Equal(t, fmt.Sprintf("%s%04d", prefix, o1.ID), o1.OrderNumber)
	assert.NotEqual(t, o1.OrderNumber, o2.OrderNumber)
}

func TestCreateRejectsEmptyAndInvalidLines(t *testing.T) {
	svc, db, _ := newTestService(t)
	item := seedMenuItem(t, db, "Çay", 50, nil, nil)

	_, err := svc.Create(CreateInput{})
	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = svc.Create(CreateInput{Lines: []CreateLine{{MenuItemID: item.ID, Quantity: 0}}})
	require.ErrorAs(t, err, &ve)

	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count, "reddedilen sipariş hiçbir satır bırakmamalı")
}

func TestCreateRejectsInsufficientStockAtomically(t *testing.T) {
	svc, db, _ := newTestService(t)
	cheap := seedMenuItem(t, db, "Çay", 50, nil, nil)
	scarce := seedMenuItem(t, db, "Levrek", 800, intPtr(1), nil)

	_, err := svc.Create(CreateInput{Lines: []CreateLine{
		{MenuItemID: cheap.ID, Quantity: 1},
		{MenuItemID: scarce.ID, Quantity: 3},
	}})

	var se *apperrors.InsufficientStockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, scarce.ID, se.MenuItemID)
	assert.Equal(t, 3, se.Requested)
	assert.Equal(t, 1, se.Available)

	// Kısmi sipariş kalmamalı
	var orders, items int64
	db.Model(&models.Order{}).Count(&orders)
	db.Model(&models.OrderItem{}).Count(&items)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestCreateAggregatesDuplicateLinesForStockCheck(t *testing.T) {
	svc, db, _ := newTestService(t)
	scarce := seedMenuItem(t, db, "Levrek", 800, intPtr(3), nil)

	// 2+2 = 4 > 3: satır satır bakılsa geçerdi, toplam ihtiyaç reddetmeli
	_, err := svc.Create(CreateInput{Lines: []CreateLine{
		{MenuItemID: scarce.ID, Quantity: 2},
		{MenuItemID: scarce.ID, Quantity: 2},
	}})

	var se *apperrors.InsufficientStockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 4, se.Requested)
}

func TestCreateRejectsUnavailableItem(t *testing.T) {
	svc, db, _ := newTestService(t)
	item := seedMenuItem(t, db, "Mevsim Salata", 120, nil, nil)
	require.NoError(t, db.Model(&item).Update("status", models.MenuItemUnavailable).Error)

	_, err := svc.Create(CreateInput{Lines: []CreateLine{{MenuItemID: item.ID, Quantity: 1}}})
	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestUnitPriceFrozenAfterMenuPriceChange(t *testing.T) {
	svc, db, _ := newTestService(t)
	item := seedMenuItem(t, db, "Köfte", 200, nil, nil)

	o, err := svc.Create(CreateInput{Lines: []CreateLine{{MenuItemID: item.ID, Quantity: 2}}})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.MenuItem{}).Where("id = ?", item.ID).Update("price", 999).Error)

	// Toplamlar yeniden hesaplansa bile donmuş birim fiyat kullanılır
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.RecomputeTotals(tx, o)
	}))

	assert.InDelta(t, 400.0, o.Subtotal, 0.001)

	var li models.OrderItem
	require.NoError(t, db.First(&li, "order_id = ?", o.ID).Error)
	assert.InDelta(t, 200.0, li.UnitPrice, 0.001)
}

func TestRecomputeTotalsIsIdempotent(t *testing.T) {
	svc, db, _ := newTestService(t)
	item := seedMenuItem(t, db, "Çay", 50, nil, nil)

	o, err := svc.Create(CreateInput{Lines: []CreateLine{{MenuItemID: item.ID, Quantity: 4}}})
	require.NoError(t, err)

	first := o.Total
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return svc.RecomputeTotals(tx, o)
		}))
	}
	assert.Equal(t, first, o.Total)
	assert.InDelta(t, o.Subtotal+o.Tax, o.Total, 0.001)
}

func TestAddItemsRecomputesTotals(t *testing.T) {
	svc, db, _ := newTestService(t)
	kofte := seedMenuItem(t, db, "Köfte", 200, nil, nil)
	tea := seedMenuItem(t, db, "Çay", 50, nil, nil)

	o, err := svc.Create(CreateInput{Lines: []CreateLine{{MenuItemID: kofte.ID, Quantity: 1}}})
	require.NoError(t, err)

	updated, err := svc.AddItems(o.ID, []CreateLine{{MenuItemID: tea.ID, Quantity: 2}})
	require.NoError(t, err)

	assert.InDelta(t, 300.0, updated.Subtotal, 0.001)
	assert.InDelta(t, 300.0*1.18, updated.Total, 0.001)
}

func TestAddItemsRejectedAfterReady(t *testing.T) {
	svc, db, _ := newTestService(t)
	item := seedMenuItem(t, db, "Köfte", 200, nil, nil)

	o, err := svc.Create(CreateInput{Lines: []CreateLine{{MenuItemID: item.ID, Quantity: 1}}})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(o.ID, models.OrderPreparing, nil)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(o.ID, models.OrderReady, nil)
	require.NoError(t, err)

	_, err = svc.AddItems(o.ID, []CreateLine{{MenuItemID: item.ID, Quantity: 1}})
	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestRemoveItemRejectedOncePreparing(t *testing.T) {
	svc, db, _ := newTestService(t)
	item := seedMenuItem(t, db, "Köfte", 200, nil, nil)

	o, err := svc.Create(CreateInput{Lines: []CreateLine{{MenuItemID: item.ID, Quantity: 1}}})
	require.NoError(t, err)

	var li models.OrderItem
	require.NoError(t, db.First(&li, "order_id = ?", o.ID).Error)
	require.NoError(t, db.Model(&li).Update("prep_status", models.PrepPreparing).Error)

	_, err = svc.RemoveItem(o.ID, li.ID)
	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestUpdateItemQuantityRecomputesFromFrozenPrice(t *testing.T) {
	svc, db, _ := newTestService(t)
	item := seedMenuItem(t, db, "Köfte", 200, nil, nil)

	o, err := svc.Create(CreateInput{Lines: []CreateLine{{MenuItemID: item.ID, Quantity: 1}}})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.MenuItem{}).Where("id = ?", item.ID).Update("price", 999).Error)

	var li models.OrderItem
	require.NoError(t, db.First(&li, "order_id = ?", o.ID).Error)

	updated, err := svc.UpdateItemQuantity(o.ID, li.ID, 3)
	require.NoError(t, err)
	assert.InDelta(t, 600.0, updated.Subtotal, 0.001)
}

func TestUpdateStatusFreesTableOnTerminal(t *testing.T) {
	svc, db, _ := newTestService(t)
	item := seedMenuItem(t, db, "Çay", 50, nil, nil)
	table := models.Table{Name: "Masa 1", Capacity: 4, Status: models.TableAvailable}
	require.NoError(t, db.Create(&table).Error)

	o, err := svc.Create(CreateInput{TableID: uintPtr(table.ID), Lines: []CreateLine{{MenuItemID: item.ID, Quantity: 1}}})
	require.NoError(t, err)

	var tbl models.Table
	require.NoError(t, db.First(&tbl, table.ID).Error)
	assert.Equal(t, models.TableOccupied, tbl.Status)

	_, err = svc.UpdateStatus(o.ID, models.OrderCancelled, nil)
	require.NoError(t, err)

	require.NoError(t, db.First(&tbl, table.ID).Error)
	assert.Equal(t, models.TableAvailable, tbl.Status)
}

func TestUpdateStatusKeepsTableOccupiedWithOtherOpenOrders(t *testing.T) {
	svc, db, _ := newTestService(t)
	item := seedMenuItem(t, db, "Çay", 50, nil, nil)
	table := models.Table{Name: "Masa 2", Capacity: 2}
	require.NoError(t, db.Create(&table).Error)

	o1, err := svc.Create(CreateInput{TableID: uintPtr(table.ID), Lines: []CreateLine{{MenuItemID: item.ID, Quantity: 1}}})
	require.NoError(t, err)
	_, err = svc.Create(CreateInput{TableID: uintPtr(table.ID), Lines: []CreateLine{{MenuItemID: item.ID, Quantity: 1}}})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(o1.ID, models.OrderCancelled, nil)
	require.NoError(t, err)

	var tbl models.Table
	require.NoError(t, db.First(&tbl, table.ID).Error)
	assert.Equal(t, models.TableOccupied, tbl.Status, "masada açık sipariş varken boşa çıkmamalı")
}
