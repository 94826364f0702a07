package stock

import (
	"sync"
	"testing"
	"time"

	"masapos-backend/internal/events"
	"masapos-backend/internal/models"
	"masapos-backend/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventCapture struct {
	mu        sync.Mutex
	lowStock  []events.LowStockDetected
	shortfall []events.StockShortfall
}

func (c *eventCapture) subscribe(bus *events.Bus) {
	bus.Subscribe(events.LowStockDetectedName, func(e events.Event) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.lowStock = append(c.lowStock, e.(events.LowStockDetected))
	})
	bus.Subscribe(events.StockShortfallName, func(e events.Event) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.shortfall = append(c.shortfall, e.(events.StockShortfall))
	})
}

// Sipariş oluşturma -> stok düşümü -> kritik stok uyarısı zincirinin tamamı.
func TestOrderCreationDeductsStockAndWarnsAtThreshold(t *testing.T) {
	db := newTestDB(t)
	bus := events.NewBus(16)

	ledger := NewLedger(db)
	deduction := NewDeduction(ledger, bus)
	bus.Subscribe(events.OrderCreatedName, deduction.HandleOrderCreated)

	capture := &eventCapture{}
	capture.subscribe(bus)

	kofte := seedTracked(t, db, "Köfte", 5, intPtr(3))
	require.NoError(t, db.Model(&kofte).Update("price", 10000).Error)
	tea := models.MenuItem{Name: "Çay", Price: 5000, Status: models.MenuItemAvailable}
	require.NoError(t, db.Create(&tea).Error)

	svc := order.NewService(db, bus, 0.18)
	o, err := svc.Create(order.CreateInput{Lines: []order.CreateLine{
		{MenuItemID: kofte.ID, Quantity: 2},
		{MenuItemID: tea.ID, Quantity: 1},
	}})
	require.NoError(t, err)

	assert.InDelta(t, 25000.0, o.Subtotal, 0.001)
	assert.InDelta(t, 25000.0*1.18, o.Total, 0.001)

	// Close kuyruğu boşaltana kadar bekler; sonrası senkron asserta uygun
	bus.Close()

	assert.Equal(t, 3, stockOf(t, db, kofte.ID), "takipli ürün stoku düşmeli")

	var saleRows []models.InventoryTransaction
	require.NoError(t, db.Where("menu_item_id = ?", kofte.ID).Find(&saleRows).Error)
	require.Len(t, saleRows, 1)
	assert.Equal(t, -2, saleRows[0].Quantity)
	require.NotNil(t, saleRows[0].OrderID)
	assert.Equal(t, o.ID, *saleRows[0].OrderID)

	// Takipsiz çay için satır yok
	var teaRows int64
	db.Model(&models.InventoryTransaction{}).Where("menu_item_id = ?", tea.ID).Count(&teaRows)
	assert.Zero(t, teaRows)

	// 5 -> 3 tam eşik: uyarı üretilmeli
	require.Len(t, capture.lowStock, 1)
	assert.Equal(t, kofte.ID, capture.lowStock[0].MenuItemID)
	assert.Equal(t, 3, capture.lowStock[0].Quantity)
	assert.Empty(t, capture.shortfall)
}

// Eşzamanlı sipariş yarışı: commit edilmiş sipariş, stok yetersiz çıksa
// bile geri alınmaz; açık shortfall olarak yüzeye çıkar.
func TestShortfallDoesNotRollBackOrder(t *testing.T) {
	db := newTestDB(t)
	bus := events.NewBus(16)

	ledger := NewLedger(db)
	deduction := NewDeduction(ledger, bus)

	capture := &eventCapture{}
	capture.subscribe(bus)

	item := seedTracked(t, db, "Levrek", 1, nil)

	o := models.Order{OrderNumber: "ORD-20250615-0001", Status: models.OrderPending}
	require.NoError(t, db.Create(&o).Error)
	line := models.OrderItem{OrderID: o.ID, MenuItemID: item.ID, Quantity: 3, UnitPrice: 800, Subtotal: 2400}
	require.NoError(t, db.Create(&line).Error)

	line.MenuItem = item
	deduction.HandleOrderCreated(events.OrderCreated{
		Order:     models.Order{ID: o.ID, OrderNumber: o.OrderNumber, Status: o.Status, Items: []models.OrderItem{line}},
		Timestamp: time.Now(),
	})
	bus.Close()

	// Sipariş yerinde, stok dokunulmamış
	var after models.Order
	require.NoError(t, db.First(&after, o.ID).Error)
	assert.Equal(t, models.OrderPending, after.Status)
	assert.Equal(t, 1, stockOf(t, db, item.ID))

	var rows int64
	db.Model(&models.InventoryTransaction{}).Count(&rows)
	assert.Zero(t, rows)

	require.Len(t, capture.shortfall, 1)
	assert.Equal(t, "ORD-20250615-0001", capture.shortfall[0].OrderNumber)
	assert.Equal(t, 3, capture.shortfall[0].Requested)
	assert.Equal(t, 1, capture.shortfall[0].Available)
}

// Bir kalemin stok açığı diğer kalemlerin düşümünü durdurmaz.
func TestShortfallOnOneItemDoesNotBlockOthers(t *testing.T) {
	db := newTestDB(t)
	bus := events.NewBus(16)

	ledger := NewLedger(db)
	deduction := NewDeduction(ledger, bus)

	capture := &eventCapture{}
	capture.subscribe(bus)

	scarce := seedTracked(t, db, "Levrek", 1, nil)
	plenty := seedTracked(t, db, "Köfte", 10, nil)

	o := models.Order{OrderNumber: "ORD-20250615-0002", Status: models.OrderPending}
	require.NoError(t, db.Create(&o).Error)

	items := []models.OrderItem{
		{OrderID: o.ID, MenuItemID: scarce.ID, Quantity: 5, UnitPrice: 800, Subtotal: 4000, MenuItem: scarce},
		{OrderID: o.ID, MenuItemID: plenty.ID, Quantity: 2, UnitPrice: 200, Subtotal: 400, MenuItem: plenty},
	}

	deduction.HandleOrderCreated(events.OrderCreated{
		Order:     models.Order{ID: o.ID, OrderNumber: o.OrderNumber, Items: items},
		Timestamp: time.Now(),
	})
	bus.Close()

	assert.Equal(t, 1, stockOf(t, db, scarce.ID))
	assert.Equal(t, 8, stockOf(t, db, plenty.ID), "diğer kalem normal düşmeli")
	require.Len(t, capture.shortfall, 1)
	assert.Equal(t, scarce.ID, capture.shortfall[0].MenuItemID)
}
