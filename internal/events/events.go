package events

import (
	"time"

	"masapos-backend/internal/models"
)

const (
	OrderCreatedName       = "order.created"
	OrderStatusUpdatedName = "order.status_updated"
	LowStockDetectedName   = "stock.low"
	StockShortfallName     = "stock.shortfall"
)

type Event interface {
	Name() string
}

// OrderCreated: Sipariş commit edildikten sonra yayınlanır. Order, kalemleri
// yüklenmiş halde taşınır; tüketiciler (stok düşümü, mutfak/bar ekranı)
// veritabanına geri dönmek zorunda kalmaz.
type OrderCreated struct {
	Order     models.Order
	Timestamp time.Time
}

func (OrderCreated) Name() string { return OrderCreatedName }

// OrderStatusUpdated: Her durum geçişinde yayınlanır; gerçek zamanlı ekran
// yenileme ve garson bildirimleri bunu dinler.
type OrderStatusUpdated struct {
	OrderID     uint
	OrderNumber string
	OldStatus   models.OrderStatus
	NewStatus   models.OrderStatus
	WaiterID    *uint
	Timestamp   time.Time
}

func (OrderStatusUpdated) Name() string { return OrderStatusUpdatedName }

// LowStockDetected: Bir stok düşümü ürünü kritik eşiğe indirdiğinde yayınlanır.
type LowStockDetected struct {
	MenuItemID uint
	MenuItem   string
	Quantity   int
	Threshold  int
}

func (LowStockDetected) Name() string { return LowStockDetectedName }

// StockShortfall: Sipariş commit edildikten SONRA stok düşümü yetersiz stok
// yüzünden başarısız olursa yayınlanır (eşzamanlı sipariş yarışı). Sipariş
// geri alınmaz; manuel mutabakat için müdürlere iletilir.
type StockShortfall struct {
	OrderID     uint
	OrderNumber string
	MenuItemID  uint
	MenuItem    string
	Requested   int
	Available   int
}

func (StockShortfall) Name() string { return StockShortfallName }
