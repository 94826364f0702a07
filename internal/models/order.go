package models

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
)

type OrderSource string

const (
	SourcePOS    OrderSource = "pos"
	SourceMobile OrderSource = "mobile"
	SourceQR     OrderSource = "qr"
)

// Order: Bir adisyon. Subtotal/Tax/Total her zaman kalemlerden türetilir,
// elle set edilmez. Status sadece order paketindeki Transition üzerinden değişir.
type Order struct {
	ID          uint        `gorm:"primaryKey"`
	OrderNumber string      `gorm:"size:30;uniqueIndex"` // commit sırasında atanır: ORD-YYYYMMDD-0001
	TableID     *uint       `gorm:"index"`
	Table       *Table      `gorm:"foreignKey:TableID"`
	GuestID     *uint       `gorm:"index"`
	Guest       *Guest      `gorm:"foreignKey:GuestID"`
	WaiterID    *uint       `gorm:"index"`
	Waiter      *User       `gorm:"foreignKey:WaiterID"`
	OrderSource OrderSource `gorm:"size:20;not null;default:pos"`
	Status      OrderStatus `gorm:"size:20;not null;default:pending;index"`
	Subtotal    float64     `gorm:"not null;default:0"`
	Tax         float64     `gorm:"not null;default:0"`
	Total       float64     `gorm:"not null;default:0"`
	Notes       string      `gorm:"size:500"`
	Items       []OrderItem `gorm:"foreignKey:OrderID"`
	Payments    []Payment   `gorm:"foreignKey:OrderID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PrepStatus string

const (
	PrepPending   PrepStatus = "pending"
	PrepReceived  PrepStatus = "received"
	PrepPreparing PrepStatus = "preparing"
	PrepReady     PrepStatus = "ready"
)

// OrderItem: Sipariş kalemi. UnitPrice sipariş anındaki fiyatın kopyasıdır;
// menü fiyatı sonradan değişse bile geçmiş adisyonlar değişmez.
type OrderItem struct {
	ID                  uint       `gorm:"primaryKey"`
	OrderID             uint       `gorm:"index;not null"`
	MenuItemID          uint       `gorm:"index;not null"`
	MenuItem            MenuItem   `gorm:"foreignKey:MenuItemID"`
	Quantity            int        `gorm:"not null"`
	UnitPrice           float64    `gorm:"not null"` // sipariş anındaki birim fiyat
	Subtotal            float64    `gorm:"not null"` // quantity * unit_price
	PrepStatus          PrepStatus `gorm:"size:20;not null;default:pending"`
	SpecialInstructions string     `gorm:"size:500"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OrderStatusLog: Her durum geçişinde bir satır. Sadece eklenir.
type OrderStatusLog struct {
	ID        uint        `gorm:"primaryKey"`
	OrderID   uint        `gorm:"index;not null"`
	OldStatus OrderStatus `gorm:"size:20;not null"`
	NewStatus OrderStatus `gorm:"size:20;not null"`
	ChangedBy *uint // nil = sistem (örn: ödeme tamamlanınca otomatik paid)
	CreatedAt time.Time
}
