package models

import "time"

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentRefunded   PaymentStatus = "refunded"
)

// Payment: Sipariş ödemesi. Sadece "completed" durumdaki ödemeler ödenen
// toplama sayılır. Completed bir ödeme yalnızca refunded durumuna geçebilir.
type Payment struct {
	ID            uint          `gorm:"primaryKey"`
	OrderID       uint          `gorm:"index;not null"`
	Amount        float64       `gorm:"not null"`
	Method        PaymentMethod `gorm:"size:20;not null"`
	Status        PaymentStatus `gorm:"size:20;not null;default:pending"`
	TransactionID string        `gorm:"size:50;uniqueIndex"`
	RefundReason  string        `gorm:"size:255"`
	CompletedAt   *time.Time
	RefundedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Tip: Sipariş bahşişi. Sipariş başına en fazla bir bahşiş tutulur
// (tekrar gönderilirse üzerine yazılır). Ödeme durumundan bağımsızdır.
type Tip struct {
	ID        uint          `gorm:"primaryKey"`
	OrderID   uint          `gorm:"uniqueIndex;not null"`
	WaiterID  uint          `gorm:"index;not null"`
	Waiter    User          `gorm:"foreignKey:WaiterID"`
	Amount    float64       `gorm:"not null"`
	Method    PaymentMethod `gorm:"size:20;not null;default:cash"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
