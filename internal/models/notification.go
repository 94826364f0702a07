package models

import "time"

type NotificationType string

const (
	NotificationLowStock       NotificationType = "low_stock"
	NotificationStockShortfall NotificationType = "stock_shortfall"
)

// Notification: Uygulama içi bildirim (kritik stok, stok açığı vs.).
// Dağıtım kanalları (push, WhatsApp) bu satırları ayrıca tüketir.
type Notification struct {
	ID        uint             `gorm:"primaryKey"`
	UserID    uint             `gorm:"index;not null"` // alıcı (müdür)
	Type      NotificationType `gorm:"size:30;not null"`
	Title     string           `gorm:"size:100;not null"`
	Body      string           `gorm:"size:500"`
	IsRead    bool             `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
