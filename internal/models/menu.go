package models

import "time"

type PrepArea string

const (
	PrepAreaKitchen PrepArea = "kitchen" // mutfak
	PrepAreaBar     PrepArea = "bar"     // bar
	PrepAreaBoth    PrepArea = "both"    // her ikisi
)

type MenuItemStatus string

const (
	MenuItemAvailable   MenuItemStatus = "available"
	MenuItemUnavailable MenuItemStatus = "unavailable"
)

type MenuCategory struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:100;not null;unique"`
	DisplayOrder int    `gorm:"not null;default:0"` // menüdeki sıralama
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MenuItem: Satılan ürün. StockQuantity nil ise stok takibi yapılmıyor demektir
// (örn: çay, günlük hazırlanan ürünler). Stok takipli ürünlerde stock_quantity
// asla negatif olamaz; tüm stok hareketleri InventoryTransaction üzerinden yürür.
type MenuItem struct {
	ID                uint          `gorm:"primaryKey"`
	CategoryID        *uint         `gorm:"index"`
	Category          *MenuCategory `gorm:"foreignKey:CategoryID"`
	Name              string        `gorm:"size:100;not null"`
	Description       string        `gorm:"size:500"`
	Price             float64       `gorm:"not null"`
	PrepArea          PrepArea      `gorm:"size:20;not null;default:kitchen"` // kitchen / bar / both
	PrepTimeMinutes   int           `gorm:"not null;default:0"`
	Status            MenuItemStatus `gorm:"size:20;not null;default:available"`
	StockQuantity     *int          // nil = stok takibi yok
	Unit              string        `gorm:"size:20"` // adet, porsiyon, şişe vs.
	LowStockThreshold *int          // nil = kritik stok uyarısı yok
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Tracked: Ürün stok takipli mi?
func (m *MenuItem) Tracked() bool {
	return m.StockQuantity != nil
}
