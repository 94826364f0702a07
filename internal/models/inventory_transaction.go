package models

import "time"

type InventoryTransactionType string

const (
	InventoryRestock    InventoryTransactionType = "restock"
	InventorySale       InventoryTransactionType = "sale"
	InventoryAdjustment InventoryTransactionType = "adjustment"
	InventoryWaste      InventoryTransactionType = "waste"
)

// InventoryTransaction: Stok hareket defteri. Sadece eklenir, asla güncellenmez
// veya silinmez; düzeltmeler yeni satır olarak girilir. Bir ürünün tüm
// hareketlerinin toplamı o ürünün güncel stock_quantity değerine eşittir
// (defter asıl kaynak, stock_quantity onun materialize edilmiş halidir).
type InventoryTransaction struct {
	ID         uint                     `gorm:"primaryKey"`
	MenuItemID uint                     `gorm:"index;not null"`
	MenuItem   MenuItem                 `gorm:"foreignKey:MenuItemID"`
	Type       InventoryTransactionType `gorm:"size:20;not null"`
	Quantity   int                      `gorm:"not null"` // işaretli: giriş pozitif, satış/zayiat negatif
	Unit       string                   `gorm:"size:20"`
	OrderID    *uint                    `gorm:"index"` // sale hareketlerinde kaynak sipariş
	Note       string                   `gorm:"size:255"`
	CreatedBy  *uint                    // personel ID (sistem hareketlerinde nil)
	Actor      string                   `gorm:"size:100"` // kim/ne tetikledi ("order", personel adı vs.)
	CreatedAt  time.Time
}
