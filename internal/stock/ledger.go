package stock

import (
	"errors"
	"fmt"
	"log"

	"masapos-backend/internal/apperrors"
	"masapos-backend/internal/models"

	"gorm.io/gorm"
)

type AdjustType string

const (
	AdjustWaste      AdjustType = "waste"
	AdjustLoss       AdjustType = "loss"
	AdjustCorrection AdjustType = "correction"
)

// Ledger: Stok miktarının tek yetkilisi. Her mutasyon append-only bir
// InventoryTransaction satırı + menu_items.stock_quantity güncellemesi
// olarak yürür; stock_quantity alanına başka hiçbir yerden yazılmaz.
type Ledger struct {
	DB *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{DB: db}
}

type DebitResult struct {
	Applied    bool // takipsiz üründe false: stok mantığı tamamen atlanır
	IsLowStock bool
	Remaining  int
	Threshold  int
}

// Debit: Sipariş kaynaklı stok düşümü. Okuma-kontrol-düşüm tek koşullu
// UPDATE ile yapılır (stock_quantity >= miktar şartı); eşzamanlı iki düşüm
// aynı stoku iki kez harcayamaz. Kritik eşik kontrolü <= ile: stok eşiğe
// İNDİĞİNDE de uyarı üretilir, sadece altına düştüğünde değil.
func (l *Ledger) Debit(menuItemID uint, quantity int, orderID uint, actor string) (*DebitResult, error) {
	if quantity <= 0 {
		return nil, apperrors.Validation("quantity", "miktar 0'dan büyük olmalı")
	}

	var result DebitResult
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		var item models.MenuItem
		if err := tx.First(&item, "id = ?", menuItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Menü ürünü", menuItemID)
			}
			return err
		}

		if !item.Tracked() {
			result = DebitResult{Applied: false}
			return nil
		}

		res := tx.Model(&models.MenuItem{}).
			Where("id = ? AND stock_quantity >= ?", menuItemID, quantity).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &apperrors.InsufficientStockError{
				MenuItemID: item.ID,
				Name:       item.Name,
				Requested:  quantity,
				Available:  *item.StockQuantity,
			}
		}

		row := models.InventoryTransaction{
			MenuItemID: menuItemID,
			Type:       models.InventorySale,
			Quantity:   -quantity,
			Unit:       item.Unit,
			OrderID:    &orderID,
			Note:       fmt.Sprintf("Sipariş #%d", orderID),
			Actor:      actor,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		remaining := *item.StockQuantity - quantity
		result = DebitResult{
			Applied:   true,
			Remaining: remaining,
		}
		if item.LowStockThreshold != nil {
			result.Threshold = *item.LowStockThreshold
			result.IsLowStock = remaining <= *item.LowStockThreshold
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Restock: Stok girişi. Takipsiz bir ürüne restock yapılırsa stok takibi
// o miktarla başlatılır (defter toplamı = stock_quantity korunur).
func (l *Ledger) Restock(menuItemID uint, quantity int, unit, note string, actorID uint, actorName string) (*models.InventoryTransaction, error) {
	if quantity <= 0 {
		return nil, apperrors.Validation("quantity", "miktar 0'dan büyük olmalı")
	}

	var row models.InventoryTransaction
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		var item models.MenuItem
		if err := tx.First(&item, "id = ?", menuItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Menü ürünü", menuItemID)
			}
			return err
		}

		if !item.Tracked() {
			if err := tx.Model(&models.MenuItem{}).Where("id = ?", menuItemID).
				UpdateColumn("stock_quantity", quantity).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&models.MenuItem{}).Where("id = ?", menuItemID).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", quantity)).Error; err != nil {
				return err
			}
		}

		if unit == "" {
			unit = item.Unit
		}

		row = models.InventoryTransaction{
			MenuItemID: menuItemID,
			Type:       models.InventoryRestock,
			Quantity:   quantity,
			Unit:       unit,
			Note:       note,
			CreatedBy:  &actorID,
			Actor:      actorName,
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Adjust: Zayiat/kayıp/sayım düzeltmesi. quantity büyüklüktür (> 0), deftere
// negatif yazılır. Materialize stok sıfırın altına inmez; taban aşılırsa
// defter ile stock_quantity bilerek ayrışır ve uyarı olarak yüzeye çıkar
// (floored=true + log), sessizce yutulmaz.
func (l *Ledger) Adjust(menuItemID uint, quantity int, adjType AdjustType, note string, actorID uint, actorName string) (*models.InventoryTransaction, bool, error) {
	if quantity <= 0 {
		return nil, false, apperrors.Validation("quantity", "miktar 0'dan büyük olmalı")
	}

	var txType models.InventoryTransactionType
	switch adjType {
	case AdjustWaste:
		txType = models.InventoryWaste
	case AdjustLoss, AdjustCorrection:
		txType = models.InventoryAdjustment
	default:
		return nil, false, apperrors.Validation("type", "tip waste, loss veya correction olmalı")
	}

	var row models.InventoryTransaction
	floored := false

	err := l.DB.Transaction(func(tx *gorm.DB) error {
		var item models.MenuItem
		if err := tx.First(&item, "id = ?", menuItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Menü ürünü", menuItemID)
			}
			return err
		}

		if !item.Tracked() {
			return apperrors.Validation("menu_item_id", "stok takibi olmayan üründe düzeltme yapılamaz")
		}

		newQty := *item.StockQuantity - quantity
		if newQty < 0 {
			floored = true
			newQty = 0
			log.Printf("[WARN] Stok düzeltmesi tabana çarptı: %s (mevcut %d, düşülen %d), defter ile materialize stok ayrıştı",
				item.Name, *item.StockQuantity, quantity)
		}

		if err := tx.Model(&models.MenuItem{}).Where("id = ?", menuItemID).
			UpdateColumn("stock_quantity", newQty).Error; err != nil {
			return err
		}

		row = models.InventoryTransaction{
			MenuItemID: menuItemID,
			Type:       txType,
			Quantity:   -quantity,
			Unit:       item.Unit,
			Note:       note,
			CreatedBy:  &actorID,
			Actor:      actorName,
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &row, floored, nil
}

// LedgerSum: Bir ürünün tüm defter hareketlerinin toplamı. Mutabakat için:
// taban aşımı yaşanmadıysa bu toplam her an stock_quantity'ye eşittir.
func (l *Ledger) LedgerSum(menuItemID uint) (int, error) {
	var sum *int
	err := l.DB.Model(&models.InventoryTransaction{}).
		Where("menu_item_id = ?", menuItemID).
		Select("SUM(quantity)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
