package order

import (
	"errors"
	"fmt"
	"time"

	"masapos-backend/internal/apperrors"
	"masapos-backend/internal/events"
	"masapos-backend/internal/models"

	"gorm.io/gorm"
)

// Service: Sipariş aggregate'i. Toplamların her zaman kalemlerin saf bir
// fonksiyonu olması invariant'ının sahibi. Vergi oranı dışarıdan gelir
// (config), aggregate'e ait değildir.
type Service struct {
	DB      *gorm.DB
	Bus     *events.Bus
	TaxRate float64
}

func NewService(db *gorm.DB, bus *events.Bus, taxRate float64) *Service {
	return &Service{DB: db, Bus: bus, TaxRate: taxRate}
}

type CreateLine struct {
	MenuItemID          uint   `json:"menu_item_id"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions"`
}

type CreateInput struct {
	TableID  *uint
	GuestID  *uint
	WaiterID *uint
	Source   models.OrderSource
	Notes    string
	Lines    []CreateLine
}

// Create: Başlık + tüm kalemler tek transaction içinde. Birim fiyat sipariş
// anında kopyalanır; stok kontrolü commit'ten önce yapılır (takipli ürünler).
// Sipariş numarası ancak insert sonrası, aynı transaction içinde, id'den
// türetilerek atanır; başarısız denemeler sequence'ta boşluk bırakabilir,
// commit edilmiş numaralarda boşluk olmaz. OrderCreated event'i commit'ten
// sonra yayınlanır.
func (s *Service) Create(in CreateInput) (*models.Order, error) {
	if len(in.Lines) == 0 {
		return nil, apperrors.Validation("items", "sipariş en az bir kalem içermeli")
	}
	for _, l := range in.Lines {
		if l.Quantity < 1 {
			return nil, apperrors.Validation("quantity", "kalem miktarı en az 1 olmalı")
		}
	}

	source := in.Source
	if source == "" {
		source = models.SourcePOS
	}

	var created models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Aynı ürün birden fazla satırda geçebilir; stok kontrolü toplam
		// ihtiyaç üzerinden yapılır.
		need := make(map[uint]int)
		for _, l := range in.Lines {
			need[l.MenuItemID] += l.Quantity
		}

		menuItems := make(map[uint]models.MenuItem, len(need))
		for id, qty := range need {
			var mi models.MenuItem
			if err := tx.First(&mi, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NotFound("Menü ürünü", id)
				}
				return err
			}
			if mi.Status != models.MenuItemAvailable {
				return apperrors.Validation("menu_item_id", fmt.Sprintf("%s şu anda satışta değil", mi.Name))
			}
			if mi.Tracked() && *mi.StockQuantity < qty {
				return &apperrors.InsufficientStockError{
					MenuItemID: mi.ID,
					Name:       mi.Name,
					Requested:  qty,
					Available:  *mi.StockQuantity,
				}
			}
			menuItems[id] = mi
		}

		o := models.Order{
			TableID:     in.TableID,
			GuestID:     in.GuestID,
			WaiterID:    in.WaiterID,
			OrderSource: source,
			Status:      models.OrderPending,
			Notes:       in.Notes,
		}
		if err := tx.Create(&o).Error; err != nil {
			return err
		}

		for _, l := range in.Lines {
			mi := menuItems[l.MenuItemID]
			item := models.OrderItem{
				OrderID:             o.ID,
				MenuItemID:          mi.ID,
				Quantity:            l.Quantity,
				UnitPrice:           mi.Price, // fiyat anlık kopya
				Subtotal:            mi.Price * float64(l.Quantity),
				PrepStatus:          models.PrepPending,
				SpecialInstructions: l.SpecialInstructions,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			o.Items = append(o.Items, item)
		}

		if err := s.RecomputeTotals(tx, &o); err != nil {
			return err
		}

		o.OrderNumber = fmt.Sprintf("ORD-%s-%04d", time.Now().Format("20060102"), o.ID)
		if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).
			Update("order_number", o.OrderNumber).Error; err != nil {
			return err
		}

		if o.TableID != nil {
			if err := tx.Model(&models.Table{}).Where("id = ?", *o.TableID).
				Update("status", models.TableOccupied).Error; err != nil {
				return err
			}
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Event payload'u tam yüklü sipariş taşır; tüketiciler tekrar sorgu atmaz.
	if err := s.DB.Preload("Items.MenuItem").First(&created, created.ID).Error; err == nil {
		s.Bus.Publish(events.OrderCreated{Order: created, Timestamp: time.Now()})
	}

	return &created, nil
}

// RecomputeTotals: subtotal = Σ(kalem.subtotal); tax = subtotal * oran;
// total = subtotal + tax. Deterministik ve idempotent: kalemler değişmeden
// iki kez çağrılırsa bire bir aynı sonucu üretir.
func (s *Service) RecomputeTotals(tx *gorm.DB, o *models.Order) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", o.ID).Find(&items).Error; err != nil {
		return err
	}

	subtotal := 0.0
	for _, it := range items {
		subtotal += it.Subtotal
	}
	tax := subtotal * s.TaxRate
	total := subtotal + tax

	if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).
		Updates(map[string]interface{}{
			"subtotal": subtotal,
			"tax":      tax,
			"total":    total,
		}).Error; err != nil {
		return err
	}

	o.Subtotal = subtotal
	o.Tax = tax
	o.Total = total
	return nil
}

// AddItems: Mevcut siparişe kalem ekler; fiyat yine o anki menü fiyatından
// kopyalanır ve toplamlar yeniden hesaplanır. Sadece pending/preparing
// durumdaki siparişler değiştirilebilir.
func (s *Service) AddItems(orderID uint, lines []CreateLine) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, apperrors.Validation("items", "en az bir kalem gerekli")
	}
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, apperrors.Validation("quantity", "kalem miktarı en az 1 olmalı")
		}
	}

	var o models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&o, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Sipariş", orderID)
			}
			return err
		}
		if o.Status != models.OrderPending && o.Status != models.OrderPreparing {
			return apperrors.Validation("status", "bu durumdaki siparişe kalem eklenemez")
		}

		for _, l := range lines {
			var mi models.MenuItem
			if err := tx.First(&mi, "id = ?", l.MenuItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NotFound("Menü ürünü", l.MenuItemID)
				}
				return err
			}
			if mi.Status != models.MenuItemAvailable {
				return apperrors.Validation("menu_item_id", fmt.Sprintf("%s şu anda satışta değil", mi.Name))
			}
			if mi.Tracked() && *mi.StockQuantity < l.Quantity {
				return &apperrors.InsufficientStockError{
					MenuItemID: mi.ID,
					Name:       mi.Name,
					Requested:  l.Quantity,
					Available:  *mi.StockQuantity,
				}
			}

			item := models.OrderItem{
				OrderID:             o.ID,
				MenuItemID:          mi.ID,
				Quantity:            l.Quantity,
				UnitPrice:           mi.Price,
				Subtotal:            mi.Price * float64(l.Quantity),
				PrepStatus:          models.PrepPending,
				SpecialInstructions: l.SpecialInstructions,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		return s.RecomputeTotals(tx, &o)
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// RemoveItem: Hazırlığı başlamış (preparing/ready) kalem çıkarılamaz.
func (s *Service) RemoveItem(orderID, itemID uint) (*models.Order, error) {
	var o models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&o, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Sipariş", orderID)
			}
			return err
		}

		var item models.OrderItem
		if err := tx.First(&item, "id = ? AND order_id = ?", itemID, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Sipariş kalemi", itemID)
			}
			return err
		}
		if item.PrepStatus == models.PrepPreparing || item.PrepStatus == models.PrepReady {
			return apperrors.Validation("prep_status", "hazırlanmakta veya hazır olan kalem çıkarılamaz")
		}

		if err := tx.Delete(&item).Error; err != nil {
			return err
		}

		return s.RecomputeTotals(tx, &o)
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateItemQuantity: Kalem miktarını günceller; subtotal donmuş birim
// fiyattan yeniden hesaplanır, sipariş toplamları da peşinden.
func (s *Service) UpdateItemQuantity(orderID, itemID uint, quantity int) (*models.Order, error) {
	if quantity < 1 {
		return nil, apperrors.Validation("quantity", "kalem miktarı en az 1 olmalı")
	}

	var o models.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&o, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Sipariş", orderID)
			}
			return err
		}

		var item models.OrderItem
		if err := tx.First(&item, "id = ? AND order_id = ?", itemID, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Sipariş kalemi", itemID)
			}
			return err
		}
		if item.PrepStatus == models.PrepPreparing || item.PrepStatus == models.PrepReady {
			return apperrors.Validation("prep_status", "hazırlanmakta veya hazır olan kalemin miktarı değiştirilemez")
		}

		if err := tx.Model(&item).Updates(map[string]interface{}{
			"quantity": quantity,
			"subtotal": item.UnitPrice * float64(quantity),
		}).Error; err != nil {
			return err
		}

		return s.RecomputeTotals(tx, &o)
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus: Lifecycle geçişini uygular ve commit sonrası status event'i
// yayınlar. Terminal duruma geçen siparişin masası, masada başka açık
// sipariş yoksa boşa çıkarılır.
func (s *Service) UpdateStatus(orderID uint, target models.OrderStatus, actorID *uint) (*models.Order, error) {
	var o models.Order
	var old models.OrderStatus

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&o, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Sipariş", orderID)
			}
			return err
		}

		old = o.Status
		if err := Transition(tx, &o, target, actorID); err != nil {
			return err
		}

		if (target == models.OrderPaid || target == models.OrderCancelled) && o.TableID != nil {
			var open int64
			tx.Model(&models.Order{}).
				Where("table_id = ? AND id <> ? AND status NOT IN ?", *o.TableID, o.ID,
					[]models.OrderStatus{models.OrderPaid, models.OrderCancelled}).
				Count(&open)
			if open == 0 {
				if err := tx.Model(&models.Table{}).Where("id = ?", *o.TableID).
					Update("status", models.TableAvailable).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Bus.Publish(events.OrderStatusUpdated{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		OldStatus:   old,
		NewStatus:   o.Status,
		WaiterID:    o.WaiterID,
		Timestamp:   time.Now(),
	})

	return &o, nil
}
