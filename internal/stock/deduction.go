package stock

import (
	"errors"
	"log"

	"masapos-backend/internal/apperrors"
	"masapos-backend/internal/events"
)

// Deduction: OrderCreated tüketicisi, sipariş oluşturma ile stok düşümü
// arasındaki reaktif bağ. Sipariş zaten commit edilmiş durumda; burada
// çıkan yetersiz stok (eşzamanlı sipariş yarışı) siparişi GERİ ALMAZ,
// loglanır ve manuel mutabakat için StockShortfall olarak yayınlanır.
// Kalemler bağımsız işlenir: birinin hatası diğerlerini durdurmaz.
type Deduction struct {
	Ledger *Ledger
	Bus    *events.Bus
}

func NewDeduction(ledger *Ledger, bus *events.Bus) *Deduction {
	return &Deduction{Ledger: ledger, Bus: bus}
}

func (d *Deduction) HandleOrderCreated(e events.Event) {
	ev, ok := e.(events.OrderCreated)
	if !ok {
		return
	}

	for _, item := range ev.Order.Items {
		res, err := d.Ledger.Debit(item.MenuItemID, item.Quantity, ev.Order.ID, "order")
		if err != nil {
			var se *apperrors.InsufficientStockError
			if errors.As(err, &se) {
				log.Printf("[WARN] Stok açığı (sipariş %s, ürün %s): istenen %d, mevcut %d, manuel mutabakat gerekiyor",
					ev.Order.OrderNumber, se.Name, se.Requested, se.Available)
				d.Bus.Publish(events.StockShortfall{
					OrderID:     ev.Order.ID,
					OrderNumber: ev.Order.OrderNumber,
					MenuItemID:  se.MenuItemID,
					MenuItem:    se.Name,
					Requested:   se.Requested,
					Available:   se.Available,
				})
				continue
			}
			log.Printf("[ERROR] Stok düşümü başarısız (sipariş %s, ürün %d): %v",
				ev.Order.OrderNumber, item.MenuItemID, err)
			continue
		}

		if res.Applied && res.IsLowStock {
			log.Printf("[INFO] Kritik stok: %s (kalan %d, eşik %d)",
				item.MenuItem.Name, res.Remaining, res.Threshold)
			d.Bus.Publish(events.LowStockDetected{
				MenuItemID: item.MenuItemID,
				MenuItem:   item.MenuItem.Name,
				Quantity:   res.Remaining,
				Threshold:  res.Threshold,
			})
		}
	}
}
