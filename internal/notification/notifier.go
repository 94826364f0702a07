package notification

import (
	"fmt"
	"log"

	"masapos-backend/internal/events"
	"masapos-backend/internal/models"

	"gorm.io/gorm"
)

// Notifier: Stok olaylarını dinler ve aktif müdürlere uygulama içi bildirim
// yazar. Olay işleyicileri hata döndürmez; bildirim yazılamazsa loglanır,
// sipariş ve stok akışı etkilenmez.
type Notifier struct {
	DB *gorm.DB
}

func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{DB: db}
}

func (n *Notifier) HandleLowStock(e events.Event) {
	ev, ok := e.(events.LowStockDetected)
	if !ok {
		return
	}

	title := "Kritik stok uyarısı"
	body := fmt.Sprintf("%s stoğu kritik seviyede: kalan %d, eşik %d",
		ev.MenuItem, ev.Quantity, ev.Threshold)

	n.notifyManagers(models.NotificationLowStock, title, body)
}

func (n *Notifier) HandleShortfall(e events.Event) {
	ev, ok := e.(events.StockShortfall)
	if !ok {
		return
	}

	title := "Stok açığı"
	body := fmt.Sprintf("Sipariş %s: %s için stok yetersiz (istenen %d, mevcut %d). Sipariş açık, stok düşülmedi.",
		ev.OrderNumber, ev.MenuItem, ev.Requested, ev.Available)

	n.notifyManagers(models.NotificationStockShortfall, title, body)
}

func (n *Notifier) notifyManagers(typ models.NotificationType, title, body string) {
	var managers []models.User
	err := n.DB.Where("role IN ? AND status = ?",
		[]string{string(models.RoleManager), string(models.RoleSuperAdmin)},
		models.UserActive).Find(&managers).Error
	if err != nil {
		log.Printf("[ERROR] Bildirim alıcıları yüklenemedi: %v", err)
		return
	}

	for _, m := range managers {
		notif := models.Notification{
			UserID: m.ID,
			Type:   typ,
			Title:  title,
			Body:   body,
		}
		if err := n.DB.Create(&notif).Error; err != nil {
			log.Printf("[ERROR] Bildirim yazılamadı (user %d): %v", m.ID, err)
		}
	}
}
