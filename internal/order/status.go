package order

import (
	"time"

	"masapos-backend/internal/apperrors"
	"masapos-backend/internal/models"

	"gorm.io/gorm"
)

// Durum tablosu. paid ve cancelled terminal; cancelled sadece hazırlık
// bitmeden (pending/preparing) mümkün.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:   {models.OrderPreparing, models.OrderCancelled},
	models.OrderPreparing: {models.OrderReady, models.OrderCancelled},
	models.OrderReady:     {models.OrderDelivered},
	models.OrderDelivered: {models.OrderPaid},
	models.OrderPaid:      {},
	models.OrderCancelled: {},
}

// ValidTransitions: Mevcut durumdan izin verilen sonraki durumlar.
// Client reddedilen geçişte bu listeyle aksiyonlarını yeniden çizer.
func ValidTransitions(from models.OrderStatus) []models.OrderStatus {
	return transitions[from]
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func invalidTransition(from, to models.OrderStatus) *apperrors.InvalidTransitionError {
	allowed := make([]string, 0, len(transitions[from]))
	for _, s := range transitions[from] {
		allowed = append(allowed, string(s))
	}
	return &apperrors.InvalidTransitionError{
		Current: string(from),
		Target:  string(to),
		Allowed: allowed,
	}
}

// Transition: order.status'u değiştirmenin TEK yolu. Guard'lı update ile
// yazar: aynı anda başka bir geçiş commit olduysa RowsAffected 0 döner ve
// güncel duruma göre reddedilir. Başarılı geçişte status log satırı ekler.
// Event yayını çağıranın sorumluluğu (transaction commit olduktan sonra).
func Transition(tx *gorm.DB, o *models.Order, target models.OrderStatus, actorID *uint) error {
	if !CanTransition(o.Status, target) {
		return invalidTransition(o.Status, target)
	}

	old := o.Status
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", o.ID, old).
		Updates(map[string]interface{}{
			"status":     target,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Yarış: durum biz okuduktan sonra değişmiş. Güncel durumu çekip
		// ona göre reddet.
		var current models.Order
		if err := tx.First(&current, o.ID).Error; err != nil {
			return apperrors.NotFound("Sipariş", o.ID)
		}
		return invalidTransition(current.Status, target)
	}

	logRow := models.OrderStatusLog{
		OrderID:   o.ID,
		OldStatus: old,
		NewStatus: target,
		ChangedBy: actorID,
	}
	if err := tx.Create(&logRow).Error; err != nil {
		return err
	}

	o.Status = target
	return nil
}
