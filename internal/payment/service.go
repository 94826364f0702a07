package payment

import (
	"errors"
	"log"
	"strings"
	"time"

	"masapos-backend/internal/apperrors"
	"masapos-backend/internal/events"
	"masapos-backend/internal/models"
	"masapos-backend/internal/order"

	"github.com/google/uuid"
	"github.com/im7mortal/kmutex"
	"gorm.io/gorm"
)

type Status string

const (
	StatusUnpaid        Status = "unpaid"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
)

// Service: Ödeme/bahşiş mutabakatı. Aynı siparişe eşzamanlı iki ödeme,
// sipariş bazlı keyed mutex ile serileştirilir: ödenen toplam her zaman
// tutarlı bir okumadan hesaplanır, iki "kısmi" ödemenin ikisi birden paid
// geçişini kaçıramaz.
type Service struct {
	DB    *gorm.DB
	Bus   *events.Bus
	locks *kmutex.Kmutex
}

func NewService(db *gorm.DB, bus *events.Bus) *Service {
	return &Service{DB: db, Bus: bus, locks: kmutex.New()}
}

type PaymentResult struct {
	Payment   *models.Payment
	ChangeDue float64 // sadece nakit fazla ödemede > 0
	TotalPaid float64
	Status    Status
	OrderPaid bool // bu ödeme paid geçişini tetikledi mi
}

// RecordPayment: Ödemeyi "completed" olarak kaydeder (senkron tahsilat;
// gateway-pending akışları uzatma noktası). Fazla ödeme politikası: nakitte
// serbest (para üstü hesaplanır), diğer yöntemlerde reddedilir. Tamamlanan
// toplam sipariş tutarına ulaşırsa paid geçişi otomatik denenir; geçiş
// tablo gereği reddedilirse (örn. sipariş henüz delivered değil) ödeme
// kaydı bozulmaz, durum loglanır.
func (s *Service) RecordPayment(orderID uint, amount float64, method models.PaymentMethod, actorID *uint) (*PaymentResult, error) {
	if amount <= 0 {
		return nil, apperrors.Validation("amount", "tutar 0'dan büyük olmalı")
	}
	switch method {
	case models.PaymentCash, models.PaymentCard, models.PaymentMobile:
	default:
		return nil, apperrors.Validation("method", "yöntem cash, card veya mobile olmalı")
	}

	s.locks.Lock(orderID)
	defer s.locks.Unlock(orderID)

	var result PaymentResult
	var statusEvent *events.OrderStatusUpdated

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.First(&o, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Sipariş", orderID)
			}
			return err
		}
		if o.Status == models.OrderCancelled {
			return apperrors.Validation("order_id", "iptal edilmiş siparişe ödeme alınamaz")
		}

		totalPaid, err := completedSum(tx, orderID)
		if err != nil {
			return err
		}

		remaining := o.Total - totalPaid
		if remaining <= 0 {
			return apperrors.Validation("amount", "sipariş zaten tamamen ödenmiş")
		}
		if amount > remaining && method != models.PaymentCash {
			return apperrors.Validation("amount", "tutar kalan bakiyeden fazla (fazla ödeme sadece nakitte geçerli)")
		}

		now := time.Now()
		p := models.Payment{
			OrderID:       orderID,
			Amount:        amount,
			Method:        method,
			Status:        models.PaymentCompleted,
			TransactionID: "TXN-" + strings.ToUpper(uuid.NewString()[:12]),
			CompletedAt:   &now,
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}

		newPaid := totalPaid + amount
		result = PaymentResult{
			Payment:   &p,
			TotalPaid: newPaid,
			Status:    derive(newPaid, o.Total),
		}
		if method == models.PaymentCash && amount > remaining {
			result.ChangeDue = amount - remaining
		}

		if newPaid >= o.Total {
			old := o.Status
			if err := order.Transition(tx, &o, models.OrderPaid, actorID); err != nil {
				var te *apperrors.InvalidTransitionError
				if errors.As(err, &te) {
					// Tahsilat tamam ama sipariş henüz teslim edilmemiş;
					// paid geçişi teslimattan sonra yapılır.
					log.Printf("[INFO] Sipariş %s tamamen ödendi ama durum %s, paid geçişi ertelendi",
						o.OrderNumber, o.Status)
					return nil
				}
				return err
			}
			result.OrderPaid = true
			statusEvent = &events.OrderStatusUpdated{
				OrderID:     o.ID,
				OrderNumber: o.OrderNumber,
				OldStatus:   old,
				NewStatus:   models.OrderPaid,
				WaiterID:    o.WaiterID,
				Timestamp:   time.Now(),
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if statusEvent != nil {
		s.Bus.Publish(*statusEvent)
	}
	return &result, nil
}

// RecordTip: Sipariş başına tek bahşiş (create-or-replace). Ödeme/settlement
// durumundan bağımsız: her sipariş durumunda kaydedilebilir. Bahşiş sadece
// garson rolündeki personele yazılır.
func (s *Service) RecordTip(orderID, waiterID uint, amount float64, method models.PaymentMethod) (*models.Tip, error) {
	if amount <= 0 {
		return nil, apperrors.Validation("amount", "bahşiş tutarı 0'dan büyük olmalı")
	}
	if method == "" {
		method = models.PaymentCash
	}

	var tip models.Tip
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.First(&o, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Sipariş", orderID)
			}
			return err
		}

		var waiter models.User
		if err := tx.First(&waiter, "id = ?", waiterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Personel", waiterID)
			}
			return err
		}
		if !waiter.IsWaiter() {
			return apperrors.Validation("waiter_id", "bahşiş sadece garsonlara yazılabilir")
		}

		err := tx.First(&tip, "order_id = ?", orderID).Error
		switch {
		case err == nil:
			// Üzerine yaz
			return tx.Model(&tip).Updates(map[string]interface{}{
				"waiter_id": waiterID,
				"amount":    amount,
				"method":    method,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			tip = models.Tip{
				OrderID:  orderID,
				WaiterID: waiterID,
				Amount:   amount,
				Method:   method,
			}
			return tx.Create(&tip).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &tip, nil
}

// RefundPayment: Sadece completed ödeme refunded olabilir. Tutar ve yöntem
// değişmez; sipariş durumu geri alınmaz (muhasebesel düzeltme, lifecycle
// düzeltmesi değil).
func (s *Service) RefundPayment(paymentID uint, reason string) (*models.Payment, error) {
	var p models.Payment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Ödeme", paymentID)
			}
			return err
		}
		if p.Status != models.PaymentCompleted {
			return apperrors.Validation("status", "sadece tamamlanmış ödeme iade edilebilir")
		}

		now := time.Now()
		return tx.Model(&p).Updates(map[string]interface{}{
			"status":        models.PaymentRefunded,
			"refund_reason": reason,
			"refunded_at":   now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PaymentStatus: Türetilmiş görünüm, hiçbir yerde saklanmaz.
func (s *Service) PaymentStatus(orderID uint) (Status, float64, error) {
	var o models.Order
	if err := s.DB.First(&o, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, apperrors.NotFound("Sipariş", orderID)
		}
		return "", 0, err
	}

	totalPaid, err := completedSum(s.DB, orderID)
	if err != nil {
		return "", 0, err
	}
	return derive(totalPaid, o.Total), totalPaid, nil
}

func completedSum(tx *gorm.DB, orderID uint) (float64, error) {
	var sum *float64
	err := tx.Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, models.PaymentCompleted).
		Select("SUM(amount)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func derive(totalPaid, total float64) Status {
	switch {
	case totalPaid <= 0:
		return StatusUnpaid
	case totalPaid >= total:
		return StatusPaid
	default:
		return StatusPartiallyPaid
	}
}
