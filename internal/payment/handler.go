package payment

import (
	"fmt"

	"masapos-backend/internal/audit"
	"masapos-backend/internal/auth"
	"masapos-backend/internal/database"
	"masapos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type RecordPaymentRequest struct {
	Amount float64              `json:"amount"`
	Method models.PaymentMethod `json:"method"`
}

type RecordTipRequest struct {
	Amount   float64              `json:"amount"`
	Method   models.PaymentMethod `json:"method"`
	WaiterID *uint                `json:"waiter_id"` // boşsa siparişin garsonu
}

type RefundRequest struct {
	Reason string `json:"reason"`
}

// POST /api/orders/:id/payments
func RecordPaymentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		var body RecordPaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		var actorID *uint
		if uid, ok := c.Locals(auth.CtxUserIDKey).(uint); ok {
			actorID = &uid
		}

		res, err := svc.RecordPayment(uint(id), body.Amount, body.Method, actorID)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"payment_id":     res.Payment.ID,
			"transaction_id": res.Payment.TransactionID,
			"amount":         res.Payment.Amount,
			"method":         res.Payment.Method,
			"change_due":     res.ChangeDue,
			"total_paid":     res.TotalPaid,
			"payment_status": res.Status,
			"order_paid":     res.OrderPaid,
		})
	}
}

// GET /api/orders/:id/payments
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		var rows []models.Payment
		if err := database.DB.Where("order_id = ?", id).
			Order("created_at ASC").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ödemeler listelenemedi")
		}

		resp := make([]fiber.Map, 0, len(rows))
		for _, p := range rows {
			m := fiber.Map{
				"payment_id":     p.ID,
				"amount":         p.Amount,
				"method":         p.Method,
				"status":         p.Status,
				"transaction_id": p.TransactionID,
				"created_at":     p.CreatedAt.Format("2006-01-02 15:04:05"),
			}
			if p.CompletedAt != nil {
				m["completed_at"] = p.CompletedAt.Format("2006-01-02 15:04:05")
			}
			resp = append(resp, m)
		}
		return c.JSON(resp)
	}
}

// POST /api/payments/:id/refund (manager)
func RefundPaymentHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ödeme ID")
		}

		var body RefundRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Reason == "" {
			return fiber.NewError(fiber.StatusBadRequest, "reason zorunludur")
		}

		userID, userName, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		p, err := svc.RefundPayment(uint(id), body.Reason)
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "payment",
			EntityID:    p.ID,
			Action:      models.AuditActionRefund,
			Description: fmt.Sprintf("İade: ödeme %d, %.2f (%s)", p.ID, p.Amount, body.Reason),
			Before:      nil,
			After:       p,
		})

		return c.JSON(fiber.Map{
			"payment_id": p.ID,
			"status":     p.Status,
		})
	}
}

// POST /api/orders/:id/tip
func RecordTipHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		var body RecordTipRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		waiterID := body.WaiterID
		if waiterID == nil {
			var o models.Order
			if err := database.DB.First(&o, "id = ?", id).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
			}
			if o.WaiterID == nil {
				return fiber.NewError(fiber.StatusBadRequest, "Siparişin garsonu yok, waiter_id gönderin")
			}
			waiterID = o.WaiterID
		}

		tip, err := svc.RecordTip(uint(id), *waiterID, body.Amount, body.Method)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"tip_id":    tip.ID,
			"order_id":  tip.OrderID,
			"waiter_id": tip.WaiterID,
			"amount":    tip.Amount,
			"method":    tip.Method,
		})
	}
}

// GET /api/orders/:id/bill: adisyon dökümü + ödeme durumu
func BillHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		var o models.Order
		if err := database.DB.Preload("Items.MenuItem").Preload("Table").Preload("Waiter").
			First(&o, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		status, totalPaid, err := svc.PaymentStatus(o.ID)
		if err != nil {
			return err
		}

		items := make([]fiber.Map, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, fiber.Map{
				"name":       it.MenuItem.Name,
				"quantity":   it.Quantity,
				"unit_price": it.UnitPrice,
				"subtotal":   it.Subtotal,
			})
		}

		balance := o.Total - totalPaid
		if balance < 0 {
			balance = 0
		}

		resp := fiber.Map{
			"order_id":     o.ID,
			"order_number": o.OrderNumber,
			"items":        items,
			"breakdown": fiber.Map{
				"subtotal": o.Subtotal,
				"tax":      o.Tax,
				"total":    o.Total,
			},
			"payment_info": fiber.Map{
				"total_paid":     totalPaid,
				"balance_due":    balance,
				"payment_status": status,
			},
			"created_at": o.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if o.Table != nil {
			resp["table"] = o.Table.Name
		}
		if o.Waiter != nil {
			resp["waiter"] = o.Waiter.Name
		}

		var tip models.Tip
		if err := database.DB.First(&tip, "order_id = ?", o.ID).Error; err == nil {
			resp["tip"] = fiber.Map{
				"amount": tip.Amount,
				"method": tip.Method,
			}
		}

		return c.JSON(resp)
	}
}
