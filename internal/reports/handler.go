package reports

import (
	"time"

	"masapos-backend/internal/database"
	"masapos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// dayRange: ?date=2025-06-15 parametresini gün başı/sonu aralığına çevirir.
// Parametre yoksa bugün kullanılır.
func dayRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	day := time.Now()
	if s := c.Query("date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "date parametresi YYYY-AA-GG formatında olmalı")
		}
		day = parsed
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.Add(24 * time.Hour), nil
}

// GET /api/reports/daily-sales?date=YYYY-MM-DD (manager)
// Sadece "paid" durumuna ulaşmış siparişler ciroya sayılır.
func DailySalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, end, err := dayRange(c)
		if err != nil {
			return err
		}

		var orders []models.Order
		if err := database.DB.
			Where("status = ? AND created_at >= ? AND created_at < ?",
				models.OrderPaid, start, end).
			Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satış raporu oluşturulamadı")
		}

		var revenue, tax float64
		orderIDs := make([]uint, 0, len(orders))
		for _, o := range orders {
			revenue += o.Total
			tax += o.Tax
			orderIDs = append(orderIDs, o.ID)
		}

		byMethod := map[string]float64{}
		if len(orderIDs) > 0 {
			type methodSum struct {
				Method string
				Total  float64
			}
			var sums []methodSum
			if err := database.DB.Model(&models.Payment{}).
				Select("method, SUM(amount) AS total").
				Where("order_id IN ? AND status = ?", orderIDs, models.PaymentCompleted).
				Group("method").
				Scan(&sums).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Ödeme dağılımı hesaplanamadı")
			}
			for _, s := range sums {
				byMethod[s.Method] = s.Total
			}
		}

		avg := 0.0
		if len(orders) > 0 {
			avg = revenue / float64(len(orders))
		}

		return c.JSON(fiber.Map{
			"date":          start.Format("2006-01-02"),
			"order_count":   len(orders),
			"revenue":       revenue,
			"tax_collected": tax,
			"average_order": avg,
			"by_method":     byMethod,
		})
	}
}

// GET /api/reports/tips?date=YYYY-MM-DD (manager)
// Garson bazında günlük bahşiş dökümü.
func TipsReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, end, err := dayRange(c)
		if err != nil {
			return err
		}

		type waiterTips struct {
			WaiterID   uint    `json:"waiter_id"`
			WaiterName string  `json:"waiter_name"`
			TipCount   int     `json:"tip_count"`
			Total      float64 `json:"total"`
		}
		var rows []waiterTips
		if err := database.DB.Model(&models.Tip{}).
			Select("tips.waiter_id, users.name AS waiter_name, COUNT(*) AS tip_count, SUM(tips.amount) AS total").
			Joins("JOIN users ON users.id = tips.waiter_id").
			Where("tips.created_at >= ? AND tips.created_at < ?", start, end).
			Group("tips.waiter_id, users.name").
			Order("total DESC").
			Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bahşiş raporu oluşturulamadı")
		}

		var grand float64
		for _, r := range rows {
			grand += r.Total
		}

		return c.JSON(fiber.Map{
			"date":    start.Format("2006-01-02"),
			"waiters": rows,
			"total":   grand,
		})
	}
}
