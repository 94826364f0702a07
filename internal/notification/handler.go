package notification

import (
	"masapos-backend/internal/auth"
	"masapos-backend/internal/database"
	"masapos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/notifications?unread=true
func ListNotificationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		q := database.DB.Where("user_id = ?", userID).Order("created_at DESC").Limit(100)
		if c.Query("unread") == "true" {
			q = q.Where("is_read = ?", false)
		}

		var notifs []models.Notification
		if err := q.Find(&notifs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bildirimler listelenemedi")
		}
		return c.JSON(notifs)
	}
}

// PUT /api/notifications/:id/read
func MarkReadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz bildirim ID")
		}

		res := database.DB.Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", id, userID).
			Update("is_read", true)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bildirim güncellenemedi")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Bildirim bulunamadı")
		}

		return c.JSON(fiber.Map{"message": "Bildirim okundu olarak işaretlendi"})
	}
}
