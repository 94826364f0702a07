package order

import (
	"masapos-backend/internal/database"
	"masapos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateTableRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// POST /api/tables (manager)
func CreateTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name zorunludur")
		}

		capacity := body.Capacity
		if capacity <= 0 {
			capacity = 4
		}

		table := models.Table{
			Name:     body.Name,
			Capacity: capacity,
			Status:   models.TableAvailable,
		}
		if err := database.DB.Create(&table).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa oluşturulamadı")
		}
		return c.Status(fiber.StatusCreated).JSON(table)
	}
}

// GET /api/tables?status=
func ListTablesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Order("name ASC")
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}

		var tables []models.Table
		if err := q.Find(&tables).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masalar listelenemedi")
		}
		return c.JSON(tables)
	}
}

// PUT /api/tables/:id/status (rezervasyon vb. manuel durum değişimi;
// dolu/boş geçişleri normalde sipariş akışından gelir)
func UpdateTableStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz masa ID")
		}

		var body struct {
			Status models.TableStatus `json:"status"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		switch body.Status {
		case models.TableAvailable, models.TableOccupied, models.TableReserved:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "status available, occupied veya reserved olmalı")
		}

		res := database.DB.Model(&models.Table{}).Where("id = ?", id).
			Update("status", body.Status)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa güncellenemedi")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Masa bulunamadı")
		}
		return c.JSON(fiber.Map{"message": "Masa durumu güncellendi"})
	}
}
