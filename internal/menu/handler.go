package menu

import (
	"masapos-backend/internal/database"
	"masapos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateMenuItemRequest struct {
	CategoryID        *uint                 `json:"category_id"`
	Name              string                `json:"name"`
	Description       string                `json:"description"`
	Price             float64               `json:"price"`
	PrepArea          models.PrepArea       `json:"prep_area"`
	PrepTimeMinutes   int                   `json:"prep_time_minutes"`
	Status            models.MenuItemStatus `json:"status"`
	StockQuantity     *int                  `json:"stock_quantity"` // nil = stok takibi yok
	Unit              string                `json:"unit"`
	LowStockThreshold *int                  `json:"low_stock_threshold"`
}

type MenuItemResponse struct {
	ID                uint    `json:"id"`
	CategoryID        *uint   `json:"category_id"`
	CategoryName      string  `json:"category_name,omitempty"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Price             float64 `json:"price"`
	PrepArea          string  `json:"prep_area"`
	PrepTimeMinutes   int     `json:"prep_time_minutes"`
	Status            string  `json:"status"`
	StockQuantity     *int    `json:"stock_quantity"`
	Unit              string  `json:"unit"`
	LowStockThreshold *int    `json:"low_stock_threshold"`
}

func toMenuItemResponse(m *models.MenuItem) MenuItemResponse {
	resp := MenuItemResponse{
		ID:                m.ID,
		CategoryID:        m.CategoryID,
		Name:              m.Name,
		Description:       m.Description,
		Price:             m.Price,
		PrepArea:          string(m.PrepArea),
		PrepTimeMinutes:   m.PrepTimeMinutes,
		Status:            string(m.Status),
		StockQuantity:     m.StockQuantity,
		Unit:              m.Unit,
		LowStockThreshold: m.LowStockThreshold,
	}
	if m.Category != nil {
		resp.CategoryName = m.Category.Name
	}
	return resp
}

// POST /api/menu-items (manager)
func CreateMenuItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMenuItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name zorunludur")
		}
		if body.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "price negatif olamaz")
		}
		if body.StockQuantity != nil && *body.StockQuantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "stock_quantity negatif olamaz")
		}

		switch body.PrepArea {
		case "", models.PrepAreaKitchen, models.PrepAreaBar, models.PrepAreaBoth:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "prep_area kitchen, bar veya both olmalı")
		}
		if body.PrepArea == "" {
			body.PrepArea = models.PrepAreaKitchen
		}

		status := body.Status
		if status == "" {
			status = models.MenuItemAvailable
		}

		item := models.MenuItem{
			CategoryID:        body.CategoryID,
			Name:              body.Name,
			Description:       body.Description,
			Price:             body.Price,
			PrepArea:          body.PrepArea,
			PrepTimeMinutes:   body.PrepTimeMinutes,
			Status:            status,
			StockQuantity:     body.StockQuantity,
			Unit:              body.Unit,
			LowStockThreshold: body.LowStockThreshold,
		}

		if err := database.DB.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menü ürünü oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toMenuItemResponse(&item))
	}
}

// GET /api/menu-items?category_id=&prep_area=&status=
func ListMenuItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Preload("Category").Order("name ASC")

		if id := c.QueryInt("category_id"); id > 0 {
			q = q.Where("category_id = ?", id)
		}
		if area := c.Query("prep_area"); area != "" {
			q = q.Where("prep_area = ?", area)
		}
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}

		var items []models.MenuItem
		if err := q.Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menü listelenemedi")
		}

		resp := make([]MenuItemResponse, 0, len(items))
		for i := range items {
			resp = append(resp, toMenuItemResponse(&items[i]))
		}
		return c.JSON(resp)
	}
}

// PUT /api/menu-items/:id (manager)
// Stok alanlarına buradan dokunulmaz: stok her zaman defter (restock/adjust)
// üzerinden değişir.
func UpdateMenuItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var item models.MenuItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Menü ürünü bulunamadı")
		}

		var body CreateMenuItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		updates := map[string]interface{}{}
		if body.Name != "" {
			updates["name"] = body.Name
		}
		if body.Description != "" {
			updates["description"] = body.Description
		}
		if body.Price > 0 {
			// Fiyat değişikliği geçmiş siparişleri etkilemez; kalemler
			// sipariş anındaki fiyatı taşır.
			updates["price"] = body.Price
		}
		if body.PrepArea != "" {
			updates["prep_area"] = body.PrepArea
		}
		if body.Status != "" {
			updates["status"] = body.Status
		}
		if body.CategoryID != nil {
			updates["category_id"] = *body.CategoryID
		}
		if body.Unit != "" {
			updates["unit"] = body.Unit
		}
		if body.LowStockThreshold != nil {
			updates["low_stock_threshold"] = *body.LowStockThreshold
		}

		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Güncellenecek alan yok")
		}

		if err := database.DB.Model(&item).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menü ürünü güncellenemedi")
		}

		return c.JSON(toMenuItemResponse(&item))
	}
}

// DELETE /api/menu-items/:id (manager)
func DeleteMenuItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var count int64
		database.DB.Model(&models.OrderItem{}).Where("menu_item_id = ?", id).Count(&count)
		if count > 0 {
			// Geçmiş siparişlerin referansı korunur; ürün satıştan kaldırılır
			if err := database.DB.Model(&models.MenuItem{}).Where("id = ?", id).
				Update("status", models.MenuItemUnavailable).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Menü ürünü kapatılamadı")
			}
			return c.JSON(fiber.Map{"message": "Ürün sipariş geçmişi olduğu için silinmedi, satıştan kaldırıldı"})
		}

		if err := database.DB.Delete(&models.MenuItem{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menü ürünü silinemedi")
		}
		return c.JSON(fiber.Map{"message": "Menü ürünü silindi"})
	}
}

type CreateCategoryRequest struct {
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
}

// POST /api/menu-categories (manager)
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name zorunludur")
		}

		cat := models.MenuCategory{
			Name:         body.Name,
			DisplayOrder: body.DisplayOrder,
		}
		if err := database.DB.Create(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":            cat.ID,
			"name":          cat.Name,
			"display_order": cat.DisplayOrder,
		})
	}
}

// GET /api/menu-categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cats []models.MenuCategory
		if err := database.DB.Order("display_order ASC, name ASC").Find(&cats).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}

		resp := make([]fiber.Map, 0, len(cats))
		for _, cat := range cats {
			resp = append(resp, fiber.Map{
				"id":            cat.ID,
				"name":          cat.Name,
				"display_order": cat.DisplayOrder,
			})
		}
		return c.JSON(resp)
	}
}
