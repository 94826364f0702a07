package order

import (
	"masapos-backend/internal/auth"
	"masapos-backend/internal/database"
	"masapos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateOrderRequest struct {
	TableID  *uint              `json:"table_id"`
	GuestID  *uint              `json:"guest_id"`
	WaiterID *uint              `json:"waiter_id"` // boşsa ve istek garsondan geliyorsa o garson yazılır
	Source   models.OrderSource `json:"source"`
	Notes    string             `json:"notes"`
	Items    []CreateLine       `json:"items"`
}

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type AddItemsRequest struct {
	Items []CreateLine `json:"items"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

type UpdatePrepStatusRequest struct {
	PrepStatus models.PrepStatus `json:"prep_status"`
}

type OrderItemResponse struct {
	ID                  uint    `json:"id"`
	MenuItemID          uint    `json:"menu_item_id"`
	MenuItemName        string  `json:"menu_item_name"`
	Quantity            int     `json:"quantity"`
	UnitPrice           float64 `json:"unit_price"`
	Subtotal            float64 `json:"subtotal"`
	PrepStatus          string  `json:"prep_status"`
	SpecialInstructions string  `json:"special_instructions"`
}

type OrderResponse struct {
	ID          uint                `json:"id"`
	OrderNumber string              `json:"order_number"`
	TableID     *uint               `json:"table_id"`
	GuestID     *uint               `json:"guest_id"`
	WaiterID    *uint               `json:"waiter_id"`
	Source      models.OrderSource  `json:"source"`
	Status      models.OrderStatus  `json:"status"`
	Subtotal    float64             `json:"subtotal"`
	Tax         float64             `json:"tax"`
	Total       float64             `json:"total"`
	Notes       string              `json:"notes"`
	Items       []OrderItemResponse `json:"items"`
	CreatedAt   string              `json:"created_at"`
}

func toOrderResponse(o *models.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ID:                  it.ID,
			MenuItemID:          it.MenuItemID,
			MenuItemName:        it.MenuItem.Name,
			Quantity:            it.Quantity,
			UnitPrice:           it.UnitPrice,
			Subtotal:            it.Subtotal,
			PrepStatus:          string(it.PrepStatus),
			SpecialInstructions: it.SpecialInstructions,
		})
	}
	return OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		TableID:     o.TableID,
		GuestID:     o.GuestID,
		WaiterID:    o.WaiterID,
		Source:      o.OrderSource,
		Status:      o.Status,
		Subtotal:    o.Subtotal,
		Tax:         o.Tax,
		Total:       o.Total,
		Notes:       o.Notes,
		Items:       items,
		CreatedAt:   o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/orders
func CreateOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		waiterID := body.WaiterID
		if waiterID == nil {
			if role, ok := c.Locals(auth.CtxUserRoleKey).(models.UserRole); ok && role == models.RoleWaiter {
				if uid, ok := c.Locals(auth.CtxUserIDKey).(uint); ok {
					waiterID = &uid
				}
			}
		}

		o, err := svc.Create(CreateInput{
			TableID:  body.TableID,
			GuestID:  body.GuestID,
			WaiterID: waiterID,
			Source:   body.Source,
			Notes:    body.Notes,
			Lines:    body.Items,
		})
		if err != nil {
			return err
		}

		var full models.Order
		if err := svc.DB.Preload("Items.MenuItem").First(&full, o.ID).Error; err == nil {
			return c.Status(fiber.StatusCreated).JSON(toOrderResponse(&full))
		}
		return c.Status(fiber.StatusCreated).JSON(toOrderResponse(o))
	}
}

// GET /api/orders?status=pending
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Preload("Items.MenuItem").Order("created_at DESC")

		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		if tableID := c.QueryInt("table_id"); tableID > 0 {
			q = q.Where("table_id = ?", tableID)
		}

		var orders []models.Order
		if err := q.Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}

		resp := make([]OrderResponse, 0, len(orders))
		for i := range orders {
			resp = append(resp, toOrderResponse(&orders[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/orders/:id
func GetOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		var o models.Order
		if err := database.DB.Preload("Items.MenuItem").Preload("Payments").
			First(&o, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		return c.JSON(toOrderResponse(&o))
	}
}

// PUT /api/orders/:id/status
func UpdateOrderStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		var body UpdateStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Status == "" {
			return fiber.NewError(fiber.StatusBadRequest, "status zorunludur")
		}

		var actorID *uint
		if uid, ok := c.Locals(auth.CtxUserIDKey).(uint); ok {
			actorID = &uid
		}

		o, err := svc.UpdateStatus(uint(id), body.Status, actorID)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"id":           o.ID,
			"order_number": o.OrderNumber,
			"status":       o.Status,
		})
	}
}

// POST /api/orders/:id/items
func AddOrderItemsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		var body AddItemsRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		o, err := svc.AddItems(uint(id), body.Items)
		if err != nil {
			return err
		}

		var full models.Order
		if err := svc.DB.Preload("Items.MenuItem").First(&full, o.ID).Error; err == nil {
			return c.JSON(toOrderResponse(&full))
		}
		return c.JSON(toOrderResponse(o))
	}
}

// PUT /api/orders/:id/items/:itemId
func UpdateOrderItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}
		itemID, err := c.ParamsInt("itemId")
		if err != nil || itemID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kalem ID")
		}

		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		o, err := svc.UpdateItemQuantity(uint(id), uint(itemID), body.Quantity)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"id":       o.ID,
			"subtotal": o.Subtotal,
			"tax":      o.Tax,
			"total":    o.Total,
		})
	}
}

// DELETE /api/orders/:id/items/:itemId
func RemoveOrderItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}
		itemID, err := c.ParamsInt("itemId")
		if err != nil || itemID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kalem ID")
		}

		o, err := svc.RemoveItem(uint(id), uint(itemID))
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"id":       o.ID,
			"subtotal": o.Subtotal,
			"tax":      o.Tax,
			"total":    o.Total,
		})
	}
}

// Mutfak/bar ekranı kalem hazırlık akışı: pending → received → preparing → ready
var prepOrder = map[models.PrepStatus]int{
	models.PrepPending:   0,
	models.PrepReceived:  1,
	models.PrepPreparing: 2,
	models.PrepReady:     3,
}

// PUT /api/orders/:id/items/:itemId/prep
func UpdatePrepStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}
		itemID, err := c.ParamsInt("itemId")
		if err != nil || itemID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kalem ID")
		}

		var body UpdatePrepStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		target, ok := prepOrder[body.PrepStatus]
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "prep_status geçersiz")
		}

		var item models.OrderItem
		if err := database.DB.First(&item, "id = ? AND order_id = ?", itemID, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş kalemi bulunamadı")
		}

		// Geriye gidiş yok
		if target <= prepOrder[item.PrepStatus] {
			return fiber.NewError(fiber.StatusConflict, "Hazırlık durumu geriye alınamaz")
		}

		if err := database.DB.Model(&item).Update("prep_status", body.PrepStatus).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hazırlık durumu güncellenemedi")
		}

		return c.JSON(fiber.Map{
			"id":          item.ID,
			"prep_status": body.PrepStatus,
		})
	}
}
