package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ValidationError: Geçersiz girdi (boş kalem listesi, pozitif olmayan
// miktar/tutar, kapalı ürün vs.). Senkron döner, state değiştirmez.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientStockError: İstenen miktar, takipli ürünün mevcut stokundan
// fazla. Hangi ürün, ne kadar eksik ayrıntısıyla döner.
type InsufficientStockError struct {
	MenuItemID uint
	Name       string
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("yetersiz stok: %s (istenen %d, mevcut %d)", e.Name, e.Requested, e.Available)
}

// InvalidTransitionError: Durum tablosunda izin verilmeyen geçiş.
// Mevcut durum ve geçerli sonraki durumlar client'a dönülür.
type InvalidTransitionError struct {
	Current string
	Target  string
	Allowed []string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("geçersiz durum geçişi: %s -> %s (izin verilenler: %v)", e.Current, e.Target, e.Allowed)
}

// NotFoundError: Var olmayan sipariş/ürün/personel referansı.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s bulunamadı (ID: %d)", e.Entity, e.ID)
}

func NotFound(entity string, id uint) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ToFiber: Tipli hataları HTTP cevabına çevirir. cmd/server'daki merkezi
// ErrorHandler tarafından kullanılır.
func ToFiber(c *fiber.Ctx, err error) (bool, error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true, c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": ve.Message,
			"field": ve.Field,
		})
	}

	var se *InsufficientStockError
	if errors.As(err, &se) {
		return true, c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":        se.Error(),
			"menu_item_id": se.MenuItemID,
			"requested":    se.Requested,
			"available":    se.Available,
		})
	}

	var te *InvalidTransitionError
	if errors.As(err, &te) {
		return true, c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":          te.Error(),
			"current_status": te.Current,
			"allowed":        te.Allowed,
		})
	}

	var ne *NotFoundError
	if errors.As(err, &ne) {
		return true, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": ne.Error(),
		})
	}

	return false, nil
}
