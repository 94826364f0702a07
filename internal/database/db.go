package database

import (
	"log"

	"masapos-backend/internal/config"
	"masapos-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate: Tüm modelleri migrate eder. Testler bunu in-memory sqlite
// üzerinde de çağırır.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Guest{},
		&models.Table{},
		&models.MenuCategory{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusLog{},
		&models.InventoryTransaction{},
		&models.Payment{},
		&models.Tip{},
		&models.Notification{},
		&models.AuditLog{},
	)
	if err != nil {
		return err
	}

	// Stok mutabakat sorguları (defter toplamı vs stock_quantity) ürün bazlı
	// tarandığı için bileşik index gerekiyor; AutoMigrate bunu üretmiyor.
	db.Exec("CREATE INDEX IF NOT EXISTS idx_inventory_tx_item_created ON inventory_transactions(menu_item_id, created_at)")

	return nil
}
