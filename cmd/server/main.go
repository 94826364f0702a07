package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"masapos-backend/internal/apperrors"
	"masapos-backend/internal/audit"
	"masapos-backend/internal/auth"
	"masapos-backend/internal/config"
	"masapos-backend/internal/database"
	"masapos-backend/internal/events"
	"masapos-backend/internal/menu"
	"masapos-backend/internal/models"
	"masapos-backend/internal/notification"
	"masapos-backend/internal/order"
	"masapos-backend/internal/payment"
	"masapos-backend/internal/reports"
	"masapos-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	bus := events.NewBus(cfg.EventQueueSize)

	ledger := stock.NewLedger(database.DB)
	deduction := stock.NewDeduction(ledger, bus)
	orderSvc := order.NewService(database.DB, bus, cfg.TaxRate)
	paymentSvc := payment.NewService(database.DB, bus)
	notifier := notification.NewNotifier(database.DB)

	// Event abonelikleri: sipariş onayı stok düşümünü beklemez, stok
	// düşümü de bildirimi beklemez.
	bus.Subscribe(events.OrderCreatedName, deduction.HandleOrderCreated)
	bus.Subscribe(events.LowStockDetectedName, notifier.HandleLowStock)
	bus.Subscribe(events.StockShortfallName, notifier.HandleShortfall)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if handled, resp := apperrors.ToFiber(c, err); handled {
				return resp
			}
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Personel yönetimi
	staffRoutes := protected.Group("/staff")
	staffRoutes.Use(auth.RequireRole(models.RoleSuperAdmin, models.RoleManager))
	staffRoutes.Post("", auth.CreateStaffHandler())

	// Yönetici yetkisi gerektiren route'lar
	managerOnly := auth.RequireRole(models.RoleSuperAdmin, models.RoleManager)

	// Menü
	protected.Get("/menu-categories", menu.ListCategoriesHandler())
	protected.Post("/menu-categories", managerOnly, menu.CreateCategoryHandler())
	protected.Get("/menu-items", menu.ListMenuItemsHandler())
	protected.Post("/menu-items", managerOnly, menu.CreateMenuItemHandler())
	protected.Put("/menu-items/:id", managerOnly, menu.UpdateMenuItemHandler())
	protected.Delete("/menu-items/:id", managerOnly, menu.DeleteMenuItemHandler())

	// Masalar
	protected.Get("/tables", order.ListTablesHandler())
	protected.Post("/tables", managerOnly, order.CreateTableHandler())
	protected.Put("/tables/:id/status", order.UpdateTableStatusHandler())

	// Siparişler
	protected.Post("/orders", order.CreateOrderHandler(orderSvc))
	protected.Get("/orders", order.ListOrdersHandler())
	protected.Get("/orders/:id", order.GetOrderHandler())
	protected.Put("/orders/:id/status", order.UpdateOrderStatusHandler(orderSvc))
	protected.Post("/orders/:id/items", order.AddOrderItemsHandler(orderSvc))
	protected.Put("/orders/:id/items/:itemId", order.UpdateOrderItemHandler(orderSvc))
	protected.Delete("/orders/:id/items/:itemId", order.RemoveOrderItemHandler(orderSvc))
	protected.Put("/orders/:id/items/:itemId/prep", order.UpdatePrepStatusHandler())

	// Ödemeler & bahşiş
	protected.Post("/orders/:id/payments", payment.RecordPaymentHandler(paymentSvc))
	protected.Get("/orders/:id/payments", payment.ListPaymentsHandler())
	protected.Get("/orders/:id/bill", payment.BillHandler(paymentSvc))
	protected.Post("/orders/:id/tip", payment.RecordTipHandler(paymentSvc))
	protected.Post("/payments/:id/refund", managerOnly, payment.RefundPaymentHandler(paymentSvc))

	// Stok defteri
	protected.Post("/stock/restock", managerOnly, stock.RestockHandler(ledger))
	protected.Post("/stock/adjust", managerOnly, stock.AdjustHandler(ledger))
	protected.Get("/stock/transactions", stock.ListTransactionsHandler())
	protected.Get("/stock/low", stock.ListLowStockHandler())
	protected.Get("/stock/reconcile", managerOnly, stock.ReconcileHandler(ledger))

	// Bildirimler
	protected.Get("/notifications", notification.ListNotificationsHandler())
	protected.Put("/notifications/:id/read", notification.MarkReadHandler())

	// Raporlar
	protected.Get("/reports/daily-sales", managerOnly, reports.DailySalesHandler())
	protected.Get("/reports/tips", managerOnly, reports.TipsReportHandler())

	// Audit logs
	protected.Get("/audit-logs", managerOnly, audit.ListAuditLogsHandler())

	// Graceful shutdown: önce HTTP kapanır, sonra kuyruktaki event'ler
	// (stok düşümleri, bildirimler) işlenene kadar beklenir.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Kapanış sinyali alındı, sunucu durduruluyor...")
		if err := app.Shutdown(); err != nil {
			log.Println("Shutdown hatası:", err)
		}
	}()

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}

	bus.Close()
	log.Println("Event kuyruğu boşaltıldı, çıkılıyor")
}
