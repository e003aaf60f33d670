package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"medbill-backend/internal/config"
	handler "medbill-backend/internal/handlers"
	"medbill-backend/internal/pdf"
	"medbill-backend/internal/repository"
	"medbill-backend/internal/services/documents"
	"medbill-backend/internal/services/serial"
)

// RegisterRoutes wires repositories, services and handlers onto r.
// rdb may be nil unless COUNTER_BACKEND is "redis".
func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	loc := cfg.Location()

	billRepo := repository.NewBillRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	allocator := serial.NewAllocator(counterStore(db, rdb, cfg), serial.InLocation(loc))
	renderer := pdf.NewRenderer(pdf.Shop{
		Name:    cfg.ShopName,
		Address: cfg.ShopAddress,
		Contact: cfg.ShopContact,
		Email:   cfg.ShopEmail,
		GST:     cfg.ShopGST,
	})

	docService := documents.NewService(billRepo, quotationRepo, auditRepo, allocator, renderer, loc)

	billHandler := handler.NewBillHandler(docService)
	quotationHandler := handler.NewQuotationHandler(docService)
	auditHandler := handler.NewAuditHandler(docService)

	api := r.Group("/api")

	// Health check
	api.GET("/health", handler.Health(db, rdb))

	bills := api.Group("/bills")
	bills.GET("/next-serial", billHandler.NextSerial)
	bills.POST("", billHandler.Create)
	bills.GET("", billHandler.List)
	bills.GET("/search", billHandler.Search)
	bills.GET("/monthly", billHandler.Monthly)
	bills.GET("/by-serial/*serialNo", billHandler.BySerial) // serials contain '/'
	bills.GET("/:id", billHandler.Get)
	bills.GET("/:id/verify", billHandler.Verify)
	bills.GET("/:id/pdf", billHandler.PDF)
	bills.DELETE("/:id", billHandler.Delete)

	quotations := api.Group("/quotations")
	quotations.GET("/next-serial", quotationHandler.NextSerial)
	quotations.POST("", quotationHandler.Create)
	quotations.GET("", quotationHandler.List)
	quotations.GET("/by-serial/*serialNo", quotationHandler.BySerial)
	quotations.GET("/:id", quotationHandler.Get)
	quotations.GET("/:id/verify", quotationHandler.Verify)
	quotations.GET("/:id/pdf", quotationHandler.PDF)
	quotations.DELETE("/:id", quotationHandler.Delete)

	api.GET("/audit-logs", auditHandler.List)
}

func counterStore(db *gorm.DB, rdb *redis.Client, cfg *config.Config) serial.CounterStore {
	if cfg.CounterBackend == "redis" && rdb != nil {
		return repository.NewRedisCounterRepository(rdb)
	}
	return repository.NewCounterRepository(db)
}
