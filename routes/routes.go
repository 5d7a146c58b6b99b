package routes

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sharath018/seva-counter-backend/config"
	"github.com/sharath018/seva-counter-backend/database"
	"github.com/sharath018/seva-counter-backend/internal/auditlog"
	"github.com/sharath018/seva-counter-backend/internal/booking"
	"github.com/sharath018/seva-counter-backend/internal/catalog"
	"github.com/sharath018/seva-counter-backend/internal/events"
	"github.com/sharath018/seva-counter-backend/internal/reports"
	"github.com/sharath018/seva-counter-backend/internal/settlement"
	"github.com/sharath018/seva-counter-backend/internal/slot"
	"github.com/sharath018/seva-counter-backend/middleware"
	"github.com/sharath018/seva-counter-backend/utils"

	_ "github.com/sharath018/seva-counter-backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Setup wires repositories, services and handlers onto the router.
// The slot service is returned so the caller can run the horizon job.
func Setup(r *gin.Engine, cfg *config.Config, bus events.Publisher, loc *time.Location) slot.Service {
	db := database.DB

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().In(loc).Format(time.RFC3339)})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ========== Audit Log ==========
	auditRepo := auditlog.NewRepository(db)
	auditSvc := auditlog.NewService(auditRepo)
	auditHandler := auditlog.NewHandler(auditSvc)

	// ========== Service Catalog ==========
	catalogRepo := catalog.NewRepository(db)
	catalogSvc := catalog.NewService(catalogRepo, auditSvc)
	catalogHandler := catalog.NewHandler(catalogSvc)

	// ========== Slots ==========
	slotRepo := slot.NewRepository(db)
	slotSvc := slot.NewService(slotRepo, catalogSvc, auditSvc, loc, cfg.SlotHorizonDays)
	slotHandler := slot.NewHandler(slotSvc)

	// ========== Settlement lock index ==========
	settlementRepo := settlement.NewRepository(db)
	var lockCache settlement.LockCache
	if utils.RedisClient != nil {
		lockCache = settlement.NewRedisLockCache(utils.RedisClient)
	}
	lockIndex := settlement.NewLockIndex(settlementRepo, lockCache)

	// ========== Bookings ==========
	shifts, err := booking.ParseShifts(cfg.CounterShifts)
	if err != nil {
		log.Fatalf("❌ Invalid COUNTER_SHIFTS: %v", err)
	}
	bookingRepo := booking.NewRepository(db)
	bookingSvc := booking.NewService(bookingRepo, slotSvc, lockIndex, bus, auditSvc, loc, shifts)
	exporter := reports.NewExporter(cfg.TempleName, loc)
	bookingHandler := booking.NewHandler(bookingSvc, slotSvc, exporter)

	// ========== Settlements ==========
	estimator, err := settlement.NewEstimator(cfg.LossStrategy, cfg.FlatAveragePrice)
	if err != nil {
		log.Fatalf("❌ Invalid SETTLEMENT_LOSS_STRATEGY: %v", err)
	}
	settlementSvc := settlement.NewService(settlementRepo, bookingSvc, estimator, bus, auditSvc,
		cfg.DefaultTargetRevenue, settlement.WithLockIndex(lockIndex))
	settlementHandler := settlement.NewHandler(settlementSvc, exporter)

	// ========== Reports ==========
	reportSvc := reports.NewReportService(bookingSvc, exporter, auditSvc)
	reportHandler := reports.NewHandler(reportSvc)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimiter(cfg.RateLimitPerMinute))
	api.Use(middleware.AuditMiddleware())

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg))

	// ========== Audit Log Routes ==========
	auditRoutes := protected.Group("/auditlogs")
	auditRoutes.Use(middleware.RBACMiddleware(middleware.RoleTempleAdmin))
	{
		auditRoutes.GET("", auditHandler.GetAuditLogs)
	}

	staff := []string{middleware.RoleTempleAdmin, middleware.RoleSupervisor, middleware.RoleCounterStaff}
	approvers := []string{middleware.RoleTempleAdmin, middleware.RoleSupervisor}

	// ========== Service Catalog Routes ==========
	serviceRoutes := protected.Group("/services")
	serviceRoutes.Use(middleware.RBACMiddleware(staff...))
	{
		serviceRoutes.GET("", catalogHandler.ListServices)
		serviceRoutes.GET("/active", catalogHandler.ListActiveServices)
		serviceRoutes.GET("/:id", catalogHandler.GetService)
		serviceRoutes.GET("/:id/slots", slotHandler.ListSlots)

		adminRoutes := serviceRoutes.Group("")
		adminRoutes.Use(middleware.RBACMiddleware(middleware.RoleTempleAdmin), middleware.RequireWriteAccess())
		{
			adminRoutes.POST("", catalogHandler.CreateService)
			adminRoutes.PUT("/:id", catalogHandler.UpdateService)
			adminRoutes.POST("/:id/deactivate", catalogHandler.DeactivateService)
			adminRoutes.POST("/:id/activate", catalogHandler.ActivateService)
			adminRoutes.POST("/:id/slots/generate", slotHandler.GenerateSlots)
		}
	}

	// ========== Slot Routes ==========
	slotRoutes := protected.Group("/slots")
	slotRoutes.Use(middleware.RBACMiddleware(staff...))
	{
		slotRoutes.GET("/:id", slotHandler.GetSlot)
		slotRoutes.POST("/horizon", middleware.RBACMiddleware(middleware.RoleTempleAdmin), middleware.RequireWriteAccess(), slotHandler.GenerateHorizon)
		slotRoutes.POST("/:id/close", middleware.RBACMiddleware(approvers...), slotHandler.CloseSlot)
		slotRoutes.POST("/:id/reopen", middleware.RBACMiddleware(approvers...), slotHandler.ReopenSlot)
	}

	// ========== Booking Routes ==========
	bookingRoutes := protected.Group("/bookings")
	bookingRoutes.Use(middleware.RBACMiddleware(staff...))
	{
		bookingRoutes.POST("", bookingHandler.CreateBooking)
		bookingRoutes.GET("", bookingHandler.ListBookings)
		bookingRoutes.GET("/counts", bookingHandler.StatusCounts)
		bookingRoutes.GET("/:id", bookingHandler.GetBooking)
		bookingRoutes.GET("/:id/audit", bookingHandler.GetAuditTrail)
		bookingRoutes.POST("/:id/payment", bookingHandler.RecordPayment)
		bookingRoutes.POST("/:id/complete", bookingHandler.CompleteService)
		bookingRoutes.POST("/:id/no-show", bookingHandler.MarkNoShow)
		bookingRoutes.POST("/:id/cancel", bookingHandler.CancelBooking)
		bookingRoutes.POST("/:id/reprint", bookingHandler.ReprintReceipt)
	}

	// ========== Settlement Routes ==========
	settlementRoutes := protected.Group("/settlements")
	settlementRoutes.Use(middleware.RBACMiddleware(staff...))
	{
		settlementRoutes.POST("", settlementHandler.BuildSettlement)
		settlementRoutes.GET("", settlementHandler.ListSettlements)
		settlementRoutes.GET("/:id", settlementHandler.GetSettlement)
		settlementRoutes.GET("/:id/export", settlementHandler.ExportSettlement)
		settlementRoutes.POST("/:id/submit", settlementHandler.SubmitSettlement)
		settlementRoutes.POST("/:id/lock", middleware.RBACMiddleware(approvers...), settlementHandler.LockSettlement)
	}

	// ========== Report Routes ==========
	reportRoutes := protected.Group("/reports")
	reportRoutes.Use(middleware.RBACMiddleware(staff...))
	{
		reportRoutes.GET("/bookings", reportHandler.GetBookingsReport)
	}

	return slotSvc
}
