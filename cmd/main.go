package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/sharath018/seva-counter-backend/config"
	"github.com/sharath018/seva-counter-backend/database"
	"github.com/sharath018/seva-counter-backend/internal/auditlog"
	"github.com/sharath018/seva-counter-backend/internal/booking"
	"github.com/sharath018/seva-counter-backend/internal/catalog"
	"github.com/sharath018/seva-counter-backend/internal/events"
	"github.com/sharath018/seva-counter-backend/internal/settlement"
	"github.com/sharath018/seva-counter-backend/internal/slot"
	"github.com/sharath018/seva-counter-backend/routes"
	"github.com/sharath018/seva-counter-backend/utils"
)

// @title Seva Counter API
// @version 1.0
// @description Slot capacity, counter bookings and shift settlement for temple seva counters.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	db := database.Connect(cfg)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("❌ Unknown APP_TIMEZONE %q: %v", cfg.Timezone, err)
	}

	// Init Redis
	if err := utils.InitRedis(cfg); err != nil {
		log.Fatalf("❌ Redis init failed: %v", err)
	}

	// Init Kafka
	utils.InitializeKafka(cfg)

	// 🔥 Init Firebase
	log.Println("🔄 Initializing Firebase...")
	if err := utils.InitFirebase(cfg); err != nil {
		log.Printf("⚠️ Firebase initialization failed: %v", err)
		log.Println("ℹ️ Continuing without Firebase (push notifications will be disabled)")
	} else if utils.IsFCMEnabled() {
		log.Println("✅ Firebase and FCM initialized successfully")
	}

	// Auto-migrate models
	log.Println("🔄 Running database migrations...")
	if err := db.AutoMigrate(
		&auditlog.AuditLog{},
		&catalog.ServiceDefinition{},
		&slot.Slot{},
		&booking.Booking{},
		&booking.AuditEntry{},
		&booking.ReceiptSequence{},
		&settlement.CounterSettlement{},
	); err != nil {
		panic(fmt.Sprintf("❌ DB AutoMigrate failed: %v", err))
	}
	log.Println("✅ Database migrations completed")

	// Event bus
	var sinks []events.Sink
	if utils.KafkaWriter != nil {
		sinks = append(sinks, events.NewKafkaSink(utils.KafkaWriter))
	}
	if utils.RedisClient != nil {
		sinks = append(sinks, events.NewRedisSink(utils.RedisClient, "seva:events"))
	}
	var rabbit *events.RabbitSink
	if cfg.RabbitMQURL != "" {
		rabbit = events.NewRabbitSink(cfg.RabbitMQURL, cfg.RabbitQueue)
		sinks = append(sinks, rabbit)
	}
	if utils.IsFCMEnabled() {
		sinks = append(sinks, events.NewFCMSink(utils.FirebaseClient))
	}

	var bus events.Publisher = events.Nop{}
	var eventBus *events.Bus
	if len(sinks) > 0 {
		eventBus = events.NewBus(cfg.EventBufferSize, sinks...)
		eventBus.Start(2)
		bus = eventBus
		log.Printf("✅ Event bus started with %d sinks", len(sinks))
	} else {
		log.Println("ℹ️ No event sinks configured, domain events are dropped")
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:4173", "http://127.0.0.1:4173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Content-Length", "X-Requested-With", "Cache-Control", "Pragma"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition", "Cache-Control", "Pragma", "Expires"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	slotSvc := routes.Setup(router, cfg, bus, loc)

	var sched gocron.Scheduler
	if cfg.SlotHorizonCron != "" {
		sched, err = slot.StartHorizonScheduler(slotSvc, cfg.SlotHorizonCron, loc)
		if err != nil {
			log.Fatalf("❌ Slot horizon scheduler failed: %v", err)
		}
		log.Printf("🗓️ Slot horizon job scheduled (%s, %d days)", cfg.SlotHorizonCron, cfg.SlotHorizonDays)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		fmt.Printf("🚀 Server starting on port %s (%s)\n", cfg.Port, loc)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			log.Printf("⚠️ Scheduler shutdown: %v", err)
		}
	}
	if eventBus != nil {
		if err := eventBus.Close(ctx); err != nil {
			log.Printf("⚠️ Event bus drain: %v", err)
		}
	}
	if rabbit != nil {
		rabbit.Close()
	}
	utils.CloseKafka()
	log.Println("✅ Shutdown complete")
}
