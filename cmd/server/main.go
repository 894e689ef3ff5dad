package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyroom-backend/internal/config"
	"studyroom-backend/internal/database"
	"studyroom-backend/internal/handlers"
	"studyroom-backend/internal/middleware"
	"studyroom-backend/internal/repository"
	"studyroom-backend/internal/router"
	"studyroom-backend/internal/services"
	"studyroom-backend/internal/timer"
	"studyroom-backend/internal/websocket"
	"studyroom-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Studyroom Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	recordRepo := repository.NewStudyRecordRepo(pool)
	scheduleRepo := repository.NewScheduleRepo(pool)
	characterRepo := repository.NewCharacterRepo(pool)
	groupRepo := repository.NewGroupRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	reportService := services.NewReportService()
	scheduleService := services.NewScheduleService(scheduleRepo)
	characterService := services.NewCharacterService(characterRepo, recordRepo)

	// ──── Step 5: Start Session Coordinator ────
	coordinator := timer.NewCoordinator(
		timer.SystemClock{},
		sessionRepo,
		recordRepo,
		characterService,
		redisClients.PubSub,
		time.Duration(cfg.SessionTickSeconds)*time.Second,
	)
	if err := coordinator.Load(context.Background()); err != nil {
		log.Fatalf("✗ Session coordinator load failed: %v", err)
	}
	coordinator.Start()
	log.Println("✓ Session coordinator started")

	// ──── Step 6: Start Notification Scheduler & Worker Pool ────
	notificationScheduler := services.NewNotificationScheduler(
		scheduleRepo,
		recordRepo,
		userRepo,
		reportService,
		redisClients.Queue,
		time.Duration(cfg.ReminderPollSeconds)*time.Second,
	)
	notificationScheduler.Start()
	log.Println("✓ Notification scheduler started")

	workerPool := worker.NewPool(redisClients.Queue, emailService, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userRepo)
	recordHandler := handlers.NewRecordHandler(recordRepo, characterService)
	reportHandler := handlers.NewReportHandler(recordRepo, reportService)
	dashboardHandler := handlers.NewDashboardHandler(recordRepo, userRepo)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	characterHandler := handlers.NewCharacterHandler(characterService)
	groupHandler := handlers.NewGroupHandler(groupRepo)
	sessionHandler := handlers.NewSessionHandler(sessionRepo, groupRepo, coordinator)

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		userHandler,
		recordHandler,
		reportHandler,
		dashboardHandler,
		scheduleHandler,
		characterHandler,
		groupHandler,
		sessionHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		coordinator.Stop()
		notificationScheduler.Stop()
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Studyroom Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
