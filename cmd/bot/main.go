package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/clinic_bot/internal/app"
	"github.com/Freeeeeet/clinic_bot/internal/config"
	"github.com/Freeeeeet/clinic_bot/internal/controller"
	"github.com/Freeeeeet/clinic_bot/internal/controller/state"
	"github.com/Freeeeeet/clinic_bot/internal/repository"
	"github.com/Freeeeeet/clinic_bot/internal/repository/memory"
	"github.com/Freeeeeet/clinic_bot/internal/schedule"
	"github.com/Freeeeeet/clinic_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting clinic bot",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.Storage),
		zap.String("timezone", cfg.ClinicTimezone),
	)

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Fatal("Invalid clinic timezone", zap.String("timezone", cfg.ClinicTimezone), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище: postgres для продакшена, memory для локальной разработки
	var (
		doctorStore    service.DoctorStore
		pendingStore   service.PendingStore
		confirmedStore service.ConfirmedStore
	)

	if cfg.Storage == "memory" {
		logger.Warn("Using in-memory storage, all data is lost on restart")
		store := memory.NewStore()
		doctorStore = store.Doctors()
		pendingStore = store.Pending()
		confirmedStore = store.Confirmed()
	} else {
		pool, err := pgxpool.New(ctx, cfg.DBDSN)
		if err != nil {
			logger.Fatal("Failed to create database pool", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		logger.Info("✅ Connected to database")

		migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
		if err != nil {
			logger.Fatal("Failed to create migrator", zap.Error(err))
		}
		if err := migrator.Run(ctx); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		migrator.Close()

		doctorStore = repository.NewDoctorRepository(pool)
		pendingStore = repository.NewPendingPaymentRepository(pool)
		confirmedStore = repository.NewConfirmedBookingRepository(pool)
	}

	// Сервисы
	prices := service.Prices{New: cfg.PriceNew, Followup: cfg.PriceFollowup}
	ledger := service.NewLedgerService(pendingStore, confirmedStore, prices, loc, logger)
	doctors := service.NewDoctorService(doctorStore, logger)

	// Сессии диалогов с фоновой уборкой протухших
	sessions := state.NewManager(logger)
	sessions.StartSweeper(ctx,
		time.Duration(cfg.SessionTTLMinutes)*time.Minute,
		time.Duration(cfg.SessionSweepMinutes)*time.Minute,
	)

	// Отсечка записи и планировщик
	schedCfg := schedule.NewConfig(cfg.CutoffEnabled, cfg.CutoffHour, cfg.CutoffMinute, loc)
	gate := schedule.NewGate(schedCfg)

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	scheduler := schedule.NewScheduler(
		schedCfg,
		ledger,
		doctors,
		sessions,
		controller.NewNotifier(b),
		cfg.AdminIDs,
		logger,
	)
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	botController := controller.NewBotController(b, cfg, ledger, doctors, sessions, gate, scheduler, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		logger.Fatal("Failed to register handlers", zap.Error(err))
	}

	logger.Info("🏥 Clinic bot is running")
	if err := botController.Start(ctx); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}

	logger.Info("Clinic bot stopped")
}
