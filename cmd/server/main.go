package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"tripsentry/internal/aggregator"
	"tripsentry/internal/api"
	"tripsentry/internal/config"
	"tripsentry/internal/repository"
	"tripsentry/internal/source"
	"tripsentry/internal/websocket"
	"tripsentry/pkg/utils"
)

func main() {
	// .env опционален: в контейнере конфигурация приходит из окружения
	_ = godotenv.Load()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer logger.Sync()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", utils.Err(err))
	}
	defer db.Close()

	logger.Info("Connected to database successfully",
		utils.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Инициализация репозитория
	notificationRepo := repository.NewNotificationRepository(db)

	// HTTP клиент источников с общим connection pool
	httpCfg := source.DefaultHTTPClientConfig()
	httpCfg.TotalTimeout = cfg.Sources.RequestTimeout
	httpClient := source.NewHTTPClient(httpCfg)
	defer httpClient.Close()

	// Адаптеры внешних источников
	weatherClient := source.NewWeatherClient(cfg.Sources.WeatherURL, httpClient)
	budgetClient := source.NewBudgetClient(cfg.Sources.BudgetURL, httpClient)
	activityClient := source.NewActivityClient(cfg.Sources.ActivityURL, httpClient)

	// Ядро агрегации
	agg := aggregator.New(
		notificationRepo,
		weatherClient,
		budgetClient,
		activityClient,
		aggregator.Options{
			LoadTimeout:       cfg.Scheduler.LoadTimeout,
			FirstCheckTimeout: cfg.Scheduler.FirstCheckTimeout,
			RecentLimit:       cfg.Scheduler.RecentLimit,
		},
		logger,
	)

	// WebSocket hub получает события ядра как наблюдатель
	hub := websocket.NewHub(logger)
	go hub.Run()
	agg.AddObserver(hub)

	// Планировщик периодических проверок
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()

	scheduler := aggregator.NewScheduler(agg, cfg.Scheduler.CheckInterval, cfg.Scheduler.Workers, logger)
	scheduler.Start(schedCtx)

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		Aggregator: agg,
		Hub:        hub,
	}

	// Настройка HTTP роутера
	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Info("Starting server", utils.String("addr", server.Addr))
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				logger.Fatal("Server failed", utils.Err(err))
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("Server failed", utils.Err(err))
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Сначала останавливаем фоновые проверки, потом HTTP
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", utils.Err(err))
	}

	logger.Info("Server exited")
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
