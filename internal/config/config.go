package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Sources   SourcesConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// SourcesConfig - настройки внешних источников сигналов
//
// Погода, бюджет и расписание активностей - отдельные внутренние
// сервисы; каждый опрашивается по HTTP со своим таймаутом.
type SourcesConfig struct {
	WeatherURL  string // базовый URL weather-сервиса
	BudgetURL   string // базовый URL budget-сервиса
	ActivityURL string // базовый URL activity-сервиса

	RequestTimeout time.Duration // таймаут одного HTTP запроса к источнику
}

// SchedulerConfig - настройки планировщика и жизненного цикла поездок
type SchedulerConfig struct {
	// CheckInterval - период общего таймера проверок (один на все поездки)
	CheckInterval time.Duration

	// LoadTimeout - таймаут загрузки персистентных уведомлений при инициализации
	LoadTimeout time.Duration

	// FirstCheckTimeout - таймаут немедленной проверки при инициализации
	FirstCheckTimeout time.Duration

	// Workers - размер пула воркеров для fan-out проверок по поездкам
	// Ограничивает количество одновременных исходящих опросов
	Workers int

	// RecentLimit - сколько последних непрочитанных уведомлений
	// возвращает GetRecentNotifications
	RecentLimit int
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "tripsentry"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Sources: SourcesConfig{
			WeatherURL:     getEnv("WEATHER_SERVICE_URL", "http://localhost:8091"),
			BudgetURL:      getEnv("BUDGET_SERVICE_URL", "http://localhost:8092"),
			ActivityURL:    getEnv("ACTIVITY_SERVICE_URL", "http://localhost:8093"),
			RequestTimeout: getEnvAsDuration("SOURCE_REQUEST_TIMEOUT", 5*time.Second),
		},
		Scheduler: SchedulerConfig{
			CheckInterval:     getEnvAsDuration("CHECK_INTERVAL", 5*time.Minute),
			LoadTimeout:       getEnvAsDuration("LOAD_TIMEOUT", 5*time.Second),
			FirstCheckTimeout: getEnvAsDuration("FIRST_CHECK_TIMEOUT", 10*time.Second),
			Workers:           getEnvAsInt("CHECK_WORKERS", 4),
			RecentLimit:       getEnvAsInt("RECENT_LIMIT", 5),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Валидация числовых диапазонов
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	// Валидация портов
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	// Валидация планировщика
	if c.Scheduler.CheckInterval < time.Second {
		return fmt.Errorf("CHECK_INTERVAL must be at least 1s, got %v", c.Scheduler.CheckInterval)
	}

	if c.Scheduler.LoadTimeout <= 0 {
		return fmt.Errorf("LOAD_TIMEOUT must be positive, got %v", c.Scheduler.LoadTimeout)
	}

	if c.Scheduler.FirstCheckTimeout <= 0 {
		return fmt.Errorf("FIRST_CHECK_TIMEOUT must be positive, got %v", c.Scheduler.FirstCheckTimeout)
	}

	if c.Scheduler.Workers < 1 {
		return fmt.Errorf("CHECK_WORKERS must be at least 1, got %d", c.Scheduler.Workers)
	}

	if c.Scheduler.RecentLimit < 1 {
		return fmt.Errorf("RECENT_LIMIT must be at least 1, got %d", c.Scheduler.RecentLimit)
	}

	// Валидация таймаутов источников
	if c.Sources.RequestTimeout <= 0 {
		return fmt.Errorf("SOURCE_REQUEST_TIMEOUT must be positive, got %v", c.Sources.RequestTimeout)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
