package utils

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger.go - структурированное логирование на базе zap
//
// Назначение:
// Единая точка инициализации логгера для всего сервиса.
// Поддерживает JSON и text форматы, уровни DEBUG/INFO/WARN/ERROR,
// вывод в файл или stderr, глобальный логгер для пакетов без DI.
//
// Использование:
//
//	logger := utils.InitGlobalLogger(utils.LogConfig{Level: "info", Format: "json"})
//	defer logger.Sync()
//	utils.Info("trip initialized", utils.Trip("paris-1"))

// LogConfig - конфигурация логгера
type LogConfig struct {
	// Level - минимальный уровень: debug, info, warn, error, fatal
	Level string

	// Format - формат вывода: json или text
	Format string

	// Development - режим разработки (caller, читаемые stacktrace)
	Development bool

	// Output - путь к файлу лога; пустая строка = stderr
	Output string
}

// Logger - обёртка над zap.Logger с доменными helpers
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// parseLevel преобразует строковый уровень в zapcore.Level
// Неизвестные значения превращаются в Info (fail-safe)
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger создает новый логгер по конфигурации
//
// При невозможности открыть файл Output делает fallback на stderr
// (логирование не должно ронять процесс)
func InitLogger(cfg LogConfig) *Logger {
	level := parseLevel(cfg.Level)

	var encoderCfg zapcore.EncoderConfig
	if cfg.Development {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
		encoderCfg.TimeKey = "timestamp"
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "text" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	// Выбор назначения вывода
	sink := zapcore.AddSync(os.Stderr)
	if cfg.Output != "" {
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			sink = zapcore.AddSync(file)
		}
		// При ошибке остаёмся на stderr
	}

	core := zapcore.NewCore(encoder, sink, level)

	var opts []zap.Option
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}

	zl := zap.New(core, opts...)
	return &Logger{
		Logger: zl,
		sugar:  zl.Sugar(),
	}
}

// InitGlobalLogger инициализирует и устанавливает глобальный логгер
func InitGlobalLogger(cfg LogConfig) *Logger {
	logger := InitLogger(cfg)
	SetGlobalLogger(logger)
	return logger
}

// SetGlobalLogger устанавливает глобальный логгер
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// GetGlobalLogger возвращает глобальный логгер
// Если он не инициализирован, создаёт логгер по умолчанию (info, json)
func GetGlobalLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{Level: "info", Format: "json"})
	}
	return globalLogger
}

// L - короткий алиас для GetGlobalLogger
func L() *Logger {
	return GetGlobalLogger()
}

// Sugar возвращает SugaredLogger для printf-style логирования
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// With возвращает новый логгер с добавленными полями
func (l *Logger) With(fields ...zap.Field) *Logger {
	child := l.Logger.With(fields...)
	return &Logger{
		Logger: child,
		sugar:  child.Sugar(),
	}
}

// WithComponent возвращает логгер с полем component
func (l *Logger) WithComponent(component string) *Logger {
	return l.With(Component(component))
}

// WithTrip возвращает логгер с полем trip_id
func (l *Logger) WithTrip(tripID string) *Logger {
	return l.With(Trip(tripID))
}

// WithSource возвращает логгер с полем source (weather/budget/activity)
func (l *Logger) WithSource(source string) *Logger {
	return l.With(Source(source))
}

// WithNotificationID возвращает логгер с полем notification_id
func (l *Logger) WithNotificationID(id string) *Logger {
	return l.With(NotificationIDField(id))
}

// ============================================================
// Глобальные функции логирования
// ============================================================

// Debug логирует через глобальный логгер
func Debug(msg string, fields ...zap.Field) {
	GetGlobalLogger().Debug(msg, fields...)
}

// Info логирует через глобальный логгер
func Info(msg string, fields ...zap.Field) {
	GetGlobalLogger().Info(msg, fields...)
}

// Warn логирует через глобальный логгер
func Warn(msg string, fields ...zap.Field) {
	GetGlobalLogger().Warn(msg, fields...)
}

// Error логирует через глобальный логгер
func Error(msg string, fields ...zap.Field) {
	GetGlobalLogger().Error(msg, fields...)
}

// Fatal логирует и завершает процесс
func Fatal(msg string, fields ...zap.Field) {
	GetGlobalLogger().Fatal(msg, fields...)
}

// Debugf - printf-style debug
func Debugf(template string, args ...interface{}) {
	GetGlobalLogger().sugar.Debugf(template, args...)
}

// Infof - printf-style info
func Infof(template string, args ...interface{}) {
	GetGlobalLogger().sugar.Infof(template, args...)
}

// Warnf - printf-style warn
func Warnf(template string, args ...interface{}) {
	GetGlobalLogger().sugar.Warnf(template, args...)
}

// Errorf - printf-style error
func Errorf(template string, args ...interface{}) {
	GetGlobalLogger().sugar.Errorf(template, args...)
}

// fieldsToInterface конвертирует zap.Field в плоский слайс key/value
// Используется для передачи полей в sugar-логгер
func fieldsToInterface(fields []zap.Field) []interface{} {
	result := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		result = append(result, f.Key, f.Interface)
	}
	return result
}

// ============================================================
// Доменные конструкторы полей
// ============================================================

// Trip - поле trip_id
func Trip(tripID string) zap.Field {
	return zap.String("trip_id", tripID)
}

// Source - поле source (weather, budget, activity)
func Source(source string) zap.Field {
	return zap.String("source", source)
}

// NotificationIDField - поле notification_id
func NotificationIDField(id string) zap.Field {
	return zap.String("notification_id", id)
}

// NotifType - поле type уведомления
func NotifType(t string) zap.Field {
	return zap.String("type", t)
}

// SeverityField - поле severity уведомления
func SeverityField(s string) zap.Field {
	return zap.String("severity", s)
}

// ActivityIDField - поле activity_id
func ActivityIDField(id string) zap.Field {
	return zap.String("activity_id", id)
}

// ErrorCategory - категория ошибки (network, service)
func ErrorCategory(category string) zap.Field {
	return zap.String("error_category", category)
}

// Latency - поле latency_ms
func Latency(ms float64) zap.Field {
	return zap.Float64("latency_ms", ms)
}

// Count - числовое поле count
func Count(n int) zap.Field {
	return zap.Int("count", n)
}

// RequestID - поле request_id
func RequestID(id string) zap.Field {
	return zap.String("request_id", id)
}

// Component - поле component
func Component(component string) zap.Field {
	return zap.String("component", component)
}

// ============================================================
// Переэкспорт стандартных конструкторов zap
// ============================================================

// String - строковое поле
func String(key, value string) zap.Field { return zap.String(key, value) }

// Int - целочисленное поле
func Int(key string, value int) zap.Field { return zap.Int(key, value) }

// Int64 - поле int64
func Int64(key string, value int64) zap.Field { return zap.Int64(key, value) }

// Float64 - поле float64
func Float64(key string, value float64) zap.Field { return zap.Float64(key, value) }

// Bool - булево поле
func Bool(key string, value bool) zap.Field { return zap.Bool(key, value) }

// Err - поле error
func Err(err error) zap.Field { return zap.Error(err) }

// Any - произвольное поле
func Any(key string, value interface{}) zap.Field { return zap.Any(key, value) }
