package models

import (
	"fmt"
	"time"
)

// Notification представляет уведомление для конкретной поездки
//
// Уведомление создается агрегатором из результата опроса источника
// (погода, бюджет, активности) или из события создания расхода,
// сразу персистится и после создания не меняется по содержимому.
// Мутируется только флаг IsRead (false -> true) и удаление.
type Notification struct {
	ID        string                 `json:"id" db:"id"`
	TripID    string                 `json:"trip_id" db:"trip_id"`
	Type      string                 `json:"type" db:"type"`         // weather, budget, activity
	Severity  string                 `json:"severity" db:"severity"` // info, warning, critical
	Title     string                 `json:"title" db:"title"`
	Message   string                 `json:"message" db:"message"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	IsRead    bool                   `json:"is_read" db:"is_read"`
	Data      map[string]interface{} `json:"data,omitempty" db:"data"` // исходный alert для экрана деталей (JSON в БД)
}

// Типы уведомлений
const (
	NotificationTypeWeather  = "weather"  // погодное предупреждение
	NotificationTypeBudget   = "budget"   // превышение/статус бюджета
	NotificationTypeActivity = "activity" // напоминание о приближающейся активности
)

// Уровни важности
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Ключи в Data, которые ядро читает обратно
//
// Остальное содержимое Data - непрозрачный payload для UI
const (
	DataKeyActivityID = "activity_id"
)

// NewNotificationID генерирует уникальный идентификатор уведомления
//
// Формат: <type>_<unixnano> или <type>_<sourceID>_<unixnano>.
// Наносекундная метка гарантирует уникальность внутри процесса.
func NewNotificationID(notifType, sourceID string, createdAt time.Time) string {
	if sourceID == "" {
		return fmt.Sprintf("%s_%d", notifType, createdAt.UnixNano())
	}
	return fmt.Sprintf("%s_%s_%d", notifType, sourceID, createdAt.UnixNano())
}

// Clone возвращает копию уведомления
//
// Data разделяется между копиями: payload после создания неизменяем,
// мутируется только IsRead. Копия нужна читателям, чтобы не видеть
// мутацию флага под чужой блокировкой.
func (n *Notification) Clone() *Notification {
	c := *n
	return &c
}

// ActivityID возвращает activity_id из Data или пустую строку
//
// Используется дедупликацией activity-уведомлений: два напоминания
// об одной активности в пределах окна считаются дубликатами.
func (n *Notification) ActivityID() string {
	if n.Data == nil {
		return ""
	}
	if v, ok := n.Data[DataKeyActivityID]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IsValidNotificationType проверяет, является ли тип допустимым
func IsValidNotificationType(notifType string) bool {
	switch notifType {
	case NotificationTypeWeather, NotificationTypeBudget, NotificationTypeActivity:
		return true
	default:
		return false
	}
}

// IsValidSeverity проверяет, является ли уровень важности допустимым
func IsValidSeverity(severity string) bool {
	switch severity {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	default:
		return false
	}
}
