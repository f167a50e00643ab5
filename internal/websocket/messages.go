package websocket

// ============ Типизированные сообщения (без map[string]interface{}) ============
// Избегаем рефлексии по map при сериализации

// Типы исходящих сообщений
const (
	MessageTypeNotification = "notification"
	MessageTypeUnreadCount  = "unreadCount"
	MessageTypeTripState    = "tripState"
)

// NotificationMessage - новое уведомление поездки
type NotificationMessage struct {
	Type   string      `json:"type"`
	TripID string      `json:"trip_id"`
	Data   interface{} `json:"data"`
}

// UnreadCountMessage - изменение счетчика непрочитанных
type UnreadCountMessage struct {
	Type   string `json:"type"`
	TripID string `json:"trip_id"`
	Unread int    `json:"unread"`
}

// TripStateMessage - смена состояния поездки
type TripStateMessage struct {
	Type   string `json:"type"`
	TripID string `json:"trip_id"`
	State  string `json:"state"`
}
