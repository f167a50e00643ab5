package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"tripsentry/internal/models"
)

// NotificationReader - операции чтения и мутации уведомлений поездки
//
// Реализуется агрегатором; интерфейс держится на стороне handlers,
// чтобы тесты подставляли мок без поднятия ядра.
type NotificationReader interface {
	GetNotifications(tripID string) []*models.Notification
	GetUnreadCount(tripID string) int
	GetRecentNotifications(tripID string) []*models.Notification
	MarkAsRead(ctx context.Context, tripID, id string) error
	MarkAllAsRead(ctx context.Context, tripID string) error
	DeleteNotification(ctx context.Context, tripID, id string) error
}

// NotificationHandler отвечает за уведомления поездки
//
// Endpoints:
// - GET /api/v1/trips/{tripId}/notifications - все уведомления, новые первыми
// - GET /api/v1/trips/{tripId}/notifications/recent - последние непрочитанные
// - GET /api/v1/trips/{tripId}/notifications/unread-count - счетчик непрочитанных
// - POST /api/v1/trips/{tripId}/notifications/{id}/read - пометить прочитанным
// - POST /api/v1/trips/{tripId}/notifications/read-all - пометить все
// - DELETE /api/v1/trips/{tripId}/notifications/{id} - удалить уведомление
type NotificationHandler struct {
	aggregator NotificationReader
}

// NewNotificationHandler создает новый NotificationHandler с внедрением зависимости
func NewNotificationHandler(aggregator NotificationReader) *NotificationHandler {
	return &NotificationHandler{aggregator: aggregator}
}

// GetNotificationsResponse представляет ответ списка уведомлений
type GetNotificationsResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Total         int                    `json:"total"`
	Unread        int                    `json:"unread"`
}

// GetNotifications возвращает уведомления поездки, новые первыми
//
// GET /api/v1/trips/{tripId}/notifications?limit=20
//
// Query параметры:
// - limit: максимум уведомлений в ответе (опционально, 0 = без лимита)
//
// HTTP коды:
// - 200 OK: успешно (пустой список для неизвестной поездки)
// - 400 Bad Request: кривой limit
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter: "+raw)
			return
		}
		limit = parsed
	}

	notifications := h.aggregator.GetNotifications(tripID)
	if notifications == nil {
		notifications = []*models.Notification{}
	}

	total := len(notifications)
	if limit > 0 && limit < len(notifications) {
		notifications = notifications[:limit]
	}

	respondWithJSON(w, http.StatusOK, GetNotificationsResponse{
		Notifications: notifications,
		Total:         total,
		Unread:        h.aggregator.GetUnreadCount(tripID),
	})
}

// GetRecentNotifications возвращает последние непрочитанные уведомления
//
// GET /api/v1/trips/{tripId}/notifications/recent
func (h *NotificationHandler) GetRecentNotifications(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]

	notifications := h.aggregator.GetRecentNotifications(tripID)
	if notifications == nil {
		notifications = []*models.Notification{}
	}

	respondWithJSON(w, http.StatusOK, GetNotificationsResponse{
		Notifications: notifications,
		Total:         len(notifications),
		Unread:        h.aggregator.GetUnreadCount(tripID),
	})
}

// UnreadCountResponse представляет счетчик непрочитанных
type UnreadCountResponse struct {
	TripID string `json:"trip_id"`
	Unread int    `json:"unread"`
}

// GetUnreadCount возвращает количество непрочитанных уведомлений
//
// GET /api/v1/trips/{tripId}/notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]

	respondWithJSON(w, http.StatusOK, UnreadCountResponse{
		TripID: tripID,
		Unread: h.aggregator.GetUnreadCount(tripID),
	})
}

// MarkAsRead помечает уведомление прочитанным
//
// POST /api/v1/trips/{tripId}/notifications/{id}/read
//
// Идемпотентна: несуществующий ID тоже дает 200.
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tripID := vars["tripId"]
	id := vars["id"]

	if err := h.aggregator.MarkAsRead(r.Context(), tripID, id); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to mark notification as read: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Notification marked as read"})
}

// MarkAllAsRead помечает все уведомления поездки прочитанными
//
// POST /api/v1/trips/{tripId}/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]

	if err := h.aggregator.MarkAllAsRead(r.Context(), tripID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to mark notifications as read: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "All notifications marked as read"})
}

// DeleteNotification удаляет уведомление поездки
//
// DELETE /api/v1/trips/{tripId}/notifications/{id}
//
// Идемпотентна: несуществующий ID тоже дает 200.
func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tripID := vars["tripId"]
	id := vars["id"]

	if err := h.aggregator.DeleteNotification(r.Context(), tripID, id); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to delete notification: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Notification deleted"})
}
