package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tripsentry/internal/aggregator"
	"tripsentry/internal/api/handlers"
	"tripsentry/internal/api/middleware"
	"tripsentry/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	Aggregator *aggregator.Aggregator
	Hub        *websocket.Hub
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Назначение:
// Центральное место для определения всех API endpoints.
// Регистрирует handlers для каждого маршрута.
// Применяет middleware к группам маршрутов.
// Организует версионирование API (v1).
//
// Структура маршрутов:
//
// /api/v1/trips/{tripId}/
//
//	├── POST /initialize - поставить поездку на отслеживание
//	├── POST /check - внеплановый цикл проверки
//	├── GET /state - состояние поездки
//	├── POST /expense-events - бюджетное событие создания расхода
//	├── POST /activities/{activityId}/budget-check - проверка превышения
//	└── /notifications/
//	    ├── GET / - все уведомления, новые первыми
//	    ├── GET /recent - последние непрочитанные
//	    ├── GET /unread-count - счетчик непрочитанных
//	    ├── POST /{id}/read - пометить прочитанным
//	    ├── POST /read-all - пометить все прочитанными
//	    └── DELETE /{id} - удалить уведомление
//
// /ws/
//
//	└── /trips/{tripId}/stream - WebSocket поток событий поездки
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. Auth (только для /api/v1)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	// Создание handlers с внедрением зависимостей
	var tripHandler *handlers.TripHandler
	var notificationHandler *handlers.NotificationHandler
	if deps != nil && deps.Aggregator != nil {
		tripHandler = handlers.NewTripHandler(deps.Aggregator)
		notificationHandler = handlers.NewNotificationHandler(deps.Aggregator)
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth)

	// Trip lifecycle routes
	if tripHandler != nil {
		api.HandleFunc("/trips/{tripId}/initialize", tripHandler.InitializeTrip).Methods("POST")
		api.HandleFunc("/trips/{tripId}/check", tripHandler.CheckTrip).Methods("POST")
		api.HandleFunc("/trips/{tripId}/state", tripHandler.GetTripState).Methods("GET")
		api.HandleFunc("/trips/{tripId}/expense-events", tripHandler.HandleExpenseEvent).Methods("POST")
		api.HandleFunc("/trips/{tripId}/activities/{activityId}/budget-check", tripHandler.CheckActivityBudget).Methods("POST")
	}

	// Notification routes
	if notificationHandler != nil {
		api.HandleFunc("/trips/{tripId}/notifications", notificationHandler.GetNotifications).Methods("GET")
		api.HandleFunc("/trips/{tripId}/notifications/recent", notificationHandler.GetRecentNotifications).Methods("GET")
		api.HandleFunc("/trips/{tripId}/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
		api.HandleFunc("/trips/{tripId}/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("POST")
		api.HandleFunc("/trips/{tripId}/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("POST")
		api.HandleFunc("/trips/{tripId}/notifications/{id}", notificationHandler.DeleteNotification).Methods("DELETE")
	}

	// WebSocket route
	if deps != nil && deps.Hub != nil {
		hub := deps.Hub
		router.HandleFunc("/ws/trips/{tripId}/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, mux.Vars(r)["tripId"], w, r)
		}).Methods("GET")
	}

	// Prometheus metrics (закрыт debug-авторизацией)
	router.Handle("/metrics", middleware.DebugAuth(promhttp.Handler())).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
