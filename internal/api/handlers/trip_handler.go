package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"tripsentry/internal/aggregator"
	"tripsentry/internal/models"
)

// TripLifecycle - операции жизненного цикла и событий поездки
type TripLifecycle interface {
	Initialize(ctx context.Context, tripID string) error
	CheckTripNow(ctx context.Context, tripID string)
	TripStateOf(tripID string) string
	HandleExpenseCreatedWithResponse(ctx context.Context, tripID string, event *models.ExpenseBudgetEvent, activityID string) (*models.Notification, error)
	CheckBudgetOnActivity(ctx context.Context, tripID, activityID string, actualCost float64) (*models.Notification, error)
}

// TripHandler отвечает за жизненный цикл отслеживания поездки
//
// Endpoints:
// - POST /api/v1/trips/{tripId}/initialize - поставить поездку на отслеживание
// - POST /api/v1/trips/{tripId}/check - внеплановая проверка
// - GET /api/v1/trips/{tripId}/state - состояние поездки
// - POST /api/v1/trips/{tripId}/expense-events - бюджетное событие создания расхода
// - POST /api/v1/trips/{tripId}/activities/{activityId}/budget-check - проверка превышения по активности
type TripHandler struct {
	aggregator TripLifecycle
}

// NewTripHandler создает новый TripHandler с внедрением зависимости
func NewTripHandler(aggregator TripLifecycle) *TripHandler {
	return &TripHandler{aggregator: aggregator}
}

// TripStateResponse представляет состояние поездки
type TripStateResponse struct {
	TripID string `json:"trip_id"`
	State  string `json:"state"`
}

// InitializeTrip ставит поездку на отслеживание
//
// POST /api/v1/trips/{tripId}/initialize
//
// Идемпотентна: повторная инициализация - no-op. Ответ возвращается
// после завершения инициализации (загрузка истории + первая проверка),
// ограниченной внутренними таймаутами ядра.
//
// HTTP коды:
// - 200 OK: поездка инициализирована
func (h *TripHandler) InitializeTrip(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]

	if err := h.aggregator.Initialize(r.Context(), tripID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to initialize trip: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, TripStateResponse{
		TripID: tripID,
		State:  h.aggregator.TripStateOf(tripID),
	})
}

// CheckTrip запускает внеплановый цикл проверки
//
// POST /api/v1/trips/{tripId}/check
//
// Если предыдущий цикл поездки еще идет, запрос возвращается сразу:
// циклы одной поездки не накладываются.
func (h *TripHandler) CheckTrip(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]

	if h.aggregator.TripStateOf(tripID) == aggregator.StateUninitialized {
		respondWithError(w, http.StatusConflict, "Trip is not initialized")
		return
	}

	h.aggregator.CheckTripNow(r.Context(), tripID)

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Check completed"})
}

// GetTripState возвращает состояние поездки
//
// GET /api/v1/trips/{tripId}/state
func (h *TripHandler) GetTripState(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]

	respondWithJSON(w, http.StatusOK, TripStateResponse{
		TripID: tripID,
		State:  h.aggregator.TripStateOf(tripID),
	})
}

// ExpenseEventRequest представляет бюджетный payload из ответа на
// создание расхода
//
// ActivityID заполняется, когда расход привязан к активности
type ExpenseEventRequest struct {
	Budget     *models.ExpenseBudgetEvent `json:"budget"`
	ActivityID string                     `json:"activity_id,omitempty"`
}

// ExpenseEventResponse представляет результат обработки события
type ExpenseEventResponse struct {
	Notification *models.Notification `json:"notification,omitempty"`
	Message      string               `json:"message,omitempty"`
}

// HandleExpenseEvent обрабатывает событие создания расхода
//
// POST /api/v1/trips/{tripId}/expense-events
//
// Тело: {"budget": {"kind": "over_budget", ...}, "activity_id": "A42"}
// Событие без бюджетного payload'а допустимо и ничего не создает.
// Неизвестный kind отклоняется с 400 на границе.
//
// HTTP коды:
// - 200 OK: событие обработано
// - 400 Bad Request: кривое тело или неизвестный kind
func (h *TripHandler) HandleExpenseEvent(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]

	var req ExpenseEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Budget == nil {
		respondWithJSON(w, http.StatusOK, ExpenseEventResponse{Message: "No budget payload"})
		return
	}

	n, err := h.aggregator.HandleExpenseCreatedWithResponse(r.Context(), tripID, req.Budget, req.ActivityID)
	if err != nil {
		if errors.Is(err, models.ErrEmptyBudgetKind) || errors.Is(err, models.ErrUnknownBudgetKind) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to handle expense event: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, ExpenseEventResponse{Notification: n})
}

// ActivityBudgetCheckRequest представляет запрос проверки превышения
// из check-in flow, где фактическая стоимость уже известна
type ActivityBudgetCheckRequest struct {
	ActualCost float64 `json:"actual_cost"`
}

// CheckActivityBudget проверяет превышение стоимости активности
//
// POST /api/v1/trips/{tripId}/activities/{activityId}/budget-check
//
// Тело: {"actual_cost": 80.50}. Пустое тело допустимо (стоимость 0,
// budget-сервис берет известную ему).
//
// HTTP коды:
// - 200 OK: проверка выполнена (уведомление создано или превышения нет)
// - 400 Bad Request: кривое тело
// - 502 Bad Gateway: budget-сервис недоступен
func (h *TripHandler) CheckActivityBudget(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tripID := vars["tripId"]
	activityID := vars["activityId"]

	var req ActivityBudgetCheckRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	n, err := h.aggregator.CheckBudgetOnActivity(r.Context(), tripID, activityID, req.ActualCost)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Budget check failed: "+err.Error())
		return
	}

	if n == nil {
		respondWithJSON(w, http.StatusOK, ExpenseEventResponse{Message: "No budget overage"})
		return
	}

	respondWithJSON(w, http.StatusOK, ExpenseEventResponse{Notification: n})
}
