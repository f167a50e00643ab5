// Package source предоставляет унифицированный интерфейс к внешним
// источникам сигналов о поездке: погода, бюджет, активности.
package source

import (
	"context"

	"tripsentry/internal/models"
)

// WeatherSource - источник погодных предупреждений
type WeatherSource interface {
	// CheckWeatherAlerts возвращает активные погодные предупреждения поездки
	CheckWeatherAlerts(ctx context.Context, tripID string) ([]models.WeatherAlert, error)
}

// BudgetSource - источник состояния бюджета
type BudgetSource interface {
	// CheckBudgetOverage возвращает превышение стоимости по конкретной
	// активности (legacy-форма предупреждения) или nil, если его нет.
	// actualCost - фактическая стоимость, известная вызывающему
	// (check-in flow), чтобы budget-сервис не ходил за ней сам
	CheckBudgetOverage(ctx context.Context, tripID, activityID string, actualCost float64) (*models.BudgetWarning, error)

	// CheckTripBudgetStatus возвращает предупреждения общего статуса
	// бюджета поездки; пустой список - предупреждать не о чем
	CheckTripBudgetStatus(ctx context.Context, tripID string) ([]models.BudgetWarning, error)
}

// ActivityReminderSource - источник расписания активностей
type ActivityReminderSource interface {
	// CheckUpcomingActivities возвращает активности, начинающиеся в
	// ближайшем окне напоминаний
	CheckUpcomingActivities(ctx context.Context, tripID string) ([]models.ActivityReminder, error)

	// GetTodayActivities возвращает активности на сегодня
	// Используется гейтом погодной проверки
	GetTodayActivities(ctx context.Context, tripID string) ([]models.ActivityReminder, error)
}
