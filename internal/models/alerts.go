package models

import (
	"errors"
	"time"
)

// alerts.go - типизированные результаты опроса источников
//
// Каждый источник возвращает свой тип alert'а; агрегатор превращает
// их в единую модель Notification после дедупликации и классификации.

// WeatherAlert - погодное предупреждение от weather-сервиса
type WeatherAlert struct {
	Condition   string    `json:"condition"`   // свободный текст: "thunderstorm", "light rain"...
	Description string    `json:"description"`
	Temperature float64   `json:"temperature"` // °C
	Location    string    `json:"location"`
	AlertTime   time.Time `json:"alert_time"`
}

// Виды бюджетных предупреждений (закрытое множество)
const (
	BudgetKindOverBudget = "over_budget" // бюджет превышен
	BudgetKindWarning    = "warning"     // приближение к лимиту
	BudgetKindNoBudget   = "no_budget"   // бюджет не задан
)

// BudgetWarning - предупреждение от budget-сервиса
//
// Две формы:
// - новая: Kind + Message (общий статус бюджета поездки)
// - legacy: поля уровня активности (EstimatedCost/ActualCost/Overage*)
//
// Legacy-форма распознаётся по пустому Kind и непустому ActivityTitle.
type BudgetWarning struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`

	// Legacy форма: превышение стоимости конкретной активности
	ActivityTitle     string  `json:"activity_title,omitempty"`
	EstimatedCost     float64 `json:"estimated_cost,omitempty"`
	ActualCost        float64 `json:"actual_cost,omitempty"`
	OverageAmount     float64 `json:"overage_amount,omitempty"`
	OveragePercentage float64 `json:"overage_percentage,omitempty"`
}

// IsLegacy возвращает true для legacy-формы уровня активности
func (w *BudgetWarning) IsLegacy() bool {
	return w.Kind == "" && w.ActivityTitle != ""
}

// ActivityReminder - напоминание о приближающейся активности
type ActivityReminder struct {
	ActivityID        string    `json:"activity_id"`
	ActivityTitle     string    `json:"activity_title"`
	Location          string    `json:"location"`
	StartTime         time.Time `json:"start_time"`
	MinutesUntilStart int       `json:"minutes_until_start"`
}

// ============================================================
// Входящее событие создания расхода
// ============================================================

// Ошибки валидации события
var (
	ErrEmptyBudgetKind   = errors.New("budget warning kind is empty")
	ErrUnknownBudgetKind = errors.New("unknown budget warning kind")
)

// ExpenseBudgetEvent - бюджетный payload из ответа на создание расхода
//
// Ответ expense-сервиса может содержать встроенное бюджетное
// предупреждение; ядро принимает только закрытое множество kind'ов,
// провалидированное на границе API (никакого duck-typing по map'ам).
type ExpenseBudgetEvent struct {
	Kind              string  `json:"kind"`
	Message           string  `json:"message"`
	OverageAmount     float64 `json:"overage_amount,omitempty"`
	OveragePercentage float64 `json:"overage_percentage,omitempty"`
}

// Validate проверяет, что kind принадлежит закрытому множеству
func (e *ExpenseBudgetEvent) Validate() error {
	if e.Kind == "" {
		return ErrEmptyBudgetKind
	}
	switch e.Kind {
	case BudgetKindOverBudget, BudgetKindWarning, BudgetKindNoBudget:
		return nil
	default:
		return ErrUnknownBudgetKind
	}
}

// ToBudgetWarning конвертирует событие в BudgetWarning для классификатора
func (e *ExpenseBudgetEvent) ToBudgetWarning() BudgetWarning {
	return BudgetWarning{
		Kind:              e.Kind,
		Message:           e.Message,
		OverageAmount:     e.OverageAmount,
		OveragePercentage: e.OveragePercentage,
	}
}
