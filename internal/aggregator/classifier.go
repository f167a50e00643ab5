package aggregator

import (
	"fmt"
	"strings"
	"time"

	"tripsentry/internal/models"
	"tripsentry/pkg/utils"
)

// classifier.go - превращение сырых сигналов источников в уведомления
//
// Здесь живут правила важности и дедупликации. Правила намеренно
// держатся в одном месте: продукт их регулярно подкручивает.

// Окна дедупликации
const (
	// WeatherDedupWindow - не более одного погодного уведомления
	// на поездку в час
	WeatherDedupWindow = time.Hour

	// ActivityDedupWindow - не более одного напоминания на активность
	// за два часа
	ActivityDedupWindow = 2 * time.Hour

	// Бюджетные уведомления не дедуплицируются: каждое событие
	// бюджета значимо само по себе
)

// Погодные условия, требующие немедленного внимания
var criticalConditions = []string{"thunderstorm", "storm", "heavy rain", "snow"}

// Погодные условия, о которых стоит предупредить
var warningConditions = []string{"rain", "cloudy", "overcast"}

// ClassifyWeather возвращает важность погодного предупреждения
//
// Сопоставление по подстроке без учета регистра; критичные условия
// проверяются первыми, иначе "heavy rain" совпал бы с "rain".
func ClassifyWeather(condition string) string {
	lower := strings.ToLower(condition)

	for _, c := range criticalConditions {
		if strings.Contains(lower, c) {
			return models.SeverityCritical
		}
	}
	for _, c := range warningConditions {
		if strings.Contains(lower, c) {
			return models.SeverityWarning
		}
	}
	return models.SeverityInfo
}

// ClassifyBudget возвращает важность бюджетного предупреждения
//
// Новая форма определяется по kind; legacy-форма уровня активности -
// по величине превышения.
func ClassifyBudget(w *models.BudgetWarning) string {
	if w.IsLegacy() {
		if w.OveragePercentage > 50 {
			return models.SeverityCritical
		}
		return models.SeverityWarning
	}

	switch w.Kind {
	case models.BudgetKindOverBudget:
		return models.SeverityCritical
	case models.BudgetKindWarning, models.BudgetKindNoBudget:
		return models.SeverityWarning
	default:
		return models.SeverityInfo
	}
}

// NotificationFromWeather строит уведомление из погодного предупреждения
func NotificationFromWeather(tripID string, alert models.WeatherAlert, now time.Time) *models.Notification {
	return &models.Notification{
		ID:        models.NewNotificationID(models.NotificationTypeWeather, "", now),
		TripID:    tripID,
		Type:      models.NotificationTypeWeather,
		Severity:  ClassifyWeather(alert.Condition),
		Title:     "Weather Alert",
		Message:   alert.Description,
		CreatedAt: now,
		Data: map[string]interface{}{
			"condition":   alert.Condition,
			"description": alert.Description,
			"temperature": alert.Temperature,
			"location":    alert.Location,
			"alert_time":  alert.AlertTime,
		},
	}
}

// NotificationFromBudget строит уведомление из бюджетного предупреждения
func NotificationFromBudget(tripID string, warning *models.BudgetWarning, now time.Time) *models.Notification {
	message := warning.Message
	data := map[string]interface{}{}

	if warning.IsLegacy() {
		message = fmt.Sprintf("%s: estimated %.2f, actual %.2f (over by %.0f%%)",
			warning.ActivityTitle, warning.EstimatedCost, warning.ActualCost, warning.OveragePercentage)
		data["activity_title"] = warning.ActivityTitle
		data["overage_amount"] = warning.OverageAmount
		data["overage_percentage"] = warning.OveragePercentage
	} else {
		data["kind"] = warning.Kind
		if warning.OverageAmount != 0 {
			data["overage_amount"] = warning.OverageAmount
		}
		if warning.OveragePercentage != 0 {
			data["overage_percentage"] = warning.OveragePercentage
		}
	}

	return &models.Notification{
		ID:        models.NewNotificationID(models.NotificationTypeBudget, "", now),
		TripID:    tripID,
		Type:      models.NotificationTypeBudget,
		Severity:  ClassifyBudget(warning),
		Title:     "Budget Alert",
		Message:   message,
		CreatedAt: now,
		Data:      data,
	}
}

// NotificationFromActivity строит напоминание о приближающейся активности
func NotificationFromActivity(tripID string, reminder models.ActivityReminder, now time.Time) *models.Notification {
	message := fmt.Sprintf("%s starts in %d minutes", reminder.ActivityTitle, reminder.MinutesUntilStart)
	if reminder.Location != "" {
		message = fmt.Sprintf("%s starts in %d minutes at %s",
			reminder.ActivityTitle, reminder.MinutesUntilStart, reminder.Location)
	}

	return &models.Notification{
		ID:        models.NewNotificationID(models.NotificationTypeActivity, reminder.ActivityID, now),
		TripID:    tripID,
		Type:      models.NotificationTypeActivity,
		Severity:  models.SeverityInfo,
		Title:     "Upcoming Activity",
		Message:   message,
		CreatedAt: now,
		Data: map[string]interface{}{
			models.DataKeyActivityID: reminder.ActivityID,
			"activity_title":         reminder.ActivityTitle,
			"minutes_until_start":    reminder.MinutesUntilStart,
		},
	}
}

// IsDuplicate проверяет, является ли кандидат дубликатом существующих
// уведомлений поездки
//
// Правила:
//   - weather: любое погодное уведомление поездки в пределах часа
//   - activity: напоминание о той же активности в пределах двух часов
//   - budget: дубликатов нет
func IsDuplicate(candidate *models.Notification, existing []*models.Notification, now time.Time) bool {
	switch candidate.Type {
	case models.NotificationTypeWeather:
		for _, n := range existing {
			if n.Type == models.NotificationTypeWeather &&
				utils.WithinWindow(n.CreatedAt, now, WeatherDedupWindow) {
				return true
			}
		}
	case models.NotificationTypeActivity:
		activityID := candidate.ActivityID()
		if activityID == "" {
			return false
		}
		for _, n := range existing {
			if n.Type == models.NotificationTypeActivity &&
				n.ActivityID() == activityID &&
				utils.WithinWindow(n.CreatedAt, now, ActivityDedupWindow) {
				return true
			}
		}
	}
	return false
}
