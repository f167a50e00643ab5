package aggregator

import (
	"testing"
	"time"

	"tripsentry/internal/models"
)

// ============================================================
// Классификация важности
// ============================================================

func TestClassifyWeather(t *testing.T) {
	tests := []struct {
		condition string
		expected  string
	}{
		{"thunderstorm", models.SeverityCritical},
		{"Severe Thunderstorm", models.SeverityCritical},
		{"storm", models.SeverityCritical},
		{"heavy rain", models.SeverityCritical},
		{"snow", models.SeverityCritical},
		{"rain", models.SeverityWarning},
		{"light rain", models.SeverityWarning},
		{"cloudy", models.SeverityWarning},
		{"overcast", models.SeverityWarning},
		{"Partly Cloudy", models.SeverityWarning},
		{"sunny", models.SeverityInfo},
		{"clear", models.SeverityInfo},
		{"", models.SeverityInfo},
	}

	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			if got := ClassifyWeather(tt.condition); got != tt.expected {
				t.Errorf("ClassifyWeather(%q) = %q, want %q", tt.condition, got, tt.expected)
			}
		})
	}
}

func TestClassifyBudget(t *testing.T) {
	tests := []struct {
		name     string
		warning  models.BudgetWarning
		expected string
	}{
		{"over_budget kind", models.BudgetWarning{Kind: models.BudgetKindOverBudget}, models.SeverityCritical},
		{"warning kind", models.BudgetWarning{Kind: models.BudgetKindWarning}, models.SeverityWarning},
		{"no_budget kind", models.BudgetWarning{Kind: models.BudgetKindNoBudget}, models.SeverityWarning},
		{"unknown kind", models.BudgetWarning{Kind: "something_else"}, models.SeverityInfo},
		{"legacy over 50%", models.BudgetWarning{ActivityTitle: "Louvre", OveragePercentage: 51}, models.SeverityCritical},
		{"legacy exactly 50%", models.BudgetWarning{ActivityTitle: "Louvre", OveragePercentage: 50}, models.SeverityWarning},
		{"legacy small overage", models.BudgetWarning{ActivityTitle: "Louvre", OveragePercentage: 10}, models.SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyBudget(&tt.warning); got != tt.expected {
				t.Errorf("ClassifyBudget() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// ============================================================
// Конструкторы уведомлений
// ============================================================

func TestNotificationFromWeather(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	alert := models.WeatherAlert{
		Condition:   "thunderstorm",
		Description: "Severe storm expected this evening",
		Temperature: 17.5,
		Location:    "Paris",
		AlertTime:   now.Add(6 * time.Hour),
	}

	n := NotificationFromWeather("trip-1", alert, now)

	if n.TripID != "trip-1" || n.Type != models.NotificationTypeWeather {
		t.Errorf("unexpected notification: %+v", n)
	}
	if n.Severity != models.SeverityCritical {
		t.Errorf("expected critical, got %q", n.Severity)
	}
	if n.Title != "Weather Alert" {
		t.Errorf("unexpected title %q", n.Title)
	}
	if n.Message != alert.Description {
		t.Errorf("message must carry the description, got %q", n.Message)
	}
	if n.Data["condition"] != "thunderstorm" || n.Data["location"] != "Paris" {
		t.Errorf("alert payload missing from data: %v", n.Data)
	}
	// Payload несет предупреждение целиком, включая поля для детального экрана
	if n.Data["description"] != alert.Description || n.Data["alert_time"] != alert.AlertTime {
		t.Errorf("description/alert_time missing from data: %v", n.Data)
	}
}

func TestNotificationFromBudgetLegacy(t *testing.T) {
	now := time.Now()
	warning := models.BudgetWarning{
		ActivityTitle:     "Louvre tickets",
		EstimatedCost:     50,
		ActualCost:        80,
		OverageAmount:     30,
		OveragePercentage: 60,
	}

	n := NotificationFromBudget("trip-1", &warning, now)

	if n.Severity != models.SeverityCritical {
		t.Errorf("60%% overage must be critical, got %q", n.Severity)
	}
	if n.Data["activity_title"] != "Louvre tickets" {
		t.Errorf("legacy payload missing: %v", n.Data)
	}
	// Сообщение собирается из legacy-полей
	if n.Message == "" {
		t.Error("legacy warning must produce a message")
	}
}

func TestNotificationFromActivity(t *testing.T) {
	now := time.Now()
	reminder := models.ActivityReminder{
		ActivityID:        "A42",
		ActivityTitle:     "Louvre tour",
		Location:          "Paris",
		MinutesUntilStart: 45,
	}

	n := NotificationFromActivity("trip-1", reminder, now)

	if n.Severity != models.SeverityInfo {
		t.Errorf("reminders are info, got %q", n.Severity)
	}
	if n.ActivityID() != "A42" {
		t.Errorf("activity id must round-trip through data, got %q", n.ActivityID())
	}
	if n.Message != "Louvre tour starts in 45 minutes at Paris" {
		t.Errorf("unexpected message %q", n.Message)
	}
}

// ============================================================
// Дедупликация
// ============================================================

func TestIsDuplicateWeather(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	candidate := NotificationFromWeather("trip-1", models.WeatherAlert{Condition: "rain"}, now)

	t.Run("within window", func(t *testing.T) {
		existing := []*models.Notification{
			{Type: models.NotificationTypeWeather, CreatedAt: now.Add(-30 * time.Minute)},
		}
		if !IsDuplicate(candidate, existing, now) {
			t.Error("weather within 1h must be a duplicate")
		}
	})

	t.Run("outside window", func(t *testing.T) {
		existing := []*models.Notification{
			{Type: models.NotificationTypeWeather, CreatedAt: now.Add(-2 * time.Hour)},
		}
		if IsDuplicate(candidate, existing, now) {
			t.Error("weather older than 1h must not be a duplicate")
		}
	})

	t.Run("other types ignored", func(t *testing.T) {
		existing := []*models.Notification{
			{Type: models.NotificationTypeBudget, CreatedAt: now.Add(-time.Minute)},
		}
		if IsDuplicate(candidate, existing, now) {
			t.Error("budget notification must not suppress weather")
		}
	})
}

func TestIsDuplicateActivity(t *testing.T) {
	now := time.Now()
	candidate := NotificationFromActivity("trip-1", models.ActivityReminder{
		ActivityID: "A1", ActivityTitle: "Tour",
	}, now)

	mkExisting := func(activityID string, age time.Duration) *models.Notification {
		return &models.Notification{
			Type:      models.NotificationTypeActivity,
			CreatedAt: now.Add(-age),
			Data:      map[string]interface{}{models.DataKeyActivityID: activityID},
		}
	}

	t.Run("same activity within window", func(t *testing.T) {
		if !IsDuplicate(candidate, []*models.Notification{mkExisting("A1", time.Hour)}, now) {
			t.Error("same activity within 2h must be a duplicate")
		}
	})

	t.Run("same activity outside window", func(t *testing.T) {
		if IsDuplicate(candidate, []*models.Notification{mkExisting("A1", 3*time.Hour)}, now) {
			t.Error("same activity older than 2h must not be a duplicate")
		}
	})

	t.Run("different activity", func(t *testing.T) {
		if IsDuplicate(candidate, []*models.Notification{mkExisting("A2", time.Minute)}, now) {
			t.Error("different activity must not be a duplicate")
		}
	})
}

func TestIsDuplicateBudget(t *testing.T) {
	now := time.Now()
	candidate := NotificationFromBudget("trip-1", &models.BudgetWarning{
		Kind: models.BudgetKindWarning, Message: "Warning",
	}, now)

	existing := []*models.Notification{
		{Type: models.NotificationTypeBudget, CreatedAt: now.Add(-time.Second)},
	}
	if IsDuplicate(candidate, existing, now) {
		t.Error("budget notifications are never duplicates")
	}
}
