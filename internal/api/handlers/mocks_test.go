package handlers

import (
	"context"

	"tripsentry/internal/aggregator"
	"tripsentry/internal/models"
)

// ============ Mock Aggregator ============

type MockAggregator struct {
	notifications map[string][]*models.Notification
	states        map[string]string

	markErr    error
	deleteErr  error
	initErr    error
	expenseN   *models.Notification
	expenseErr error
	overageN   *models.Notification
	overageErr error

	initCalls          []string
	checkCalls         []string
	markedRead         [][2]string
	deleted            [][2]string
	expenseActivityIDs []string
	overageCosts       []float64
}

func NewMockAggregator() *MockAggregator {
	return &MockAggregator{
		notifications: make(map[string][]*models.Notification),
		states:        make(map[string]string),
	}
}

// NotificationReader

func (m *MockAggregator) GetNotifications(tripID string) []*models.Notification {
	return m.notifications[tripID]
}

func (m *MockAggregator) GetUnreadCount(tripID string) int {
	count := 0
	for _, n := range m.notifications[tripID] {
		if !n.IsRead {
			count++
		}
	}
	return count
}

func (m *MockAggregator) GetRecentNotifications(tripID string) []*models.Notification {
	var out []*models.Notification
	for _, n := range m.notifications[tripID] {
		if !n.IsRead {
			out = append(out, n)
		}
		if len(out) >= 5 {
			break
		}
	}
	return out
}

func (m *MockAggregator) MarkAsRead(ctx context.Context, tripID, id string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.markedRead = append(m.markedRead, [2]string{tripID, id})
	for _, n := range m.notifications[tripID] {
		if n.ID == id {
			n.IsRead = true
		}
	}
	return nil
}

func (m *MockAggregator) MarkAllAsRead(ctx context.Context, tripID string) error {
	if m.markErr != nil {
		return m.markErr
	}
	for _, n := range m.notifications[tripID] {
		n.IsRead = true
	}
	return nil
}

func (m *MockAggregator) DeleteNotification(ctx context.Context, tripID, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, [2]string{tripID, id})
	return nil
}

// TripLifecycle

func (m *MockAggregator) Initialize(ctx context.Context, tripID string) error {
	if m.initErr != nil {
		return m.initErr
	}
	m.initCalls = append(m.initCalls, tripID)
	m.states[tripID] = aggregator.StateInitialized
	return nil
}

func (m *MockAggregator) CheckTripNow(ctx context.Context, tripID string) {
	m.checkCalls = append(m.checkCalls, tripID)
}

func (m *MockAggregator) TripStateOf(tripID string) string {
	if state, ok := m.states[tripID]; ok {
		return state
	}
	return aggregator.StateUninitialized
}

func (m *MockAggregator) HandleExpenseCreatedWithResponse(ctx context.Context, tripID string, event *models.ExpenseBudgetEvent, activityID string) (*models.Notification, error) {
	if m.expenseErr != nil {
		return nil, m.expenseErr
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	m.expenseActivityIDs = append(m.expenseActivityIDs, activityID)
	return m.expenseN, nil
}

func (m *MockAggregator) CheckBudgetOnActivity(ctx context.Context, tripID, activityID string, actualCost float64) (*models.Notification, error) {
	if m.overageErr != nil {
		return nil, m.overageErr
	}
	m.overageCosts = append(m.overageCosts, actualCost)
	return m.overageN, nil
}
