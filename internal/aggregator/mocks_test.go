package aggregator

import (
	"context"
	"sync"

	"tripsentry/internal/models"
)

// ============ Mock Store ============

type MockStore struct {
	mu            sync.Mutex
	byTrip        map[string][]*models.Notification
	createErr     error
	getErr        error
	markErr       error
	deleteErr     error
	createCalls   int
	getByTripArgs []string
}

func NewMockStore() *MockStore {
	return &MockStore{byTrip: make(map[string][]*models.Notification)}
}

func (m *MockStore) Create(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	clone := *n
	m.byTrip[n.TripID] = append([]*models.Notification{&clone}, m.byTrip[n.TripID]...)
	return nil
}

func (m *MockStore) GetByTrip(ctx context.Context, tripID string) ([]*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByTripArgs = append(m.getByTripArgs, tripID)
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make([]*models.Notification, len(m.byTrip[tripID]))
	copy(out, m.byTrip[tripID])
	return out, nil
}

func (m *MockStore) MarkAsRead(ctx context.Context, tripID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	for _, n := range m.byTrip[tripID] {
		if n.ID == id {
			n.IsRead = true
		}
	}
	return nil
}

func (m *MockStore) MarkAllAsRead(ctx context.Context, tripID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	for _, n := range m.byTrip[tripID] {
		n.IsRead = true
	}
	return nil
}

func (m *MockStore) Delete(ctx context.Context, tripID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	list := m.byTrip[tripID]
	for i, n := range list {
		if n.ID == id {
			m.byTrip[tripID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MockStore) CountUnread(ctx context.Context, tripID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.byTrip[tripID] {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *MockStore) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

// ============ Mock Sources ============

type MockWeatherSource struct {
	mu     sync.Mutex
	alerts []models.WeatherAlert
	err    error
	calls  int
}

func (m *MockWeatherSource) CheckWeatherAlerts(ctx context.Context, tripID string) ([]models.WeatherAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.alerts, nil
}

func (m *MockWeatherSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type MockBudgetSource struct {
	mu           sync.Mutex
	tripStatus   []models.BudgetWarning
	overage      *models.BudgetWarning
	statusErr    error
	overageErr   error
	statusCalls  int
	overageCosts []float64
}

func (m *MockBudgetSource) CheckBudgetOverage(ctx context.Context, tripID, activityID string, actualCost float64) (*models.BudgetWarning, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overageErr != nil {
		return nil, m.overageErr
	}
	m.overageCosts = append(m.overageCosts, actualCost)
	return m.overage, nil
}

func (m *MockBudgetSource) CheckTripBudgetStatus(ctx context.Context, tripID string) ([]models.BudgetWarning, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return m.tripStatus, nil
}

type MockActivitySource struct {
	mu         sync.Mutex
	upcoming   []models.ActivityReminder
	today      []models.ActivityReminder
	upcomErr   error
	todayErr   error
	todayCalls int
}

func (m *MockActivitySource) CheckUpcomingActivities(ctx context.Context, tripID string) ([]models.ActivityReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upcomErr != nil {
		return nil, m.upcomErr
	}
	return m.upcoming, nil
}

func (m *MockActivitySource) GetTodayActivities(ctx context.Context, tripID string) ([]models.ActivityReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.todayCalls++
	if m.todayErr != nil {
		return nil, m.todayErr
	}
	return m.today, nil
}

// ============ Mock Observer ============

type MockObserver struct {
	mu           sync.Mutex
	created      []*models.Notification
	unreadCounts []int
	states       []string
}

func (m *MockObserver) OnNotificationCreated(tripID string, n *models.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, n)
}

func (m *MockObserver) OnUnreadCountChanged(tripID string, unread int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unreadCounts = append(m.unreadCounts, unread)
}

func (m *MockObserver) OnTripStateChanged(tripID string, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, state)
}

func (m *MockObserver) Created() []*models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Notification, len(m.created))
	copy(out, m.created)
	return out
}

func (m *MockObserver) States() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.states))
	copy(out, m.states)
	return out
}

func (m *MockObserver) LastUnread() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.unreadCounts) == 0 {
		return -1
	}
	return m.unreadCounts[len(m.unreadCounts)-1]
}
