// Package aggregator реализует ядро умных уведомлений поездки:
// периодический опрос источников, классификацию, дедупликацию
// и жизненный цикл отслеживаемых поездок.
package aggregator

import (
	"context"
	"sync"
	"time"

	"tripsentry/internal/models"
	"tripsentry/internal/source"
	"tripsentry/pkg/utils"
)

// Store - персистентное хранилище уведомлений
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByTrip(ctx context.Context, tripID string) ([]*models.Notification, error)
	MarkAsRead(ctx context.Context, tripID, id string) error
	MarkAllAsRead(ctx context.Context, tripID string) error
	Delete(ctx context.Context, tripID, id string) error
	CountUnread(ctx context.Context, tripID string) (int, error)
}

// TripObserver получает события об изменениях уведомлений поездки
//
// Агрегатор ничего не знает о транспорте подписчиков: WebSocket hub,
// пуш-шлюз и тесты реализуют один и тот же интерфейс.
type TripObserver interface {
	// OnNotificationCreated вызывается после персиста нового уведомления
	OnNotificationCreated(tripID string, n *models.Notification)

	// OnUnreadCountChanged вызывается при изменении счетчика непрочитанных
	OnUnreadCountChanged(tripID string, unread int)

	// OnTripStateChanged вызывается при смене состояния поездки
	OnTripStateChanged(tripID string, state string)
}

// Options - параметры жизненного цикла агрегатора
type Options struct {
	LoadTimeout       time.Duration // таймаут загрузки истории при инициализации
	FirstCheckTimeout time.Duration // таймаут немедленной первой проверки
	RecentLimit       int           // размер выдачи GetRecentNotifications
}

// DefaultOptions возвращает параметры по умолчанию
func DefaultOptions() Options {
	return Options{
		LoadTimeout:       5 * time.Second,
		FirstCheckTimeout: 10 * time.Second,
		RecentLimit:       5,
	}
}

// Aggregator - ядро уведомлений
//
// Потокобезопасен. Циклы проверки одной поездки не накладываются
// (TryBeginCheck), разные поездки проверяются параллельно.
type Aggregator struct {
	store    Store
	weather  source.WeatherSource
	budget   source.BudgetSource
	activity source.ActivityReminderSource

	opts Options
	log  *utils.Logger

	mu    sync.RWMutex
	trips map[string]*TripState

	// Кэш уведомлений по поездке, новые первыми.
	// Источник истины - store; кэш обслуживает читающие запросы
	// и дедупликацию без похода в БД.
	cacheMu sync.RWMutex
	cache   map[string][]*models.Notification

	observerMu sync.RWMutex
	observers  []TripObserver

	now func() time.Time // подменяется в тестах
}

// New создает агрегатор
func New(store Store, weather source.WeatherSource, budget source.BudgetSource,
	activity source.ActivityReminderSource, opts Options, log *utils.Logger) *Aggregator {

	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultOptions().LoadTimeout
	}
	if opts.FirstCheckTimeout <= 0 {
		opts.FirstCheckTimeout = DefaultOptions().FirstCheckTimeout
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = DefaultOptions().RecentLimit
	}
	if log == nil {
		log = utils.L()
	}

	return &Aggregator{
		store:    store,
		weather:  weather,
		budget:   budget,
		activity: activity,
		opts:     opts,
		log:      log.WithComponent("aggregator"),
		trips:    make(map[string]*TripState),
		cache:    make(map[string][]*models.Notification),
		now:      time.Now,
	}
}

// AddObserver регистрирует наблюдателя событий
func (a *Aggregator) AddObserver(o TripObserver) {
	a.observerMu.Lock()
	defer a.observerMu.Unlock()
	a.observers = append(a.observers, o)
}

// ============================================================
// Жизненный цикл поездки
// ============================================================

// Initialize ставит поездку на отслеживание
//
// Идемпотентна: повторный вызов для инициализирующейся или уже
// инициализированной поездки - no-op. Инициализация всегда доходит
// до Initialized: упавшая загрузка истории или первая проверка
// логируются, но не оставляют поездку в подвешенном состоянии.
func (a *Aggregator) Initialize(ctx context.Context, tripID string) error {
	ts := a.getOrCreateTrip(tripID)

	if !ts.TransitionTo(StateInitializing) {
		// Уже Initializing или Initialized
		return nil
	}
	TrackedTrips.WithLabelValues(StateInitializing).Inc()
	a.notifyStateChanged(tripID, StateInitializing)

	log := a.log.With(utils.Trip(tripID))
	log.Info("initializing trip")

	// Шаг 1: загрузка персистентной истории
	loadCtx, cancel := context.WithTimeout(ctx, a.opts.LoadTimeout)
	loaded, err := a.store.GetByTrip(loadCtx, tripID)
	cancel()
	if err != nil {
		// Поездка продолжит жить с пустым кэшем; история догрузится
		// при следующем рестарте
		log.Warn("failed to load persisted notifications",
			utils.ErrorCategory(source.Categorize(err)), utils.Err(err))
	} else {
		// Кэш владеет своими записями: стор не должен делить с ними
		// указатели
		cached := make([]*models.Notification, len(loaded))
		for i, n := range loaded {
			cached[i] = n.Clone()
		}
		a.cacheMu.Lock()
		a.cache[tripID] = cached
		a.cacheMu.Unlock()
		log.Info("loaded persisted notifications", utils.Count(len(cached)))
	}

	// Шаг 2: немедленная первая проверка
	checkCtx, cancel := context.WithTimeout(ctx, a.opts.FirstCheckTimeout)
	a.runCheckCycle(checkCtx, ts)
	cancel()

	ts.TransitionTo(StateInitialized)
	TrackedTrips.WithLabelValues(StateInitializing).Dec()
	TrackedTrips.WithLabelValues(StateInitialized).Inc()
	a.notifyStateChanged(tripID, StateInitialized)
	log.Info("trip initialized", utils.Count(a.GetUnreadCount(tripID)))

	a.notifyUnreadChanged(tripID)
	return nil
}

// Shutdown снимает поездку с отслеживания
func (a *Aggregator) Shutdown(tripID string) {
	a.mu.Lock()
	ts, ok := a.trips[tripID]
	if ok {
		delete(a.trips, tripID)
	}
	a.mu.Unlock()

	if ok {
		TrackedTrips.WithLabelValues(ts.State()).Dec()
	}

	a.cacheMu.Lock()
	delete(a.cache, tripID)
	a.cacheMu.Unlock()
}

// TripStateOf возвращает состояние поездки
func (a *Aggregator) TripStateOf(tripID string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if ts, ok := a.trips[tripID]; ok {
		return ts.State()
	}
	return StateUninitialized
}

// InitializedTrips возвращает снимок поездок на периодическом расписании
func (a *Aggregator) InitializedTrips() []*TripState {
	a.mu.RLock()
	defer a.mu.RUnlock()

	trips := make([]*TripState, 0, len(a.trips))
	for _, ts := range a.trips {
		if ts.State() == StateInitialized {
			trips = append(trips, ts)
		}
	}
	return trips
}

func (a *Aggregator) getOrCreateTrip(tripID string) *TripState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ts, ok := a.trips[tripID]; ok {
		return ts
	}
	ts := NewTripState(tripID)
	a.trips[tripID] = ts
	return ts
}

// ============================================================
// Цикл проверки
// ============================================================

// CheckTripNow запускает цикл проверки поездки вне расписания
func (a *Aggregator) CheckTripNow(ctx context.Context, tripID string) {
	a.mu.RLock()
	ts, ok := a.trips[tripID]
	a.mu.RUnlock()
	if !ok {
		return
	}
	a.runCheckCycle(ctx, ts)
}

// runCheckCycle выполняет полный цикл проверки одной поездки
//
// Каждый источник изолирован: его сбой логируется и не мешает
// остальным. Циклы одной поездки не накладываются.
func (a *Aggregator) runCheckCycle(ctx context.Context, ts *TripState) {
	if !ts.TryBeginCheck() {
		CheckCyclesSkipped.Inc()
		return
	}
	defer ts.EndCheck()

	start := a.now()
	defer func() {
		CheckCycleDuration.Observe(float64(time.Since(start).Milliseconds()))
	}()

	a.checkWeather(ctx, ts)
	a.checkActivities(ctx, ts)
	a.checkBudget(ctx, ts)
}

// checkWeather выполняет погодный шаг цикла
//
// Погода проверяется не чаще раза в календарный день и только если
// на сегодня есть активности. Сбой activity-сервиса трактуется
// как "активности есть" (fail open): лучше лишняя проверка погоды,
// чем пропущенный шторм. lastWeatherCheck двигается только после
// успешного опроса.
func (a *Aggregator) checkWeather(ctx context.Context, ts *TripState) {
	now := a.now()
	log := a.log.With(utils.Trip(ts.TripID), utils.Source(source.SourceNameWeather))

	last := ts.LastWeatherCheck()
	if !last.IsZero() && utils.SameCalendarDay(last, now) {
		RecordWeatherSkip("already_checked_today")
		return
	}

	today, err := a.activity.GetTodayActivities(ctx, ts.TripID)
	if err != nil {
		category := source.Categorize(err)
		RecordSourceError(source.SourceNameActivity, category)
		log.Warn("today activities lookup failed, checking weather anyway",
			utils.ErrorCategory(category), utils.Err(err))
	} else if len(today) == 0 {
		RecordWeatherSkip("no_activities")
		return
	}

	pollStart := a.now()
	alerts, err := a.weather.CheckWeatherAlerts(ctx, ts.TripID)
	RecordSourcePoll(source.SourceNameWeather, float64(time.Since(pollStart).Milliseconds()))
	if err != nil {
		category := source.Categorize(err)
		RecordSourceError(source.SourceNameWeather, category)
		log.Warn("weather check failed", utils.ErrorCategory(category), utils.Err(err))
		return
	}

	for _, alert := range alerts {
		a.createNotification(ctx, ts.TripID, NotificationFromWeather(ts.TripID, alert, a.now()))
	}

	// Только после успешного опроса: упавшая проверка не должна
	// блокировать повтор в тот же день
	ts.MarkWeatherChecked(now)
}

// checkActivities выполняет шаг напоминаний об активностях
func (a *Aggregator) checkActivities(ctx context.Context, ts *TripState) {
	log := a.log.With(utils.Trip(ts.TripID), utils.Source(source.SourceNameActivity))

	pollStart := a.now()
	reminders, err := a.activity.CheckUpcomingActivities(ctx, ts.TripID)
	RecordSourcePoll(source.SourceNameActivity, float64(time.Since(pollStart).Milliseconds()))
	if err != nil {
		category := source.Categorize(err)
		RecordSourceError(source.SourceNameActivity, category)
		log.Warn("upcoming activities check failed", utils.ErrorCategory(category), utils.Err(err))
		return
	}

	for _, reminder := range reminders {
		a.createNotification(ctx, ts.TripID, NotificationFromActivity(ts.TripID, reminder, a.now()))
	}
}

// checkBudget выполняет бюджетный шаг цикла
//
// Каждое предупреждение свипа допускается независимо: временного
// окна дедупликации у бюджета нет
func (a *Aggregator) checkBudget(ctx context.Context, ts *TripState) {
	log := a.log.With(utils.Trip(ts.TripID), utils.Source(source.SourceNameBudget))

	pollStart := a.now()
	warnings, err := a.budget.CheckTripBudgetStatus(ctx, ts.TripID)
	RecordSourcePoll(source.SourceNameBudget, float64(time.Since(pollStart).Milliseconds()))
	if err != nil {
		category := source.Categorize(err)
		RecordSourceError(source.SourceNameBudget, category)
		log.Warn("budget check failed", utils.ErrorCategory(category), utils.Err(err))
		return
	}

	for i := range warnings {
		a.createNotification(ctx, ts.TripID, NotificationFromBudget(ts.TripID, &warnings[i], a.now()))
	}
}

// ============================================================
// Событийные операции
// ============================================================

// HandleExpenseCreatedWithResponse обрабатывает бюджетный payload из
// ответа на создание расхода
//
// Событие валидируется на границе; уведомление создается без
// дедупликации (каждое бюджетное событие значимо). activityID,
// если расход привязан к активности, сохраняется в payload
// уведомления. Возвращает созданное уведомление.
func (a *Aggregator) HandleExpenseCreatedWithResponse(ctx context.Context, tripID string, event *models.ExpenseBudgetEvent, activityID string) (*models.Notification, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	a.getOrCreateTrip(tripID)

	warning := event.ToBudgetWarning()
	n := NotificationFromBudget(tripID, &warning, a.now())
	if activityID != "" {
		n.Data[models.DataKeyActivityID] = activityID
	}
	if err := a.createNotification(ctx, tripID, n); err != nil {
		return nil, err
	}
	return n, nil
}

// CheckBudgetOnActivity проверяет превышение стоимости активности
// и создает уведомление, если превышение есть
//
// actualCost приходит из check-in flow, где фактическая стоимость
// уже известна
func (a *Aggregator) CheckBudgetOnActivity(ctx context.Context, tripID, activityID string, actualCost float64) (*models.Notification, error) {
	warning, err := a.budget.CheckBudgetOverage(ctx, tripID, activityID, actualCost)
	if err != nil {
		category := source.Categorize(err)
		RecordSourceError(source.SourceNameBudget, category)
		a.log.Warn("activity budget check failed",
			utils.Trip(tripID), utils.ActivityIDField(activityID),
			utils.ErrorCategory(category), utils.Err(err))
		return nil, err
	}
	if warning == nil {
		return nil, nil
	}

	n := NotificationFromBudget(tripID, warning, a.now())
	if err := a.createNotification(ctx, tripID, n); err != nil {
		return nil, err
	}
	return n, nil
}

// createNotification пропускает кандидата через дедупликацию,
// персистит и рассылает наблюдателям
func (a *Aggregator) createNotification(ctx context.Context, tripID string, n *models.Notification) error {
	a.cacheMu.RLock()
	existing := a.cache[tripID]
	a.cacheMu.RUnlock()

	if IsDuplicate(n, existing, a.now()) {
		RecordDuplicate(n.Type)
		a.log.Debug("duplicate notification dropped",
			utils.Trip(tripID), utils.NotifType(n.Type))
		return nil
	}

	if err := a.store.Create(ctx, n); err != nil {
		a.log.Error("failed to persist notification",
			utils.Trip(tripID), utils.NotifType(n.Type),
			utils.ErrorCategory(source.Categorize(err)), utils.Err(err))
		return err
	}

	// В кэш уходит собственная копия: кэшированная запись мутируется
	// (IsRead), а указатель вызывающего и наблюдатели - нет
	a.cacheMu.Lock()
	a.cache[tripID] = append([]*models.Notification{n.Clone()}, a.cache[tripID]...)
	a.cacheMu.Unlock()

	RecordNotificationCreated(n.Type, n.Severity)
	a.log.Info("notification created",
		utils.Trip(tripID), utils.NotificationIDField(n.ID),
		utils.NotifType(n.Type), utils.SeverityField(n.Severity))

	a.notifyCreated(tripID, n)
	a.notifyUnreadChanged(tripID)
	return nil
}

// ============================================================
// Мутации
// ============================================================

// MarkAsRead помечает уведомление прочитанным
//
// Идемпотентна; уведомления чужой поездки не затрагиваются
func (a *Aggregator) MarkAsRead(ctx context.Context, tripID, id string) error {
	if err := a.store.MarkAsRead(ctx, tripID, id); err != nil {
		return err
	}

	changed := false
	a.cacheMu.Lock()
	for _, n := range a.cache[tripID] {
		if n.ID == id && !n.IsRead {
			n.IsRead = true
			changed = true
		}
	}
	a.cacheMu.Unlock()

	if changed {
		a.notifyUnreadChanged(tripID)
	}
	return nil
}

// MarkAllAsRead помечает все уведомления поездки прочитанными
func (a *Aggregator) MarkAllAsRead(ctx context.Context, tripID string) error {
	if err := a.store.MarkAllAsRead(ctx, tripID); err != nil {
		return err
	}

	changed := false
	a.cacheMu.Lock()
	for _, n := range a.cache[tripID] {
		if !n.IsRead {
			n.IsRead = true
			changed = true
		}
	}
	a.cacheMu.Unlock()

	if changed {
		a.notifyUnreadChanged(tripID)
	}
	return nil
}

// DeleteNotification удаляет уведомление поездки
//
// Идемпотентна
func (a *Aggregator) DeleteNotification(ctx context.Context, tripID, id string) error {
	if err := a.store.Delete(ctx, tripID, id); err != nil {
		return err
	}

	removed := false
	a.cacheMu.Lock()
	list := a.cache[tripID]
	for i, n := range list {
		if n.ID == id {
			a.cache[tripID] = append(list[:i], list[i+1:]...)
			removed = true
			break
		}
	}
	a.cacheMu.Unlock()

	if removed {
		a.notifyUnreadChanged(tripID)
	}
	return nil
}

// ============================================================
// Аксессоры
// ============================================================

// GetNotifications возвращает уведомления поездки, новые первыми
//
// Выдаются копии: кэшированные записи мутируются (IsRead) под
// cacheMu, и читатель снаружи блокировки не должен их видеть.
func (a *Aggregator) GetNotifications(tripID string) []*models.Notification {
	a.cacheMu.RLock()
	defer a.cacheMu.RUnlock()

	list := a.cache[tripID]
	out := make([]*models.Notification, len(list))
	for i, n := range list {
		out[i] = n.Clone()
	}
	return out
}

// GetUnreadCount возвращает количество непрочитанных уведомлений
func (a *Aggregator) GetUnreadCount(tripID string) int {
	a.cacheMu.RLock()
	defer a.cacheMu.RUnlock()

	count := 0
	for _, n := range a.cache[tripID] {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// GetRecentNotifications возвращает последние непрочитанные уведомления
func (a *Aggregator) GetRecentNotifications(tripID string) []*models.Notification {
	a.cacheMu.RLock()
	defer a.cacheMu.RUnlock()

	var out []*models.Notification
	for _, n := range a.cache[tripID] {
		if n.IsRead {
			continue
		}
		out = append(out, n.Clone())
		if len(out) >= a.opts.RecentLimit {
			break
		}
	}
	return out
}

// ============================================================
// Рассылка наблюдателям
// ============================================================

// Снимок списка под коротким RLock, вызовы вне блокировки:
// медленный наблюдатель не держит агрегатор.

func (a *Aggregator) notifyCreated(tripID string, n *models.Notification) {
	a.observerMu.RLock()
	observers := make([]TripObserver, len(a.observers))
	copy(observers, a.observers)
	a.observerMu.RUnlock()

	for _, o := range observers {
		o.OnNotificationCreated(tripID, n)
	}
}

func (a *Aggregator) notifyUnreadChanged(tripID string) {
	unread := a.GetUnreadCount(tripID)

	a.observerMu.RLock()
	observers := make([]TripObserver, len(a.observers))
	copy(observers, a.observers)
	a.observerMu.RUnlock()

	for _, o := range observers {
		o.OnUnreadCountChanged(tripID, unread)
	}
}

func (a *Aggregator) notifyStateChanged(tripID, state string) {
	a.observerMu.RLock()
	observers := make([]TripObserver, len(a.observers))
	copy(observers, a.observers)
	a.observerMu.RUnlock()

	for _, o := range observers {
		o.OnTripStateChanged(tripID, state)
	}
}
