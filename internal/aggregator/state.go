package aggregator

import (
	"sync"
	"sync/atomic"
	"time"
)

// Состояния жизненного цикла поездки
const (
	StateUninitialized = "uninitialized" // поездка неизвестна ядру
	StateInitializing  = "initializing"  // идет загрузка истории и первая проверка
	StateInitialized   = "initialized"   // поездка на периодическом расписании
)

// ValidTransitions определяет допустимые переходы между состояниями
//
// Initialized - терминальное состояние: инициализация всегда
// завершается, даже если загрузка или первая проверка упали.
var ValidTransitions = map[string][]string{
	StateUninitialized: {StateInitializing},
	StateInitializing:  {StateInitialized},
	StateInitialized:   {},
}

// CanTransition проверяет допустимость перехода
func CanTransition(from, to string) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// StateInfo возвращает описание состояния для UI
func StateInfo(s string) string {
	switch s {
	case StateUninitialized:
		return "Поездка не отслеживается"
	case StateInitializing:
		return "Загрузка уведомлений и первая проверка..."
	case StateInitialized:
		return "Поездка на периодическом расписании"
	default:
		return "Неизвестное состояние"
	}
}

// TripState - состояние одной отслеживаемой поездки
//
// Мьютекс защищает state и lastWeatherCheck; checkInProgress -
// atomic fast-path для пропуска цикла, если предыдущий еще идет.
type TripState struct {
	TripID string

	mu               sync.Mutex
	state            string
	lastWeatherCheck time.Time

	checkInProgress atomic.Bool
}

// NewTripState создает состояние поездки
func NewTripState(tripID string) *TripState {
	return &TripState{
		TripID: tripID,
		state:  StateUninitialized,
	}
}

// State возвращает текущее состояние
func (ts *TripState) State() string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.state
}

// TransitionTo переводит поездку в новое состояние
//
// Недопустимый переход игнорируется и возвращает false
func (ts *TripState) TransitionTo(to string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if !CanTransition(ts.state, to) {
		return false
	}
	ts.state = to
	return true
}

// LastWeatherCheck возвращает время последней успешной погодной проверки
func (ts *TripState) LastWeatherCheck() time.Time {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.lastWeatherCheck
}

// MarkWeatherChecked фиксирует успешную погодную проверку
//
// Вызывается ТОЛЬКО при успехе: упавшая проверка не должна
// блокировать повтор в тот же день.
func (ts *TripState) MarkWeatherChecked(at time.Time) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.lastWeatherCheck = at
}

// TryBeginCheck пытается начать цикл проверки
//
// Возвращает false, если предыдущий цикл этой поездки еще не
// завершился: циклы одной поездки не накладываются.
func (ts *TripState) TryBeginCheck() bool {
	return ts.checkInProgress.CompareAndSwap(false, true)
}

// EndCheck завершает цикл проверки
func (ts *TripState) EndCheck() {
	ts.checkInProgress.Store(false)
}
