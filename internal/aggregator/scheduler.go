package aggregator

import (
	"context"
	"sync"
	"time"

	"tripsentry/pkg/utils"
)

// Scheduler - общий таймер периодических проверок
//
// Один тикер на все поездки: по тику снимок инициализированных
// поездок раздается пулу воркеров. Пул ограничивает количество
// одновременных исходящих опросов; поездка, чей предыдущий цикл
// еще идет, пропускает тик внутри runCheckCycle.
type Scheduler struct {
	agg      *Aggregator
	interval time.Duration
	workers  int
	log      *utils.Logger

	jobs   chan *TripState
	stopCh chan struct{}
	wg     sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewScheduler создает планировщик
func NewScheduler(agg *Aggregator, interval time.Duration, workers int, log *utils.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = utils.L()
	}

	return &Scheduler{
		agg:      agg,
		interval: interval,
		workers:  workers,
		log:      log.WithComponent("scheduler"),
		jobs:     make(chan *TripState, 256),
		stopCh:   make(chan struct{}),
	}
}

// Start запускает тикер и пул воркеров
//
// Повторные вызовы игнорируются. Останавливается по Stop или
// отмене контекста.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.log.Info("scheduler started",
			utils.Any("interval", s.interval.String()),
			utils.Int("workers", s.workers))

		for i := 0; i < s.workers; i++ {
			s.wg.Add(1)
			go s.worker(ctx)
		}

		s.wg.Add(1)
		go s.tickLoop(ctx)
	})
}

// Stop останавливает планировщик и дожидается воркеров
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		s.log.Info("scheduler stopped")
	})
}

// TriggerNow внепланово раздает проверку всем инициализированным поездкам
func (s *Scheduler) TriggerNow() {
	s.dispatch()
}

func (s *Scheduler) tickLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.dispatch()
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// dispatch раздает снимок инициализированных поездок воркерам
//
// Переполненная очередь роняет тик поездки, а не блокирует тикер:
// следующий тик доберет отставших.
func (s *Scheduler) dispatch() {
	trips := s.agg.InitializedTrips()
	for _, ts := range trips {
		select {
		case s.jobs <- ts:
		default:
			CheckCyclesSkipped.Inc()
			s.log.Warn("scheduler queue full, skipping trip check", utils.Trip(ts.TripID))
		}
	}
	SchedulerQueueSize.Set(float64(len(s.jobs)))
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case ts := <-s.jobs:
			checkCtx, cancel := context.WithTimeout(ctx, s.interval)
			s.agg.runCheckCycle(checkCtx, ts)
			cancel()
			SchedulerQueueSize.Set(float64(len(s.jobs)))
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}
