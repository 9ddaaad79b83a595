// Package sweeper реализует фоновый планировщик переоценки пробных периодов:
// немедленный проход при запуске и повторные проходы по таймеру с настроенным
// интервалом, без внешнего триггера и без персистентной очереди задач.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/clock"
	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/sl"
	"github.com/magabrotheeeer/trial-lifecycle/internal/metrics"
	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
	"github.com/magabrotheeeer/trial-lifecycle/internal/notify"
	"github.com/magabrotheeeer/trial-lifecycle/internal/registry"
	"github.com/magabrotheeeer/trial-lifecycle/internal/services/lifecycle"
)

// Service — планировщик проходов по реестру. Состояния: остановлен и запущен;
// Start и Stop идемпотентны.
type Service struct {
	registry   *registry.Registry
	emitter    notify.Emitter
	history    notify.History
	clk        clock.Clock
	collector  *metrics.Collector
	thresholds []int
	interval   time.Duration
	log        *slog.Logger

	// evaluate вынесена в поле, чтобы тесты могли подставить отказ.
	evaluate func(time.Time, models.TrialRecord, []int) (models.TrialRecord, []models.NotificationEvent)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New создает новый экземпляр планировщика. Планировщик не запускается
// автоматически: жизненным циклом управляет композиция приложения.
func New(reg *registry.Registry, emitter notify.Emitter, history notify.History,
	clk clock.Clock, collector *metrics.Collector,
	thresholds []int, interval time.Duration, log *slog.Logger) *Service {
	return &Service{
		registry:   reg,
		emitter:    emitter,
		history:    history,
		clk:        clk,
		collector:  collector,
		thresholds: thresholds,
		interval:   interval,
		log:        log,
		evaluate:   lifecycle.Evaluate,
	}
}

// Start переводит планировщик в запущенное состояние: выполняет один
// немедленный проход и взводит таймер. Повторный Start — no-op.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.log.Info("starting trial lifecycle sweeper", slog.Duration("interval", s.interval))
	s.Sweep(ctx)

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop снимает таймер и дожидается завершения фоновой горутины.
// Уже начатый проход довершается. Повторный Stop — no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.log.Info("trial lifecycle sweeper stopped")
}

// ForceCheck выполняет один синхронный проход независимо от состояния
// планировщика, не трогая таймер.
func (s *Service) ForceCheck(ctx context.Context) {
	s.Sweep(ctx)
}

// Sweep — один полный проход: переоценка каждой записи реестра в порядке
// вставки и диспетчеризация сформированных событий. Сбой одной записи или
// одной доставки не прерывает проход и не откатывает остальные записи.
func (s *Service) Sweep(ctx context.Context) {
	started := time.Now()
	now := s.clk.Now()

	ids := s.registry.UserIDs()
	s.log.Info("starting sweep", slog.Int("records", len(ids)))

	for _, userID := range ids {
		events := s.evaluateRecord(ctx, now, userID)
		s.dispatch(ctx, events)
	}

	s.collector.RecordSweep(time.Since(started))
	s.collector.SetActiveTrials(s.registry.Len())
}

// evaluateRecord атомарно переоценивает одну запись. Паника переоценки
// перехватывается: запись остается в состоянии до прохода и будет
// обработана на следующем.
func (s *Service) evaluateRecord(ctx context.Context, now time.Time, userID string) (events []models.NotificationEvent) {
	defer func() {
		if r := recover(); r != nil {
			s.collector.RecordEvaluationPanic()
			s.log.Error("evaluation failed, record retained for next sweep",
				sl.UserID(userID), slog.Any("panic", r))
			events = nil
		}
	}()

	_, ok, err := s.registry.Update(ctx, userID, func(record models.TrialRecord) models.TrialRecord {
		updated, evs := s.evaluate(now, record, s.thresholds)
		events = evs
		return updated
	})
	if err != nil {
		s.log.Error("failed to persist updated record", sl.UserID(userID), sl.Err(err))
	}
	if !ok {
		// Запись успела уйти в платный план между снимком и переоценкой.
		return nil
	}
	return events
}

// dispatch передает события эмиттеру по одному. Неуспешная доставка только
// логируется: порог уже помечен отправленным, повторов не будет (at-most-once).
func (s *Service) dispatch(ctx context.Context, events []models.NotificationEvent) {
	for _, event := range events {
		s.collector.RecordEvent(event.Kind)
		if err := s.history.Append(ctx, event); err != nil {
			s.log.Error("failed to record notification history", sl.UserID(event.UserID), sl.Err(err))
		}
		if err := s.emitter.Deliver(ctx, event); err != nil {
			s.collector.RecordDeliveryFailure()
			s.log.Error("failed to deliver notification",
				sl.UserID(event.UserID), slog.String("kind", event.Kind), sl.Err(err))
			continue
		}
		s.log.Info("notification delivered",
			sl.UserID(event.UserID), slog.String("kind", event.Kind), slog.Int("days_remaining", event.DaysRemaining))
	}
}
