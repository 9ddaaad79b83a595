// Package subscription реализует фасад подписки — единственную точку входа
// остального приложения: скрывает, находится ли пользователь на пробном
// периоде или на платном плане.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/clock"
	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/days"
	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/sl"
	"github.com/magabrotheeeer/trial-lifecycle/internal/metrics"
	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
	"github.com/magabrotheeeer/trial-lifecycle/internal/notify"
	"github.com/magabrotheeeer/trial-lifecycle/internal/registry"
)

// ErrTrialNotFound возвращается, когда операция требует существующей записи
// пробного периода, а её нет.
var ErrTrialNotFound = errors.New("trial record not found")

// paidPlanDuration — длительность оплаченного окна после конверсии.
const paidPlanDuration = 30 * 24 * time.Hour

// Cache описывает методы для кэширования производных представлений.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// Service реализует фасад подписки поверх реестра пробных периодов.
type Service struct {
	registry      *registry.Registry
	history       notify.History
	cache         Cache
	clk           clock.Clock
	collector     *metrics.Collector
	trialDuration time.Duration
	log           *slog.Logger
}

// New создает новый экземпляр Service. cache может быть nil — тогда
// представления не кэшируются.
func New(reg *registry.Registry, history notify.History, cache Cache,
	clk clock.Clock, collector *metrics.Collector,
	trialDuration time.Duration, log *slog.Logger) *Service {
	return &Service{
		registry:      reg,
		history:       history,
		cache:         cache,
		clk:           clk,
		collector:     collector,
		trialDuration: trialDuration,
		log:           log,
	}
}

// GetOrInitTrial возвращает представление подписки пользователя, создавая
// запись пробного периода при первом обращении. Повторные вызовы для одного
// пользователя запись не дублируют и не перезаписывают.
func (s *Service) GetOrInitTrial(ctx context.Context, userID, email, displayName string) (models.SubscriptionView, error) {
	now := s.clk.Now()
	record, created, err := s.registry.GetOrCreate(ctx, userID, func() models.TrialRecord {
		return models.TrialRecord{
			UserID:        userID,
			Email:         email,
			DisplayName:   displayName,
			TrialStart:    now,
			TrialEnd:      now.Add(s.trialDuration),
			DaysRemaining: days.Remaining(now, now.Add(s.trialDuration)),
		}
	})
	if err != nil {
		// Память уже обновлена, сбой хука хранения не фатален.
		s.log.Error("failed to persist trial record", sl.UserID(userID), sl.Err(err))
	}
	if created {
		s.collector.RecordTrialInitialized()
		s.log.Info("initialized trial", sl.UserID(userID),
			slog.Time("trial_end", record.TrialEnd))
	}

	view := s.trialView(record, now)
	s.cacheView(userID, view)
	return view, nil
}

// ConvertToPaid переводит пользователя с пробного периода на платный план:
// удаляет запись из реестра и возвращает представление активной подписки
// с 30-дневным окном и автопродлением. Для пользователя без пробного
// периода возвращает ErrTrialNotFound.
func (s *Service) ConvertToPaid(ctx context.Context, userID, planID, paymentMethodID string) (models.SubscriptionView, error) {
	const op = "subscription.ConvertToPaid"

	record, ok, err := s.registry.Remove(ctx, userID)
	if err != nil {
		s.log.Error("failed to remove trial record from store", sl.UserID(userID), sl.Err(err))
	}
	if !ok {
		return models.SubscriptionView{}, fmt.Errorf("%s: %w", op, ErrTrialNotFound)
	}

	s.collector.RecordConversion()
	s.invalidateView(userID)
	s.log.Info("converted trial to paid plan", sl.UserID(userID),
		slog.String("plan_id", planID), slog.String("payment_method_id", paymentMethodID),
		slog.Time("trial_started", record.TrialStart))

	now := s.clk.Now()
	return models.SubscriptionView{
		PlanID:        planID,
		Status:        models.StatusActive,
		StartDate:     now,
		EndDate:       now.Add(paidPlanDuration),
		AutoRenew:     true,
		IsTrial:       false,
		DaysRemaining: days.Remaining(now, now.Add(paidPlanDuration)),
	}, nil
}

// IsExpired сообщает, истек ли пробный период пользователя. Для неизвестного
// пользователя возвращает false: "нет пробного периода" и "нет пользователя"
// для вызывающего неразличимы.
func (s *Service) IsExpired(userID string) bool {
	record, ok := s.registry.Get(userID)
	if !ok {
		return false
	}
	return record.Expired || days.Expired(s.clk.Now(), record.TrialEnd)
}

// DaysRemaining возвращает количество оставшихся дней пробного периода,
// 0 для неизвестного пользователя.
func (s *Service) DaysRemaining(userID string) int {
	record, ok := s.registry.Get(userID)
	if !ok {
		return 0
	}
	return days.Remaining(s.clk.Now(), record.TrialEnd)
}

// GetTrialNotifications возвращает все уведомления, когда-либо
// сформированные для пользователя.
func (s *Service) GetTrialNotifications(ctx context.Context, userID string) ([]models.NotificationEvent, error) {
	const op = "subscription.GetTrialNotifications"

	events, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// GetView возвращает текущее представление подписки пользователя.
// Второй результат — false, если у пользователя нет пробного периода.
func (s *Service) GetView(userID string) (models.SubscriptionView, bool) {
	cacheKey := viewCacheKey(userID)
	if s.cache != nil {
		var cached models.SubscriptionView
		found, err := s.cache.Get(cacheKey, &cached)
		if err != nil {
			s.log.Warn("failed to read view from cache", slog.String("key", cacheKey), sl.Err(err))
		}
		if found {
			return cached, true
		}
	}

	record, ok := s.registry.Get(userID)
	if !ok {
		return models.SubscriptionView{}, false
	}
	view := s.trialView(record, s.clk.Now())
	s.cacheView(userID, view)
	return view, true
}

func (s *Service) trialView(record models.TrialRecord, now time.Time) models.SubscriptionView {
	status := models.StatusActive
	if record.Expired || days.Expired(now, record.TrialEnd) {
		status = models.StatusTrialExpired
	}
	trialStart := record.TrialStart
	trialEnd := record.TrialEnd
	return models.SubscriptionView{
		PlanID:        models.PlanTrial,
		Status:        status,
		StartDate:     record.TrialStart,
		EndDate:       record.TrialEnd,
		AutoRenew:     false,
		IsTrial:       true,
		TrialStart:    &trialStart,
		TrialEnd:      &trialEnd,
		DaysRemaining: days.Remaining(now, record.TrialEnd),
	}
}

// Представления меняются со временем, поэтому кеш короткоживущий.
func (s *Service) cacheView(userID string, view models.SubscriptionView) {
	if s.cache == nil {
		return
	}
	cacheKey := viewCacheKey(userID)
	if err := s.cache.Set(cacheKey, view, time.Minute); err != nil {
		s.log.Warn("failed to cache subscription view", slog.String("key", cacheKey), sl.Err(err))
	}
}

func (s *Service) invalidateView(userID string) {
	if s.cache == nil {
		return
	}
	cacheKey := viewCacheKey(userID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cached view", slog.String("key", cacheKey), sl.Err(err))
	}
}

func viewCacheKey(userID string) string {
	return fmt.Sprintf("subscription:view:%s", userID)
}
