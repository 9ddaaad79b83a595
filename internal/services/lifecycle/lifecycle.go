// Package lifecycle содержит чистую логику переоценки пробного периода:
// по текущему моменту и записи пользователя вычисляет оставшиеся дни,
// фиксирует истечение и определяет, какое уведомление пора отправить.
//
// Функция Evaluate не имеет побочных эффектов: она не отправляет уведомления
// и ничего не пишет в реестр, а только возвращает обновленную копию записи
// и список событий для диспетчеризации вызывающей стороной.
package lifecycle

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/days"
	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
)

// Evaluate пересчитывает состояние записи на момент now.
//
// Порядок проверок фиксированный: сначала истечение, затем пороги.
// Запись, перешедшая в состояние "истекла", больше никогда не порождает
// напоминаний. Для каждого порога из thresholds уведомление формируется
// не более одного раза за все время жизни записи; повторный вызов с тем же
// now и уже обновленной записью не дает новых событий.
//
// thresholds — список порогов в днях из конфигурации; пороги, не входящие
// в список, уведомлений не порождают.
func Evaluate(now time.Time, record models.TrialRecord, thresholds []int) (models.TrialRecord, []models.NotificationEvent) {
	updated := record.Clone()
	updated.DaysRemaining = days.Remaining(now, record.TrialEnd)

	if updated.Expired {
		return updated, nil
	}

	if days.Expired(now, record.TrialEnd) {
		updated.Expired = true
		return updated, []models.NotificationEvent{newEvent(now, updated, models.KindTrialExpired, 0)}
	}

	remaining := updated.DaysRemaining
	if remaining <= 0 || !slices.Contains(thresholds, remaining) || updated.Notified(remaining) {
		return updated, nil
	}

	updated.NotifiedThresholds = append(updated.NotifiedThresholds, remaining)

	kind := models.KindTrialReminder
	if remaining == slices.Max(thresholds) {
		kind = models.KindTrialExpiring
	}
	return updated, []models.NotificationEvent{newEvent(now, updated, kind, remaining)}
}

func newEvent(now time.Time, record models.TrialRecord, kind string, remaining int) models.NotificationEvent {
	return models.NotificationEvent{
		ID:            uuid.NewString(),
		UserID:        record.UserID,
		Email:         record.Email,
		DisplayName:   record.DisplayName,
		Kind:          kind,
		Message:       message(kind, record.DisplayName, remaining),
		DaysRemaining: remaining,
		CreatedAt:     now,
	}
}

// message формирует текст уведомления. Точная формулировка — забота
// локализации, контрактом является только вид события и порог.
func message(kind, displayName string, remaining int) string {
	switch kind {
	case models.KindTrialExpiring:
		return fmt.Sprintf("Здравствуйте, %s! Ваш пробный период заканчивается через %d дн. Пора выбрать тарифный план.",
			displayName, remaining)
	case models.KindTrialReminder:
		return fmt.Sprintf("Здравствуйте, %s! Напоминаем: до окончания пробного периода осталось %d дн.",
			displayName, remaining)
	default:
		return fmt.Sprintf("Здравствуйте, %s! Ваш пробный период завершен. Для продолжения работы оформите подписку.",
			displayName)
	}
}
