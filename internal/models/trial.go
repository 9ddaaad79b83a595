// Package models содержит доменные структуры пробного периода и подписки,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import (
	"slices"
	"time"
)

// TrialRecord представляет состояние пробного периода одного пользователя.
// Запись создаётся один раз при первом обращении к подписке, изменяется
// только при переоценке жизненного цикла и удаляется только при переходе
// на платный план.
type TrialRecord struct {
	UserID             string    `json:"user_id"`             // Уникальный идентификатор пользователя
	Email              string    `json:"email"`               // Электронная почта (неизменяемая после создания)
	DisplayName        string    `json:"display_name"`        // Отображаемое имя пользователя
	TrialStart         time.Time `json:"trial_start"`         // Дата начала пробного периода
	TrialEnd           time.Time `json:"trial_end"`           // Дата окончания пробного периода
	Expired            bool      `json:"expired"`             // Флаг истечения, меняется только false -> true
	NotifiedThresholds []int     `json:"notified_thresholds"` // Пороги (в днях), по которым уведомление уже отправлено
	DaysRemaining      int       `json:"days_remaining"`      // Кэш количества оставшихся дней, пересчитывается при каждой проверке
}

// Notified сообщает, было ли уже отправлено уведомление для данного порога.
func (r TrialRecord) Notified(threshold int) bool {
	return slices.Contains(r.NotifiedThresholds, threshold)
}

// Clone возвращает глубокую копию записи: срез порогов копируется,
// чтобы изменения копии не затрагивали оригинал.
func (r TrialRecord) Clone() TrialRecord {
	c := r
	c.NotifiedThresholds = slices.Clone(r.NotifiedThresholds)
	return c
}

// DummyTrial используется для приёма данных из JSON-запроса на создание
// пробного периода.
type DummyTrial struct {
	Email       string `json:"email" validate:"required,email"` // Электронная почта пользователя
	DisplayName string `json:"display_name" validate:"required"`
}

// DummyConvert используется для приёма данных из JSON-запроса на переход
// с пробного периода на платный план.
type DummyConvert struct {
	PlanID          string `json:"plan_id" validate:"required"`           // Идентификатор платного плана
	PaymentMethodID string `json:"payment_method_id" validate:"required"` // Идентификатор способа оплаты
}
