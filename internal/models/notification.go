package models

import "time"

// Виды уведомлений жизненного цикла пробного периода.
const (
	// KindTrialExpiring — первое предупреждение: совпал максимальный настроенный порог.
	KindTrialExpiring = "trial_expiring"
	// KindTrialReminder — повторное напоминание по одному из меньших порогов.
	KindTrialReminder = "trial_reminder"
	// KindTrialExpired — пробный период завершён.
	KindTrialExpired = "trial_expired"
)

// NotificationEvent описывает одно отправленное уведомление.
// Значение неизменяемо после создания.
type NotificationEvent struct {
	ID            string    `json:"id"`                       // Уникальный идентификатор события
	UserID        string    `json:"user_id"`                  // Идентификатор пользователя-получателя
	Email         string    `json:"email"`                    // Адрес для доставки
	DisplayName   string    `json:"display_name"`             // Имя получателя для текста сообщения
	Kind          string    `json:"kind"`                     // Вид уведомления, см. константы Kind*
	Message       string    `json:"message"`                  // Готовый текст уведомления
	DaysRemaining int       `json:"days_remaining,omitempty"` // Количество оставшихся дней (для напоминаний)
	CreatedAt     time.Time `json:"created_at"`               // Момент формирования события
}
