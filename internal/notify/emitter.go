// Package notify определяет интерфейс доставки уведомлений жизненного цикла
// пробного периода и его реализации: публикацию в RabbitMQ и прямую отправку
// по SMTP. Движок не ретраит неуспешную доставку — политика at-most-once,
// ошибки только логируются вызывающей стороной.
package notify

import (
	"context"

	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
)

// Emitter доставляет одно уведомление. Канал доставки (push/email/очередь) —
// забота реализации.
type Emitter interface {
	Deliver(ctx context.Context, event models.NotificationEvent) error
}
