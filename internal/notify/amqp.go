package notify

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
	"github.com/magabrotheeeer/trial-lifecycle/internal/rabbitmq"
)

// AMQPEmitter публикует события в exchange "notifications": напоминания
// уходят с ключом "upcoming", факт истечения — с ключом "expired".
// Дальнейшая доставка — забота потребителя очереди (notification-sender).
type AMQPEmitter struct {
	ch rabbitmq.Channel
}

// NewAMQPEmitter создает новый экземпляр AMQPEmitter.
func NewAMQPEmitter(ch rabbitmq.Channel) *AMQPEmitter {
	return &AMQPEmitter{ch: ch}
}

// Deliver публикует событие в очередь уведомлений.
func (e *AMQPEmitter) Deliver(_ context.Context, event models.NotificationEvent) error {
	const op = "notify.AMQPEmitter.Deliver"

	routingKey := "upcoming"
	if event.Kind == models.KindTrialExpired {
		routingKey = "expired"
	}
	if err := rabbitmq.PublishMessage(e.ch, "notifications", routingKey, event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
