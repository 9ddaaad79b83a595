// Package notificationsender собирает сервис доставки уведомлений:
// читает события жизненного цикла из очередей RabbitMQ и отправляет
// письма по SMTP.
package notificationsender

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/trial-lifecycle/internal/config"
	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/sl"
	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/smtp"
	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
	"github.com/magabrotheeeer/trial-lifecycle/internal/notify"
	"github.com/magabrotheeeer/trial-lifecycle/internal/rabbitmq"
)

type App struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	emitter *notify.SMTPEmitter
	logger  *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	emitter := notify.NewSMTPEmitter(transport, logger)

	return &App{
		conn:    conn,
		ch:      ch,
		emitter: emitter,
		logger:  logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	for _, queue := range rabbitmq.GetNotificationQueues() {
		err := rabbitmq.ConsumerMessage(ctx, a.ch, queue.QueueName, a.handleMessage(ctx))
		if err != nil {
			a.logger.Error("failed to start consumer",
				slog.String("queue", queue.QueueName), sl.Err(err))
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("notification sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}

	return nil
}

// handleMessage разбирает событие уведомления и отправляет письмо.
func (a *App) handleMessage(ctx context.Context) func([]byte) error {
	return func(body []byte) error {
		var event models.NotificationEvent
		if err := json.Unmarshal(body, &event); err != nil {
			a.logger.Error("failed to unmarshal notification event", sl.Err(err))
			return err
		}
		return a.emitter.Deliver(ctx, event)
	}
}
