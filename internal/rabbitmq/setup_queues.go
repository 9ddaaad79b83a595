package rabbitmq

// QueueConfig описывает очередь уведомлений и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди для событий жизненного цикла
// пробного периода: напоминания и факт истечения идут в разные очереди.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.upcoming", RoutingKey: "upcoming"},
		{QueueName: "notifications.expired", RoutingKey: "expired"},
	}
}
