package notify

import (
	"context"
	"slices"
	"sync"

	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
)

// History хранит все когда-либо сформированные уведомления для показа
// истории пользователю. Событие попадает в историю независимо от исхода
// доставки: факт формирования важнее факта доставки.
type History interface {
	Append(ctx context.Context, event models.NotificationEvent) error
	ListByUser(ctx context.Context, userID string) ([]models.NotificationEvent, error)
}

// MemoryHistory — история уведомлений в памяти процесса.
type MemoryHistory struct {
	mu     sync.Mutex
	events map[string][]models.NotificationEvent
}

// NewMemoryHistory создает пустую историю.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		events: make(map[string][]models.NotificationEvent),
	}
}

// Append добавляет событие в историю пользователя.
func (h *MemoryHistory) Append(_ context.Context, event models.NotificationEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events[event.UserID] = append(h.events[event.UserID], event)
	return nil
}

// ListByUser возвращает события пользователя в порядке формирования.
func (h *MemoryHistory) ListByUser(_ context.Context, userID string) ([]models.NotificationEvent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.events[userID]), nil
}
