// Package registry реализует реестр записей пробного периода — единственный
// источник истины о состоянии пробных периодов на время жизни процесса.
//
// Реестр хранит записи в памяти под одной грубой блокировкой: цикл
// "прочитать-переоценить-записать" для одного пользователя атомарен
// относительно конкурентных обращений фасада. Записи живут до явного
// удаления при переходе на платный план, сам реестр по истечении срока
// ничего не удаляет.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
)

// Store — необязательные хуки долговременного хранения. Save и Remove
// вызываются в тех же точках, что и изменение памяти; Load — один раз
// при создании реестра.
type Store interface {
	Load(ctx context.Context) ([]models.TrialRecord, error)
	Save(ctx context.Context, record models.TrialRecord) error
	Remove(ctx context.Context, userID string) error
}

// Registry — потокобезопасная коллекция TrialRecord с ключом по userID.
// Порядок обхода All соответствует порядку вставки.
type Registry struct {
	mu      sync.Mutex
	records map[string]models.TrialRecord
	order   []string
	store   Store
}

// New создает пустой реестр без долговременного хранения.
func New() *Registry {
	return &Registry{
		records: make(map[string]models.TrialRecord),
	}
}

// NewWithStore создает реестр, наполняет его записями из store и далее
// зеркалирует каждое изменение через хуки Save/Remove.
func NewWithStore(ctx context.Context, store Store) (*Registry, error) {
	const op = "registry.NewWithStore"

	r := New()
	r.store = store

	loaded, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, record := range loaded {
		r.records[record.UserID] = record
		r.order = append(r.order, record.UserID)
	}
	return r, nil
}

// Get возвращает копию записи пользователя.
func (r *Registry) Get(userID string) (models.TrialRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[userID]
	if !ok {
		return models.TrialRecord{}, false
	}
	return record.Clone(), true
}

// Put вставляет запись или перезаписывает существующую.
// Ошибка хука Save не откатывает изменение памяти.
func (r *Registry) Put(ctx context.Context, record models.TrialRecord) error {
	r.mu.Lock()
	if _, ok := r.records[record.UserID]; !ok {
		r.order = append(r.order, record.UserID)
	}
	r.records[record.UserID] = record.Clone()
	r.mu.Unlock()

	return r.save(ctx, record)
}

// GetOrCreate возвращает существующую запись или атомарно вставляет
// созданную через create. Второй результат — true, если запись была создана
// этим вызовом. Конкурентные вызовы для одного userID создают ровно одну запись.
func (r *Registry) GetOrCreate(ctx context.Context, userID string, create func() models.TrialRecord) (models.TrialRecord, bool, error) {
	r.mu.Lock()
	if record, ok := r.records[userID]; ok {
		r.mu.Unlock()
		return record.Clone(), false, nil
	}
	record := create()
	r.records[userID] = record.Clone()
	r.order = append(r.order, userID)
	r.mu.Unlock()

	return record, true, r.save(ctx, record)
}

// Update применяет fn к записи под блокировкой реестра и сохраняет результат.
// Если записи нет (например, пользователь успел перейти на платный план),
// fn не вызывается и возвращается false. Паника внутри fn оставляет запись
// без изменений.
func (r *Registry) Update(ctx context.Context, userID string, fn func(models.TrialRecord) models.TrialRecord) (models.TrialRecord, bool, error) {
	r.mu.Lock()
	record, ok := r.records[userID]
	if !ok {
		r.mu.Unlock()
		return models.TrialRecord{}, false, nil
	}

	var updated models.TrialRecord
	func() {
		defer func() {
			r.mu.Unlock()
		}()
		updated = fn(record.Clone())
		r.records[userID] = updated.Clone()
	}()

	return updated, true, r.save(ctx, updated)
}

// Remove удаляет запись и возвращает её копию. Используется только
// при переходе на платный план.
func (r *Registry) Remove(ctx context.Context, userID string) (models.TrialRecord, bool, error) {
	r.mu.Lock()
	record, ok := r.records[userID]
	if !ok {
		r.mu.Unlock()
		return models.TrialRecord{}, false, nil
	}
	delete(r.records, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	if r.store == nil {
		return record, true, nil
	}
	if err := r.store.Remove(ctx, userID); err != nil {
		return record, true, fmt.Errorf("registry.Remove: %w", err)
	}
	return record, true, nil
}

// UserIDs возвращает снимок идентификаторов в порядке вставки.
// Снимок используется планировщиком для обхода: записи, удаленные после
// снятия снимка, Update просто пропустит.
func (r *Registry) UserIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// All возвращает копии всех записей в порядке вставки.
func (r *Registry) All() []models.TrialRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]models.TrialRecord, 0, len(r.order))
	for _, id := range r.order {
		records = append(records, r.records[id].Clone())
	}
	return records
}

// Len возвращает количество записей в реестре.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// save вызывается вне блокировки: хук может ходить в базу.
func (r *Registry) save(ctx context.Context, record models.TrialRecord) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.Save(ctx, record); err != nil {
		return fmt.Errorf("registry.save: %w", err)
	}
	return nil
}
