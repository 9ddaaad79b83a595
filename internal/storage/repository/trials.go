package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
)

// Load возвращает все сохранённые записи пробных периодов
// в порядке их создания.
func (s *Storage) Load(ctx context.Context) ([]models.TrialRecord, error) {
	const op = "storage.Load"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, email, display_name, trial_start, trial_end,
				expired, notified_thresholds, days_remaining
			  FROM trials ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.TrialRecord
	for rows.Next() {
		var record models.TrialRecord
		var thresholds []byte
		if err := rows.Scan(&record.UserID, &record.Email, &record.DisplayName,
			&record.TrialStart, &record.TrialEnd, &record.Expired,
			&thresholds, &record.DaysRemaining); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := json.Unmarshal(thresholds, &record.NotifiedThresholds); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Save вставляет или обновляет запись пробного периода по userID.
func (s *Storage) Save(ctx context.Context, record models.TrialRecord) error {
	const op = "storage.Save"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	thresholds, err := json.Marshal(record.NotifiedThresholds)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO trials (user_uid, email, display_name, trial_start, trial_end,
				  expired, notified_thresholds, days_remaining)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  ON CONFLICT (user_uid) DO UPDATE SET
				  expired = EXCLUDED.expired,
				  notified_thresholds = EXCLUDED.notified_thresholds,
				  days_remaining = EXCLUDED.days_remaining`
	_, err = s.DB.ExecContext(ctx, query,
		record.UserID, record.Email, record.DisplayName, record.TrialStart,
		record.TrialEnd, record.Expired, thresholds, record.DaysRemaining)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Remove удаляет запись пробного периода по userID.
func (s *Storage) Remove(ctx context.Context, userID string) error {
	const op = "storage.Remove"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM trials WHERE user_uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Append сохраняет событие уведомления в историю.
func (s *Storage) Append(ctx context.Context, event models.NotificationEvent) error {
	const op = "storage.Append"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO trial_notifications (id, user_uid, email, display_name,
				  kind, message, days_remaining, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.DB.ExecContext(ctx, query,
		event.ID, event.UserID, event.Email, event.DisplayName,
		event.Kind, event.Message, event.DaysRemaining, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListByUser возвращает события уведомлений пользователя в порядке создания.
func (s *Storage) ListByUser(ctx context.Context, userID string) ([]models.NotificationEvent, error) {
	const op = "storage.ListByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, email, display_name, kind, message,
				days_remaining, created_at
			  FROM trial_notifications WHERE user_uid = $1 ORDER BY created_at, id`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.NotificationEvent
	for rows.Next() {
		var event models.NotificationEvent
		if err := rows.Scan(&event.ID, &event.UserID, &event.Email, &event.DisplayName,
			&event.Kind, &event.Message, &event.DaysRemaining, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
