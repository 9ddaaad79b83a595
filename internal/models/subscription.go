package models

import "time"

// Статусы подписки, видимые остальному приложению.
const (
	StatusActive       = "active"
	StatusTrialExpired = "trial_expired"
	StatusCancelled    = "cancelled"
)

// PlanTrial — идентификатор плана для пробного периода.
const PlanTrial = "trial"

// SubscriptionView — производное представление подписки, отдаваемое наружу.
// Не хранится отдельно: строится по запросу из TrialRecord или из данных
// платного плана.
type SubscriptionView struct {
	PlanID        string     `json:"plan_id"`
	Status        string     `json:"status"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	AutoRenew     bool       `json:"auto_renew"`
	IsTrial       bool       `json:"is_trial"`
	TrialStart    *time.Time `json:"trial_start,omitempty"` // Денормализованные даты пробного периода
	TrialEnd      *time.Time `json:"trial_end,omitempty"`
	DaysRemaining int        `json:"days_remaining"`
}
