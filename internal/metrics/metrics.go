// Package metrics собирает и публикует Prometheus-метрики движка
// жизненного цикла пробных периодов.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector регистрирует и обновляет метрики движка.
type Collector struct {
	sweeps            prometheus.Counter
	sweepDuration     prometheus.Histogram
	events            *prometheus.CounterVec
	deliveryFailures  prometheus.Counter
	evaluationPanics  prometheus.Counter
	activeTrials      prometheus.Gauge
	trialsConverted   prometheus.Counter
	trialsInitialized prometheus.Counter
}

// NewCollector создает Collector и регистрирует метрики в reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trial_lifecycle_sweeps_total",
			Help: "Количество полных проходов планировщика по реестру",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trial_lifecycle_sweep_duration_seconds",
			Help:    "Длительность одного прохода планировщика",
			Buckets: prometheus.DefBuckets,
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trial_lifecycle_events_total",
			Help: "Количество сформированных уведомлений по видам",
		}, []string{"kind"}),
		deliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trial_lifecycle_delivery_failures_total",
			Help: "Количество неуспешных доставок уведомлений",
		}),
		evaluationPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trial_lifecycle_evaluation_panics_total",
			Help: "Количество перехваченных паник при переоценке записей",
		}),
		activeTrials: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trial_lifecycle_active_trials",
			Help: "Текущее количество записей в реестре пробных периодов",
		}),
		trialsConverted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trial_lifecycle_conversions_total",
			Help: "Количество переходов с пробного периода на платный план",
		}),
		trialsInitialized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trial_lifecycle_trials_initialized_total",
			Help: "Количество созданных записей пробного периода",
		}),
	}

	reg.MustRegister(
		c.sweeps,
		c.sweepDuration,
		c.events,
		c.deliveryFailures,
		c.evaluationPanics,
		c.activeTrials,
		c.trialsConverted,
		c.trialsInitialized,
	)

	return c
}

// RecordSweep фиксирует завершенный проход и его длительность.
func (c *Collector) RecordSweep(duration time.Duration) {
	c.sweeps.Inc()
	c.sweepDuration.Observe(duration.Seconds())
}

// RecordEvent фиксирует сформированное уведомление данного вида.
func (c *Collector) RecordEvent(kind string) {
	c.events.WithLabelValues(kind).Inc()
}

// RecordDeliveryFailure фиксирует неуспешную доставку.
func (c *Collector) RecordDeliveryFailure() {
	c.deliveryFailures.Inc()
}

// RecordEvaluationPanic фиксирует перехваченную панику переоценки.
func (c *Collector) RecordEvaluationPanic() {
	c.evaluationPanics.Inc()
}

// SetActiveTrials выставляет текущий размер реестра.
func (c *Collector) SetActiveTrials(n int) {
	c.activeTrials.Set(float64(n))
}

// RecordConversion фиксирует переход на платный план.
func (c *Collector) RecordConversion() {
	c.trialsConverted.Inc()
}

// RecordTrialInitialized фиксирует создание новой записи.
func (c *Collector) RecordTrialInitialized() {
	c.trialsInitialized.Inc()
}
