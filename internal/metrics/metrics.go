package metrics

import (
	"mysterybox/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes used as label values.
const (
	OutcomeWon      = "won"
	OutcomeLost     = "lost"
	OutcomeRejected = "rejected"
)

// Metrics holds all Prometheus metrics for the game server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Submissions    *prometheus.CounterVec
	PrizesAwarded  *prometheus.CounterVec
	ReportFailures prometheus.Counter
	StockRemaining *prometheus.GaugeVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mysterybox_submissions_total",
			Help: "Game submissions by outcome",
		}, []string{"outcome"}),
		PrizesAwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mysterybox_prizes_awarded_total",
			Help: "Prizes taken from stock by category",
		}, []string{"category"}),
		ReportFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "mysterybox_report_failures_total",
			Help: "Failed report regenerations",
		}),
		StockRemaining: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mysterybox_stock_remaining",
			Help: "Remaining prizes by category",
		}, []string{"category"}),
	}
}

// ObserveSubmission counts a submission with the given outcome.
func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// ObservePrize counts a prize taken from stock.
func (m *Metrics) ObservePrize(category string) {
	if m == nil {
		return
	}
	m.PrizesAwarded.WithLabelValues(category).Inc()
}

// ObserveReportFailure counts a failed report regeneration.
func (m *Metrics) ObserveReportFailure() {
	if m == nil {
		return
	}
	m.ReportFailures.Inc()
}

// SetStock publishes the remaining stock.
func (m *Metrics) SetStock(stock models.PrizeStock) {
	if m == nil {
		return
	}
	for category, n := range stock {
		m.StockRemaining.WithLabelValues(category).Set(float64(n))
	}
}
