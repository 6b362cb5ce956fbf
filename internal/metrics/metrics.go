// Package metrics expone contadores Prometheus del motor de matching, en
// particular la distribucion de scoringMethod para distinguir matches
// informados por ML de fallbacks degradados.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	MetricScoringMethodTotal   = "scoring_method_total"
	MetricScoringFallbackTotal = "scoring_fallback_total"
	MetricCandidatesPerRequest = "scoring_candidates_per_request"
)

// Metrics agrupa los colectores del motor. Todas las operaciones son
// thread-safe y toleran receptor nil.
type Metrics struct {
	methodTotal   *prometheus.CounterVec
	fallbackTotal *prometheus.CounterVec
	candidates    prometheus.Histogram
}

// NewMetrics crea los colectores sin registrarlos; Register los asocia a un registry.
func NewMetrics() *Metrics {
	return &Metrics{
		methodTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricScoringMethodTotal,
			Help: "Scored candidates by scoring method and target domain",
		}, []string{"domain", "method"}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricScoringFallbackTotal,
			Help: "Degraded scorings by fallback reason",
		}, []string{"reason"}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricCandidatesPerRequest,
			Help:    "Candidates scored per ranking request",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		}),
	}
}

// Register registra todos los colectores en el registry indicado.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.methodTotal, m.fallbackTotal, m.candidates} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveMethod cuenta un candidato puntuado con su metodo.
func (m *Metrics) ObserveMethod(domain, method string) {
	if m == nil {
		return
	}
	m.methodTotal.WithLabelValues(domain, method).Inc()
}

// ObserveFallback cuenta una degradacion por su razon.
func (m *Metrics) ObserveFallback(reason string) {
	if m == nil || reason == "" {
		return
	}
	m.fallbackTotal.WithLabelValues(reason).Inc()
}

// ObserveCandidates registra el tamaño de un ranking.
func (m *Metrics) ObserveCandidates(n int) {
	if m == nil {
		return
	}
	m.candidates.Observe(float64(n))
}
