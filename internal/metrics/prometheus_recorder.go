package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	generationDuration *prom.HistogramVec
	generations        *prom.CounterVec
	documents          *prom.CounterVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		generationDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitegen",
			Name:      "generation_duration_seconds",
			Help:      "Duration of one environment's generation",
			Buckets:   prom.DefBuckets,
		}, []string{"env"}),
		generations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "generations_total",
			Help:      "Environment generations by result",
		}, []string{"env", "result"}),
		documents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "documents_total",
			Help:      "Documents processed by outcome",
		}, []string{"env", "outcome"}),
	}
	reg.MustRegister(pr.generationDuration, pr.generations, pr.documents)
	return pr
}

func (p *PrometheusRecorder) ObserveGeneration(env string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	result := "success"
	if !success {
		result = "failed"
	}
	p.generationDuration.WithLabelValues(env).Observe(d.Seconds())
	p.generations.WithLabelValues(env, result).Inc()
}

func (p *PrometheusRecorder) IncDocuments(env, outcome string) {
	if p == nil {
		return
	}
	p.documents.WithLabelValues(env, outcome).Inc()
}

// HTTPHandler serves the metrics of reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
