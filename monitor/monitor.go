// Package monitor provides progress recorders for forecaster training.
package monitor

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/reggo/rnnforecast/rnn"
)

const namespace = "rnnforecast"

// Prometheus exports training progress as Prometheus metrics on a private
// registry.
type Prometheus struct {
	registry    *prometheus.Registry
	loss        prometheus.Gauge
	epoch       prometheus.Gauge
	evaluations prometheus.Counter
}

// NewPrometheus creates the training metrics and registers them with a new
// registry. The labels are attached to every metric.
func NewPrometheus(labels map[string]string) (*Prometheus, error) {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		loss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "training_loss",
			Help:        "Mini-batch loss at the latest evaluation",
			ConstLabels: labels,
		}),
		epoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "training_epoch",
			Help:        "Epoch of the latest evaluation",
			ConstLabels: labels,
		}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "evaluations_total",
			Help:        "Number of loss evaluations recorded",
			ConstLabels: labels,
		}),
	}
	for _, c := range []prometheus.Collector{p.loss, p.epoch, p.evaluations} {
		if err := p.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return p, nil
}

func (p *Prometheus) Record(pr rnn.Progress) {
	p.loss.Set(pr.Loss)
	p.epoch.Set(float64(pr.Epoch))
	p.evaluations.Inc()
}

// Registry returns the registry holding the training metrics.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// WriteToTextfile writes the metrics in the text exposition format, for
// pickup by a node exporter textfile collector.
func (p *Prometheus) WriteToTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, p.registry)
}

// Logging records progress as log entries at Debug level.
type Logging struct {
	Logger *logrus.Logger
}

func (l Logging) Record(pr rnn.Progress) {
	l.Logger.WithFields(logrus.Fields{
		"run_id": pr.RunID,
		"epoch":  pr.Epoch,
		"loss":   pr.Loss,
	}).Debug("evaluation recorded")
}

// Multi passes progress to every recorder in turn.
type Multi []rnn.ProgressRecorder

func (m Multi) Record(pr rnn.Progress) {
	for _, r := range m {
		r.Record(pr)
	}
}
