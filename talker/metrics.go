package talker

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	emissionKindChatter   = "chatter"
	emissionKindTransform = "transform"
)

// Metrics contains the talker counters. A nil *Metrics records nothing.
type Metrics struct {
	Emissions *prometheus.CounterVec
	Mutations prometheus.Counter
	Sequence  prometheus.Gauge
}

func NewMetrics(service string) *Metrics {
	labels := prometheus.Labels{"service": service}

	return &Metrics{
		Emissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "talker",
				Subsystem:   "emitter",
				Name:        "emissions_total",
				Help:        "Total number of emissions handed to the transport.",
				ConstLabels: labels,
			},
			[]string{"kind", "result"},
		),
		Mutations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace:   "talker",
				Subsystem:   "mutation",
				Name:        "requests_total",
				Help:        "Total number of accepted text mutations.",
				ConstLabels: labels,
			},
		),
		Sequence: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   "talker",
				Subsystem:   "emitter",
				Name:        "sequence",
				Help:        "Sequence number of the last emitted status record.",
				ConstLabels: labels,
			},
		),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Emissions, m.Mutations, m.Sequence} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("could not register talker metric: %w", err)
		}
	}

	return nil
}

func (m *Metrics) observeEmission(kind string, err error) {
	if m == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}

	m.Emissions.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) observeSequence(sequence uint64) {
	if m == nil {
		return
	}

	m.Sequence.Set(float64(sequence))
}

func (m *Metrics) observeMutation() {
	if m == nil {
		return
	}

	m.Mutations.Inc()
}
