// ABOUTME: Prometheus metrics for encode runs
// ABOUTME: Counters and histograms written to a node-exporter textfile
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	Registry *prometheus.Registry

	PacketsTotal      prometheus.Counter
	EscapedTotal      prometheus.Counter
	InputBytesTotal   prometheus.Counter
	OutputBytesTotal  prometheus.Counter
	RejectedTotal     *prometheus.CounterVec
	VerifyErrorsTotal prometheus.Counter
	PacketBytes       prometheus.Histogram
	EncodeSeconds     prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		PacketsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "aerial_packets_total",
			Help: "Total ALAC packets encoded",
		}),
		EscapedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "aerial_escaped_packets_total",
			Help: "Packets stored verbatim because compression did not pay",
		}),
		InputBytesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "aerial_input_bytes_total",
			Help: "Total PCM bytes accepted by the encoder",
		}),
		OutputBytesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "aerial_output_bytes_total",
			Help: "Total ALAC bytes produced",
		}),
		RejectedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aerial_rejected_frames_total",
			Help: "Frames the encoder refused, by reason",
		}, []string{"reason"}),
		VerifyErrorsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "aerial_verify_errors_total",
			Help: "Packets whose decode did not match the input frame",
		}),
		PacketBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aerial_packet_bytes",
			Help:    "Encoded packet size in bytes",
			Buckets: []float64{64, 128, 256, 512, 768, 1024, 1280, 1408, 1416},
		}),
		EncodeSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aerial_encode_seconds",
			Help:    "Time to encode one frame",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 12),
		}),
	}
}

// WriteTextfile writes the current values for the textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
