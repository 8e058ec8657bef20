package metrics

import (
	"strings"
	"time"

	"github.com/prasetyowira/certgen/domain/certificate"
	"github.com/prometheus/client_golang/prometheus"
)

// Config labels every series with the service and environment it came from.
type Config struct {
	ServiceName string
	Environment string
}

// CertificateMetrics implements certificate.Metrics on Prometheus collectors.
type CertificateMetrics struct {
	issued        *prometheus.CounterVec
	renderSeconds *prometheus.HistogramVec
	failed        *prometheus.CounterVec
	fontFallbacks prometheus.Counter
	verifications *prometheus.CounterVec
}

// NewCertificateMetrics registers the collectors on registerer, or on the
// default registerer when nil.
func NewCertificateMetrics(registerer prometheus.Registerer, cfg Config) *CertificateMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "certgen"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &CertificateMetrics{
		issued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "certgen_certificates_issued_total",
				Help:        "Certificates rendered and written.",
				ConstLabels: constLabels,
			},
			[]string{"format"}, // PDF | PNG
		),
		renderSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "certgen_certificate_duration_seconds",
				Help:        "Time to render, write and record one certificate.",
				Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
				ConstLabels: constLabels,
			},
			[]string{"format"},
		),
		failed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "certgen_certificate_failures_total",
				Help:        "Certificates that failed, by pipeline stage.",
				ConstLabels: constLabels,
			},
			[]string{"stage"}, // render | write | registry
		),
		fontFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "certgen_font_fallbacks_total",
				Help:        "Renders that used the built-in face because the font could not be loaded.",
				ConstLabels: constLabels,
			},
		),
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "certgen_verifications_total",
				Help:        "Verification lookups by outcome.",
				ConstLabels: constLabels,
			},
			[]string{"result"}, // valid | revoked | not_found | mismatch
		),
	}

	registerer.MustRegister(
		m.issued,
		m.renderSeconds,
		m.failed,
		m.fontFallbacks,
		m.verifications,
	)
	return m
}

func (m *CertificateMetrics) CertificateIssued(format certificate.Format, elapsed time.Duration) {
	m.issued.WithLabelValues(string(format)).Inc()
	m.renderSeconds.WithLabelValues(string(format)).Observe(elapsed.Seconds())
}

func (m *CertificateMetrics) CertificateFailed(stage string) {
	m.failed.WithLabelValues(stage).Inc()
}

func (m *CertificateMetrics) FontFallback() {
	m.fontFallbacks.Inc()
}

func (m *CertificateMetrics) VerificationChecked(result string) {
	m.verifications.WithLabelValues(result).Inc()
}
