package certificate

import "time"

// Metrics receives pipeline counters. Implementations must be safe for concurrent use.
type Metrics interface {
	CertificateIssued(format Format, elapsed time.Duration)
	CertificateFailed(stage string)
	FontFallback()
	VerificationChecked(result string)
}

// Failure stages reported to Metrics.CertificateFailed.
const (
	StageRender   = "render"
	StageWrite    = "write"
	StageRegistry = "registry"
)

// Verification results reported to Metrics.VerificationChecked.
const (
	ResultValid    = "valid"
	ResultRevoked  = "revoked"
	ResultNotFound = "not_found"
	ResultMismatch = "mismatch"
)

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) CertificateIssued(Format, time.Duration) {}
func (NopMetrics) CertificateFailed(string)                {}
func (NopMetrics) FontFallback()                           {}
func (NopMetrics) VerificationChecked(string)              {}
