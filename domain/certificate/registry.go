package certificate

import (
	"context"
	"time"
)

// Record is what the registry keeps about an issued certificate.
type Record struct {
	Hash         string     `json:"hash"`
	AttendeeName string     `json:"name"`
	EventName    string     `json:"event"`
	OutputPath   string     `json:"path"`
	Format       Format     `json:"format"`
	BatchID      string     `json:"batch_id"`
	IssuedAt     time.Time  `json:"issued_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}

// Revoked reports whether the certificate has been withdrawn.
func (r *Record) Revoked() bool {
	return r.RevokedAt != nil
}

// Registry defines the persistence operations for issued certificates.
// FindByHash and Revoke return ErrCertificateNotFound for unknown hashes;
// Store returns ErrCertificateExists for a duplicate.
type Registry interface {
	Store(ctx context.Context, rec *Record) error
	FindByHash(ctx context.Context, hash string) (*Record, error)
	ListByBatch(ctx context.Context, batchID string) ([]Record, error)
	Revoke(ctx context.Context, hash string, at time.Time) error
}
