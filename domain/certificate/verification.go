package certificate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prasetyowira/certgen/constant"
	"github.com/prasetyowira/certgen/infrastructure/logger"
)

// Verification is the answer to "is this certificate genuine".
type Verification struct {
	Valid       bool    `json:"valid"`
	Reason      string  `json:"reason"`
	Certificate *Record `json:"certificate,omitempty"`
}

// VerificationService answers lookups against the registry.
type VerificationService struct {
	registry Registry
	metrics  Metrics
	now      Clock
}

func NewVerificationService(registry Registry, metrics Metrics) *VerificationService {
	ctx := logger.NewRequestContext()

	logger.CtxDebug(ctx, "Creating verification service", logger.LoggerInfo{
		ContextFunction: constant.CtxDomain,
		Data: map[string]interface{}{
			constant.DataService: "verification",
		},
	})

	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &VerificationService{
		registry: registry,
		metrics:  metrics,
		now:      time.Now,
	}
}

// VerifyHash returns the record issued under hash.
func (s *VerificationService) VerifyHash(ctx context.Context, hash string) (*Record, error) {
	hash = normalizeHash(hash)
	if hash == "" {
		logger.CtxWarn(ctx, "Certificate hash cannot be empty", logger.LoggerInfo{
			ContextFunction: constant.CtxVerifyHash,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeEmptyHash,
				Message: constant.ErrEmptyHash,
				Type:    constant.ErrTypeVerification,
			},
		})
		return nil, ErrEmptyHash
	}

	rec, err := s.registry.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrCertificateNotFound) {
			s.metrics.VerificationChecked(ResultNotFound)
		}
		logger.CtxWarn(ctx, "Failed to find certificate", logger.LoggerInfo{
			ContextFunction: constant.CtxVerifyHash,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeCertificateNotFound,
				Message: err.Error(),
				Type:    constant.ErrTypeVerification,
			},
			Data: map[string]interface{}{
				constant.DataHash: hash,
			},
		})
		return nil, err
	}

	if rec.Revoked() {
		s.metrics.VerificationChecked(ResultRevoked)
	} else {
		s.metrics.VerificationChecked(ResultValid)
	}
	return rec, nil
}

// VerifyPayload checks scanned QR text against the registry. A payload is
// valid only when its hash is known, unrevoked, and name and event match.
// Malformed text is an error; a mismatch is a negative Verification.
func (s *VerificationService) VerifyPayload(ctx context.Context, text string) (*Verification, error) {
	payload, err := ParsePayload(text)
	if err != nil {
		logger.CtxWarn(ctx, "Rejected verification payload", logger.LoggerInfo{
			ContextFunction: constant.CtxVerifyPayload,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeInvalidPayload,
				Message: err.Error(),
				Type:    constant.ErrTypeVerification,
			},
			Data: map[string]interface{}{
				constant.DataPayloadLen: len(text),
			},
		})
		return nil, err
	}

	hash := normalizeHash(payload.Hash)
	if hash == "" {
		return nil, ErrEmptyHash
	}

	rec, err := s.registry.FindByHash(ctx, hash)
	if errors.Is(err, ErrCertificateNotFound) {
		s.metrics.VerificationChecked(ResultNotFound)
		return &Verification{Reason: constant.ErrCertificateNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	v := &Verification{Certificate: rec}
	result := ResultMismatch
	switch {
	case rec.AttendeeName != payload.Name:
		v.Reason = "name does not match"
	case rec.EventName != payload.Event:
		v.Reason = "event does not match"
	case rec.Revoked():
		v.Reason = "certificate revoked"
		result = ResultRevoked
	default:
		v.Valid = true
		v.Reason = "ok"
		result = ResultValid
	}
	s.metrics.VerificationChecked(result)

	logger.CtxInfo(ctx, "Verification payload checked", logger.LoggerInfo{
		ContextFunction: constant.CtxVerifyPayload,
		Data: map[string]interface{}{
			constant.DataHash:   hash,
			constant.DataValid:  v.Valid,
			constant.DataReason: v.Reason,
		},
	})
	return v, nil
}

// Revoke withdraws a certificate. Revoking twice keeps the first timestamp.
func (s *VerificationService) Revoke(ctx context.Context, hash string) error {
	hash = normalizeHash(hash)
	if hash == "" {
		return ErrEmptyHash
	}

	if err := s.registry.Revoke(ctx, hash, s.now()); err != nil {
		logger.CtxError(ctx, "Failed to revoke certificate", logger.LoggerInfo{
			ContextFunction: constant.CtxRevoke,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeRevokeFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeVerification,
			},
			Data: map[string]interface{}{
				constant.DataHash: hash,
			},
		})
		return err
	}

	logger.CtxInfo(ctx, "Certificate revoked", logger.LoggerInfo{
		ContextFunction: constant.CtxRevoke,
		Data: map[string]interface{}{
			constant.DataHash: hash,
		},
	})
	return nil
}

// normalizeHash accepts hashes as printed (upper case) or as minted.
func normalizeHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}
