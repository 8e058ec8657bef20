package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	appMiddleware "github.com/prasetyowira/certgen/api/middleware"
	"github.com/prasetyowira/certgen/constant"
	"github.com/prasetyowira/certgen/domain/certificate"
	appLogger "github.com/prasetyowira/certgen/infrastructure/logger"
)

// maxPayloadBytes bounds the body of a verification request.
const maxPayloadBytes = 64 << 10

const (
	outcomeFound   = "found"
	outcomeRevoked = "revoked"
)

// CertificateService is the part of certificate.VerificationService the API needs
type CertificateService interface {
	VerifyHash(ctx context.Context, hash string) (*certificate.Record, error)
	VerifyPayload(ctx context.Context, text string) (*certificate.Verification, error)
	Revoke(ctx context.Context, hash string) error
}

// Handler contains service dependencies for API handlers
type Handler struct {
	service CertificateService
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// NewHandler creates a new API handler
func NewHandler(service CertificateService) *Handler {
	return &Handler{
		service: service,
	}
}

// GetCertificate returns the registry record for a hash
func (h *Handler) GetCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hash := chi.URLParam(r, "hash")

	appLogger.CtxDebug(ctx, "Processing certificate lookup", appLogger.LoggerInfo{
		ContextFunction: constant.CtxGetCertificate,
		Data: map[string]interface{}{
			constant.DataHash: hash,
		},
	})

	rec, err := h.service.VerifyHash(ctx, hash)
	if err != nil {
		h.writeServiceError(w, r, constant.CtxGetCertificate, err)
		return
	}

	appMiddleware.RecordOutcome(ctx, outcomeFound)
	WriteJSON(w, rec, http.StatusOK)
}

// VerifyCertificate checks a scanned QR payload. The body is the payload JSON itself.
func (h *Handler) VerifyCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		appLogger.CtxError(ctx, "Error reading request body", appLogger.LoggerInfo{
			ContextFunction: constant.CtxVerifyCertificate,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeAPIDecodeRequest,
				Message: err.Error(),
				Type:    constant.ErrTypeAPI,
			},
		})
		WriteJSONError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	v, err := h.service.VerifyPayload(ctx, string(body))
	if err != nil {
		h.writeServiceError(w, r, constant.CtxVerifyCertificate, err)
		return
	}

	appMiddleware.RecordOutcome(ctx, v.Reason)
	WriteJSON(w, v, http.StatusOK)
}

// RevokeCertificate withdraws a certificate
func (h *Handler) RevokeCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hash := chi.URLParam(r, "hash")

	if err := h.service.Revoke(ctx, hash); err != nil {
		h.writeServiceError(w, r, constant.CtxRevokeCertificate, err)
		return
	}

	appMiddleware.RecordOutcome(ctx, outcomeRevoked)
	appLogger.CtxInfo(ctx, "Certificate revoked via API", appLogger.LoggerInfo{
		ContextFunction: constant.CtxRevokeCertificate,
		Data: map[string]interface{}{
			constant.DataHash: hash,
		},
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, fn string, err error) {
	appMiddleware.RecordOutcome(r.Context(), err.Error())
	switch {
	case errors.Is(err, certificate.ErrEmptyHash):
		WriteJSONError(w, constant.ErrEmptyHash, http.StatusBadRequest)
	case errors.Is(err, certificate.ErrInvalidPayload):
		WriteJSONError(w, constant.ErrInvalidPayload, http.StatusBadRequest)
	case errors.Is(err, certificate.ErrCertificateNotFound):
		WriteJSONError(w, constant.ErrCertificateNotFound, http.StatusNotFound)
	default:
		appLogger.CtxError(r.Context(), "Certificate service failed", appLogger.LoggerInfo{
			ContextFunction: fn,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeAPIServiceError,
				Message: err.Error(),
				Type:    constant.ErrTypeAPI,
			},
		})
		WriteJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		return
	}
}

// WriteJSONError writes a JSON error response
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	WriteJSON(w, ErrorResponse{
		Error: message,
		Code:  statusCode,
	}, statusCode)
}
