package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prasetyowira/certgen/constant"
	"github.com/prasetyowira/certgen/domain/certificate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testHash = "3f2a9c0d4b5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8"

// Mock service for testing
type MockService struct {
	mock.Mock
}

func (m *MockService) VerifyHash(ctx context.Context, hash string) (*certificate.Record, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certificate.Record), args.Error(1)
}

func (m *MockService) VerifyPayload(ctx context.Context, text string) (*certificate.Verification, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certificate.Verification), args.Error(1)
}

func (m *MockService) Revoke(ctx context.Context, hash string) error {
	args := m.Called(ctx, hash)
	return args.Error(0)
}

func withHashParam(req *http.Request, hash string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("hash", hash)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func sampleRecord() *certificate.Record {
	return &certificate.Record{
		Hash:         testHash,
		AttendeeName: "Ahmad",
		EventName:    "GDG Basra Event",
		OutputPath:   "temp/generated/Ahmad.pdf",
		Format:       certificate.FormatPDF,
		BatchID:      "batch-1",
		IssuedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestNewHandler(t *testing.T) {
	// Arrange
	mockService := new(MockService)

	// Act
	handler := NewHandler(mockService)

	// Assert
	assert.NotNil(t, handler)
	assert.Equal(t, mockService, handler.service)
}

func TestGetCertificate_Success(t *testing.T) {
	// Arrange
	mockService := new(MockService)
	handler := NewHandler(mockService)
	mockService.On("VerifyHash", mock.Anything, testHash).Return(sampleRecord(), nil)

	req := withHashParam(httptest.NewRequest(http.MethodGet, "/api/certificates/"+testHash, nil), testHash)
	w := httptest.NewRecorder()

	// Act
	handler.GetCertificate(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var rec certificate.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "Ahmad", rec.AttendeeName)
	assert.Equal(t, testHash, rec.Hash)
	mockService.AssertExpectations(t)
}

func TestGetCertificate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"empty hash", certificate.ErrEmptyHash, http.StatusBadRequest, constant.ErrEmptyHash},
		{"not found", certificate.ErrCertificateNotFound, http.StatusNotFound, constant.ErrCertificateNotFound},
		{"internal", errors.New("database is locked"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			mockService := new(MockService)
			handler := NewHandler(mockService)
			mockService.On("VerifyHash", mock.Anything, "abc").Return(nil, tt.err)

			req := withHashParam(httptest.NewRequest(http.MethodGet, "/api/certificates/abc", nil), "abc")
			w := httptest.NewRecorder()

			// Act
			handler.GetCertificate(w, req)

			// Assert
			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantError, resp.Error)
			assert.Equal(t, tt.wantStatus, resp.Code)
		})
	}
}

func TestVerifyCertificate_Success(t *testing.T) {
	// Arrange
	mockService := new(MockService)
	handler := NewHandler(mockService)
	body := `{"hash": "` + testHash + `", "name": "Ahmad", "event": "GDG Basra Event", "date": "2024-05-01 10:00:00"}`
	mockService.On("VerifyPayload", mock.Anything, body).Return(&certificate.Verification{
		Valid:       true,
		Reason:      "ok",
		Certificate: sampleRecord(),
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(body))
	w := httptest.NewRecorder()

	// Act
	handler.VerifyCertificate(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)

	var v certificate.Verification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.True(t, v.Valid)
	assert.Equal(t, "ok", v.Reason)
	require.NotNil(t, v.Certificate)
	assert.Equal(t, "Ahmad", v.Certificate.AttendeeName)
	mockService.AssertExpectations(t)
}

func TestVerifyCertificate_NotIssued(t *testing.T) {
	// Arrange
	mockService := new(MockService)
	handler := NewHandler(mockService)
	mockService.On("VerifyPayload", mock.Anything, mock.Anything).Return(&certificate.Verification{
		Reason: "certificate not found",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	// Act
	handler.VerifyCertificate(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":false`)
}

func TestVerifyCertificate_Malformed(t *testing.T) {
	// Arrange
	mockService := new(MockService)
	handler := NewHandler(mockService)
	mockService.On("VerifyPayload", mock.Anything, "not json").Return(nil, certificate.ErrInvalidPayload)

	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader("not json"))
	w := httptest.NewRecorder()

	// Act
	handler.VerifyCertificate(w, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, constant.ErrInvalidPayload, decodeError(t, w).Error)
}

func TestVerifyCertificate_TruncatesOversizedBody(t *testing.T) {
	// Arrange
	mockService := new(MockService)
	handler := NewHandler(mockService)
	mockService.On("VerifyPayload", mock.Anything, mock.MatchedBy(func(text string) bool {
		return len(text) == maxPayloadBytes
	})).Return(nil, certificate.ErrInvalidPayload)

	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(strings.Repeat("x", maxPayloadBytes+100)))
	w := httptest.NewRecorder()

	// Act
	handler.VerifyCertificate(w, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertExpectations(t)
}

func TestRevokeCertificate_Success(t *testing.T) {
	// Arrange
	mockService := new(MockService)
	handler := NewHandler(mockService)
	mockService.On("Revoke", mock.Anything, testHash).Return(nil)

	req := withHashParam(httptest.NewRequest(http.MethodDelete, "/api/certificates/"+testHash, nil), testHash)
	w := httptest.NewRecorder()

	// Act
	handler.RevokeCertificate(w, req)

	// Assert
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestRevokeCertificate_NotFound(t *testing.T) {
	// Arrange
	mockService := new(MockService)
	handler := NewHandler(mockService)
	mockService.On("Revoke", mock.Anything, testHash).Return(certificate.ErrCertificateNotFound)

	req := withHashParam(httptest.NewRequest(http.MethodDelete, "/api/certificates/"+testHash, nil), testHash)
	w := httptest.NewRecorder()

	// Act
	handler.RevokeCertificate(w, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWriteJSONError(t *testing.T) {
	// Arrange
	w := httptest.NewRecorder()

	// Act
	WriteJSONError(w, "boom", http.StatusTeapot)

	// Assert
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, ErrorResponse{Error: "boom", Code: http.StatusTeapot}, decodeError(t, w))
}
