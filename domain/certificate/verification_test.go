package certificate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testHash = "3f2a9c0d4b5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8"

func issuedRecord() *Record {
	return &Record{
		Hash:         testHash,
		AttendeeName: "Ahmad",
		EventName:    "GDG Basra Event",
		OutputPath:   "out/Ahmad.pdf",
		Format:       FormatPDF,
		BatchID:      "b1",
		IssuedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func payloadFor(t *testing.T, name, event string) string {
	t.Helper()
	text, err := VerificationPayload{Hash: testHash, Name: name, Event: event, Date: "2024-05-01 10:00:00"}.Encode()
	require.NoError(t, err)
	return text
}

func TestVerifyHash_Found(t *testing.T) {
	// Arrange
	registry := new(MockRegistry)
	registry.On("FindByHash", mock.Anything, testHash).Return(issuedRecord(), nil)
	metrics := newCountingMetrics()
	service := NewVerificationService(registry, metrics)

	// Act
	rec, err := service.VerifyHash(context.Background(), "  "+testHash+" ")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Ahmad", rec.AttendeeName)
	assert.Equal(t, 1, metrics.checks[ResultValid])
	registry.AssertExpectations(t)
}

func TestVerifyHash_UpperCaseAccepted(t *testing.T) {
	// Arrange
	registry := new(MockRegistry)
	registry.On("FindByHash", mock.Anything, testHash).Return(issuedRecord(), nil)
	service := NewVerificationService(registry, nil)

	// Act
	_, err := service.VerifyHash(context.Background(), "3F2A9C0D4B5E6F708192A3B4C5D6E7F8091A2B3C4D5E6F708192A3B4C5D6E7F8")

	// Assert
	assert.NoError(t, err)
}

func TestVerifyHash_Empty(t *testing.T) {
	// Arrange
	registry := new(MockRegistry)
	service := NewVerificationService(registry, nil)

	// Act
	rec, err := service.VerifyHash(context.Background(), " ")

	// Assert
	assert.ErrorIs(t, err, ErrEmptyHash)
	assert.Nil(t, rec)
	registry.AssertNotCalled(t, "FindByHash")
}

func TestVerifyHash_NotFound(t *testing.T) {
	// Arrange
	registry := new(MockRegistry)
	registry.On("FindByHash", mock.Anything, testHash).Return(nil, ErrCertificateNotFound)
	metrics := newCountingMetrics()
	service := NewVerificationService(registry, metrics)

	// Act
	_, err := service.VerifyHash(context.Background(), testHash)

	// Assert
	assert.ErrorIs(t, err, ErrCertificateNotFound)
	assert.Equal(t, 1, metrics.checks[ResultNotFound])
}

func TestVerifyPayload(t *testing.T) {
	revoked := issuedRecord()
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	revoked.RevokedAt = &at

	tests := []struct {
		name       string
		record     *Record
		findErr    error
		payload    [2]string
		wantValid  bool
		wantReason string
		wantResult string
	}{
		{"valid", issuedRecord(), nil, [2]string{"Ahmad", "GDG Basra Event"}, true, "ok", ResultValid},
		{"name mismatch", issuedRecord(), nil, [2]string{"Mallory", "GDG Basra Event"}, false, "name does not match", ResultMismatch},
		{"event mismatch", issuedRecord(), nil, [2]string{"Ahmad", "Other"}, false, "event does not match", ResultMismatch},
		{"revoked", revoked, nil, [2]string{"Ahmad", "GDG Basra Event"}, false, "certificate revoked", ResultRevoked},
		{"unknown", nil, ErrCertificateNotFound, [2]string{"Ahmad", "GDG Basra Event"}, false, "certificate not found", ResultNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			registry := new(MockRegistry)
			registry.On("FindByHash", mock.Anything, testHash).Return(tt.record, tt.findErr)
			metrics := newCountingMetrics()
			service := NewVerificationService(registry, metrics)

			// Act
			v, err := service.VerifyPayload(context.Background(), payloadFor(t, tt.payload[0], tt.payload[1]))

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, v.Valid)
			assert.Equal(t, tt.wantReason, v.Reason)
			assert.Equal(t, 1, metrics.checks[tt.wantResult])
		})
	}
}

func TestVerifyPayload_Malformed(t *testing.T) {
	// Arrange
	registry := new(MockRegistry)
	service := NewVerificationService(registry, nil)

	// Act
	v, err := service.VerifyPayload(context.Background(), `{"hash":"abc"}`)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Nil(t, v)
	registry.AssertNotCalled(t, "FindByHash")
}

func TestVerifyPayload_RegistryError(t *testing.T) {
	// Arrange
	registry := new(MockRegistry)
	registry.On("FindByHash", mock.Anything, testHash).Return(nil, errors.New("db down"))
	service := NewVerificationService(registry, nil)

	// Act
	v, err := service.VerifyPayload(context.Background(), payloadFor(t, "Ahmad", "GDG Basra Event"))

	// Assert
	assert.EqualError(t, err, "db down")
	assert.Nil(t, v)
}

func TestRevoke(t *testing.T) {
	// Arrange
	registry := new(MockRegistry)
	registry.On("Revoke", mock.Anything, testHash, mock.AnythingOfType("time.Time")).Return(nil)
	service := NewVerificationService(registry, nil)

	// Act
	err := service.Revoke(context.Background(), testHash)

	// Assert
	assert.NoError(t, err)
	registry.AssertExpectations(t)
}

func TestRevoke_NotFound(t *testing.T) {
	// Arrange
	registry := new(MockRegistry)
	registry.On("Revoke", mock.Anything, testHash, mock.Anything).Return(ErrCertificateNotFound)
	service := NewVerificationService(registry, nil)

	// Act
	err := service.Revoke(context.Background(), testHash)

	// Assert
	assert.ErrorIs(t, err, ErrCertificateNotFound)
}

func TestRevoke_Empty(t *testing.T) {
	service := NewVerificationService(new(MockRegistry), nil)
	assert.ErrorIs(t, service.Revoke(context.Background(), ""), ErrEmptyHash)
}
