package db

import (
	"context"
	"errors"
	"time"

	"github.com/prasetyowira/certgen/constant"
	"github.com/prasetyowira/certgen/domain/certificate"
	appLogger "github.com/prasetyowira/certgen/infrastructure/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// SQLiteRepository implements certificate.Registry
type SQLiteRepository struct {
	db *gorm.DB
}

// CertificateModel is the GORM model for an issued certificate
type CertificateModel struct {
	ID           uint   `gorm:"primaryKey"`
	Hash         string `gorm:"uniqueIndex;size:64;not null"`
	AttendeeName string `gorm:"not null"`
	EventName    string `gorm:"not null"`
	OutputPath   string
	Format       string
	BatchID      string `gorm:"index"`
	IssuedAt     time.Time
	RevokedAt    *time.Time
	CreatedAt    time.Time
}

func (m CertificateModel) toRecord() certificate.Record {
	return certificate.Record{
		Hash:         m.Hash,
		AttendeeName: m.AttendeeName,
		EventName:    m.EventName,
		OutputPath:   m.OutputPath,
		Format:       certificate.Format(m.Format),
		BatchID:      m.BatchID,
		IssuedAt:     m.IssuedAt,
		RevokedAt:    m.RevokedAt,
	}
}

// GormLogger implements GORM's logger.Interface
type GormLogger struct{}

// LogMode implements the log.Interface method
func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	return l
}

// Info logs info messages
func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	appLogger.CtxInfo(ctx, msg, appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataData: data,
		},
	})
}

// Warn logs warn messages
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	appLogger.CtxWarn(ctx, msg, appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataData: data,
		},
	})
}

// Error logs error messages
func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	appLogger.CtxError(ctx, msg, appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Error: &appLogger.CustomError{
			Code:    constant.ErrCodeDBGeneral,
			Message: msg,
			Type:    constant.ErrTypeDB,
		},
		Data: map[string]interface{}{
			constant.DataData: data,
		},
	})
}

// Trace logs SQL operations. Missing rows are an expected lookup outcome and
// stay at debug level.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		appLogger.CtxError(ctx, "SQL error", appLogger.LoggerInfo{
			ContextFunction: constant.CtxDB,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBGeneral,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataElapsed: elapsed.String(),
				constant.DataRows:    rows,
				constant.DataSQL:     sql,
			},
		})
		return
	}

	appLogger.CtxDebug(ctx, "SQL query", appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataElapsed: elapsed.String(),
			constant.DataRows:    rows,
			constant.DataSQL:     sql,
		},
	})
}

// NewSQLiteRepository opens (or creates) the registry database and migrates the schema
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	ctx := appLogger.NewRequestContext()

	appLogger.CtxDebug(ctx, "Opening SQLite database", appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataPath: dbPath,
		},
	})

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: &GormLogger{},
	})
	if err != nil {
		appLogger.CtxError(ctx, "Failed to open database", appLogger.LoggerInfo{
			ContextFunction: constant.CtxDB,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBOpen,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataPath: dbPath,
			},
		})
		return nil, err
	}

	// One connection serializes writes from parallel batch workers.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&CertificateModel{}); err != nil {
		appLogger.CtxError(ctx, "Failed to migrate database schema", appLogger.LoggerInfo{
			ContextFunction: constant.CtxDB,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBMigrate,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
		})
		_ = sqlDB.Close()
		return nil, err
	}

	appLogger.CtxInfo(ctx, "Database initialized successfully", appLogger.LoggerInfo{
		ContextFunction: constant.CtxDB,
		Data: map[string]interface{}{
			constant.DataPath: dbPath,
		},
	})

	return &SQLiteRepository{db: db}, nil
}

// Store records an issued certificate
func (r *SQLiteRepository) Store(ctx context.Context, rec *certificate.Record) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&CertificateModel{}).Where("hash = ?", rec.Hash).Count(&count).Error; err != nil {
		appLogger.CtxError(ctx, "Error checking for existing certificate", appLogger.LoggerInfo{
			ContextFunction: constant.CtxStore,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBLookup,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataHash: rec.Hash,
			},
		})
		return err
	}

	if count > 0 {
		appLogger.CtxWarn(ctx, "Certificate already recorded", appLogger.LoggerInfo{
			ContextFunction: constant.CtxStore,
			Data: map[string]interface{}{
				constant.DataHash: rec.Hash,
			},
		})
		return certificate.ErrCertificateExists
	}

	model := CertificateModel{
		Hash:         rec.Hash,
		AttendeeName: rec.AttendeeName,
		EventName:    rec.EventName,
		OutputPath:   rec.OutputPath,
		Format:       string(rec.Format),
		BatchID:      rec.BatchID,
		IssuedAt:     rec.IssuedAt,
		RevokedAt:    rec.RevokedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		appLogger.CtxError(ctx, "Failed to insert certificate", appLogger.LoggerInfo{
			ContextFunction: constant.CtxStore,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBInsert,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataHash:    rec.Hash,
				constant.DataBatchID: rec.BatchID,
			},
		})
		return err
	}

	appLogger.CtxDebug(ctx, "Certificate stored", appLogger.LoggerInfo{
		ContextFunction: constant.CtxStore,
		Data: map[string]interface{}{
			constant.DataHash:     rec.Hash,
			constant.DataAttendee: rec.AttendeeName,
		},
	})
	return nil
}

// FindByHash retrieves a certificate by its hash
func (r *SQLiteRepository) FindByHash(ctx context.Context, hash string) (*certificate.Record, error) {
	var model CertificateModel

	err := r.db.WithContext(ctx).Where("hash = ?", hash).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		appLogger.CtxInfo(ctx, "Certificate not found", appLogger.LoggerInfo{
			ContextFunction: constant.CtxFindByHash,
			Data: map[string]interface{}{
				constant.DataHash: hash,
			},
		})
		return nil, certificate.ErrCertificateNotFound
	}
	if err != nil {
		appLogger.CtxError(ctx, "Database error while looking up certificate", appLogger.LoggerInfo{
			ContextFunction: constant.CtxFindByHash,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBLookup,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataHash: hash,
			},
		})
		return nil, err
	}

	rec := model.toRecord()
	return &rec, nil
}

// ListByBatch returns the certificates of one batch in issue order
func (r *SQLiteRepository) ListByBatch(ctx context.Context, batchID string) ([]certificate.Record, error) {
	var models []CertificateModel
	if err := r.db.WithContext(ctx).Where("batch_id = ?", batchID).Order("id").Find(&models).Error; err != nil {
		appLogger.CtxError(ctx, "Failed to list batch certificates", appLogger.LoggerInfo{
			ContextFunction: constant.CtxListByBatch,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBLookup,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataBatchID: batchID,
			},
		})
		return nil, err
	}

	records := make([]certificate.Record, len(models))
	for i, m := range models {
		records[i] = m.toRecord()
	}
	return records, nil
}

// Revoke marks a certificate revoked at the given time. An already revoked
// certificate keeps its original timestamp.
func (r *SQLiteRepository) Revoke(ctx context.Context, hash string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&CertificateModel{}).
		Where("hash = ? AND revoked_at IS NULL", hash).
		Update("revoked_at", at)
	if result.Error != nil {
		appLogger.CtxError(ctx, "Failed to revoke certificate", appLogger.LoggerInfo{
			ContextFunction: constant.CtxRevokeDB,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBRevoke,
				Message: result.Error.Error(),
				Type:    constant.ErrTypeDB,
			},
			Data: map[string]interface{}{
				constant.DataHash: hash,
			},
		})
		return result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := r.FindByHash(ctx, hash); err != nil {
			return err
		}
		appLogger.CtxDebug(ctx, "Certificate already revoked", appLogger.LoggerInfo{
			ContextFunction: constant.CtxRevokeDB,
			Data: map[string]interface{}{
				constant.DataHash: hash,
			},
		})
		return nil
	}

	appLogger.CtxDebug(ctx, "Certificate revoked", appLogger.LoggerInfo{
		ContextFunction: constant.CtxRevokeDB,
		Data: map[string]interface{}{
			constant.DataHash:         hash,
			constant.DataRowsAffected: result.RowsAffected,
		},
	})
	return nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		appLogger.Error("Failed to close database", appLogger.LoggerInfo{
			ContextFunction: constant.CtxClose,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeDBClose,
				Message: err.Error(),
				Type:    constant.ErrTypeDB,
			},
		})
		return err
	}
	return nil
}
