package certificate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prasetyowira/certgen/constant"
	"github.com/prasetyowira/certgen/infrastructure/logger"
	"golang.org/x/sync/errgroup"
)

// CertificateRenderer renders a single certificate.
type CertificateRenderer interface {
	Render(ctx context.Context, tpl *Template, req RenderRequest) (*Certificate, error)
	EventName() string
}

// Writer persists a rendered image at an exact path.
type Writer interface {
	WriteFile(img image.Image, path string, format Format) error
}

// FailurePolicy decides what one failed attendee does to the rest of the batch.
type FailurePolicy string

const (
	// FailureAbort stops the batch at the first failure.
	FailureAbort FailurePolicy = "abort"
	// FailureIsolate records the failure on its entry and keeps going.
	FailureIsolate FailurePolicy = "isolate"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", FailureAbort:
		return FailureAbort, nil
	case FailureIsolate:
		return FailureIsolate, nil
	}
	return "", fmt.Errorf("%w: unknown failure policy %q", ErrInput, s)
}

// BatchConfig is assembled once per batch and never changed while it runs.
type BatchConfig struct {
	// Request holds the fields shared by every attendee; AttendeeName is ignored.
	Request     RenderRequest
	OutputDir   string
	Format      Format
	Workers     int
	Collision   CollisionPolicy
	Failure     FailurePolicy
	ItemTimeout time.Duration
	// BatchID is generated when empty.
	BatchID string
}

func (c BatchConfig) withDefaults() BatchConfig {
	if c.Format == "" {
		c.Format = FormatPDF
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Collision == "" {
		c.Collision = CollisionOverwrite
	}
	if c.Failure == "" {
		c.Failure = FailureAbort
	}
	if c.BatchID == "" {
		c.BatchID = uuid.NewString()
	}
	return c
}

// Orchestrator drives the render-write loop over an attendee list.
type Orchestrator struct {
	renderer CertificateRenderer
	writer   Writer
	registry Registry
	metrics  Metrics
}

// NewOrchestrator wires a batch runner. registry and metrics may be nil.
func NewOrchestrator(renderer CertificateRenderer, writer Writer, registry Registry, metrics Metrics) *Orchestrator {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Orchestrator{
		renderer: renderer,
		writer:   writer,
		registry: registry,
		metrics:  metrics,
	}
}

// Run renders and writes one certificate per attendee. Entries come back in
// input order regardless of worker count. Under FailureAbort the returned
// result holds the entries that completed before the failure, alongside a
// *BatchError.
func (o *Orchestrator) Run(ctx context.Context, tpl *Template, attendees []string, cfg BatchConfig) (*BatchResult, error) {
	cfg = cfg.withDefaults()
	ctx = logger.WithBatchID(ctx, cfg.BatchID)
	result := &BatchResult{BatchID: cfg.BatchID, Entries: []BatchEntry{}}

	if len(attendees) == 0 {
		return result, nil
	}
	if tpl == nil {
		return nil, fmt.Errorf("%w: template is nil", ErrInput)
	}

	paths, err := PlanPaths(attendees, cfg.OutputDir, cfg.Format, cfg.Collision)
	if err != nil {
		logger.CtxError(ctx, "Failed to plan output paths", logger.LoggerInfo{
			ContextFunction: constant.CtxPlanPaths,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeNameCollision,
				Message: err.Error(),
				Type:    constant.ErrTypeInput,
			},
			Data: map[string]interface{}{
				constant.DataPolicy: string(cfg.Collision),
				constant.DataCount:  len(attendees),
			},
		})
		return nil, err
	}

	logger.CtxInfo(ctx, constant.MsgBatchStarting, logger.LoggerInfo{
		ContextFunction: constant.CtxRunBatch,
		Data: map[string]interface{}{
			constant.DataCount:     len(attendees),
			constant.DataWorkers:   cfg.Workers,
			constant.DataFormat:    string(cfg.Format),
			constant.DataOutputDir: cfg.OutputDir,
			constant.DataPolicy:    string(cfg.Collision) + "/" + string(cfg.Failure),
		},
	})

	start := time.Now()
	entries := make([]BatchEntry, len(attendees))
	completed := make([]bool, len(attendees))
	guard := newPathGuard(paths)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for i, name := range attendees {
		i, name := i, name
		if gctx.Err() != nil {
			break
		}
		entries[i] = BatchEntry{Index: i, AttendeeName: name, OutputPath: paths[i]}

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if err := o.process(gctx, tpl, cfg, guard, &entries[i]); err != nil {
				if cfg.Failure == FailureIsolate {
					entries[i].Err = err.Error()
					return nil
				}
				return &BatchError{Index: i, Name: name, Err: err}
			}
			completed[i] = true
			return nil
		})
	}

	err = g.Wait()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		for i := range entries {
			if completed[i] {
				result.Entries = append(result.Entries, entries[i])
			}
		}
		o.writeMarker(ctx, cfg, err)

		logger.CtxError(ctx, constant.MsgBatchAborted, logger.LoggerInfo{
			ContextFunction: constant.CtxRunBatch,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeBatchItem,
				Message: err.Error(),
				Type:    constant.ErrTypeDomain,
			},
			Data: map[string]interface{}{
				constant.DataCount:   len(result.Entries),
				constant.DataElapsed: time.Since(start).String(),
			},
		})
		return result, err
	}

	result.Entries = entries
	o.clearMarker(ctx, cfg)

	logger.CtxInfo(ctx, constant.MsgBatchCompleted, logger.LoggerInfo{
		ContextFunction: constant.CtxRunBatch,
		Data: map[string]interface{}{
			constant.DataCount:   len(entries),
			constant.DataFailed:  result.Failed(),
			constant.DataElapsed: time.Since(start).String(),
		},
	})
	return result, nil
}

func (o *Orchestrator) process(ctx context.Context, tpl *Template, cfg BatchConfig, guard *pathGuard, entry *BatchEntry) error {
	start := time.Now()

	renderCtx := ctx
	if cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, cfg.ItemTimeout)
		defer cancel()
	}

	cert, err := o.renderer.Render(renderCtx, tpl, cfg.Request.WithAttendee(entry.AttendeeName))
	if err != nil {
		if !canceledBySibling(ctx, err) {
			o.metrics.CertificateFailed(StageRender)
			o.logItemFailure(ctx, entry, err)
		}
		return err
	}
	entry.Hash = cert.Hash

	err = guard.write(entry.Index, entry.OutputPath, func() error {
		return o.writer.WriteFile(cert.Image, entry.OutputPath, cfg.Format)
	})
	if err != nil {
		if !canceledBySibling(ctx, err) {
			o.metrics.CertificateFailed(StageWrite)
			o.logItemFailure(ctx, entry, err)
		}
		return err
	}

	if o.registry != nil {
		rec := &Record{
			Hash:         cert.Hash,
			AttendeeName: entry.AttendeeName,
			EventName:    o.renderer.EventName(),
			OutputPath:   entry.OutputPath,
			Format:       cfg.Format,
			BatchID:      cfg.BatchID,
			IssuedAt:     time.Now(),
		}
		if err := o.registry.Store(ctx, rec); err != nil {
			o.metrics.CertificateFailed(StageRegistry)
			logger.CtxError(ctx, "Failed to record certificate", logger.LoggerInfo{
				ContextFunction: constant.CtxRunBatch,
				Error: &logger.CustomError{
					Code:    constant.ErrCodeRegistryRecord,
					Message: err.Error(),
					Type:    constant.ErrTypeDB,
				},
				Data: map[string]interface{}{
					constant.DataIndex: entry.Index,
					constant.DataHash:  cert.Hash,
				},
			})
			return fmt.Errorf("record certificate %s: %w", cert.Hash, err)
		}
	}

	o.metrics.CertificateIssued(cfg.Format, time.Since(start))
	logger.CtxDebug(ctx, "Certificate issued", logger.LoggerInfo{
		ContextFunction: constant.CtxRunBatch,
		Data: map[string]interface{}{
			constant.DataIndex:      entry.Index,
			constant.DataAttendee:   entry.AttendeeName,
			constant.DataHash:       cert.Hash,
			constant.DataOutputPath: entry.OutputPath,
		},
	})
	return nil
}

// canceledBySibling reports an item that stopped only because the batch
// context was cancelled; the failure that caused it is logged on its own.
func canceledBySibling(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) && ctx.Err() != nil
}

func (o *Orchestrator) logItemFailure(ctx context.Context, entry *BatchEntry, err error) {
	code, kind := errorCode(err)
	logger.CtxError(ctx, "Failed to issue certificate", logger.LoggerInfo{
		ContextFunction: constant.CtxRunBatch,
		Error: &logger.CustomError{
			Code:    code,
			Message: err.Error(),
			Type:    kind,
		},
		Data: map[string]interface{}{
			constant.DataIndex:    entry.Index,
			constant.DataAttendee: entry.AttendeeName,
		},
	})
}

// writeMarker leaves a note in the output directory saying the batch did not finish.
func (o *Orchestrator) writeMarker(ctx context.Context, cfg BatchConfig, cause error) {
	var b strings.Builder
	fmt.Fprintf(&b, "batch_id: %s\n", cfg.BatchID)
	var be *BatchError
	if errors.As(cause, &be) {
		fmt.Fprintf(&b, "index: %d\nname: %q\nreason: %v\n", be.Index, be.Name, be.Err)
	} else {
		fmt.Fprintf(&b, "reason: %v\n", cause)
	}

	path := filepath.Join(cfg.OutputDir, constant.IncompleteMarker)
	err := os.MkdirAll(cfg.OutputDir, 0o755)
	if err == nil {
		err = os.WriteFile(path, []byte(b.String()), 0o644)
	}
	if err != nil {
		logger.CtxError(ctx, "Failed to write incomplete marker", logger.LoggerInfo{
			ContextFunction: constant.CtxRunBatch,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeMarkerFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeIO,
			},
			Data: map[string]interface{}{
				constant.DataPath: path,
			},
		})
	}
}

func (o *Orchestrator) clearMarker(ctx context.Context, cfg BatchConfig) {
	path := filepath.Join(cfg.OutputDir, constant.IncompleteMarker)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.CtxWarn(ctx, "Failed to remove stale incomplete marker", logger.LoggerInfo{
			ContextFunction: constant.CtxRunBatch,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeMarkerFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeIO,
			},
			Data: map[string]interface{}{
				constant.DataPath: path,
			},
		})
	}
}

// pathGuard serializes writes to the same file. When several attendees share
// a path the bytes that remain belong to the highest input index. Paths are
// compared exactly, as the filesystem does; case folding belongs to PlanPaths.
type pathGuard struct {
	slots map[string]*pathSlot
}

type pathSlot struct {
	mu      sync.Mutex
	written int
}

func newPathGuard(paths []string) *pathGuard {
	g := &pathGuard{slots: make(map[string]*pathSlot, len(paths))}
	for _, p := range paths {
		if _, ok := g.slots[p]; !ok {
			g.slots[p] = &pathSlot{written: -1}
		}
	}
	return g
}

func (g *pathGuard) write(index int, path string, fn func() error) error {
	slot := g.slots[path]
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.written > index {
		return nil
	}
	if err := fn(); err != nil {
		return err
	}
	slot.written = index
	return nil
}
