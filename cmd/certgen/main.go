package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"time"

	"github.com/prasetyowira/certgen/config"
	"github.com/prasetyowira/certgen/constant"
	"github.com/prasetyowira/certgen/domain/certificate"
	"github.com/prasetyowira/certgen/infrastructure/attendee"
	"github.com/prasetyowira/certgen/infrastructure/cache"
	"github.com/prasetyowira/certgen/infrastructure/db"
	"github.com/prasetyowira/certgen/infrastructure/fonts"
	appLogger "github.com/prasetyowira/certgen/infrastructure/logger"
	"github.com/prasetyowira/certgen/infrastructure/metrics"
	"github.com/prasetyowira/certgen/infrastructure/output"
	"github.com/prasetyowira/certgen/infrastructure/qrcode"
	"github.com/prasetyowira/certgen/infrastructure/template"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/image/font/opentype"
)

// defaultFamily is tried when the requested font cannot be resolved.
const defaultFamily = "Roboto"

type options struct {
	templatePath string
	namesPath    string
	outputDir    string
	format       string
	fontFamily   string
	fontSize     int
	textColor    string
	nameX, nameY int
	hashX, hashY int
	qrX, qrY     int
	qrSize       int
	workers      int
	collision    string
	failure      string
	itemTimeout  time.Duration
	clean        bool
	dbPath       string
}

func parseFlags(cfg config.Config, args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	fs.StringVar(&o.templatePath, "template", "", "certificate template image (PNG, JPEG or SVG)")
	fs.StringVar(&o.namesPath, "names", "", "attendee list (.txt, .csv or .xlsx)")
	fs.StringVar(&o.outputDir, "out", cfg.OutputDir, "output directory")
	fs.StringVar(&o.format, "format", cfg.OutputFormat, "output format: PDF or PNG")
	fs.StringVar(&o.fontFamily, "font", cfg.FontFamily, "font family name or path to a font file")
	fs.IntVar(&o.fontSize, "font-size", cfg.FontSize, "name font size in pixels")
	fs.StringVar(&o.textColor, "color", cfg.TextColor, "text color as #RRGGBB")
	fs.IntVar(&o.nameX, "name-x", -1, "name x position (default: template center)")
	fs.IntVar(&o.nameY, "name-y", -1, "name y position (default: template center)")
	fs.IntVar(&o.hashX, "hash-x", -1, "ID line x position (default: bottom left)")
	fs.IntVar(&o.hashY, "hash-y", -1, "ID line y position (default: bottom left)")
	fs.IntVar(&o.qrX, "qr-x", -1, "QR x position (default: bottom right)")
	fs.IntVar(&o.qrY, "qr-y", -1, "QR y position (default: bottom right)")
	fs.IntVar(&o.qrSize, "qr-size", cfg.QRSize, "QR edge length in pixels")
	fs.IntVar(&o.workers, "workers", cfg.Workers, "concurrent renders")
	fs.StringVar(&o.collision, "collision", cfg.CollisionPolicy, "duplicate file names: overwrite, suffix or reject")
	fs.StringVar(&o.failure, "failure", cfg.FailurePolicy, "on a failed attendee: abort or isolate")
	fs.DurationVar(&o.itemTimeout, "item-timeout", cfg.ItemTimeout, "per-certificate render deadline (0 disables)")
	fs.BoolVar(&o.clean, "clean", false, "empty the output directory before generating")
	fs.StringVar(&o.dbPath, "db", cfg.DatabaseURL, "certificate registry database (empty disables)")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.templatePath == "" || o.namesPath == "" {
		return o, fmt.Errorf("%w: -template and -names are required", certificate.ErrInput)
	}
	return o, nil
}

func main() {
	os.Exit(generate())
}

func generate() int {
	cfg := config.LoadConfig()

	appLogger.Initialize(cfg.LogLevel)
	defer appLogger.Close()

	opts, err := parseFlags(cfg, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := run(ctx, cfg, opts)
	if result != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	}
	if err != nil {
		appLogger.Error(constant.MsgBatchAborted, appLogger.LoggerInfo{
			ContextFunction: constant.CtxGenerateCommand,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeAppGenerate,
				Message: err.Error(),
				Type:    constant.ErrTypeApp,
			},
		})
		return 1
	}
	if result.Failed() > 0 {
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg config.Config, opts options) (*certificate.BatchResult, error) {
	format, err := certificate.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}
	collision, err := certificate.ParseCollisionPolicy(opts.collision)
	if err != nil {
		return nil, err
	}
	failure, err := certificate.ParseFailurePolicy(opts.failure)
	if err != nil {
		return nil, err
	}
	textColor, err := certificate.ParseHexColor(opts.textColor)
	if err != nil {
		return nil, err
	}

	tpl, err := template.Load(opts.templatePath)
	if err != nil {
		return nil, err
	}
	names, err := attendee.Load(opts.namesPath)
	if err != nil {
		return nil, err
	}

	if opts.clean {
		if err := os.RemoveAll(opts.outputDir); err != nil {
			return nil, fmt.Errorf("%w: clean %s: %v", certificate.ErrIO, opts.outputDir, err)
		}
	}
	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", certificate.ErrIO, opts.outputDir, err)
	}

	provider := fonts.NewProvider(cfg.FontCacheDir, cfg.FontFetchTimeout, cache.NewNamespaceLRU[string](cfg.FontCacheSize))
	fontPath := resolveFont(ctx, provider, opts.fontFamily)

	registry := prometheus.NewRegistry()
	certMetrics := metrics.NewCertificateMetrics(registry, metrics.Config{
		ServiceName: "certgen",
		Environment: cfg.Environment,
	})

	var store certificate.Registry
	if opts.dbPath != "" {
		repo, err := db.NewSQLiteRepository(opts.dbPath)
		if err != nil {
			return nil, fmt.Errorf("%w: registry: %v", certificate.ErrResourceUnavailable, err)
		}
		defer repo.Close()
		store = repo
	}

	renderer := certificate.NewRenderer(
		cfg.EventName,
		qrcode.NewEncoder(qrcode.DefaultBoxSize, qrcode.DefaultBorder),
		fonts.NewLibrary(cache.NewNamespaceLRU[*opentype.Font](cfg.FontCacheSize)),
		certificate.WithMetrics(certMetrics),
	)
	orchestrator := certificate.NewOrchestrator(renderer, output.NewWriter(), store, certMetrics)

	req := certificate.RenderRequest{
		NamePosition: image.Pt(orDefault(opts.nameX, tpl.Width()/2), orDefault(opts.nameY, tpl.Height()/2)),
		FontPath:     fontPath,
		FontSize:     opts.fontSize,
		TextColor:    textColor,
		HashPosition: optionalPoint(opts.hashX, opts.hashY),
		QRPosition:   optionalPoint(opts.qrX, opts.qrY),
		QRSize:       opts.qrSize,
	}

	result, err := orchestrator.Run(ctx, tpl, names, certificate.BatchConfig{
		Request:     req,
		OutputDir:   opts.outputDir,
		Format:      format,
		Workers:     opts.workers,
		Collision:   collision,
		Failure:     failure,
		ItemTimeout: opts.itemTimeout,
	})
	logMetricsSummary(ctx, registry)
	return result, err
}

// logMetricsSummary writes the batch counters as one entry, since a CLI run
// has no scrape endpoint.
func logMetricsSummary(ctx context.Context, g prometheus.Gatherer) {
	summary, err := metricsSummary(g)
	if err != nil {
		appLogger.CtxWarn(ctx, "Failed to gather batch metrics", appLogger.LoggerInfo{
			ContextFunction: constant.CtxGenerateCommand,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeAppGenerate,
				Message: err.Error(),
				Type:    constant.ErrTypeApp,
			},
		})
		return
	}
	appLogger.CtxInfo(ctx, constant.MsgBatchMetrics, appLogger.LoggerInfo{
		ContextFunction: constant.CtxGenerateCommand,
		Data:            summary,
	})
}

// metricsSummary totals every counter and histogram sample count by family name.
func metricsSummary(g prometheus.Gatherer) (map[string]interface{}, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	summary := make(map[string]interface{}, len(families))
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
		summary[mf.GetName()] = total
	}
	return summary, nil
}

// resolveFont falls back to the default family before giving up. An empty
// path leaves the renderer on its built-in face.
func resolveFont(ctx context.Context, provider *fonts.Provider, family string) string {
	if res := provider.Resolve(ctx, family); res.Available {
		return res.Path
	}
	if family != defaultFamily {
		if res := provider.Resolve(ctx, defaultFamily); res.Available {
			return res.Path
		}
	}
	return ""
}

func orDefault(v, def int) int {
	if v < 0 {
		return def
	}
	return v
}

func optionalPoint(x, y int) *image.Point {
	if x < 0 || y < 0 {
		return nil
	}
	return &image.Point{X: x, Y: y}
}
