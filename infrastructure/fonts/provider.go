package fonts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prasetyowira/certgen/constant"
	"github.com/prasetyowira/certgen/infrastructure/cache"
	"github.com/prasetyowira/certgen/infrastructure/logger"
)

// maxFontBytes caps a downloaded font file.
const maxFontBytes = 32 << 20

// GoogleFonts maps family names to regular-weight files in the google/fonts repository.
var GoogleFonts = map[string]string{
	"Amiri":      "https://github.com/google/fonts/raw/main/ofl/amiri/Amiri-Regular.ttf",
	"Cairo":      "https://github.com/google/fonts/raw/main/ofl/cairo/Cairo%5Bwght%5D.ttf",
	"Roboto":     "https://github.com/google/fonts/raw/main/apache/roboto/static/Roboto-Regular.ttf",
	"OpenSans":   "https://github.com/google/fonts/raw/main/apache/opensans/OpenSans%5Bwdth%2Cwght%5D.ttf",
	"Montserrat": "https://github.com/google/fonts/raw/main/ofl/montserrat/Montserrat%5Bwght%5D.ttf",
	"Tajawal":    "https://github.com/google/fonts/raw/main/ofl/tajawal/Tajawal-Regular.ttf",
	"Almarai":    "https://github.com/google/fonts/raw/main/ofl/almarai/Almarai-Regular.ttf",
}

// Resolution is the outcome of resolving a font. Available is false when no
// file could be produced; the caller then uses the built-in face.
type Resolution struct {
	Path      string
	Available bool
}

// Provider turns a family name or file path into a local font file,
// downloading known families into a cache directory on first use.
type Provider struct {
	cacheDir string
	timeout  time.Duration
	client   *http.Client
	sources  map[string]string
	paths    *cache.NamespaceLRU[string]
}

// Option customizes a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.client = c }
}

// WithSources replaces the family to URL table.
func WithSources(sources map[string]string) Option {
	return func(p *Provider) { p.sources = sources }
}

func NewProvider(cacheDir string, timeout time.Duration, paths *cache.NamespaceLRU[string], opts ...Option) *Provider {
	if paths == nil {
		paths = cache.NewNamespaceLRU[string](32)
	}
	p := &Provider{
		cacheDir: cacheDir,
		timeout:  timeout,
		client:   http.DefaultClient,
		sources:  GoogleFonts,
		paths:    paths,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve never fails: network and file errors are logged and reported as unavailable.
func (p *Provider) Resolve(ctx context.Context, family string) Resolution {
	family = strings.TrimSpace(family)
	if family == "" {
		return Resolution{}
	}
	if path, ok := p.paths.Get(constant.FontPathNamespace, family); ok {
		return Resolution{Path: path, Available: true}
	}

	path, err := p.locate(ctx, family)
	if err != nil {
		logger.CtxWarn(ctx, "Font unavailable", logger.LoggerInfo{
			ContextFunction: constant.CtxFontResolve,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeFontFetch,
				Message: err.Error(),
				Type:    constant.ErrTypeResource,
			},
			Data: map[string]interface{}{
				constant.DataFontFamily: family,
			},
		})
		return Resolution{}
	}

	p.paths.Set(constant.FontPathNamespace, family, path)
	logger.CtxDebug(ctx, "Font resolved", logger.LoggerInfo{
		ContextFunction: constant.CtxFontResolve,
		Data: map[string]interface{}{
			constant.DataFontFamily: family,
			constant.DataFontPath:   path,
		},
	})
	return Resolution{Path: path, Available: true}
}

func (p *Provider) locate(ctx context.Context, family string) (string, error) {
	if isFile(family) {
		return family, nil
	}
	if strings.ContainsAny(family, `/\`) {
		return "", fmt.Errorf("font file %s does not exist", family)
	}

	cached := filepath.Join(p.cacheDir, family+".ttf")
	if isFile(cached) {
		return cached, nil
	}

	url, ok := p.sources[family]
	if !ok {
		return "", fmt.Errorf("unknown font family %q", family)
	}
	if err := p.download(ctx, url, cached); err != nil {
		return "", fmt.Errorf("download %s: %w", family, err)
	}
	return cached, nil
}

func (p *Provider) download(ctx context.Context, url, dest string) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	logger.CtxInfo(ctx, "Downloading font", logger.LoggerInfo{
		ContextFunction: constant.CtxFontResolve,
		Data: map[string]interface{}{
			constant.DataFontURL: url,
		},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := os.MkdirAll(p.cacheDir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(p.cacheDir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxFontBytes+1))
	if err == nil && n > maxFontBytes {
		err = errors.New("font file too large")
	}
	if err == nil && n == 0 {
		err = errors.New("empty response body")
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
