package fonts

import (
	"fmt"
	"os"

	"github.com/prasetyowira/certgen/constant"
	"github.com/prasetyowira/certgen/domain/certificate"
	"github.com/prasetyowira/certgen/infrastructure/cache"
	"github.com/prasetyowira/certgen/infrastructure/logger"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// Library parses font files once and hands out a fresh face per call.
// Parsed fonts are safe to share; faces are not.
type Library struct {
	fonts *cache.NamespaceLRU[*opentype.Font]
}

func NewLibrary(fonts *cache.NamespaceLRU[*opentype.Font]) *Library {
	if fonts == nil {
		fonts = cache.NewNamespaceLRU[*opentype.Font](8)
	}
	return &Library{fonts: fonts}
}

// Face returns a face for the font at path, sized in pixels.
func (l *Library) Face(path string, size float64) (font.Face, error) {
	parsed, err := l.fonts.GetOrLoad(constant.FontFileNamespace, path, func() (*opentype.Font, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return opentype.Parse(data)
	})
	if err != nil {
		logger.Warn("Failed to load font", logger.LoggerInfo{
			ContextFunction: constant.CtxFontFace,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeFontLoad,
				Message: err.Error(),
				Type:    constant.ErrTypeResource,
			},
			Data: map[string]interface{}{
				constant.DataFontPath: path,
			},
		})
		return nil, fmt.Errorf("%w: %s: %v", certificate.ErrResourceUnavailable, path, err)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", certificate.ErrResourceUnavailable, path, err)
	}
	return face, nil
}
