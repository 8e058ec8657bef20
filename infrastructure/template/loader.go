package template

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/prasetyowira/certgen/constant"
	"github.com/prasetyowira/certgen/domain/certificate"
	"github.com/prasetyowira/certgen/infrastructure/logger"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Load reads a certificate background. Raster formats go through imaging with
// EXIF orientation applied; .svg files are rasterized at their viewBox size.
func Load(path string) (*certificate.Template, error) {
	var (
		img image.Image
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		img, err = rasterizeSVG(path)
	} else {
		img, err = imaging.Open(path, imaging.AutoOrientation(true))
	}
	if err != nil {
		logger.Error("Failed to load template", logger.LoggerInfo{
			ContextFunction: constant.CtxLoadTemplate,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeTemplateDecode,
				Message: err.Error(),
				Type:    constant.ErrTypeInput,
			},
			Data: map[string]interface{}{
				constant.DataPath: path,
			},
		})
		return nil, fmt.Errorf("%w: %s %s: %v", certificate.ErrInput, constant.ErrTemplateDecode, path, err)
	}

	tpl, err := certificate.NewTemplate(img)
	if err != nil {
		return nil, err
	}

	logger.Info("Template loaded", logger.LoggerInfo{
		ContextFunction: constant.CtxLoadTemplate,
		Data: map[string]interface{}{
			constant.DataPath:   path,
			constant.DataWidth:  tpl.Width(),
			constant.DataHeight: tpl.Height(),
		},
	})
	return tpl, nil
}

func rasterizeSVG(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	w := int(math.Ceil(icon.ViewBox.W))
	h := int(math.Ceil(icon.ViewBox.H))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("svg has no viewBox size (%dx%d)", w, h)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return rgba, nil
}
