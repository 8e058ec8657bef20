package qrcode

import (
	"fmt"
	"image"
	"image/color"

	"github.com/prasetyowira/certgen/constant"
	"github.com/prasetyowira/certgen/domain/certificate"
	"github.com/prasetyowira/certgen/infrastructure/logger"
	"github.com/skip2/go-qrcode"
)

const (
	// DefaultBoxSize is the pixel width of one module.
	DefaultBoxSize = 10
	// DefaultBorder is the quiet zone in modules.
	DefaultBorder = 2
)

// Encoder renders verification payloads as black-on-white QR symbols at
// error correction level L, picking the smallest version that fits.
type Encoder struct {
	boxSize int
	border  int
}

// NewEncoder creates an encoder with the given module size and quiet zone.
// A non-positive box size or a negative border selects the default; a zero
// border is kept.
func NewEncoder(boxSize, border int) *Encoder {
	if boxSize <= 0 {
		boxSize = DefaultBoxSize
	}
	if border < 0 {
		border = DefaultBorder
	}
	return &Encoder{boxSize: boxSize, border: border}
}

// Encode returns a square image of (modules + 2*border) * boxSize pixels.
func (e *Encoder) Encode(text string) (image.Image, error) {
	qr, err := qrcode.New(text, qrcode.Low)
	if err != nil {
		logger.Warn("Payload does not fit in a QR symbol", logger.LoggerInfo{
			ContextFunction: constant.CtxQREncode,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeQREncode,
				Message: err.Error(),
				Type:    constant.ErrTypeEncoding,
			},
			Data: map[string]interface{}{
				constant.DataPayloadLen: len(text),
			},
		})
		return nil, fmt.Errorf("%w: %v", certificate.ErrEncoding, err)
	}
	qr.DisableBorder = true

	modules := qr.Bitmap()
	n := len(modules)
	side := (n + 2*e.border) * e.boxSize
	img := image.NewGray(image.Rect(0, 0, side, side))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	for row, line := range modules {
		for col, dark := range line {
			if !dark {
				continue
			}
			x0 := (col + e.border) * e.boxSize
			y0 := (row + e.border) * e.boxSize
			for y := y0; y < y0+e.boxSize; y++ {
				for x := x0; x < x0+e.boxSize; x++ {
					img.SetGray(x, y, color.Gray{Y: 0})
				}
			}
		}
	}

	logger.Debug("QR symbol encoded", logger.LoggerInfo{
		ContextFunction: constant.CtxQREncode,
		Data: map[string]interface{}{
			constant.DataPayloadLen: len(text),
			constant.DataModules:    n,
		},
	})
	return img, nil
}
