package certificate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/prasetyowira/certgen/constant"
	"github.com/prasetyowira/certgen/infrastructure/logger"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// QREncoder turns payload text into a square QR image at its native size.
// Payloads over capacity fail with ErrEncoding.
type QREncoder interface {
	Encode(text string) (image.Image, error)
}

// FaceLoader builds a font face for a file at a pixel size. Every call
// returns a new face owned by the caller.
type FaceLoader interface {
	Face(path string, size float64) (font.Face, error)
}

// Renderer stamps attendee name, short hash and QR code onto a template copy.
type Renderer struct {
	eventName string
	encoder   QREncoder
	faces     FaceLoader
	minter    *HashMinter
	payloads  *PayloadBuilder
	metrics   Metrics
}

// RendererOption customizes a Renderer.
type RendererOption func(*Renderer)

func WithMinter(m *HashMinter) RendererOption {
	return func(r *Renderer) { r.minter = m }
}

func WithPayloadBuilder(b *PayloadBuilder) RendererOption {
	return func(r *Renderer) { r.payloads = b }
}

func WithMetrics(m Metrics) RendererOption {
	return func(r *Renderer) {
		if m != nil {
			r.metrics = m
		}
	}
}

// NewRenderer creates a renderer for one event. faces may be nil, in which case
// every certificate uses the built-in face.
func NewRenderer(eventName string, encoder QREncoder, faces FaceLoader, opts ...RendererOption) *Renderer {
	r := &Renderer{
		eventName: eventName,
		encoder:   encoder,
		faces:     faces,
		minter:    NewHashMinter(nil),
		payloads:  NewPayloadBuilder(nil),
		metrics:   NopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EventName returns the event every certificate is issued for.
func (r *Renderer) EventName() string {
	return r.eventName
}

// Render produces one certificate. The template is only read.
func (r *Renderer) Render(ctx context.Context, tpl *Template, req RenderRequest) (*Certificate, error) {
	if tpl == nil {
		return nil, fmt.Errorf("%w: template is nil", ErrInput)
	}
	if err := req.Validate(); err != nil {
		logger.CtxWarn(ctx, "Rejected render request", logger.LoggerInfo{
			ContextFunction: constant.CtxRender,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeInvalidRequest,
				Message: err.Error(),
				Type:    constant.ErrTypeInput,
			},
			Data: map[string]interface{}{
				constant.DataAttendee: req.AttendeeName,
			},
		})
		return nil, err
	}

	canvas := tpl.Copy()

	nameFace, hashFace, fallback := r.loadFaces(ctx, req)
	defer nameFace.Close()
	defer hashFace.Close()

	drawText(canvas, nameFace, req.TextColor, req.NamePosition, req.AttendeeName)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	certHash := r.minter.Mint(req.AttendeeName, r.eventName)
	drawText(canvas, hashFace, req.TextColor, req.hashPoint(tpl), HashDisplay(certHash))

	payload := r.payloads.Build(req.AttendeeName, r.eventName, certHash)
	text, err := payload.Encode()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qr, err := r.encoder.Encode(text)
	if err != nil {
		logger.CtxError(ctx, "Failed to encode verification QR", logger.LoggerInfo{
			ContextFunction: constant.CtxRender,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeQREncode,
				Message: err.Error(),
				Type:    constant.ErrTypeEncoding,
			},
			Data: map[string]interface{}{
				constant.DataAttendee:   req.AttendeeName,
				constant.DataPayloadLen: len(text),
			},
		})
		return nil, fmt.Errorf("qr for %q: %w", req.AttendeeName, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scaled := imaging.Resize(qr, req.QRSize, req.QRSize, imaging.NearestNeighbor)
	canvas = imaging.Paste(canvas, scaled, req.qrPoint(tpl))

	logger.CtxDebug(ctx, "Certificate rendered", logger.LoggerInfo{
		ContextFunction: constant.CtxRender,
		Data: map[string]interface{}{
			constant.DataAttendee: req.AttendeeName,
			constant.DataHash:     certHash,
			constant.DataWidth:    canvas.Bounds().Dx(),
			constant.DataHeight:   canvas.Bounds().Dy(),
		},
	})

	return &Certificate{
		Image:        canvas,
		Hash:         certHash,
		Payload:      payload,
		PayloadText:  text,
		FontFallback: fallback,
	}, nil
}

// loadFaces returns the name and hash faces. If either cannot be built both
// fall back to the built-in face.
func (r *Renderer) loadFaces(ctx context.Context, req RenderRequest) (font.Face, font.Face, bool) {
	var err error
	if req.FontPath == "" || r.faces == nil {
		err = fmt.Errorf("%w: no font resolved", ErrResourceUnavailable)
	} else {
		var nameFace, hashFace font.Face
		nameFace, err = r.faces.Face(req.FontPath, float64(req.FontSize))
		if err == nil {
			hashFace, err = r.faces.Face(req.FontPath, float64(req.HashFontSize()))
			if err == nil {
				return nameFace, hashFace, false
			}
			nameFace.Close()
		}
	}

	logger.CtxWarn(ctx, constant.MsgFontFallback, logger.LoggerInfo{
		ContextFunction: constant.CtxRender,
		Error: &logger.CustomError{
			Code:    constant.ErrCodeFontFallback,
			Message: err.Error(),
			Type:    constant.ErrTypeResource,
		},
		Data: map[string]interface{}{
			constant.DataAttendee: req.AttendeeName,
			constant.DataFontPath: req.FontPath,
		},
	})
	r.metrics.FontFallback()

	return basicfont.Face7x13, basicfont.Face7x13, true
}

// drawText draws s with its top-left (ascender line) at pt.
func drawText(dst draw.Image, face font.Face, c color.RGBA, pt image.Point, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(pt.X),
			Y: fixed.I(pt.Y) + face.Metrics().Ascent,
		},
	}
	d.DrawString(s)
}
