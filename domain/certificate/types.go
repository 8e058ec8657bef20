package certificate

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/prasetyowira/certgen/constant"
)

// Clock supplies the current time; tests swap it for a fixed one.
type Clock func() time.Time

// Template is the blank certificate background. Its pixels are never handed out
// directly: every render works on its own copy, so one Template can be shared by
// any number of concurrent renders.
type Template struct {
	img *image.NRGBA
}

// NewTemplate snapshots img into an immutable template.
func NewTemplate(img image.Image) (*Template, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: template image is nil", ErrInput)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: template has no pixels (%dx%d)", ErrInput, b.Dx(), b.Dy())
	}
	return &Template{img: imaging.Clone(img)}, nil
}

func (t *Template) Width() int  { return t.img.Bounds().Dx() }
func (t *Template) Height() int { return t.img.Bounds().Dy() }

// Copy returns an independent pixel buffer the caller may mutate.
func (t *Template) Copy() *image.NRGBA {
	return imaging.Clone(t.img)
}

// RenderRequest carries everything needed to stamp one certificate.
// A nil HashPosition or QRPosition selects the bottom-left / bottom-right default.
type RenderRequest struct {
	AttendeeName string
	NamePosition image.Point
	// FontPath is a resolved font file; empty means no font was available.
	FontPath     string
	FontSize     int
	TextColor    color.RGBA
	HashPosition *image.Point
	QRPosition   *image.Point
	QRSize       int
}

// Validate checks the sizes; positions are accepted as-is and may clip.
func (r RenderRequest) Validate() error {
	if r.FontSize <= 0 {
		return fmt.Errorf("%w: font size must be positive, got %d", ErrInput, r.FontSize)
	}
	if r.QRSize <= 0 {
		return fmt.Errorf("%w: qr size must be positive, got %d", ErrInput, r.QRSize)
	}
	return nil
}

// HashFontSize is the size used for the ID line.
func (r RenderRequest) HashFontSize() int {
	if s := r.FontSize / 3; s > 12 {
		return s
	}
	return 12
}

// WithAttendee returns a copy of the shared request fields for one attendee.
func (r RenderRequest) WithAttendee(name string) RenderRequest {
	r.AttendeeName = name
	return r
}

func (r RenderRequest) hashPoint(t *Template) image.Point {
	if r.HashPosition != nil {
		return *r.HashPosition
	}
	return image.Pt(50, t.Height()-100)
}

func (r RenderRequest) qrPoint(t *Template) image.Point {
	if r.QRPosition != nil {
		return *r.QRPosition
	}
	return image.Pt(t.Width()-r.QRSize-50, t.Height()-r.QRSize-50)
}

// ParseHexColor parses "#RRGGBB" (leading # optional) into an opaque color.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: color %q is not #RRGGBB", ErrInput, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: color %q: %v", ErrInput, s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Format is the output container, chosen once per batch.
type Format string

const (
	FormatPDF Format = "PDF"
	FormatPNG Format = "PNG"
)

// ParseFormat accepts "pdf" / "png" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToUpper(strings.TrimSpace(s))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("%w: %s %q", ErrInput, constant.ErrUnknownFormat, s)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".pdf"
}

// Certificate is one rendered output. Image is owned by the caller.
type Certificate struct {
	Image        *image.NRGBA
	Hash         string
	Payload      VerificationPayload
	PayloadText  string
	FontFallback bool
}

// BatchEntry is the outcome for one attendee, at the attendee's input index.
type BatchEntry struct {
	Index        int    `json:"index"`
	AttendeeName string `json:"name"`
	Hash         string `json:"hash"`
	OutputPath   string `json:"path"`
	Err          string `json:"error,omitempty"`
}

// BatchResult lists entries in input order.
type BatchResult struct {
	BatchID string       `json:"batch_id"`
	Entries []BatchEntry `json:"entries"`
}

// Failed counts entries that carry an error.
func (r *BatchResult) Failed() int {
	n := 0
	for _, e := range r.Entries {
		if e.Err != "" {
			n++
		}
	}
	return n
}
