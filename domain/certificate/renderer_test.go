package certificate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// solidEncoder returns an all-black square instead of a real symbol.
type solidEncoder struct {
	err  error
	text string
}

func (e *solidEncoder) Encode(text string) (image.Image, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.text = text
	return image.NewGray(image.Rect(0, 0, 29, 29)), nil
}

type goFaces struct{}

func (goFaces) Face(path string, size float64) (font.Face, error) {
	if path != "go-regular" {
		return nil, fmt.Errorf("%w: %s", ErrResourceUnavailable, path)
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
}

type countingMetrics struct {
	mu        sync.Mutex
	issued    int
	failed    map[string]int
	fallbacks int
	checks    map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{failed: map[string]int{}, checks: map[string]int{}}
}

func (m *countingMetrics) CertificateIssued(Format, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued++
}

func (m *countingMetrics) CertificateFailed(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[stage]++
}

func (m *countingMetrics) FontFallback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks++
}

func (m *countingMetrics) VerificationChecked(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[result]++
}

func whiteTemplate(t *testing.T, w, h int) *Template {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	tpl, err := NewTemplate(img)
	require.NoError(t, err)
	return tpl
}

func baseRequest(name string) RenderRequest {
	return RenderRequest{
		AttendeeName: name,
		NamePosition: image.Pt(100, 100),
		FontSize:     60,
		TextColor:    color.RGBA{A: 0xff},
		QRSize:       150,
	}
}

func TestRender_KeepsTemplateDimensions(t *testing.T) {
	// Arrange
	tpl := whiteTemplate(t, 1200, 800)
	r := NewRenderer("GDG Basra Event", &solidEncoder{}, goFaces{})

	// Act
	cert, err := r.Render(context.Background(), tpl, baseRequest("Ahmad"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1200, cert.Image.Bounds().Dx())
	assert.Equal(t, 800, cert.Image.Bounds().Dy())
	assert.Regexp(t, hexHash, cert.Hash)
}

func TestRender_PayloadCarriesHash(t *testing.T) {
	// Arrange
	tpl := whiteTemplate(t, 600, 400)
	enc := &solidEncoder{}
	r := NewRenderer("GDG Basra Event", enc, goFaces{})

	// Act
	cert, err := r.Render(context.Background(), tpl, baseRequest("Ahmad"))
	require.NoError(t, err)
	p, perr := ParsePayload(enc.text)

	// Assert
	require.NoError(t, perr)
	assert.Equal(t, cert.PayloadText, enc.text)
	assert.Equal(t, cert.Hash, p.Hash)
	assert.Equal(t, "Ahmad", p.Name)
	assert.Equal(t, "GDG Basra Event", p.Event)
}

func TestRender_PastesQRAtDefaultPosition(t *testing.T) {
	// Arrange
	tpl := whiteTemplate(t, 1200, 800)
	r := NewRenderer("Event", &solidEncoder{}, goFaces{})

	// Act
	cert, err := r.Render(context.Background(), tpl, baseRequest("Ahmad"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint8(0), cert.Image.NRGBAAt(1000, 600).R)
	assert.Equal(t, uint8(0), cert.Image.NRGBAAt(1149, 749).R)
	assert.Equal(t, uint8(0xff), cert.Image.NRGBAAt(999, 600).R)
	assert.Equal(t, uint8(0xff), cert.Image.NRGBAAt(1150, 750).R)
}

func TestRender_ClipsOutOfBoundsQR(t *testing.T) {
	// Arrange
	tpl := whiteTemplate(t, 300, 200)
	req := baseRequest("Ahmad")
	req.QRPosition = &image.Point{X: 250, Y: 150}
	r := NewRenderer("Event", &solidEncoder{}, goFaces{})

	// Act
	cert, err := r.Render(context.Background(), tpl, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 300, cert.Image.Bounds().Dx())
	assert.Equal(t, uint8(0), cert.Image.NRGBAAt(299, 199).R)
}

func TestRender_DrawsName(t *testing.T) {
	// Arrange
	tpl := whiteTemplate(t, 1200, 800)
	r := NewRenderer("Event", &solidEncoder{}, goFaces{})
	req := baseRequest("WWWW")
	req.FontPath = "go-regular"

	// Act
	cert, err := r.Render(context.Background(), tpl, req)

	// Assert
	require.NoError(t, err)
	assert.False(t, cert.FontFallback)
	assert.True(t, hasInk(cert.Image, image.Rect(100, 100, 400, 170)))
	assert.False(t, hasInk(cert.Image, image.Rect(0, 0, 1200, 90)))
}

func TestRender_DoesNotMutateTemplate(t *testing.T) {
	// Arrange
	tpl := whiteTemplate(t, 400, 300)
	r := NewRenderer("Event", &solidEncoder{}, goFaces{})
	req := baseRequest("Ahmad")
	req.FontPath = "go-regular"

	// Act
	_, err := r.Render(context.Background(), tpl, req)

	// Assert
	require.NoError(t, err)
	assert.False(t, hasInk(tpl.Copy(), tpl.Copy().Bounds()))
}

func TestRender_MissingFontFallsBack(t *testing.T) {
	// Arrange
	tpl := whiteTemplate(t, 600, 400)
	metrics := newCountingMetrics()
	r := NewRenderer("Event", &solidEncoder{}, goFaces{}, WithMetrics(metrics))
	req := baseRequest("Ahmad")
	req.FontPath = "/definitely/not/here.ttf"

	// Act
	cert, err := r.Render(context.Background(), tpl, req)

	// Assert
	require.NoError(t, err)
	assert.True(t, cert.FontFallback)
	assert.Equal(t, 1, metrics.fallbacks)
	assert.True(t, hasInk(cert.Image, image.Rect(100, 100, 200, 120)))
}

func TestRender_NoFontLoaderFallsBack(t *testing.T) {
	// Arrange
	tpl := whiteTemplate(t, 600, 400)
	r := NewRenderer("Event", &solidEncoder{}, nil)

	// Act
	cert, err := r.Render(context.Background(), tpl, baseRequest("Ahmad"))

	// Assert
	require.NoError(t, err)
	assert.True(t, cert.FontFallback)
}

func TestRender_EncodingFailure(t *testing.T) {
	// Arrange
	tpl := whiteTemplate(t, 600, 400)
	r := NewRenderer("Event", &solidEncoder{err: fmt.Errorf("%w: too long", ErrEncoding)}, nil)

	// Act
	cert, err := r.Render(context.Background(), tpl, baseRequest("Ahmad"))

	// Assert
	assert.Nil(t, cert)
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestRender_InvalidRequest(t *testing.T) {
	// Arrange
	tpl := whiteTemplate(t, 600, 400)
	r := NewRenderer("Event", &solidEncoder{}, nil)
	req := baseRequest("Ahmad")
	req.QRSize = 0

	// Act
	_, err := r.Render(context.Background(), tpl, req)

	// Assert
	assert.ErrorIs(t, err, ErrInput)
}

func TestRender_CanceledContext(t *testing.T) {
	// Arrange
	tpl := whiteTemplate(t, 600, 400)
	r := NewRenderer("Event", &solidEncoder{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	_, err := r.Render(ctx, tpl, baseRequest("Ahmad"))

	// Assert
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRender_UsesInjectedClocks(t *testing.T) {
	// Arrange
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.Local)
	tpl := whiteTemplate(t, 600, 400)
	r := NewRenderer("Event", &solidEncoder{}, nil,
		WithMinter(NewHashMinter(fixedClock(at))),
		WithPayloadBuilder(NewPayloadBuilder(fixedClock(at))))

	// Act
	cert, err := r.Render(context.Background(), tpl, baseRequest("Ahmad"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "2024-02-03 04:05:06", cert.Payload.Date)
	assert.Equal(t, "Event", r.EventName())
}

// hasInk reports whether any pixel inside rect is darker than white.
func hasInk(img *image.NRGBA, rect image.Rectangle) bool {
	rect = rect.Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if img.NRGBAAt(x, y).R < 0x80 {
				return true
			}
		}
	}
	return false
}
