package qrcode

import (
	"image"
	"strings"
	"testing"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/prasetyowira/certgen/domain/certificate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, img image.Image) string {
	t.Helper()
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := zxqr.NewQRCodeReader().Decode(bmp, hints)
	require.NoError(t, err)
	return result.GetText()
}

func TestEncode_SmallestVersionWithBorder(t *testing.T) {
	// Arrange
	enc := NewEncoder(0, -1)

	// Act
	img, err := enc.Encode("hello")

	// Assert
	require.NoError(t, err)
	// version 1 is 21 modules, plus 2 quiet modules each side
	assert.Equal(t, 250, img.Bounds().Dx())
	assert.Equal(t, 250, img.Bounds().Dy())
	gray := img.(*image.Gray)
	assert.Equal(t, uint8(0xff), gray.GrayAt(5, 5).Y)
	assert.Equal(t, uint8(0xff), gray.GrayAt(19, 19).Y)
	assert.Equal(t, uint8(0), gray.GrayAt(20, 20).Y)
}

func TestEncode_RoundTrip(t *testing.T) {
	// Arrange
	text := `{"hash":"` + strings.Repeat("0123456789abcdef", 4) + `","name":"Ahmad \u0623\u062d\u0645\u062f",` +
		`"event":"` + strings.Repeat("GDG Basra Event ", 20) + `","date":"2024-05-01 09:30:00"}`
	require.GreaterOrEqual(t, len(text), 450)
	enc := NewEncoder(DefaultBoxSize, DefaultBorder)

	// Act
	img, err := enc.Encode(text)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, text, decode(t, img))
}

func TestEncode_TooLong(t *testing.T) {
	// Arrange
	enc := NewEncoder(DefaultBoxSize, DefaultBorder)

	// Act
	img, err := enc.Encode(strings.Repeat("x", 3000))

	// Assert
	assert.Nil(t, img)
	assert.ErrorIs(t, err, certificate.ErrEncoding)
}

func TestEncode_CustomBoxSize(t *testing.T) {
	// Arrange
	enc := NewEncoder(4, 0)

	// Act
	img, err := enc.Encode("hello")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 84, img.Bounds().Dx())
}
