package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prasetyowira/certgen/domain/certificate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func TestFace_LoadsAndCaches(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "go.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0o644))
	lib := NewLibrary(nil)

	// Act
	big, err := lib.Face(path, 60)
	require.NoError(t, err)
	defer big.Close()
	require.NoError(t, os.Remove(path))
	small, err := lib.Face(path, 20)

	// Assert
	require.NoError(t, err)
	defer small.Close()
	assert.Greater(t, big.Metrics().Ascent, small.Metrics().Ascent)
}

func TestFace_Missing(t *testing.T) {
	// Act
	face, err := NewLibrary(nil).Face("/no/such/font.ttf", 20)

	// Assert
	assert.Nil(t, face)
	assert.ErrorIs(t, err, certificate.ErrResourceUnavailable)
}

func TestFace_Corrupt(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "bad.ttf")
	require.NoError(t, os.WriteFile(path, []byte("not a font"), 0o644))

	// Act
	_, err := NewLibrary(nil).Face(path, 20)

	// Assert
	assert.ErrorIs(t, err, certificate.ErrResourceUnavailable)
}
