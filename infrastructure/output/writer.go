package output

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	"github.com/prasetyowira/certgen/constant"
	"github.com/prasetyowira/certgen/domain/certificate"
	"github.com/prasetyowira/certgen/infrastructure/logger"
)

const pdfImageName = "certificate"

// Writer persists certificates as single-page PDFs or PNG files.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// Write stores img under outputDir with a file name derived from attendeeName
// and returns the path. Existing files are replaced.
func (w *Writer) Write(img image.Image, attendeeName, outputDir string, format certificate.Format) (string, error) {
	path := filepath.Join(outputDir, certificate.Filename(attendeeName, format))
	if err := w.WriteFile(img, path, format); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile encodes img at path. Bytes go to a temporary sibling first and are
// renamed into place, so a failed write leaves no partial file.
func (w *Writer) WriteFile(img image.Image, path string, format certificate.Format) error {
	if err := writeAtomic(path, func(out io.Writer) error {
		if format == certificate.FormatPNG {
			return imaging.Encode(out, img, imaging.PNG)
		}
		return encodePDF(out, img)
	}); err != nil {
		logger.Error("Failed to write certificate", logger.LoggerInfo{
			ContextFunction: constant.CtxWriteOutput,
			Error: &logger.CustomError{
				Code:    constant.ErrCodeWriteFailure,
				Message: err.Error(),
				Type:    constant.ErrTypeIO,
			},
			Data: map[string]interface{}{
				constant.DataOutputPath: path,
				constant.DataFormat:     string(format),
			},
		})
		return fmt.Errorf("%w: %s: %v", certificate.ErrIO, path, err)
	}
	return nil
}

func writeAtomic(path string, encode func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// encodePDF embeds img as one page of exactly its pixel size, 1 px to 1 pt.
func encodePDF(out io.Writer, img image.Image) error {
	var raster bytes.Buffer
	if err := imaging.Encode(&raster, opaque(img), imaging.PNG); err != nil {
		return err
	}

	b := img.Bounds()
	width, height := float64(b.Dx()), float64(b.Dy())

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(pdfImageName, opts, &raster)
	pdf.ImageOptions(pdfImageName, 0, 0, width, height, false, opts, 0, "")

	return pdf.Output(out)
}

// opaque drops the alpha channel without blending against a background.
func opaque(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
