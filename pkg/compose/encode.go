package compose

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/tiff"
)

// encode writes img to path, choosing the codec from the file extension.
func encode(path string, img image.Image, jpegQuality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality})
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		f.Close()
		os.Remove(path)
		return &ComposeError{Reason: fmt.Sprintf("unsupported output format %q", filepath.Ext(path))}
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// writeDerivative saves a bounded-size JPEG preview next to the output
// image and returns its path.
func writeDerivative(outPath string, canvas image.Image, opts Options) (string, error) {
	ext := filepath.Ext(outPath)
	path := strings.TrimSuffix(outPath, ext) + "_preview.jpg"

	small := imaging.Fit(canvas, opts.DerivativeMaxDim, opts.DerivativeMaxDim, imaging.Lanczos)
	if err := imaging.Save(small, path, imaging.JPEGQuality(opts.JPEGQuality)); err != nil {
		return "", fmt.Errorf("write derivative: %w", err)
	}
	return path, nil
}
