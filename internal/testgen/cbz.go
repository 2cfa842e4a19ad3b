package testgen

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// GenerateCBZ creates a valid CBZ file at the specified path with the given
// options. Pages are small solid-color images named 001.png, 002.png, etc.
// unless PageNames overrides them.
func GenerateCBZ(t *testing.T, dir, filename string, opts CBZOptions) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create CBZ file: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	format := opts.ImageFormat
	if format == "" {
		format = "png"
	}
	ext := "png"
	if format == "jpeg" || format == "jpg" {
		ext = "jpg"
	}

	// A non-nil empty PageNames means an archive with no pages at all.
	names := opts.PageNames
	if names == nil {
		count := opts.PageCount
		if count <= 0 {
			count = 3
		}
		for i := 1; i <= count; i++ {
			names = append(names, fmt.Sprintf("%03d.%s", i, ext))
		}
	}

	for i, name := range names {
		imgData := GenerateImage(t, format, opts.Width, opts.Height, uint8(i*40)) //nolint:gosec
		if err := writeZipFile(zw, name, imgData); err != nil {
			t.Fatalf("failed to write page %s: %v", name, err)
		}
	}

	for _, name := range opts.ExtraFiles {
		if err := writeZipFile(zw, name, []byte("not an image")); err != nil {
			t.Fatalf("failed to write extra file %s: %v", name, err)
		}
	}

	return path
}

// GenerateImage encodes a small solid-color image in the given format.
func GenerateImage(t *testing.T, format string, width, height int, shade uint8) []byte {
	t.Helper()

	if width <= 0 {
		width = 32
	}
	if height <= 0 {
		height = 48
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill := color.RGBA{R: shade, G: 128, B: 255 - shade, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg", "jpg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
