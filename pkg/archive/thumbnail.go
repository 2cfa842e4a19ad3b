package archive

import (
	"bytes"
	"image"

	// Register decoders for the page formats found in the wild.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	// FormatBest encodes both JPEG and PNG and keeps the smaller one.
	FormatBest = "best"
)

func renderThumbnail(src entrySource, entry string, opts *ThumbnailOptions) ([]byte, string, int64, error) {
	r, err := src.Open(entry)
	if err != nil {
		return nil, "", 0, errors.WithStack(err)
	}
	defer r.Close()

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, "", 0, errors.Wrapf(err, "decode cover entry %s", entry)
	}

	thumb := imaging.Fit(img, opts.Width, opts.Height, imaging.Lanczos)

	switch opts.Format {
	case FormatPNG:
		data, err := encodePNG(thumb)
		return data, "png", 0, err
	case FormatBest:
		return encodeBest(thumb, opts.Quality)
	default:
		data, err := encodeJPEG(thumb, opts.Quality)
		return data, "jpg", 0, err
	}
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 70
	}
	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, imaging.PNG)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

// encodeBest tries both encoders and reports how many bytes the smaller one
// saved over the larger.
func encodeBest(img image.Image, quality int) ([]byte, string, int64, error) {
	jpegData, err := encodeJPEG(img, quality)
	if err != nil {
		return nil, "", 0, err
	}
	pngData, err := encodePNG(img)
	if err != nil {
		return nil, "", 0, err
	}

	saved := int64(len(pngData) - len(jpegData))
	if saved >= 0 {
		return jpegData, "jpg", saved, nil
	}
	return pngData, "png", -saved, nil
}
