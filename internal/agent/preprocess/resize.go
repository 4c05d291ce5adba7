// Package preprocess shrinks scans that are too large for the analysis
// service.
package preprocess

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

type Options struct {
	// MaxBytes <= 0 disables preprocessing.
	MaxBytes     int64
	MaxDimension int
	JPEGQuality  int
}

// FitForUpload returns data unchanged when it is within opts.MaxBytes.
// Otherwise the image is scaled so its longest side is at most
// opts.MaxDimension and re-encoded as JPEG. The second return value reports
// whether the image was rewritten.
func FitForUpload(data []byte, opts Options) ([]byte, bool, error) {
	if opts.MaxBytes <= 0 || int64(len(data)) <= opts.MaxBytes {
		return data, false, nil
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = 3000
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = 85
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > opts.MaxDimension || bounds.Dy() > opts.MaxDimension {
		img = imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(opts.JPEGQuality)); err != nil {
		return nil, false, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), true, nil
}
