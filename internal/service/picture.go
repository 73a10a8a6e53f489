package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder

	"github.com/disintegration/imaging"

	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

// PictureConfig bounds profile picture uploads.
type PictureConfig struct {
	MaxBytes     int64
	MaxDimension int
}

// pictureProcessor validates uploads and turns them into resized data URLs.
type pictureProcessor struct {
	cfg PictureConfig
}

func newPictureProcessor(cfg PictureConfig) pictureProcessor {
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = 256
	}
	return pictureProcessor{cfg: cfg}
}

// Process decodes a JPEG or PNG image, fits it inside MaxDimension square and
// re-encodes it in its original format as a data URL.
func (p pictureProcessor) Process(data []byte) (string, error) {
	if len(data) == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "picture is empty")
	}
	if p.cfg.MaxBytes > 0 && int64(len(data)) > p.cfg.MaxBytes {
		return "", appErrors.Clone(appErrors.ErrTooLarge, fmt.Sprintf("picture exceeds %d bytes", p.cfg.MaxBytes))
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnsupported, "picture must be a JPEG or PNG image")
	}
	var (
		target   imaging.Format
		mimeType string
	)
	switch format {
	case "jpeg":
		target, mimeType = imaging.JPEG, "image/jpeg"
	case "png":
		target, mimeType = imaging.PNG, "image/png"
	default:
		return "", appErrors.Clone(appErrors.ErrUnsupported, "picture must be a JPEG or PNG image")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnsupported.Code, appErrors.ErrUnsupported.Status, "picture could not be decoded")
	}
	bounds := img.Bounds()
	if bounds.Dx() > p.cfg.MaxDimension || bounds.Dy() > p.cfg.MaxDimension {
		img = imaging.Fit(img, p.cfg.MaxDimension, p.cfg.MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, target, imaging.JPEGQuality(85)); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode picture")
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
