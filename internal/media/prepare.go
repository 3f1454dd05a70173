// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package media

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/uphouse/internal/backend"
)

// MaxUploadSize is the largest accepted image.
const MaxUploadSize = 20 << 20

const jpegQuality = 90

// Accepted image types.
const (
	TypeJPEG = "image/jpeg"
	TypePNG  = "image/png"
	TypeGIF  = "image/gif"
	TypeWebP = "image/webp"
)

// IsAccepted reports whether contentType can be uploaded.
func IsAccepted(contentType string) bool {
	switch contentType {
	case TypeJPEG, TypePNG, TypeGIF, TypeWebP:
		return true
	default:
		return false
	}
}

// Prepare checks an upload and normalizes it for the web. The content type
// is sniffed from the bytes; the client's claim is ignored. JPEGs are
// rotated upright from their EXIF orientation and any image wider than
// maxWidth is scaled down. Images that need neither are returned as is.
// Rejections are *backend.ValidationError values.
func Prepare(f File, maxWidth int) (File, error) {
	if len(f.Data) == 0 {
		return f, backend.NewValidationError("image", "請選擇要上傳的圖片")
	}
	if len(f.Data) > MaxUploadSize {
		return f, backend.NewValidationError("image", "圖片大小不可超過 %d MB", MaxUploadSize>>20)
	}

	f.ContentType = mimetype.Detect(f.Data).String()
	if !IsAccepted(f.ContentType) {
		return f, backend.NewValidationError("image", "僅支援 JPG、PNG、GIF 或 WebP 圖片")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		return f, backend.NewValidationError("image", "無法讀取圖片內容")
	}

	orientation := 1
	if f.ContentType == TypeJPEG {
		orientation = readExifOrientation(f.Data)
	}
	width := cfg.Width
	if orientation >= 5 {
		width = cfg.Height
	}
	resize := maxWidth > 0 && width > maxWidth

	if orientation <= 1 && !resize {
		return f, nil
	}

	img, err := imaging.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return f, fmt.Errorf("decoding %s: %w", f.Filename, err)
	}
	img = applyOrientation(img, orientation)
	if resize {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	return encode(f, img)
}

func encode(f File, img image.Image) (File, error) {
	var buf bytes.Buffer
	var err error
	switch f.ContentType {
	case TypePNG:
		err = png.Encode(&buf, img)
	case TypeGIF:
		err = gif.Encode(&buf, img, nil)
	default:
		// WebP has no pure Go encoder; resized WebP files become JPEG.
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
		if f.ContentType == TypeWebP {
			f.ContentType = TypeJPEG
			f.Filename = strings.TrimSuffix(f.Filename, filepath.Ext(f.Filename)) + ".jpg"
		}
	}
	if err != nil {
		return f, fmt.Errorf("encoding %s: %w", f.Filename, err)
	}
	f.Data = buf.Bytes()
	return f, nil
}

// readExifOrientation returns the EXIF orientation tag, or 1 when absent.
func readExifOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation undoes an EXIF orientation:
// 2 flip H, 3 rotate 180, 4 flip V, 5 transpose, 6 rotate 90 CW,
// 7 transverse, 8 rotate 90 CCW.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
