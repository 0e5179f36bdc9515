// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging processes uploaded media: decoding, EXIF orientation
// correction, metadata stripping, and thumbnail generation.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// ThumbnailWidth is the bounding width for generated thumbnails.
const ThumbnailWidth = 400

// ProcessResult contains the result of processing an uploaded image.
type ProcessResult struct {
	Width     int
	Height    int
	MimeType  string
	Size      int64
	FilePath  string
	ThumbPath string
}

// Processor handles image processing operations using pure Go libraries.
type Processor struct {
	uploadDir string
}

// NewProcessor creates a new image processor.
func NewProcessor(uploadDir string) *Processor {
	return &Processor{uploadDir: uploadDir}
}

// ProcessImage reads an uploaded image, auto-rotates it per EXIF
// orientation, re-encodes it without metadata, saves the original and a
// thumbnail, and returns processing results. Paths are relative to the
// upload directory.
func (p *Processor) ProcessImage(reader io.Reader, uuid, filename string) (*ProcessResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Read EXIF orientation and auto-rotate. Re-encoding below strips
	// EXIF entirely (pure Go encoders don't preserve metadata).
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	bounds := img.Bounds()

	ext := formatExt(format)
	relPath := filepath.Join(uuid[:2], uuid+ext)
	if err := p.encodeToFile(img, format, relPath); err != nil {
		return nil, err
	}

	thumb := imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	thumbPath := filepath.Join(uuid[:2], uuid+"_thumb"+ext)
	if err := p.encodeToFile(thumb, format, thumbPath); err != nil {
		return nil, err
	}

	info, err := os.Stat(filepath.Join(p.uploadDir, relPath))
	if err != nil {
		return nil, fmt.Errorf("failed to stat saved image: %w", err)
	}

	return &ProcessResult{
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		MimeType:  formatMime(format),
		Size:      info.Size(),
		FilePath:  relPath,
		ThumbPath: thumbPath,
	}, nil
}

// Remove deletes a stored media file and its thumbnail, if present.
func (p *Processor) Remove(relPath, thumbPath string) error {
	if relPath != "" {
		if err := os.Remove(filepath.Join(p.uploadDir, relPath)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if thumbPath != "" {
		if err := os.Remove(filepath.Join(p.uploadDir, thumbPath)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (p *Processor) encodeToFile(img image.Image, format, relPath string) error {
	fullPath := filepath.Join(p.uploadDir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	var encFormat imaging.Format
	var opts []imaging.EncodeOption
	switch format {
	case "jpeg":
		encFormat = imaging.JPEG
		opts = append(opts, imaging.JPEGQuality(90))
	case "png":
		encFormat = imaging.PNG
	case "gif":
		encFormat = imaging.GIF
	default:
		// WebP input is re-encoded as PNG; there is no pure Go WebP encoder.
		encFormat = imaging.PNG
	}

	if err := imaging.Encode(f, img, encFormat, opts...); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// detectFormat sniffs the image format from content bytes.
func detectFormat(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return "jpeg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return ""
	}
}

func formatExt(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "gif":
		return ".gif"
	default:
		return ".png"
	}
}

func formatMime(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	default:
		return "image/png"
	}
}

// readExifOrientation returns the EXIF orientation tag value, or 1 when absent.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
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

// applyOrientation rotates/flips an image per its EXIF orientation.
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
