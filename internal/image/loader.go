// Package image decodes favicons and other small images.
package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	"image/png"
	"os"

	_ "golang.org/x/image/webp" // Register WebP format

	"golang.org/x/image/bmp"
)

// ErrInvalidICO is returned for malformed icon files.
var ErrInvalidICO = errors.New("invalid ICO data")

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads an image from the given path.
	Load(path string) (image.Image, error)
}

// FileLoader loads images from the local filesystem.
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
// Supported formats: ICO, PNG, JPEG, GIF, WebP, BMP.
func (l *FileLoader) Load(path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return Decode(data)
}

// Decode decodes image bytes, including Windows icon files.
func Decode(data []byte) (image.Image, error) {
	if isICO(data) {
		return decodeICO(data)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}
	return img, nil
}

func isICO(data []byte) bool {
	return len(data) >= 6 &&
		binary.LittleEndian.Uint16(data[0:2]) == 0 &&
		binary.LittleEndian.Uint16(data[2:4]) == 1
}

// decodeICO decodes the largest image in an icon directory. Entries are
// either embedded PNGs or headerless BMP (DIB) data with a doubled height
// covering the AND mask.
func decodeICO(data []byte) (image.Image, error) {
	count := int(binary.LittleEndian.Uint16(data[4:6]))
	if count == 0 || len(data) < 6+16*count {
		return nil, ErrInvalidICO
	}

	best, bestArea := -1, -1
	for i := range count {
		entry := data[6+16*i : 6+16*(i+1)]
		w, h := int(entry[0]), int(entry[1])
		if w == 0 {
			w = 256
		}
		if h == 0 {
			h = 256
		}
		if w*h > bestArea {
			best, bestArea = i, w*h
		}
	}

	entry := data[6+16*best : 6+16*(best+1)]
	size := int(binary.LittleEndian.Uint32(entry[8:12]))
	offset := int(binary.LittleEndian.Uint32(entry[12:16]))
	if offset < 0 || size <= 0 || offset+size > len(data) {
		return nil, fmt.Errorf("%w: entry out of range", ErrInvalidICO)
	}
	payload := data[offset : offset+size]

	if bytes.HasPrefix(payload, pngSignature) {
		img, err := png.Decode(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to decode ICO PNG entry: %w", err)
		}
		return img, nil
	}
	return decodeDIB(payload)
}

// decodeDIB wraps DIB data in a BMP file header and halves the height so
// only the colour (XOR) bitmap is decoded.
func decodeDIB(dib []byte) (image.Image, error) {
	if len(dib) < 40 {
		return nil, fmt.Errorf("%w: short bitmap header", ErrInvalidICO)
	}

	headerSize := binary.LittleEndian.Uint32(dib[0:4])
	height := int32(binary.LittleEndian.Uint32(dib[8:12])) // #nosec G115 - signed BMP height
	bpp := binary.LittleEndian.Uint16(dib[14:16])
	colours := binary.LittleEndian.Uint32(dib[32:36])
	if colours == 0 && bpp <= 8 {
		colours = 1 << bpp
	}

	patched := make([]byte, len(dib))
	copy(patched, dib)
	binary.LittleEndian.PutUint32(patched[8:12], uint32(height/2)) // #nosec G115

	const fileHeaderSize = 14
	file := make([]byte, fileHeaderSize, fileHeaderSize+len(patched))
	file[0], file[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(file[2:6], uint32(fileHeaderSize+len(patched)))   // #nosec G115
	binary.LittleEndian.PutUint32(file[10:14], fileHeaderSize+headerSize+colours*4)
	file = append(file, patched...)

	img, err := bmp.Decode(bytes.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ICO bitmap entry: %w", err)
	}
	return img, nil
}
