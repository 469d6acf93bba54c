package compositor

import (
	"bytes"
	"fmt"
)

var (
	pngSignature  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegSignature = []byte{0xff, 0xd8, 0xff}
)

// SniffImageMIME identifies PNG or JPEG bytes by signature, falling
// back to the provided content-type hint.
func SniffImageMIME(data []byte, hint string) (string, error) {
	switch {
	case bytes.HasPrefix(data, pngSignature):
		return "image/png", nil
	case bytes.HasPrefix(data, jpegSignature):
		return "image/jpeg", nil
	case hint == "image/png" || hint == "image/jpeg":
		return hint, nil
	default:
		return "", fmt.Errorf("compositor: unsupported image format (hint %q)", hint)
	}
}
