package util

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

const sniffLen = 512

// DetectMIME sniffs the content type of r and rewinds it. When sniffing
// only yields a generic type, the filename extension decides.
func DetectMIME(r io.ReadSeeker, filename string) (string, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	buffer := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	detected := http.DetectContentType(buffer[:n])
	if isGeneric(detected) {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
			return byExt, nil
		}
	}

	return detected, nil
}

func isGeneric(mimeType string) bool {
	base, _, _ := strings.Cut(mimeType, ";")
	switch strings.TrimSpace(base) {
	case "application/octet-stream", "text/plain":
		return true
	default:
		return false
	}
}

func IsImageMIME(mimeType string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(cleaned, "image/")
}

// IsDecodableImage reports whether the image decoders registered by the
// document service can read mimeType.
func IsDecodableImage(mimeType string) bool {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp", "image/tiff":
		return true
	default:
		return false
	}
}
