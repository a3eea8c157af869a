package util

import (
	"encoding/base64"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	MIMEPDF          = "application/pdf"
	defaultImageMIME = "image/png"
)

// DetectMIME sniffs data first and falls back to the file extension, then
// to the declared content type.
func DetectMIME(filename, declared string, data []byte) string {
	if len(data) > 0 {
		sniffed := http.DetectContentType(data)
		if sniffed != "application/octet-stream" && !strings.HasPrefix(sniffed, "text/plain") {
			return stripParams(sniffed)
		}
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return stripParams(byExt)
	}
	return stripParams(declared)
}

// IsPDF reports whether the detected type is a PDF.
func IsPDF(mimeType string) bool {
	return mimeType == MIMEPDF
}

// IsImage reports whether the detected type is an image.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// ImageMIME returns mimeType when it names an image, image/png otherwise.
func ImageMIME(mimeType string) string {
	if IsImage(mimeType) {
		return mimeType
	}
	return defaultImageMIME
}

// DataURI encodes data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return "data:" + ImageMIME(mimeType) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func stripParams(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		return strings.TrimSpace(t[:i])
	}
	return strings.TrimSpace(t)
}
