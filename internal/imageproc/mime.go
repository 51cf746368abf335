package imageproc

import (
	"path/filepath"
	"strings"
)

var mimeByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

var mimeByFormat = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
}

// mimeForFormat maps a registered image.Decode format name to its MIME
// type, defaulting to JPEG.
func mimeForFormat(format string) string {
	if mime, ok := mimeByFormat[format]; ok {
		return mime
	}
	return "image/jpeg"
}

// MIMEFromPath guesses the MIME type from a file extension, defaulting
// to JPEG for anything unrecognized.
func MIMEFromPath(path string) string {
	if mime, ok := mimeByExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return "image/jpeg"
}

// SupportedImageFile reports whether the file extension is one the
// pipeline accepts.
func SupportedImageFile(path string) bool {
	_, ok := mimeByExtension[strings.ToLower(filepath.Ext(path))]
	return ok
}
