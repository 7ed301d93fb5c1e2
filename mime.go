package flashd

import "strings"

// mimeTable maps a file suffix to its MIME type. Carried as an external
// collaborator per spec §6, extended with the .htm and .c entries present
// in original_source/WebServer/HttpData.cpp's MimeType::init but dropped
// from spec.md's minimum list (SPEC_FULL.md Part D).
var mimeTable = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".gif":  "image/gif",
	".ico":  "image/x-icon",
	".txt":  "text/plain",
	".c":    "text/plain",
	".mp3":  "audio/mp3",
	".gz":   "application/x-gzip",
	".bmp":  "image/bmp",
	".avi":  "video/x-msvideo",
	".doc":  "application/msword",
}

const defaultMime = "text/html"

// mimeType returns the MIME type for target's last extension, defaulting to
// text/html when the suffix is unknown or absent.
func mimeType(target string) string {
	i := strings.LastIndexByte(target, '.')
	if i < 0 {
		return defaultMime
	}
	if m, ok := mimeTable[target[i:]]; ok {
		return m
	}
	return defaultMime
}
