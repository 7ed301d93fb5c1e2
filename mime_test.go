package flashd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMimeTypeKnownExtensions(t *testing.T) {
	cases := map[string]string{
		"index.html":     "text/html",
		"page.htm":       "text/html",
		"style.css":      "text/css",
		"app.js":         "application/javascript",
		"logo.png":       "image/png",
		"photo.jpg":      "image/jpeg",
		"anim.gif":       "image/gif",
		"favicon.ico":    "image/x-icon",
		"readme.txt":     "text/plain",
		"source.c":       "text/plain",
		"archive.tar.gz": "application/x-gzip",
	}
	for target, want := range cases {
		assert.Equal(t, want, mimeType(target), "mimeType(%q)", target)
	}
}

func TestMimeTypeUnknownDefaultsToHTML(t *testing.T) {
	assert.Equal(t, defaultMime, mimeType("noext"))
	assert.Equal(t, defaultMime, mimeType("weird.xyz"))
}
