package media

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

var extToMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".webm": "video/webm",
}

var mimeToExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
	"video/mpeg": ".mpeg",
	"video/webm": ".webm",
}

// PathExt returns the lower-cased extension of the URL path, ignoring any
// query string or fragment.
func PathExt(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}

// MIMEFromURL guesses a media type from the URL extension. Empty when unknown.
func MIMEFromURL(rawURL string) string {
	ext := PathExt(rawURL)
	if ext == "" {
		return ""
	}
	if t, ok := extToMIME[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		t, _, _ = strings.Cut(t, ";")
		return t
	}
	return ""
}

// ExtFromMIME is the preferred file extension for a media type. Empty when
// unknown.
func ExtFromMIME(mediaType string) string {
	if ext, ok := mimeToExt[mediaType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// descriptor builds a Descriptor with its advisory MIME filled in.
func descriptor(rawURL string) Descriptor {
	return Descriptor{URL: rawURL, MIME: MIMEFromURL(rawURL)}
}
