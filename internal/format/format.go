// Package format classifies bookmark file content.
package format

import (
	"encoding/json"
	"mime"
	"strings"
)

// Format is the detected kind of a bookmark file.
type Format string

const (
	JSON    Format = "json"
	HTML    Format = "html"
	Unknown Format = "unknown"
)

// NetscapeMarker opens every Netscape Bookmark File.
const NetscapeMarker = "<!DOCTYPE NETSCAPE-Bookmark-file-1>"

// Detect classifies content using the MIME type hint. It never fails;
// anything it cannot recognise is Unknown.
func Detect(content []byte, mimeType string) Format {
	switch {
	case isJSONType(mimeType):
		if json.Valid(content) {
			return JSON
		}
	case isHTMLType(mimeType):
		if strings.HasPrefix(strings.TrimLeft(string(content), " \t\r\n\f\v\ufeff"), NetscapeMarker) {
			return HTML
		}
	}
	return Unknown
}

// TypeByExtension guesses a MIME type from a file name extension such as ".html".
func TypeByExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".json":
		return "application/json"
	case ".html", ".htm":
		return "text/html"
	}
	return mime.TypeByExtension(ext)
}

// ByExtension maps a file name extension to the format it should be written in.
func ByExtension(ext string) Format {
	t := TypeByExtension(ext)
	switch {
	case isJSONType(t):
		return JSON
	case isHTMLType(t):
		return HTML
	}
	return Unknown
}

func mediaType(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mt
}

func isJSONType(mimeType string) bool {
	mt := mediaType(mimeType)
	return mt == "application/json" || mt == "text/json" || strings.HasSuffix(mt, "+json")
}

func isHTMLType(mimeType string) bool {
	mt := mediaType(mimeType)
	return mt == "text/html" || mt == "application/xhtml+xml"
}
