package utils

import (
	"encoding/json"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

const webmExt = ".webm"

var sizeUnits = []string{"Bytes", "KB", "MB"}

// FormatFileSize renders bytes in the largest unit that keeps the value
// at or above 1, rounded to two decimals with trailing zeros dropped.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	const k = 1024
	i := 0
	scaled := float64(bytes)
	for scaled >= k && i < len(sizeUnits)-1 {
		scaled /= k
		i++
	}

	rounded := math.Round(scaled*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[i]
}

// BaseName strips directories and a trailing .webm extension (any case).
func BaseName(name string) string {
	name = filepath.Base(name)
	if strings.HasSuffix(strings.ToLower(name), webmExt) {
		return name[:len(name)-len(webmExt)]
	}
	return name
}

// DownloadName builds "<base><suffix>.webm" for an uploaded file name.
func DownloadName(original, suffix string) string {
	return BaseName(original) + suffix + webmExt
}

// DecodeError reads a JSON error body ({"error": "..."}) and returns the
// message, or "" when the body is not JSON or has no error field.
func DecodeError(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Error)
}
