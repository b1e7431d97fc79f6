// Package compress packs story content into a compact ASCII-safe string
// Packed values carry a "z:" prefix followed by base64(zlib(utf8))
// Values without the prefix are legacy plain text and pass through on read
package compress

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"io"
	"strings"
)

// Prefix tags a packed value; anything else is treated as plain text
const Prefix = "z:"

// IsPacked reports whether s carries the packed sentinel
func IsPacked(s string) bool { return strings.HasPrefix(s, Prefix) }

// Pack compresses s for storage. Empty input stays empty
func Pack(s string) string {
	if s == "" {
		return ""
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write([]byte(s))
	_ = zw.Close()
	return Prefix + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// Unpack restores a stored value to plain text
// Legacy values without the sentinel are returned unchanged, and a corrupt
// packed payload falls back to the raw stored value rather than erroring
func Unpack(s string) string {
	if !IsPacked(s) {
		return s
	}
	raw, err := base64.StdEncoding.DecodeString(s[len(Prefix):])
	if err != nil {
		return s
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return s
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return s
	}
	return string(out)
}
