package util

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"
)

const maxBinaryCheckBytes = 512

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNotText is returned when content cannot be decoded as UTF-8 text.
var ErrNotText = errors.New("content is not UTF-8 text")

// IsLikelyBinary reports whether the leading bytes of data contain a NUL.
func IsLikelyBinary(data []byte) bool {
	n := len(data)
	if n > maxBinaryCheckBytes {
		n = maxBinaryCheckBytes
	}
	return bytes.IndexByte(data[:n], 0) != -1
}

// DecodeText strips a UTF-8 BOM and rejects binary or invalid UTF-8 input.
// The remaining bytes are returned unchanged.
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if IsLikelyBinary(data) {
		return "", fmt.Errorf("%w: looks like binary data", ErrNotText)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: invalid UTF-8 sequence", ErrNotText)
	}
	return string(data), nil
}
