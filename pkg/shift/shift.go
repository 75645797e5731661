// Package shift implements the filename character shift.
//
// Every ASCII letter moves one position back in its own 26-letter alphabet,
// wrapping 'a' to 'z' and 'A' to 'Z'. All other bytes, including digits,
// punctuation, separators and any non-ASCII UTF-8 sequence, are copied
// through unchanged, so the output always has the same byte length as the
// input.
package shift

import (
	"path/filepath"
	"strings"
)

// Name returns name with every ASCII letter replaced by its cyclic predecessor.
func Name(name string) string {
	return mapLetters(name, -1)
}

// Filename shifts the stem of a base name and keeps its extension as is, so
// "Bbc.txt" becomes "Aab.txt". A leading dot does not start an extension:
// ".profile" is shifted whole.
func Filename(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return Name(name)
	}
	return Name(strings.TrimSuffix(name, ext)) + ext
}

func mapLetters(s string, delta int) string {
	delta %= 26
	if delta < 0 {
		delta += 26
	}
	if delta == 0 || s == "" {
		return s
	}

	// Work on bytes: multi-byte runes never contain bytes in the ASCII
	// letter range, so they survive untouched.
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		b.WriteByte(rot(s[i], delta))
	}
	return b.String()
}

func rot(c byte, delta int) byte {
	switch {
	case c >= 'a' && c <= 'z':
		return 'a' + byte((int(c-'a')+delta)%26)
	case c >= 'A' && c <= 'Z':
		return 'A' + byte((int(c-'A')+delta)%26)
	default:
		return c
	}
}
