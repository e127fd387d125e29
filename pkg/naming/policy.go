// Package naming derives collision-free, filesystem-safe file names from
// document display names.
package naming

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/lectern/pkg/core"
)

// DefaultMaxLength is the longest file name (in bytes, extension excluded)
// produced by a zero Policy.
const DefaultMaxLength = 200

// FallbackPrefix starts every identifier-derived name. Resolve never yields
// a name with this prefix.
const FallbackPrefix = "~"

const reserved = `<>:"/\|?*`

// hashSuffixLen is the length of "-" followed by 8 hex digits.
const hashSuffixLen = 9

var deviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Policy turns documents into file names.
type Policy struct {
	// MaxLength bounds the name in bytes. Zero means DefaultMaxLength.
	MaxLength int
}

func (p Policy) maxLength() int {
	if p.MaxLength <= hashSuffixLen {
		if p.MaxLength <= 0 {
			return DefaultMaxLength
		}
		return hashSuffixLen + 1
	}
	return p.MaxLength
}

// Resolve derives the preferred file name (without extension) of doc.
func (p Policy) Resolve(doc *core.Document) string {
	name := Sanitize(doc.Name)
	if name == "" {
		return CompactID(doc.ID)
	}
	return p.truncate(name)
}

// Fallback derives the identifier-based file name used when the preferred
// one is taken.
func (p Policy) Fallback(doc *core.Document) string {
	return FallbackPrefix + CompactID(doc.ID)
}

// IsFallback reports whether a file name (with or without extension) lives in
// the fallback namespace.
func IsFallback(name string) bool {
	return strings.HasPrefix(filepath.Base(name), FallbackPrefix)
}

// CompactID strips the dashes of a UUID.
func CompactID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

// Sanitize maps name to a portable file name. It may return an empty string.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == utf8.RuneError || unicode.IsControl(r) || strings.ContainsRune(reserved, r) {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}

	out := strings.TrimSpace(b.String())
	out = strings.TrimRight(out, ". ")
	if out == "" {
		return ""
	}
	if out[0] == '.' || strings.HasPrefix(out, FallbackPrefix) {
		out = "_" + out[1:]
	}

	stem := out
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	if deviceNames[strings.ToUpper(strings.TrimSpace(stem))] {
		out = stem + "_" + out[len(stem):]
	}
	return out
}

func (p Policy) truncate(name string) string {
	limit := p.maxLength()
	if len(name) <= limit {
		return name
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	suffix := fmt.Sprintf("-%08x", h.Sum32())

	cut := limit - len(suffix)
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	head := strings.TrimRight(name[:cut], ". ")
	return head + suffix
}
