// Package document holds the text of an opened file.
package document

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrRange is returned by edits outside the document.
var ErrRange = errors.New("document: offset out of range")

// Document is an in-memory text with a stable key. Offsets are byte offsets.
// Text is always valid UTF-8 with "\n" line endings.
type Document struct {
	Key        string
	Path       string
	LanguageID string
	// Version increases on every edit.
	Version int

	text  string
	lines []int // byte offset of every line start
}

// New creates a document. Invalid UTF-8 is replaced and CRLF folded to LF so
// byte offsets stay aligned with what the matcher sees.
func New(key, path, languageID, text string) *Document {
	d := &Document{Key: key, Path: path, LanguageID: languageID}
	d.setText(sanitize(text))
	return d
}

// Load reads path into a new document keyed by its absolute path.
func Load(path, languageID string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = "file://" + abs
	}
	return New(key, path, languageID, string(data)), nil
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return s
}

func (d *Document) setText(s string) {
	d.text = s
	d.lines = d.lines[:0]
	d.lines = append(d.lines, 0)
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			d.lines = append(d.lines, i+1)
		}
	}
}

// Text returns the full text.
func (d *Document) Text() string { return d.text }

// Len returns the length in bytes.
func (d *Document) Len() int { return len(d.text) }

// LineCount returns the number of lines; an empty document has one.
func (d *Document) LineCount() int { return len(d.lines) }

// Line returns line idx (0-based) without its newline.
func (d *Document) Line(idx int) string {
	start, end := d.LineBounds(idx)
	return d.text[start:end]
}

// LineBounds returns the byte range of line idx, newline excluded.
func (d *Document) LineBounds(idx int) (start, end int) {
	if idx < 0 || idx >= len(d.lines) {
		return 0, 0
	}
	start = d.lines[idx]
	if idx+1 < len(d.lines) {
		return start, d.lines[idx+1] - 1
	}
	return start, len(d.text)
}

// LineCol converts a byte offset into a 0-based line and a 0-based column
// counted in runes.
func (d *Document) LineCol(off int) (line, col int) {
	off = d.clamp(off)
	line = sort.Search(len(d.lines), func(i int) bool { return d.lines[i] > off }) - 1
	col = utf8.RuneCountInString(d.text[d.lines[line]:off])
	return line, col
}

// Offset converts a line and rune column back to a byte offset. Columns past
// the end of the line clamp to it.
func (d *Document) Offset(line, col int) int {
	if line < 0 {
		return 0
	}
	if line >= len(d.lines) {
		return len(d.text)
	}
	start, end := d.LineBounds(line)
	off := start
	for i := 0; i < col && off < end; i++ {
		_, size := utf8.DecodeRuneInString(d.text[off:])
		off += size
	}
	return off
}

// PrevRune returns the offset of the rune before off.
func (d *Document) PrevRune(off int) int {
	off = d.clamp(off)
	if off == 0 {
		return 0
	}
	_, size := utf8.DecodeLastRuneInString(d.text[:off])
	return off - size
}

// NextRune returns the offset of the rune after off.
func (d *Document) NextRune(off int) int {
	off = d.clamp(off)
	if off >= len(d.text) {
		return len(d.text)
	}
	_, size := utf8.DecodeRuneInString(d.text[off:])
	return off + size
}

// Insert inserts s at byte offset off.
func (d *Document) Insert(off int, s string) error {
	if off < 0 || off > len(d.text) {
		return ErrRange
	}
	d.setText(d.text[:off] + sanitize(s) + d.text[off:])
	d.Version++
	return nil
}

// Delete removes the bytes in [start, end).
func (d *Document) Delete(start, end int) error {
	if start < 0 || end > len(d.text) || start > end {
		return ErrRange
	}
	if start == end {
		return nil
	}
	d.setText(d.text[:start] + d.text[end:])
	d.Version++
	return nil
}

// SetText replaces the whole text.
func (d *Document) SetText(s string) {
	d.setText(sanitize(s))
	d.Version++
}

func (d *Document) clamp(off int) int {
	if off < 0 {
		return 0
	}
	if off > len(d.text) {
		return len(d.text)
	}
	return off
}
