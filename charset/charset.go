// Package charset holds the fixed byte to glyph table shared by the
// tokeniser and the text store.
package charset

import (
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
)

// Terminator is the glyph that ends a display line.
const Terminator = '\r'

// Table maps every byte value to a glyph and every glyph of the table to
// its case-folded form.
type Table struct {
	decode [256]rune
	fold   map[rune]rune
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the shared Windows-1252 table. The 7-bit range is the
// identity mapping, control bytes included.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = FromCharmap(charmap.Windows1252)
	})
	return defaultTable
}

// FromCharmap builds a table from a single-byte charmap. ASCII bytes always
// decode to themselves so that PDF syntax stays readable whatever the
// high half looks like.
func FromCharmap(cm *charmap.Charmap) *Table {
	t := &Table{fold: make(map[rune]rune, 512)}
	for i := 0; i < 256; i++ {
		b := byte(i)
		if b < utf8.RuneSelf {
			t.decode[i] = rune(b)
		} else {
			r := cm.DecodeByte(b)
			if r == utf8.RuneError {
				r = rune(b)
			}
			t.decode[i] = r
		}
	}
	folder := cases.Fold()
	for _, r := range t.decode {
		t.fold[r] = foldRune(folder, r)
	}
	return t
}

func foldRune(c cases.Caser, r rune) rune {
	s := c.String(string(r))
	f, size := utf8.DecodeRuneInString(s)
	if f == utf8.RuneError || size != len(s) {
		// multi-rune folds (ß -> ss) keep the original glyph
		return r
	}
	return f
}

// Decode returns the glyph for b.
func (t *Table) Decode(b byte) rune { return t.decode[b] }

// FoldCase returns the canonical case-folded form of r. Glyphs that are not
// produced by the table are folded with the same rules, so user supplied
// search text compares consistently against decoded text.
func (t *Table) FoldCase(r rune) rune {
	if f, ok := t.fold[r]; ok {
		return f
	}
	return foldRune(cases.Fold(), r)
}
