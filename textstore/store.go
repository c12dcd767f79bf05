// Package textstore keeps the decoded, line-indexed text of a document and
// searches it in both directions.
package textstore

import (
	"sort"
	"sync/atomic"

	"github.com/wudi/pdfview/charset"
)

var storeIDs atomic.Uint64

// Line describes one display line: its decoded text and the half-open byte
// range it was decoded from, terminator excluded.
type Line struct {
	Text  string
	Start int64
	End   int64
}

type line struct {
	text  []rune
	start int64
	end   int64
}

// Store is an append-only sequence of display lines. It is not safe for
// concurrent use; callers that share a Store guard Append and Reset with a
// single-writer lock.
type Store struct {
	table  *charset.Table
	lines  []line
	offset int64
	id     uint64
	gen    uint64
}

// Option configures a Store.
type Option func(*Store)

// WithTable decodes bytes through t instead of charset.Default().
func WithTable(t *charset.Table) Option {
	return func(s *Store) { s.table = t }
}

// WithCapacity preallocates room for n lines.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > cap(s.lines) {
			s.lines = make([]line, 1, n)
		}
	}
}

// New returns an empty store holding a single open line.
func New(opts ...Option) *Store {
	s := &Store{
		table: charset.Default(),
		lines: make([]line, 1),
		id:    storeIDs.Add(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append decodes p and extends the open line. A decoded terminator closes
// the line and is not part of its text; every other glyph, LF included, is
// kept.
func (s *Store) Append(p []byte) {
	for _, b := range p {
		r := s.table.Decode(b)
		if r == charset.Terminator {
			s.lines[len(s.lines)-1].end = s.offset
			s.lines = append(s.lines, line{start: s.offset + 1})
		} else {
			last := &s.lines[len(s.lines)-1]
			last.text = append(last.text, r)
		}
		s.offset++
	}
}

// Write implements io.Writer. It never fails.
func (s *Store) Write(p []byte) (int, error) {
	s.Append(p)
	return len(p), nil
}

// Reset discards every line and leaves a single empty open line. hint only
// sizes the line storage. Selections taken before the reset become stale.
func (s *Store) Reset(hint int) {
	if hint < 1 {
		hint = 1
	}
	s.lines = make([]line, 1, hint)
	s.offset = 0
	s.gen++
}

// LineCount returns the number of lines, the open line included.
func (s *Store) LineCount() int { return len(s.lines) }

// Len returns the number of bytes appended since the last reset.
func (s *Store) Len() int64 { return s.offset }

// Line returns the decoded text of line i.
func (s *Store) Line(i int) string { return string(s.lines[i].text) }

// LineInfo returns line i together with its byte range.
func (s *Store) LineInfo(i int) Line {
	l := s.lines[i]
	end := l.end
	if i == len(s.lines)-1 {
		end = s.offset
	}
	return Line{Text: string(l.text), Start: l.start, End: end}
}

// Locate maps a byte offset to a display position. The offset of a line
// terminator maps to the terminator slot (char == -1) of the next line.
func (s *Store) Locate(offset int64) (lineNo, char int, ok bool) {
	if offset < 0 || offset >= s.offset {
		return 0, 0, false
	}
	i := sort.Search(len(s.lines), func(i int) bool { return s.lines[i].start > offset }) - 1
	if i < 0 {
		return 0, 0, false
	}
	if info := s.LineInfo(i); offset < info.End {
		return i, int(offset - info.Start), true
	}
	if i+1 < len(s.lines) {
		return i + 1, -1, true
	}
	return 0, 0, false
}

// Slice returns the logical text covered by sel, terminators included.
// A stale selection yields false.
func (s *Store) Slice(sel Selection) (string, bool) {
	if !s.current(sel) {
		return "", false
	}
	from := position{sel.StartLine, sel.StartChar}
	to := position{sel.EndLine, sel.EndChar}
	if !s.valid(from) || !s.valid(to) || to.before(from) {
		return "", false
	}
	var out []rune
	for p := from; ; {
		out = append(out, s.at(p))
		if p == to {
			break
		}
		p, _ = s.next(p)
	}
	return string(out), true
}
