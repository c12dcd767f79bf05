package textstore

import "github.com/wudi/pdfview/charset"

// position addresses one glyph of the logical stream. char == -1 is the
// virtual terminator that precedes every line but the first.
type position struct {
	line int
	char int
}

func (p position) before(q position) bool {
	if p.line != q.line {
		return p.line < q.line
	}
	return p.char < q.char
}

func (s *Store) valid(p position) bool {
	if p.line < 0 || p.line >= len(s.lines) {
		return false
	}
	if p.char == -1 {
		return p.line > 0
	}
	return p.char >= 0 && p.char < len(s.lines[p.line].text)
}

func (s *Store) at(p position) rune {
	if p.char == -1 {
		return charset.Terminator
	}
	return s.lines[p.line].text[p.char]
}

// positions is the length of the logical stream.
func (s *Store) positions() int {
	n := len(s.lines) - 1
	for _, l := range s.lines {
		n += len(l.text)
	}
	return n
}

func (s *Store) next(p position) (position, bool) {
	if p.char+1 < len(s.lines[p.line].text) {
		return position{p.line, p.char + 1}, true
	}
	if p.line+1 < len(s.lines) {
		return position{p.line + 1, -1}, true
	}
	return position{}, false
}

func (s *Store) prev(p position) (position, bool) {
	switch {
	case p.char > 0:
		return position{p.line, p.char - 1}, true
	case p.char == 0 && p.line > 0:
		return position{p.line, -1}, true
	case p.char == -1:
		return s.lastOf(p.line - 1)
	}
	return position{}, false
}

// lastOf is the final logical position of line i.
func (s *Store) lastOf(i int) (position, bool) {
	if n := len(s.lines[i].text); n > 0 {
		return position{i, n - 1}, true
	}
	if i > 0 {
		return position{i, -1}, true
	}
	return position{}, false
}

func (s *Store) first() (position, bool) {
	if len(s.lines[0].text) > 0 {
		return position{0, 0}, true
	}
	if len(s.lines) > 1 {
		return position{1, -1}, true
	}
	return position{}, false
}

func (s *Store) last() (position, bool) { return s.lastOf(len(s.lines) - 1) }

// step moves one position forward or backward, wrapping around the ends of
// the stream. The store must not be empty.
func (s *Store) step(p position, forward bool) position {
	if forward {
		if q, ok := s.next(p); ok {
			return q
		}
		q, _ := s.first()
		return q
	}
	if q, ok := s.prev(p); ok {
		return q
	}
	q, _ := s.last()
	return q
}
