package textstore

import "fmt"

// Selection is a closed span of the logical stream: Start and End address
// the first and last glyph. A char of -1 addresses the terminator in front
// of the line. Selections only remember which store produced them and at
// which generation; they never keep the store alive.
type Selection struct {
	StartLine int
	StartChar int
	EndLine   int
	EndChar   int

	store uint64
	gen   uint64
}

// current reports whether sel was produced by s since its last reset.
// A selection from another store is a programming error.
func (s *Store) current(sel Selection) bool {
	if sel.store != s.id {
		panic(fmt.Sprintf("textstore: selection from store %d used with store %d", sel.store, s.id))
	}
	return sel.gen == s.gen
}

// Find looks for needle in the logical stream, where lines are joined by
// the terminator glyph.
//
// Without prev the scan starts at the first glyph (forward) or the last one
// (backward). With prev it resumes one position after (or before) the start
// of prev, so overlapping matches are found on repeated calls, and it wraps
// once around the store until it is back at prev's start. A stale prev is
// treated as absent. ignoreCase folds both sides through the store's table.
func (s *Store) Find(prev *Selection, needle string, forward, ignoreCase bool) (Selection, bool) {
	want := []rune(needle)
	total := s.positions()
	if len(want) == 0 || total == 0 {
		return Selection{}, false
	}
	if ignoreCase {
		for i, r := range want {
			want[i] = s.table.FoldCase(r)
		}
	}

	var p position
	if prev != nil && s.current(*prev) && s.valid(position{prev.StartLine, prev.StartChar}) {
		p = s.step(position{prev.StartLine, prev.StartChar}, forward)
	} else if forward {
		p, _ = s.first()
	} else {
		p, _ = s.last()
	}

	for n := 0; n < total; n++ {
		if end, ok := s.matchAt(p, want, ignoreCase); ok {
			return Selection{
				StartLine: p.line,
				StartChar: p.char,
				EndLine:   end.line,
				EndChar:   end.char,
				store:     s.id,
				gen:       s.gen,
			}, true
		}
		p = s.step(p, forward)
	}
	return Selection{}, false
}

// matchAt compares want against the stream starting at p without wrapping
// and returns the position of the last matched glyph.
func (s *Store) matchAt(p position, want []rune, ignoreCase bool) (position, bool) {
	for i, w := range want {
		if i > 0 {
			var ok bool
			if p, ok = s.next(p); !ok {
				return position{}, false
			}
		}
		r := s.at(p)
		if ignoreCase {
			r = s.table.FoldCase(r)
		}
		if r != w {
			return position{}, false
		}
	}
	return p, true
}
