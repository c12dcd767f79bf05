// Package viewer indexes the clickable regions of a text view by display
// line and column.
package viewer

import (
	"fmt"
	"sort"

	"github.com/wudi/pdfview/token"
)

// Object is a clickable region covering the inclusive columns
// [StartX, EndX] of one display line.
type Object interface {
	Span() (line, startX, endX int)
	isObject()
}

// Link points at the indirect object named by Anchor.
type Link struct {
	Anchor token.ObjectID
	Line   int
	StartX int
	EndX   int
}

func (l Link) Span() (int, int, int) { return l.Line, l.StartX, l.EndX }
func (Link) isObject()               {}

// StreamRegion marks the payload of the stream belonging to object ID.
type StreamRegion struct {
	ID     token.ObjectID
	Line   int
	StartX int
	EndX   int
}

func (r StreamRegion) Span() (int, int, int) { return r.Line, r.StartX, r.EndX }
func (StreamRegion) isObject()               {}

// Objects owns one bucket per display line, each ordered by StartX.
// It is not safe for concurrent use.
type Objects struct {
	lines [][]Object
	count int
	shown int
}

// New returns an empty index sized for hint lines.
func New(hint int) *Objects {
	o := &Objects{}
	o.Reset(hint)
	return o
}

// Reset drops every object. hint sizes the bucket storage only.
func (o *Objects) Reset(hint int) {
	if hint < 0 {
		panic(fmt.Sprintf("viewer: negative line hint %d", hint))
	}
	o.lines = make([][]Object, 0, hint)
	o.count = 0
	o.shown = 0
}

// AddLink registers a link to anchor on the given columns of line.
func (o *Objects) AddLink(anchor token.ObjectID, line, startX, endX int) Link {
	l := Link{Anchor: anchor, Line: line, StartX: startX, EndX: endX}
	o.insert(l)
	return l
}

// AddStream registers the stream of object id on the given columns of line.
func (o *Objects) AddStream(id token.ObjectID, line, startX, endX int) StreamRegion {
	r := StreamRegion{ID: id, Line: line, StartX: startX, EndX: endX}
	o.insert(r)
	return r
}

func (o *Objects) insert(obj Object) {
	line, startX, endX := obj.Span()
	if line < 0 || startX < 0 || startX > endX {
		panic(fmt.Sprintf("viewer: invalid region line=%d start=%d end=%d", line, startX, endX))
	}
	if line >= len(o.lines) {
		if line >= cap(o.lines) {
			grown := make([][]Object, len(o.lines), max(2*cap(o.lines), line+1))
			copy(grown, o.lines)
			o.lines = grown
		}
		o.lines = o.lines[:line+1]
	}
	bucket := o.lines[line]
	i := sort.Search(len(bucket), func(i int) bool {
		_, s, _ := bucket[i].Span()
		return s > startX
	})
	bucket = append(bucket, nil)
	copy(bucket[i+1:], bucket[i:])
	bucket[i] = obj
	o.lines[line] = bucket
	o.count++
	o.shown = max(o.shown, line+1)
}

// ObjectAt returns the object whose column range contains column on line.
// When ranges overlap the one starting last wins.
func (o *Objects) ObjectAt(line, column int) (Object, bool) {
	if line < 0 || column < 0 {
		panic(fmt.Sprintf("viewer: invalid position line=%d column=%d", line, column))
	}
	if line >= len(o.lines) {
		return nil, false
	}
	bucket := o.lines[line]
	i := sort.Search(len(bucket), func(i int) bool {
		_, s, _ := bucket[i].Span()
		return s > column
	})
	for i--; i >= 0; i-- {
		if _, _, e := bucket[i].Span(); e >= column {
			return bucket[i], true
		}
	}
	return nil, false
}

// Line returns the objects on line i in StartX order. The slice is shared
// with the index and must not be modified.
func (o *Objects) Line(i int) []Object {
	if i < 0 || i >= len(o.lines) {
		return nil
	}
	return o.lines[i]
}

// ObjectsCount is the number of objects added since the last reset.
func (o *Objects) ObjectsCount() int { return o.count }

// DisplayLinesCount is one past the highest line holding an object.
func (o *Objects) DisplayLinesCount() int { return o.shown }
