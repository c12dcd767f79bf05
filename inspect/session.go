// Package inspect drives one inspection pass: it reads a document once,
// tokenises it, decodes it into display lines and indexes the clickable
// regions of the text view.
package inspect

import (
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/wudi/pdfview/charset"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/parser"
	"github.com/wudi/pdfview/textstore"
	"github.com/wudi/pdfview/token"
	"github.com/wudi/pdfview/viewer"
)

// Config controls a session. The zero value reads input of any size with
// the default table and no logging.
type Config struct {
	Parser        parser.Config
	Table         *charset.Table
	MaxInputBytes int64
	Logger        observability.Logger
	Tracer        observability.Tracer
}

// StreamInfo locates one stream payload in the input.
type StreamInfo struct {
	ID       token.ObjectID
	Offset   int64
	Length   int64
	Resolved bool
	Digest   [blake2b.Size256]byte
	Line     int
}

// Session is the result of one pass over a document.
type Session struct {
	data    []byte
	tokens  []token.Token
	store   *textstore.Store
	objects *viewer.Objects
	streams []StreamInfo
	byID    map[token.ObjectID]int
	log     observability.Logger
}

// Open reads r to the end and builds a session from it.
func Open(ctx context.Context, r io.Reader, cfg Config) (*Session, error) {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	ctx, span := tracer.StartSpan(ctx, "inspect.open")
	defer span.Finish()

	s, err := open(ctx, r, cfg)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.SetTag(observability.TagInputBytes, len(s.data))
	span.SetTag(observability.TagTokenCount, len(s.tokens))
	span.SetTag(observability.TagLineCount, s.store.LineCount())
	span.SetTag(observability.TagStreamCount, len(s.streams))
	span.SetTag(observability.TagObjectsCount, s.objects.ObjectsCount())
	return s, nil
}

func open(ctx context.Context, r io.Reader, cfg Config) (*Session, error) {
	log := observability.OrNop(cfg.Logger)
	var opts []textstore.Option
	if cfg.Table != nil {
		opts = append(opts, textstore.WithTable(cfg.Table))
	}
	s := &Session{
		store:   textstore.New(opts...),
		objects: viewer.New(0),
		byID:    make(map[token.ObjectID]int),
		log:     log,
	}

	if cfg.MaxInputBytes > 0 {
		r = io.LimitReader(r, cfg.MaxInputBytes+1)
	}
	var buf bytes.Buffer
	n, err := io.Copy(io.MultiWriter(&buf, s.store), r)
	if err != nil {
		return nil, errors.Wrap(err, "read input")
	}
	if cfg.MaxInputBytes > 0 && n > cfg.MaxInputBytes {
		return nil, errors.Errorf("input exceeds %d bytes", cfg.MaxInputBytes)
	}
	s.data = buf.Bytes()
	log.Debug("input loaded", observability.Int64("bytes", n), observability.Int("lines", s.store.LineCount()))

	pcfg := cfg.Parser
	if pcfg.Logger == nil {
		pcfg.Logger = log
	}
	tz := parser.NewBytes(s.data, pcfg)
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		tok, err := tz.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "tokenise at offset %d", tz.Position())
		}
		s.add(tok)
	}
	log.Info("document indexed",
		observability.Int("tokens", len(s.tokens)),
		observability.Int("streams", len(s.streams)),
		observability.Int("regions", s.objects.ObjectsCount()))
	return s, nil
}

func (s *Session) add(tok token.Token) {
	s.tokens = append(s.tokens, tok)
	var owner token.ObjectID
	if obj, ok := tok.(token.IndirectObject); ok {
		owner = obj.ID
		s.byID[obj.ID] = len(s.tokens) - 1
	}
	token.Walk(tok, func(t token.Token) bool {
		switch v := t.(type) {
		case token.Reference:
			s.addLink(v)
		case token.Stream:
			s.addStream(owner, v)
		}
		return true
	})
}

func (s *Session) addLink(ref token.Reference) {
	line, startX, endX, ok := s.span(ref.Pos, ref.End)
	if !ok {
		return
	}
	s.objects.AddLink(ref.ID, line, startX, endX)
}

func (s *Session) addStream(owner token.ObjectID, st token.Stream) {
	info := StreamInfo{
		ID:       owner,
		Offset:   st.Offset,
		Length:   st.Length,
		Resolved: st.LengthResolved,
		Digest:   blake2b.Sum256(st.Data),
		Line:     -1,
	}
	if line, startX, endX, ok := s.span(st.KeywordPos, st.KeywordPos+int64(len("stream"))); ok {
		s.objects.AddStream(owner, line, startX, endX)
		info.Line = line
	}
	s.streams = append(s.streams, info)
}

// span maps the byte range [pos, end) onto one display line. Ranges that
// run past their first line are cut at its end.
func (s *Session) span(pos, end int64) (line, startX, endX int, ok bool) {
	line, startX, ok = s.store.Locate(pos)
	if !ok || startX < 0 {
		return 0, 0, 0, false
	}
	lastLine, lastX, ok := s.store.Locate(end - 1)
	if ok && lastLine == line && lastX >= startX {
		return line, startX, lastX, true
	}
	info := s.store.LineInfo(line)
	return line, startX, max(startX, int(info.End-info.Start)-1), true
}

// Tokens returns the top-level tokens in input order.
func (s *Session) Tokens() []token.Token { return s.tokens }

// Store returns the display lines of the input.
func (s *Session) Store() *textstore.Store { return s.store }

// Objects returns the clickable regions of the display lines.
func (s *Session) Objects() *viewer.Objects { return s.objects }

// Streams returns every stream in input order.
func (s *Session) Streams() []StreamInfo { return s.streams }

// Bytes returns the raw input.
func (s *Session) Bytes() []byte { return s.data }

// Payload returns the raw bytes of a stream as they appear in the input.
func (s *Session) Payload(info StreamInfo) []byte {
	return s.data[info.Offset : info.Offset+info.Length]
}

// Lookup returns the last definition of the indirect object id.
func (s *Session) Lookup(id token.ObjectID) (token.IndirectObject, bool) {
	i, ok := s.byID[id]
	if !ok {
		return token.IndirectObject{}, false
	}
	return s.tokens[i].(token.IndirectObject), true
}

// Find searches the display lines; see textstore.Store.Find.
func (s *Session) Find(prev *textstore.Selection, needle string, forward, ignoreCase bool) (textstore.Selection, bool) {
	return s.store.Find(prev, needle, forward, ignoreCase)
}

// ObjectAt returns the clickable region under a display position.
func (s *Session) ObjectAt(line, column int) (viewer.Object, bool) {
	return s.objects.ObjectAt(line, column)
}

// Follow resolves a clickable region to the display position of the object
// it refers to. Links go to their anchor; stream regions go to the object
// owning the stream.
func (s *Session) Follow(obj viewer.Object) (line, char int, ok bool) {
	var id token.ObjectID
	switch o := obj.(type) {
	case viewer.Link:
		id = o.Anchor
	case viewer.StreamRegion:
		id = o.ID
	default:
		return 0, 0, false
	}
	target, ok := s.Lookup(id)
	if !ok {
		return 0, 0, false
	}
	return s.store.Locate(target.Pos)
}
