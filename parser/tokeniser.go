// Package parser assembles scanner lexemes into structured tokens:
// arrays, dictionaries, streams, references and indirect objects.
package parser

import (
	"errors"
	"io"

	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/recovery"
	"github.com/wudi/pdfview/scanner"
	"github.com/wudi/pdfview/token"
)

// DuplicateKeyPolicy selects what happens when a dictionary names the same
// key twice.
type DuplicateKeyPolicy int

const (
	// KeepLast replaces the earlier value; the key keeps its first position.
	KeepLast DuplicateKeyPolicy = iota
	// RejectDuplicates fails with a SyntaxError.
	RejectDuplicates
)

// Config controls tokenisation.
type Config struct {
	Scanner       scanner.Config
	DuplicateKeys DuplicateKeyPolicy
	Recovery      recovery.Strategy
	Logger        observability.Logger
}

// Tokeniser produces one top-level token per call to Next. It owns its
// scanner for the whole pass; start a new Tokeniser to re-read the input.
type Tokeniser struct {
	s       scanner.Scanner
	cfg     Config
	log     observability.Logger
	buf     []scanner.Token
	known   map[token.ObjectID]int64
	expect  *token.ObjectID
	current *token.ObjectID
}

func New(s scanner.Scanner, cfg Config) *Tokeniser {
	return &Tokeniser{
		s:     s,
		cfg:   cfg,
		log:   observability.OrNop(cfg.Logger),
		known: make(map[token.ObjectID]int64),
	}
}

// NewBytes tokenises an in-memory buffer.
func NewBytes(data []byte, cfg Config) *Tokeniser {
	return New(scanner.NewBytes(data, cfg.Scanner), cfg)
}

// Expect requires the next indirect object header to carry id.
func (t *Tokeniser) Expect(id token.ObjectID) { t.expect = &id }

// Position is the scanner offset after the last consumed lexeme.
func (t *Tokeniser) Position() int64 { return t.s.Position() }

// Next returns the next top-level token, or io.EOF once the input is
// exhausted between tokens. Grammar violations are *scanner.SyntaxError
// values unless the recovery strategy chooses to skip the damaged object.
func (t *Tokeniser) Next() (token.Token, error) {
	for {
		tok, err := t.nextTop()
		if err == nil || errors.Is(err, io.EOF) {
			return tok, err
		}
		var se *scanner.SyntaxError
		if t.cfg.Recovery == nil || !errors.As(err, &se) {
			return nil, err
		}
		loc := recovery.Location{ByteOffset: se.Offset, Component: "parser"}
		if t.current != nil {
			loc.ObjectNum, loc.ObjectGen, loc.InObject = t.current.Number, t.current.Generation, true
		}
		t.current = nil
		switch t.cfg.Recovery.OnError(err, loc) {
		case recovery.ActionSkip:
			t.log.Warn("skipping damaged object", observability.Int64("offset", se.Offset), observability.String("reason", se.Reason))
			t.buf = t.buf[:0]
			found, serr := t.s.SkipPast("endobj")
			if serr != nil {
				return nil, serr
			}
			if !found {
				return nil, io.EOF
			}
		case recovery.ActionWarn:
			t.log.Warn("syntax error", observability.Int64("offset", se.Offset), observability.String("reason", se.Reason))
			return nil, err
		default:
			return nil, err
		}
	}
}

func (t *Tokeniser) nextTop() (token.Token, error) {
	lx, err := t.read()
	if err != nil {
		return nil, err
	}
	return t.parseValue(lx)
}

func (t *Tokeniser) read() (scanner.Token, error) {
	if l := len(t.buf); l > 0 {
		lx := t.buf[l-1]
		t.buf = t.buf[:l-1]
		return lx, nil
	}
	return t.s.Next()
}

func (t *Tokeniser) unread(lx scanner.Token) { t.buf = append(t.buf, lx) }

// readIn reads a lexeme that must exist because a construct opened at pos
// is still unfinished.
func (t *Tokeniser) readIn(pos int64, what string) (scanner.Token, error) {
	lx, err := t.read()
	if errors.Is(err, io.EOF) {
		return lx, scanner.Errorf(pos, "unterminated %s", what)
	}
	return lx, err
}

func (t *Tokeniser) parseValue(lx scanner.Token) (token.Token, error) {
	switch lx.Type {
	case scanner.TokenInteger:
		return t.parseNumberOrObject(lx)
	case scanner.TokenReal:
		return token.Real{Text: lx.Str}, nil
	case scanner.TokenName:
		return token.Name(lx.Str), nil
	case scanner.TokenLiteralString:
		return token.LiteralString(lx.Bytes), nil
	case scanner.TokenHexString:
		return token.HexString(lx.Bytes), nil
	case scanner.TokenBoolean:
		return token.Boolean(lx.Bool), nil
	case scanner.TokenNull:
		return token.Null{}, nil
	case scanner.TokenKeyword:
		return token.Keyword(lx.Str), nil
	case scanner.TokenArrayOpen:
		return t.parseArray(lx)
	case scanner.TokenDictOpen:
		return t.parseDict(lx)
	case scanner.TokenStream:
		return nil, scanner.Errorf(lx.Pos, "stream without dictionary")
	}
	return nil, scanner.Errorf(lx.Pos, "unexpected %v", lx.Type)
}

func isObjectNumber(lx scanner.Token) bool {
	return lx.Type == scanner.TokenInteger && !lx.Signed && lx.Int >= 0 && lx.Int <= 0xFFFFFFFF
}

// parseNumberOrObject looks two lexemes ahead for "n g R" and "n g obj".
func (t *Tokeniser) parseNumberOrObject(first scanner.Token) (token.Token, error) {
	if !isObjectNumber(first) {
		return token.Integer(first.Int), nil
	}
	second, err := t.read()
	if errors.Is(err, io.EOF) {
		return token.Integer(first.Int), nil
	}
	if err != nil {
		return nil, err
	}
	if !isObjectNumber(second) {
		t.unread(second)
		return token.Integer(first.Int), nil
	}
	third, err := t.read()
	if errors.Is(err, io.EOF) {
		t.unread(second)
		return token.Integer(first.Int), nil
	}
	if err != nil {
		return nil, err
	}
	id := token.ObjectID{Number: uint32(first.Int), Generation: uint32(second.Int)}
	if third.Type == scanner.TokenKeyword {
		switch third.Str {
		case "R":
			return token.Reference{ID: id, Pos: first.Pos, End: third.End}, nil
		case "obj":
			return t.parseIndirect(id, first.Pos)
		}
	}
	t.unread(third)
	t.unread(second)
	return token.Integer(first.Int), nil
}

func (t *Tokeniser) parseIndirect(id token.ObjectID, pos int64) (token.Token, error) {
	if want := t.expect; want != nil {
		t.expect = nil
		if want.Number != id.Number {
			return nil, scanner.Errorf(pos, "expected object %d, found %d", want.Number, id.Number)
		}
		if want.Generation != id.Generation {
			return nil, scanner.Errorf(pos, "generation mismatch for object %d: expected %d, found %d", id.Number, want.Generation, id.Generation)
		}
	}
	t.current = &id
	lx, err := t.readIn(pos, "object")
	if err != nil {
		return nil, err
	}
	var value token.Token = token.Null{}
	if lx.Type == scanner.TokenKeyword && lx.Str == "endobj" {
		t.current = nil
		return token.IndirectObject{ID: id, Value: value, Pos: pos, End: lx.End}, nil
	}
	if value, err = t.parseValue(lx); err != nil {
		return nil, err
	}
	end, err := t.readIn(pos, "object: missing endobj")
	if err != nil {
		return nil, err
	}
	if end.Type != scanner.TokenKeyword || end.Str != "endobj" {
		return nil, scanner.Errorf(end.Pos, "expected endobj for object %d %d, found %v", id.Number, id.Generation, end.Type)
	}
	if n, ok := value.(token.Integer); ok {
		t.known[id] = int64(n)
	}
	t.current = nil
	return token.IndirectObject{ID: id, Value: value, Pos: pos, End: end.End}, nil
}

func (t *Tokeniser) parseArray(open scanner.Token) (token.Token, error) {
	arr := token.Array{}
	for {
		lx, err := t.readIn(open.Pos, "array")
		if err != nil {
			return nil, err
		}
		if lx.Type == scanner.TokenArrayClose {
			return arr, nil
		}
		item, err := t.parseValue(lx)
		if err != nil {
			return nil, err
		}
		arr = append(arr, item)
	}
}

func (t *Tokeniser) parseDict(open scanner.Token) (token.Token, error) {
	d := token.NewDictionary(4)
	for {
		lx, err := t.readIn(open.Pos, "dictionary")
		if err != nil {
			return nil, err
		}
		if lx.Type == scanner.TokenDictClose {
			break
		}
		if lx.Type != scanner.TokenName {
			return nil, scanner.Errorf(lx.Pos, "dictionary key must be a name, found %v", lx.Type)
		}
		key := token.Name(lx.Str)
		vx, err := t.readIn(open.Pos, "dictionary")
		if err != nil {
			return nil, err
		}
		if vx.Type == scanner.TokenDictClose {
			return nil, scanner.Errorf(vx.Pos, "missing value for key /%s", key)
		}
		val, err := t.parseValue(vx)
		if err != nil {
			return nil, err
		}
		if !d.Set(key, val) && t.cfg.DuplicateKeys == RejectDuplicates {
			return nil, scanner.Errorf(lx.Pos, "duplicate dictionary key /%s", key)
		}
	}
	return t.maybeStream(d)
}

// maybeStream declares the stream length to the scanner before looking at
// the lexeme after a dictionary, because the scanner extracts the payload as
// soon as it meets the stream keyword. A length taken from a referenced
// object that does not fit the payload is dropped and the stream is scanned
// again for its endstream marker.
func (t *Tokeniser) maybeStream(d *token.Dictionary) (token.Token, error) {
	length, fromRef, lengthErr := t.streamLength(d)
	hinted := len(t.buf) == 0
	pos := t.s.Position()
	if hinted {
		t.s.SetNextStreamLength(length)
	}
	lx, err := t.read()
	t.s.SetNextStreamLength(-1)
	var se *scanner.SyntaxError
	if hinted && fromRef && length >= 0 && errors.As(err, &se) {
		t.log.Debug("referenced stream Length does not fit, scanning for endstream",
			observability.Int64("offset", se.Offset), observability.Int64("length", length))
		if serr := t.s.Seek(pos); serr != nil {
			return nil, serr
		}
		lx, err = t.read()
	}
	if errors.Is(err, io.EOF) {
		return d, nil
	}
	if err != nil {
		return nil, err
	}
	if lx.Type != scanner.TokenStream {
		t.unread(lx)
		return d, nil
	}
	if lengthErr != nil {
		return nil, lengthErr
	}
	if !lx.Resolved {
		t.log.Debug("stream length not known, scanned for endstream",
			observability.Int64("offset", lx.Offset), observability.Int64("length", lx.Length),
			observability.Bool("referenced", fromRef))
	}
	return token.Stream{
		Dict:           d,
		Offset:         lx.Offset,
		Length:         lx.Length,
		LengthResolved: lx.Resolved,
		KeywordPos:     lx.Pos,
		Data:           lx.Bytes,
	}, nil
}

// streamLength returns the declared payload length, or -1 when the payload
// has to be found by scanning. References resolve only to integer objects
// already seen earlier in this pass; fromRef reports that the length came
// from one.
func (t *Tokeniser) streamLength(d *token.Dictionary) (n int64, fromRef bool, err error) {
	v, ok := d.Get("Length")
	if !ok {
		return -1, false, nil
	}
	switch l := v.(type) {
	case token.Integer:
		if l < 0 {
			return -1, false, scanner.Errorf(t.s.Position(), "negative stream Length %d", int64(l))
		}
		return int64(l), false, nil
	case token.Reference:
		if n, ok := t.known[l.ID]; ok && n >= 0 {
			return n, true, nil
		}
		return -1, true, nil
	}
	return -1, false, scanner.Errorf(t.s.Position(), "stream Length must be an integer or reference, found %v", v.Kind())
}
