package scanner

import (
	"bytes"
	"errors"
	"io"

	"github.com/tdewolff/parse/v2/strconv"
)

type TokenType int

const (
	TokenDictOpen      TokenType = iota // '<<'
	TokenDictClose                      // '>>'
	TokenArrayOpen                      // '['
	TokenArrayClose                     // ']'
	TokenName                           // '/Name'
	TokenLiteralString                  // (...)
	TokenHexString                      // <...>
	TokenInteger                        // 12, -3
	TokenReal                           // 1.5, -.002
	TokenBoolean                        // true/false
	TokenNull                           // null
	TokenKeyword                        // obj, endobj, R, xref, operators
	TokenStream                         // payload following the 'stream' keyword
)

var tokenTypeNames = [...]string{
	TokenDictOpen:      "<<",
	TokenDictClose:     ">>",
	TokenArrayOpen:     "[",
	TokenArrayClose:    "]",
	TokenName:          "name",
	TokenLiteralString: "string",
	TokenHexString:     "hexstring",
	TokenInteger:       "integer",
	TokenReal:          "real",
	TokenBoolean:       "boolean",
	TokenNull:          "null",
	TokenKeyword:       "keyword",
	TokenStream:        "stream",
}

func (t TokenType) String() string {
	if t < 0 || int(t) >= len(tokenTypeNames) {
		return "invalid"
	}
	return tokenTypeNames[t]
}

// Token is a single lexeme. Pos is the offset of its first byte and End the
// offset just past its last byte.
//
// Str holds name and keyword text and the normalized number text. Bytes
// holds string contents (verbatim) and stream payloads. For streams Offset
// and Length locate the payload and Resolved reports whether the length was
// supplied through SetNextStreamLength. Signed marks numbers written with
// an explicit sign.
type Token struct {
	Type     TokenType
	Pos      int64
	End      int64
	Str      string
	Bytes    []byte
	Int      int64
	Bool     bool
	Offset   int64
	Length   int64
	Resolved bool
	Signed   bool
}

type Scanner interface {
	Next() (Token, error)
	Position() int64
	Seek(offset int64) error
	SetNextStreamLength(n int64)
	// SkipPast moves behind the next occurrence of keyword that stands
	// on its own and reports whether one was found.
	SkipPast(keyword string) (bool, error)
}

type Config struct {
	MaxStringLength int64
	MaxArrayDepth   int
	MaxDictDepth    int
	MaxStreamLength int64
	MaxStreamScan   int64
	WindowSize      int64
}

type ReaderAt interface {
	ReadAt(p []byte, off int64) (n int, err error)
}

// pdfScanner incrementally buffers PDF data from a ReaderAt in fixed-size windows.
type pdfScanner struct {
	reader        ReaderAt
	data          []byte
	pos           int64
	cfg           Config
	nextStreamLen int64
	chunkSize     int64
	eof           bool
	arrayDepth    int
	dictDepth     int
}

// New returns a scanner that pulls data from r as it is needed.
func New(r ReaderAt, cfg Config) Scanner {
	chunk := cfg.WindowSize
	if chunk <= 0 {
		chunk = 64 * 1024
	}
	return &pdfScanner{reader: r, cfg: cfg, nextStreamLen: -1, chunkSize: chunk}
}

// NewBytes returns a scanner over an in-memory buffer. The buffer is not
// copied and must not change while the scanner is in use.
func NewBytes(data []byte, cfg Config) Scanner {
	return &pdfScanner{data: data, cfg: cfg, nextStreamLen: -1, eof: true}
}

func (s *pdfScanner) Position() int64 { return s.pos }
func (s *pdfScanner) Seek(offset int64) error {
	if offset < 0 {
		return errors.New("seek out of range")
	}
	if err := s.ensure(offset - 1); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if offset > int64(len(s.data)) {
		return errors.New("seek out of range")
	}
	s.pos = offset
	s.arrayDepth, s.dictDepth = 0, 0
	return nil
}

// SetNextStreamLength declares the payload length of the next stream. A
// negative value makes the scanner search for the endstream keyword.
func (s *pdfScanner) SetNextStreamLength(n int64) { s.nextStreamLen = n }

func (s *pdfScanner) Next() (Token, error) {
	if err := s.skipWSAndComments(); err != nil {
		return Token{}, err
	}
	start := s.pos
	c := s.data[s.pos]
	switch c {
	case '<':
		if s.peekAhead(1) == '<' {
			s.pos += 2
			return s.emit(Token{Type: TokenDictOpen, Pos: start, End: s.pos})
		}
		return s.scanHexString()
	case '>':
		if s.peekAhead(1) == '>' {
			s.pos += 2
			return s.emit(Token{Type: TokenDictClose, Pos: start, End: s.pos})
		}
		return Token{}, syntaxErrorf(start, "unexpected '>'")
	case '[':
		s.pos++
		return s.emit(Token{Type: TokenArrayOpen, Pos: start, End: s.pos})
	case ']':
		s.pos++
		return s.emit(Token{Type: TokenArrayClose, Pos: start, End: s.pos})
	case '(':
		return s.scanLiteralString()
	case ')':
		return Token{}, syntaxErrorf(start, "unbalanced ')'")
	case '/':
		return s.scanName()
	case '{', '}':
		s.pos++
		return Token{Type: TokenKeyword, Str: string(c), Pos: start, End: s.pos}, nil
	}
	if isNumberStart(c) {
		return s.scanNumber()
	}
	return s.scanKeyword()
}

// Helpers
func (s *pdfScanner) skipWSAndComments() error {
	for {
		if err := s.ensure(s.pos); err != nil {
			return err
		}
		c := s.data[s.pos]
		if isWhitespace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for {
				s.pos++
				if err := s.ensure(s.pos); err != nil {
					return err
				}
				if isEOL(s.data[s.pos]) {
					break
				}
			}
			continue
		}
		return nil
	}
}

// ensure makes data[n] addressable, returning io.EOF when the input is
// shorter than that.
func (s *pdfScanner) ensure(n int64) error {
	for int64(len(s.data)) <= n {
		if s.eof {
			return io.EOF
		}
		if err := s.loadMore(); err != nil {
			return err
		}
	}
	return nil
}

func (s *pdfScanner) loadMore() error {
	buf := make([]byte, s.chunkSize)
	off := int64(len(s.data))
	n, err := s.reader.ReadAt(buf, off)
	if n > 0 {
		s.data = append(s.data, buf[:n]...)
	}
	if err == io.EOF {
		s.eof = true
		return nil
	}
	if err != nil {
		return err
	}
	if n == 0 {
		s.eof = true
	}
	return nil
}

// at returns the byte at offset i, or ok=false past the end of input.
func (s *pdfScanner) at(i int64) (byte, bool, error) {
	if err := s.ensure(i); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return s.data[i], true, nil
}

func isNumberStart(c byte) bool { return c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') }

// regularRun consumes bytes up to the next delimiter.
func (s *pdfScanner) regularRun() ([]byte, error) {
	start := s.pos
	for {
		c, ok, err := s.at(s.pos)
		if err != nil {
			return nil, err
		}
		if !ok || isDelimiter(c) {
			break
		}
		s.pos++
	}
	return s.data[start:s.pos], nil
}

func (s *pdfScanner) scanName() (Token, error) {
	start := s.pos
	s.pos++ // skip '/'
	run, err := s.regularRun()
	if err != nil {
		return Token{}, err
	}
	if s.cfg.MaxStringLength > 0 && int64(len(run)) > s.cfg.MaxStringLength {
		return Token{}, syntaxErrorf(start, "name too long")
	}
	return s.emit(Token{Type: TokenName, Str: string(run), Pos: start, End: s.pos})
}

// scanLiteralString keeps the string body exactly as written. Escaped
// parentheses do not change the nesting depth.
func (s *pdfScanner) scanLiteralString() (Token, error) {
	start := s.pos
	s.pos++ // skip '('
	var buf bytes.Buffer
	depth := 1
	for {
		c, ok, err := s.at(s.pos)
		if err != nil {
			return Token{}, err
		}
		if !ok {
			return Token{}, syntaxErrorf(start, "unterminated literal string")
		}
		switch c {
		case '\\':
			buf.WriteByte(c)
			s.pos++
			esc, ok, err := s.at(s.pos)
			if err != nil {
				return Token{}, err
			}
			if !ok {
				return Token{}, syntaxErrorf(start, "unterminated literal string")
			}
			buf.WriteByte(esc)
			s.pos++
		case '(':
			depth++
			buf.WriteByte(c)
			s.pos++
		case ')':
			depth--
			s.pos++
			if depth == 0 {
				return s.emit(Token{Type: TokenLiteralString, Bytes: buf.Bytes(), Pos: start, End: s.pos})
			}
			buf.WriteByte(c)
		default:
			buf.WriteByte(c)
			s.pos++
		}
		if s.cfg.MaxStringLength > 0 && int64(buf.Len()) > s.cfg.MaxStringLength {
			return Token{}, syntaxErrorf(start, "literal string too long")
		}
	}
}

// scanHexString returns the source text of the string, brackets included.
func (s *pdfScanner) scanHexString() (Token, error) {
	start := s.pos
	s.pos++ // skip '<'
	for {
		c, ok, err := s.at(s.pos)
		if err != nil {
			return Token{}, err
		}
		if !ok {
			return Token{}, syntaxErrorf(start, "unterminated hex string")
		}
		s.pos++
		if c == '>' {
			break
		}
		if !isWhitespace(c) && !isHexDigit(c) {
			return Token{}, syntaxErrorf(s.pos-1, "invalid hex digit %q", c)
		}
		if s.cfg.MaxStringLength > 0 && (s.pos-start)/2 > s.cfg.MaxStringLength {
			return Token{}, syntaxErrorf(start, "hex string too long")
		}
	}
	raw := append([]byte(nil), s.data[start:s.pos]...)
	return s.emit(Token{Type: TokenHexString, Bytes: raw, Pos: start, End: s.pos})
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

// skipStreamEOL consumes the single end-of-line marker that separates the
// stream keyword from its data.
func (s *pdfScanner) skipStreamEOL() (bool, error) {
	c, ok, err := s.at(s.pos)
	if err != nil || !ok {
		return false, err
	}
	switch c {
	case '\r':
		s.pos++
		if n, ok, err := s.at(s.pos); err != nil {
			return false, err
		} else if ok && n == '\n' {
			s.pos++
		}
		return true, nil
	case '\n':
		s.pos++
		return true, nil
	}
	return false, nil
}

var endstream = []byte("endstream")

// scanStream reads the payload after the 'stream' keyword at start. With a
// declared length exactly that many bytes are taken and endstream must
// follow; otherwise the data runs up to the first endstream followed by a
// delimiter, minus one line break directly before it.
func (s *pdfScanner) scanStream(start int64) (Token, error) {
	declared := s.nextStreamLen
	s.nextStreamLen = -1
	if ok, err := s.skipStreamEOL(); err != nil {
		return Token{}, err
	} else if !ok {
		return Token{}, syntaxErrorf(s.pos, "stream missing EOL before data")
	}
	dataStart := s.pos
	if declared >= 0 {
		return s.readDeclaredStream(start, dataStart, declared)
	}
	idx := int64(-1)
	for i := dataStart; ; i++ {
		if err := s.ensure(i + int64(len(endstream)) - 1); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Token{}, err
		}
		if s.cfg.MaxStreamScan > 0 && i-dataStart > s.cfg.MaxStreamScan {
			return Token{}, syntaxErrorf(dataStart, "endstream not found within scan limit")
		}
		if s.data[i] != 'e' || !bytes.Equal(s.data[i:i+int64(len(endstream))], endstream) {
			continue
		}
		after, ok, err := s.at(i + int64(len(endstream)))
		if err != nil {
			return Token{}, err
		}
		if ok && !isDelimiter(after) {
			continue
		}
		idx = i
		break
	}
	if idx < 0 {
		return Token{}, syntaxErrorf(start, "unterminated stream: endstream not found")
	}
	// exactly one line break before the marker belongs to the syntax
	end := idx
	if end > dataStart && s.data[end-1] == '\n' {
		end--
		if end > dataStart && s.data[end-1] == '\r' {
			end--
		}
	} else if end > dataStart && s.data[end-1] == '\r' {
		end--
	}
	if s.cfg.MaxStreamLength > 0 && end-dataStart > s.cfg.MaxStreamLength {
		return Token{}, syntaxErrorf(dataStart, "stream too long")
	}
	s.pos = idx + int64(len(endstream))
	return s.emit(Token{
		Type:   TokenStream,
		Bytes:  append([]byte(nil), s.data[dataStart:end]...),
		Pos:    start,
		End:    s.pos,
		Offset: dataStart,
		Length: end - dataStart,
	})
}

func (s *pdfScanner) readDeclaredStream(start, dataStart, n int64) (Token, error) {
	if s.cfg.MaxStreamLength > 0 && n > s.cfg.MaxStreamLength {
		return Token{}, syntaxErrorf(dataStart, "stream too long")
	}
	end := dataStart + n
	if n > 0 {
		if err := s.ensure(end - 1); err != nil {
			if errors.Is(err, io.EOF) {
				return Token{}, syntaxErrorf(start, "unterminated stream: declared length %d exceeds input", n)
			}
			return Token{}, err
		}
	}
	s.pos = end
	for {
		c, ok, err := s.at(s.pos)
		if err != nil {
			return Token{}, err
		}
		if !ok || !isWhitespace(c) {
			break
		}
		s.pos++
	}
	if err := s.ensure(s.pos + int64(len(endstream)) - 1); err != nil && !errors.Is(err, io.EOF) {
		return Token{}, err
	}
	markerEnd := s.pos + int64(len(endstream))
	if markerEnd > int64(len(s.data)) || !bytes.Equal(s.data[s.pos:markerEnd], endstream) {
		return Token{}, syntaxErrorf(s.pos, "missing endstream after %d bytes of stream data", n)
	}
	if after, ok, err := s.at(markerEnd); err != nil {
		return Token{}, err
	} else if ok && !isDelimiter(after) {
		return Token{}, syntaxErrorf(s.pos, "missing endstream after %d bytes of stream data", n)
	}
	s.pos = markerEnd
	return s.emit(Token{
		Type:     TokenStream,
		Bytes:    append([]byte(nil), s.data[dataStart:end]...),
		Pos:      start,
		End:      s.pos,
		Offset:   dataStart,
		Length:   n,
		Resolved: true,
	})
}

// SkipPast is used to resynchronise after a damaged object.
func (s *pdfScanner) SkipPast(keyword string) (bool, error) {
	kw := []byte(keyword)
	for i := s.pos; ; i++ {
		if err := s.ensure(i + int64(len(kw)) - 1); err != nil {
			if errors.Is(err, io.EOF) {
				s.pos = int64(len(s.data))
				return false, nil
			}
			return false, err
		}
		if !bytes.Equal(s.data[i:i+int64(len(kw))], kw) {
			continue
		}
		if i > 0 && !isDelimiter(s.data[i-1]) {
			continue
		}
		after, ok, err := s.at(i + int64(len(kw)))
		if err != nil {
			return false, err
		}
		if ok && !isDelimiter(after) {
			continue
		}
		s.pos = i + int64(len(kw))
		s.arrayDepth, s.dictDepth = 0, 0
		return true, nil
	}
}

func isWhitespace(c byte) bool {
	return c == 0x00 || c == 0x09 || c == 0x0A || c == 0x0C || c == 0x0D || c == 0x20
}
func isEOL(c byte) bool { return c == '\r' || c == '\n' }
func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	default:
		return isWhitespace(c)
	}
}

func (s *pdfScanner) peekAhead(n int64) byte {
	c, _, _ := s.at(s.pos + n)
	return c
}

func (s *pdfScanner) scanKeyword() (Token, error) {
	start := s.pos
	run, err := s.regularRun()
	if err != nil {
		return Token{}, err
	}
	kw := string(run)
	switch kw {
	case "true", "false":
		return Token{Type: TokenBoolean, Bool: kw == "true", Str: kw, Pos: start, End: s.pos}, nil
	case "null":
		return Token{Type: TokenNull, Str: kw, Pos: start, End: s.pos}, nil
	case "stream":
		return s.scanStream(start)
	default:
		return Token{Type: TokenKeyword, Str: kw, Pos: start, End: s.pos}, nil
	}
}

// scanNumber reads a numeric literal and stores its normalized text in Str:
// no '+' sign, one leading zero at most, no bare trailing '.', and an
// explicit 0 before a bare leading '.'.
func (s *pdfScanner) scanNumber() (Token, error) {
	start := s.pos
	run, err := s.regularRun()
	if err != nil {
		return Token{}, err
	}
	text, isReal, ok := normalizeNumber(run)
	if !ok {
		return Token{}, syntaxErrorf(start, "malformed number %q", run)
	}
	tok := Token{Type: TokenInteger, Str: text, Pos: start, End: s.pos, Signed: run[0] == '+' || run[0] == '-'}
	if isReal {
		tok.Type = TokenReal
		return tok, nil
	}
	v, n := strconv.ParseInt([]byte(text))
	if n != len(text) {
		return Token{}, syntaxErrorf(start, "integer %q out of range", run)
	}
	tok.Int = v
	return tok, nil
}

func normalizeNumber(run []byte) (text string, isReal, ok bool) {
	i := 0
	neg := false
	if i < len(run) && (run[i] == '+' || run[i] == '-') {
		neg = run[i] == '-'
		i++
	}
	intStart := i
	for i < len(run) && run[i] >= '0' && run[i] <= '9' {
		i++
	}
	intPart := run[intStart:i]
	var frac []byte
	if i < len(run) && run[i] == '.' {
		isReal = true
		i++
		fracStart := i
		for i < len(run) && run[i] >= '0' && run[i] <= '9' {
			i++
		}
		frac = run[fracStart:i]
	}
	if i != len(run) || len(intPart)+len(frac) == 0 {
		return "", false, false
	}
	intPart = bytes.TrimLeft(intPart, "0")
	var b []byte
	if neg {
		b = append(b, '-')
	}
	if len(intPart) == 0 {
		b = append(b, '0')
	} else {
		b = append(b, intPart...)
	}
	if len(frac) > 0 {
		b = append(b, '.')
		b = append(b, frac...)
	}
	if string(b) == "-0" {
		b = b[1:]
	}
	return string(b), isReal, true
}

func (s *pdfScanner) emit(tok Token) (Token, error) {
	switch tok.Type {
	case TokenArrayOpen:
		s.arrayDepth++
		if s.cfg.MaxArrayDepth > 0 && s.arrayDepth > s.cfg.MaxArrayDepth {
			return Token{}, syntaxErrorf(tok.Pos, "array depth exceeded")
		}
	case TokenDictOpen:
		s.dictDepth++
		if s.cfg.MaxDictDepth > 0 && s.dictDepth > s.cfg.MaxDictDepth {
			return Token{}, syntaxErrorf(tok.Pos, "dict depth exceeded")
		}
	case TokenArrayClose:
		if s.arrayDepth == 0 {
			return Token{}, syntaxErrorf(tok.Pos, "unbalanced ']'")
		}
		s.arrayDepth--
	case TokenDictClose:
		if s.dictDepth == 0 {
			return Token{}, syntaxErrorf(tok.Pos, "unbalanced '>>'")
		}
		s.dictDepth--
	}
	return tok, nil
}
