// Package token defines the values produced by the tokeniser.
package token

import (
	"fmt"

	"github.com/tdewolff/parse/v2/strconv"
)

// Kind identifies the variant of a Token.
type Kind int

const (
	KindBoolean Kind = iota
	KindInteger
	KindReal
	KindName
	KindLiteralString
	KindHexString
	KindNull
	KindArray
	KindDictionary
	KindReference
	KindIndirectObject
	KindStream
	KindKeyword
)

var kindNames = [...]string{
	KindBoolean:        "boolean",
	KindInteger:        "integer",
	KindReal:           "real",
	KindName:           "name",
	KindLiteralString:  "string",
	KindHexString:      "hexstring",
	KindNull:           "null",
	KindArray:          "array",
	KindDictionary:     "dict",
	KindReference:      "ref",
	KindIndirectObject: "object",
	KindStream:         "stream",
	KindKeyword:        "keyword",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Token is one structural unit of a PDF byte stream. The variant set is
// closed; switch on the concrete type.
type Token interface {
	Kind() Kind
	String() string
	isToken()
}

// ObjectID names an indirect object.
type ObjectID struct {
	Number     uint32
	Generation uint32
}

func (id ObjectID) String() string { return fmt.Sprintf("%d %d", id.Number, id.Generation) }

type Boolean bool

func (Boolean) Kind() Kind       { return KindBoolean }
func (b Boolean) String() string { return Render(b) }
func (Boolean) isToken()         {}

type Integer int64

func (Integer) Kind() Kind       { return KindInteger }
func (i Integer) String() string { return Render(i) }
func (Integer) isToken()         {}

// Real keeps the normalized decimal text; Float converts on demand.
type Real struct{ Text string }

func (Real) Kind() Kind       { return KindReal }
func (r Real) String() string { return Render(r) }
func (Real) isToken()         {}

func (r Real) Float() float64 {
	f, _ := strconv.ParseFloat([]byte(r.Text))
	return f
}

// Name is stored without the leading '/'.
type Name string

func (Name) Kind() Kind       { return KindName }
func (n Name) String() string { return Render(n) }
func (Name) isToken()         {}

// LiteralString holds the bytes between the outer parentheses, escapes
// untouched.
type LiteralString []byte

func (LiteralString) Kind() Kind       { return KindLiteralString }
func (s LiteralString) String() string { return Render(s) }
func (LiteralString) isToken()         {}

// HexString holds the source text including the angle brackets.
type HexString []byte

func (HexString) Kind() Kind       { return KindHexString }
func (s HexString) String() string { return Render(s) }
func (HexString) isToken()         {}

// Decode returns the bytes the hex digits encode. Whitespace is skipped and
// an odd trailing digit is padded with 0.
func (s HexString) Decode() []byte {
	var digits []byte
	for _, c := range s {
		if v, ok := hexValue(c); ok {
			digits = append(digits, v)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, 0)
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		out = append(out, digits[i]<<4|digits[i+1])
	}
	return out
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

type Null struct{}

func (Null) Kind() Kind       { return KindNull }
func (n Null) String() string { return Render(n) }
func (Null) isToken()         {}

type Array []Token

func (Array) Kind() Kind       { return KindArray }
func (a Array) String() string { return Render(a) }
func (Array) isToken()         {}

// Reference is an "n g R" pointer. Pos and End delimit its source text.
type Reference struct {
	ID  ObjectID
	Pos int64
	End int64
}

func (Reference) Kind() Kind       { return KindReference }
func (r Reference) String() string { return Render(r) }
func (Reference) isToken()         {}

// IndirectObject is an "n g obj ... endobj" wrapper.
type IndirectObject struct {
	ID    ObjectID
	Value Token
	Pos   int64
	End   int64
}

func (IndirectObject) Kind() Kind       { return KindIndirectObject }
func (o IndirectObject) String() string { return Render(o) }
func (IndirectObject) isToken()         {}

// Stream records where a payload sits in the source buffer. Offset is the
// first payload byte; KeywordPos is the offset of the "stream" keyword.
type Stream struct {
	Dict           *Dictionary
	Offset         int64
	Length         int64
	LengthResolved bool
	KeywordPos     int64
	Data           []byte
}

func (Stream) Kind() Kind       { return KindStream }
func (s Stream) String() string { return Render(s) }
func (Stream) isToken()         {}

// Keyword is any bare regular-character run that has no value of its own
// (xref, trailer, startxref, content stream operators).
type Keyword string

func (Keyword) Kind() Kind       { return KindKeyword }
func (k Keyword) String() string { return Render(k) }
func (Keyword) isToken()         {}
