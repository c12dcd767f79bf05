package token

import (
	"strconv"
	"strings"
)

// Render returns the diagnostic form of tok. The output is deterministic,
// keeps dictionary and array order, and for tokens without streams it
// tokenises back to the same structure.
func Render(tok Token) string {
	var b strings.Builder
	render(&b, tok)
	return b.String()
}

func render(b *strings.Builder, tok Token) {
	switch v := tok.(type) {
	case nil:
		b.WriteString("<nil>")
	case Boolean:
		b.WriteString(strconv.FormatBool(bool(v)))
	case Integer:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case Real:
		b.WriteString(v.Text)
	case Name:
		b.WriteByte('/')
		b.WriteString(string(v))
	case LiteralString:
		b.WriteByte('(')
		b.Write(v)
		b.WriteByte(')')
	case HexString:
		b.Write(v)
	case Null:
		b.WriteString("null")
	case Keyword:
		b.WriteString(string(v))
	case Array:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(' ')
			}
			render(b, item)
		}
		b.WriteByte(']')
	case *Dictionary:
		b.WriteString("<<")
		if v != nil {
			v.Each(func(key Name, value Token) bool {
				b.WriteString(" /")
				b.WriteString(string(key))
				b.WriteByte(' ')
				render(b, value)
				return true
			})
			if v.Len() > 0 {
				b.WriteByte(' ')
			}
		}
		b.WriteString(">>")
	case Reference:
		writeID(b, v.ID)
		b.WriteString(" R")
	case IndirectObject:
		writeID(b, v.ID)
		b.WriteString(" obj ")
		render(b, v.Value)
		b.WriteString(" endobj")
	case Stream:
		render(b, v.Dict)
		b.WriteString(" stream[offset=")
		b.WriteString(strconv.FormatInt(v.Offset, 10))
		b.WriteString(",length=")
		b.WriteString(strconv.FormatInt(v.Length, 10))
		b.WriteString(",resolved=")
		b.WriteString(strconv.FormatBool(v.LengthResolved))
		b.WriteByte(']')
	}
}

func writeID(b *strings.Builder, id ObjectID) {
	b.WriteString(strconv.FormatUint(uint64(id.Number), 10))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(uint64(id.Generation), 10))
}

// Walk calls fn for tok and every token nested inside it, parents first.
// Returning false from fn skips the children of that token.
func Walk(tok Token, fn func(Token) bool) {
	if tok == nil || !fn(tok) {
		return
	}
	switch v := tok.(type) {
	case Array:
		for _, item := range v {
			Walk(item, fn)
		}
	case *Dictionary:
		v.Each(func(_ Name, value Token) bool {
			Walk(value, fn)
			return true
		})
	case IndirectObject:
		Walk(v.Value, fn)
	case Stream:
		if v.Dict != nil {
			Walk(v.Dict, fn)
		}
	}
}
