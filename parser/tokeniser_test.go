package parser

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfview/recovery"
	"github.com/wudi/pdfview/scanner"
	"github.com/wudi/pdfview/token"
)

func tokenise(t *testing.T, data string, cfg Config) []token.Token {
	t.Helper()
	tz := NewBytes([]byte(data), cfg)
	var out []token.Token
	for {
		tok, err := tz.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, tok)
	}
}

func tokeniseErr(t *testing.T, data string, cfg Config) *scanner.SyntaxError {
	t.Helper()
	tz := NewBytes([]byte(data), cfg)
	for {
		_, err := tz.Next()
		if errors.Is(err, io.EOF) {
			t.Fatalf("expected a syntax error for %q", data)
		}
		if err != nil {
			var se *scanner.SyntaxError
			require.ErrorAs(t, err, &se)
			return se
		}
	}
}

func TestTokeniser_Scalars(t *testing.T) {
	toks := tokenise(t, "+123.4 34. .2 -.002 00 true false null /Name (a \\( b) <4142> xref", Config{})
	want := []token.Token{
		token.Real{Text: "123.4"},
		token.Real{Text: "34"},
		token.Real{Text: "0.2"},
		token.Real{Text: "-0.002"},
		token.Integer(0),
		token.Boolean(true),
		token.Boolean(false),
		token.Null{},
		token.Name("Name"),
		token.LiteralString(`a \( b`),
		token.HexString("<4142>"),
		token.Keyword("xref"),
	}
	assert.Equal(t, want, toks)
}

func TestTokeniser_LiteralStringEscapedBracket(t *testing.T) {
	toks := tokenise(t, `(a string with one open \( bracket)`, Config{})
	require.Len(t, toks, 1)
	assert.Equal(t, token.LiteralString(`a string with one open \( bracket`), toks[0])
}

func TestTokeniser_ReferenceAndIntegers(t *testing.T) {
	toks := tokenise(t, "[12 5 R 1 2 3 +4 0 R]", Config{})
	require.Len(t, toks, 1)
	arr := toks[0].(token.Array)
	require.Len(t, arr, 7)
	ref, ok := arr[0].(token.Reference)
	require.True(t, ok)
	assert.Equal(t, token.ObjectID{Number: 12, Generation: 5}, ref.ID)
	assert.Equal(t, int64(1), ref.Pos)
	assert.Equal(t, int64(7), ref.End)
	assert.Equal(t, "[12 5 R 1 2 3 4 0 R]", toks[0].String())
	assert.Equal(t, token.Integer(4), arr[4], "a signed number never starts a reference")
	assert.Equal(t, token.Keyword("R"), arr[6])
}

func TestTokeniser_IndirectObject(t *testing.T) {
	toks := tokenise(t, "%PDF-1.7\n1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n", Config{})
	require.Len(t, toks, 1)
	obj, ok := toks[0].(token.IndirectObject)
	require.True(t, ok)
	assert.Equal(t, token.ObjectID{Number: 1}, obj.ID)
	assert.Equal(t, int64(9), obj.Pos)
	d := obj.Value.(*token.Dictionary)
	assert.Equal(t, []token.Name{"Type", "Pages"}, d.Keys())
	assert.Equal(t, "1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj", obj.String())
}

func TestTokeniser_EmptyObject(t *testing.T) {
	toks := tokenise(t, "3 0 obj endobj", Config{})
	require.Len(t, toks, 1)
	assert.Equal(t, token.Null{}, toks[0].(token.IndirectObject).Value)
}

func TestTokeniser_StreamWithDirectLength(t *testing.T) {
	payload := "\x00\x01binary\xffstuff\r\n!"
	require.Len(t, payload, 17)
	data := "5 0 obj\n<< /Length 17 >>\nstream\r\n" + payload + "\nendstream\nendobj"
	toks := tokenise(t, data, Config{})
	require.Len(t, toks, 1)
	s := toks[0].(token.IndirectObject).Value.(token.Stream)
	assert.True(t, s.LengthResolved)
	assert.Equal(t, int64(17), s.Length)
	assert.Equal(t, int64(strings.Index(data, "\x00")), s.Offset)
	assert.Equal(t, payload, string(s.Data))
	assert.Equal(t, int64(strings.Index(data, "stream\r")), s.KeywordPos)
}

func TestTokeniser_StreamWithForwardReference(t *testing.T) {
	payload := "BT (endstreamed) Tj ET"
	data := "4 0 obj\n<< /Length 8 0 R >>\nstream\n" + payload + "\nendstream\nendobj\n8 0 obj\n999\nendobj\n"
	toks := tokenise(t, data, Config{})
	require.Len(t, toks, 2)
	s := toks[0].(token.IndirectObject).Value.(token.Stream)
	assert.False(t, s.LengthResolved)
	assert.Equal(t, int64(len(payload)), s.Length)
	assert.Equal(t, payload, string(s.Data))
	assert.Equal(t, token.Integer(999), toks[1].(token.IndirectObject).Value)
}

func TestTokeniser_StreamWithBackwardReference(t *testing.T) {
	data := "8 0 obj 5 endobj\n4 0 obj << /Length 8 0 R >> stream\nab\ncd\nendstream endobj"
	toks := tokenise(t, data, Config{})
	require.Len(t, toks, 2)
	s := toks[1].(token.IndirectObject).Value.(token.Stream)
	assert.True(t, s.LengthResolved)
	assert.Equal(t, "ab\ncd", string(s.Data))
}

func TestTokeniser_StreamWithWrongBackwardReference(t *testing.T) {
	for _, data := range []string{
		"8 0 obj 2 endobj << /Length 8 0 R >>\nstream\nabc\nendstream",
		"8 0 obj 40 endobj << /Length 8 0 R >>\nstream\nabc\nendstream",
	} {
		toks := tokenise(t, data, Config{})
		require.Len(t, toks, 2, data)
		s := toks[1].(token.Stream)
		assert.False(t, s.LengthResolved, data)
		assert.Equal(t, "abc", string(s.Data), data)
		assert.Equal(t, int64(strings.Index(data, "stream\n")), s.KeywordPos, data)
	}
}

func TestTokeniser_WrongDirectLengthFails(t *testing.T) {
	se := tokeniseErr(t, "<< /Length 2 >>\nstream\nabc\nendstream", Config{})
	assert.Contains(t, se.Reason, "missing endstream")
}

func TestTokeniser_StreamWithoutLength(t *testing.T) {
	toks := tokenise(t, "<< /Filter /FlateDecode >>\nstream\nxyz\r\nendstream", Config{})
	require.Len(t, toks, 1)
	s := toks[0].(token.Stream)
	assert.False(t, s.LengthResolved)
	assert.Equal(t, "xyz", string(s.Data))
}

func TestTokeniser_DictionaryNotFollowedByStream(t *testing.T) {
	toks := tokenise(t, "<< /Length 3 >> (abc)", Config{})
	require.Len(t, toks, 2)
	assert.Equal(t, token.KindDictionary, toks[0].Kind())
	assert.Equal(t, token.LiteralString("abc"), toks[1])
}

func TestTokeniser_NestedStructures(t *testing.T) {
	data := "<< /A [ [ 1 [ 2 ] % comment ]\n ] << /B << /C [] >> >> ] /D <<>> >>"
	toks := tokenise(t, data, Config{})
	require.Len(t, toks, 1)
	assert.Equal(t, "<< /A [[1 [2]] << /B << /C [] >> >>] /D <<>> >>", toks[0].String())
}

func TestTokeniser_RenderRoundTrip(t *testing.T) {
	inputs := []string{
		"<< /B [1 -0.5 (x\\)y) <4A 5> /N true null] /A << /C 3 0 R >> /Z +007 >>",
		"12 0 obj [/a/b/c 1 2 R (nested (parens)) .5] endobj",
		"trailer << /Size 5 /Root 1 0 R /ID [<00ff> <ab>] >> startxref 290",
	}
	for _, in := range inputs {
		first := renderAll(tokenise(t, in, Config{}))
		second := renderAll(tokenise(t, first, Config{}))
		assert.Equal(t, first, second, "input %q", in)
	}
}

func renderAll(toks []token.Token) string {
	parts := make([]string, len(toks))
	for i, tok := range toks {
		parts[i] = token.Render(tok)
	}
	return strings.Join(parts, "\n")
}

func TestTokeniser_DuplicateKeys(t *testing.T) {
	toks := tokenise(t, "<< /A 1 /B 2 /A 3 >>", Config{})
	d := toks[0].(*token.Dictionary)
	assert.Equal(t, []token.Name{"A", "B"}, d.Keys())
	v, _ := d.Get("A")
	assert.Equal(t, token.Integer(3), v)

	se := tokeniseErr(t, "<< /A 1 /B 2 /A 3 >>", Config{DuplicateKeys: RejectDuplicates})
	assert.Contains(t, se.Reason, "duplicate dictionary key /A")
	assert.Equal(t, int64(13), se.Offset)
}

func TestTokeniser_Errors(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		reason string
		offset int64
	}{
		{"unterminated array", "[1 2", "unterminated array", 0},
		{"unterminated dict", "  << /A 1", "unterminated dictionary", 2},
		{"dict key not a name", "<< 1 2 >>", "must be a name", 3},
		{"missing value", "<< /A >>", "missing value", 6},
		{"bad length", "<< /Length /Big >>\nstream\nabc\nendstream", "must be an integer or reference", -1},
		{"negative length", "<< /Length -4 >>\nstream\nabc\nendstream", "negative stream Length", -1},
		{"missing endobj", "1 0 obj 5 6 endobj", "expected endobj", 10},
		{"unterminated object", "1 0 obj << >>", "missing endobj", 0},
		{"stray stream", "stream\nabc\nendstream", "stream without dictionary", 0},
		{"malformed number", "[1 2.3.4]", "malformed number", 3},
		{"array closed by dict close", "<< /A [1 >>", "unexpected >>", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := tokeniseErr(t, tt.in, Config{})
			assert.Contains(t, se.Reason, tt.reason)
			if tt.offset >= 0 {
				assert.Equal(t, tt.offset, se.Offset)
			}
		})
	}
}

func TestTokeniser_ExpectGeneration(t *testing.T) {
	tz := NewBytes([]byte("7 2 obj null endobj"), Config{})
	tz.Expect(token.ObjectID{Number: 7, Generation: 0})
	_, err := tz.Next()
	var se *scanner.SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Reason, "generation mismatch")
	assert.Equal(t, int64(0), se.Offset)

	tz = NewBytes([]byte("7 2 obj null endobj"), Config{})
	tz.Expect(token.ObjectID{Number: 7, Generation: 2})
	tok, err := tz.Next()
	require.NoError(t, err)
	assert.Equal(t, token.ObjectID{Number: 7, Generation: 2}, tok.(token.IndirectObject).ID)
}

func TestTokeniser_RecoverySkipsDamagedObject(t *testing.T) {
	data := "1 0 obj << /A 1 2 >> endobj\n2 0 obj (ok) endobj"
	rec := recovery.NewLenientStrategy()
	toks := tokenise(t, data, Config{Recovery: rec})
	require.Len(t, toks, 1)
	obj := toks[0].(token.IndirectObject)
	assert.Equal(t, uint32(2), obj.ID.Number)
	require.Len(t, rec.Errors, 1)
	assert.Contains(t, rec.Errors[0].Error(), "object 1 0")

	se := tokeniseErr(t, data, Config{Recovery: recovery.NewStrictStrategy()})
	assert.Contains(t, se.Reason, "must be a name")
}

func TestTokeniser_ScannerLimits(t *testing.T) {
	se := tokeniseErr(t, "[[[[1]]]]", Config{Scanner: scanner.Config{MaxArrayDepth: 2}})
	assert.Contains(t, se.Reason, "array depth exceeded")
}
