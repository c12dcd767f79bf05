package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionary_PreservesInsertionOrder(t *testing.T) {
	d := NewDictionary(0)
	d.Set("Type", Name("Page"))
	d.Set("Count", Integer(3))
	d.Set("Annots", Array{Reference{ID: ObjectID{Number: 4}}})
	assert.Equal(t, []Name{"Type", "Count", "Annots"}, d.Keys())

	added := d.Set("Count", Integer(4))
	assert.False(t, added)
	assert.Equal(t, []Name{"Type", "Count", "Annots"}, d.Keys())
	v, ok := d.Get("Count")
	require.True(t, ok)
	assert.Equal(t, Integer(4), v)

	_, ok = d.Get("count")
	assert.False(t, ok, "lookup is case-sensitive")
}

func TestRender(t *testing.T) {
	inner := NewDictionary(1)
	inner.Set("Length", Reference{ID: ObjectID{Number: 8}})
	d := NewDictionary(3)
	d.Set("Type", Name("XObject"))
	d.Set("Matrix", Array{Integer(1), Real{Text: "0.5"}, Boolean(true), Null{}})
	d.Set("Res", inner)
	d.Set("Empty", NewDictionary(0))
	d.Set("S", LiteralString(`a \( b`))
	d.Set("H", HexString("<4142>"))

	obj := IndirectObject{ID: ObjectID{Number: 5, Generation: 1}, Value: d}
	want := `5 1 obj << /Type /XObject /Matrix [1 0.5 true null] /Res << /Length 8 0 R >> /Empty <<>> /S (a \( b) /H <4142> >> endobj`
	assert.Equal(t, want, obj.String())
	assert.Equal(t, "[]", Array{}.String())
}

func TestRender_Stream(t *testing.T) {
	d := NewDictionary(1)
	d.Set("Length", Integer(17))
	s := Stream{Dict: d, Offset: 40, Length: 17, LengthResolved: true}
	assert.Equal(t, "<< /Length 17 >> stream[offset=40,length=17,resolved=true]", s.String())
}

func TestHexStringDecode(t *testing.T) {
	assert.Equal(t, []byte("AB"), HexString("<41 42>").Decode())
	assert.Equal(t, []byte{0x4a, 0x50}, HexString("<4a5>").Decode())
}

func TestRealFloat(t *testing.T) {
	assert.InDelta(t, -0.002, Real{Text: "-0.002"}.Float(), 1e-12)
	assert.InDelta(t, 123.4, Real{Text: "123.4"}.Float(), 1e-9)
}

func TestWalk(t *testing.T) {
	d := NewDictionary(2)
	d.Set("Kids", Array{Reference{ID: ObjectID{Number: 1}}, Reference{ID: ObjectID{Number: 2}}})
	d.Set("Parent", Reference{ID: ObjectID{Number: 9}})
	var refs []uint32
	Walk(IndirectObject{Value: d}, func(tok Token) bool {
		if r, ok := tok.(Reference); ok {
			refs = append(refs, r.ID.Number)
		}
		return true
	})
	assert.Equal(t, []uint32{1, 2, 9}, refs)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "dict", KindDictionary.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
