package token

// Dictionary is an insertion-ordered Name -> Token map. Keys are unique and
// compared case-sensitively.
type Dictionary struct {
	keys  []Name
	index map[Name]int
	vals  []Token
}

// NewDictionary returns an empty dictionary sized for n entries.
func NewDictionary(n int) *Dictionary {
	return &Dictionary{
		keys:  make([]Name, 0, n),
		vals:  make([]Token, 0, n),
		index: make(map[Name]int, n),
	}
}

func (*Dictionary) Kind() Kind       { return KindDictionary }
func (d *Dictionary) String() string { return Render(d) }
func (*Dictionary) isToken()         {}
func (d *Dictionary) Len() int       { return len(d.keys) }
func (d *Dictionary) Keys() []Name   { return append([]Name(nil), d.keys...) }

func (d *Dictionary) Get(key Name) (Token, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}
	return d.vals[i], true
}

// Set stores value under key. A key that is already present keeps its
// original position and takes the new value. It reports whether the key
// was new.
func (d *Dictionary) Set(key Name, value Token) bool {
	if d.index == nil {
		d.index = make(map[Name]int)
	}
	if i, ok := d.index[key]; ok {
		d.vals[i] = value
		return false
	}
	d.index[key] = len(d.keys)
	d.keys = append(d.keys, key)
	d.vals = append(d.vals, value)
	return true
}

// Each calls fn for every entry in insertion order until fn returns false.
func (d *Dictionary) Each(fn func(key Name, value Token) bool) {
	for i, k := range d.keys {
		if !fn(k, d.vals[i]) {
			return
		}
	}
}
