package scanner

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func FuzzScanner(f *testing.F) {
	f.Add([]byte("<< /Type /Page >>"))
	f.Add([]byte("[ 1 2 3 ]"))
	f.Add([]byte("stream\n...data...\nendstream"))
	f.Add([]byte("(Hello \\( World)"))
	f.Add([]byte("<AABBCC>"))
	f.Add([]byte("-.002 +1. 00 % comment"))

	f.Fuzz(func(t *testing.T, data []byte) {
		s := New(bytes.NewReader(data), Config{
			MaxStringLength: 1024,
			MaxArrayDepth:   10,
			MaxDictDepth:    10,
			MaxStreamLength: 1024,
			WindowSize:      16,
		})

		last := int64(-1)
		for {
			tok, err := s.Next()
			if err != nil {
				var se *SyntaxError
				if !errors.Is(err, io.EOF) && !errors.As(err, &se) {
					t.Fatalf("unexpected error type %T: %v", err, err)
				}
				break
			}
			if tok.Pos <= last || tok.End <= tok.Pos || tok.End > int64(len(data)) {
				t.Fatalf("bad token span %d..%d after %d", tok.Pos, tok.End, last)
			}
			last = tok.Pos
		}
	})
}
