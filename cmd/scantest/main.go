// Command scantest prints the raw lexemes of a PDF file, reading it through
// the windowed scanner instead of loading it into memory.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/wudi/pdfview/scanner"
)

func main() {
	limit := flag.Int("limit", 200000, "Stop after this many lexemes")
	window := flag.Int64("window", 64*1024, "Scanner read window in bytes")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: scantest [flags] <pdf>")
		os.Exit(2)
	}
	if err := dump(flag.Arg(0), *limit, *window, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "scantest: %v\n", err)
		os.Exit(1)
	}
}

func dump(path string, limit int, window int64, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open pdf")
	}
	defer f.Close()

	s := scanner.New(f, scanner.Config{WindowSize: window})
	for i := 0; i < limit; i++ {
		tok, err := s.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "lexeme %d", i)
		}
		fmt.Fprintf(out, "%d@%d..%d %s %s\n", i, tok.Pos, tok.End, tok.Type, describe(tok))
	}
	return nil
}

func describe(tok scanner.Token) string {
	switch tok.Type {
	case scanner.TokenName, scanner.TokenKeyword, scanner.TokenInteger, scanner.TokenReal:
		return tok.Str
	case scanner.TokenLiteralString, scanner.TokenHexString:
		return fmt.Sprintf("%q", tok.Bytes)
	case scanner.TokenBoolean:
		return fmt.Sprint(tok.Bool)
	case scanner.TokenStream:
		return fmt.Sprintf("offset=%d length=%d", tok.Offset, tok.Length)
	}
	return ""
}
