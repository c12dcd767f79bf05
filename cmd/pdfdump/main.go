// Command pdfdump tokenises a PDF file and prints its tokens, display
// lines, streams and search results.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/wudi/pdfview/inspect"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/textstore"
	"github.com/wudi/pdfview/token"
	"github.com/wudi/pdfview/viewer"
)

type options struct {
	pdfPath    string
	configPath string
	verbosity  int
	logFile    string
	lenient    bool
	tokens     bool
	lines      bool
	streams    bool
	duplicates bool
	find       string
	backward   bool
	ignoreCase bool
	at         string
	file       fileConfig
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfdump: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "pdfdump: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("pdfdump", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pdfdump [flags] <pdf>\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.configPath, "config", "", "TOML configuration file")
	fs.IntVar(&opts.verbosity, "v", 0, "Log verbosity (0 errors only, 1 info, 2 debug)")
	fs.StringVar(&opts.logFile, "log", "", "Write log output to this file instead of stderr")
	fs.BoolVar(&opts.lenient, "lenient", false, "Skip damaged objects instead of failing")
	fs.BoolVar(&opts.tokens, "tokens", false, "Print every top-level token")
	fs.BoolVar(&opts.lines, "lines", false, "Print the decoded display lines")
	fs.BoolVar(&opts.streams, "streams", false, "List streams with offsets, lengths and digests")
	fs.BoolVar(&opts.duplicates, "dups", false, "Report streams with identical payloads")
	fs.StringVar(&opts.find, "find", "", "Print every match of this text")
	fs.BoolVar(&opts.backward, "back", false, "Search backwards")
	fs.BoolVar(&opts.ignoreCase, "i", false, "Ignore case when searching")
	fs.StringVar(&opts.at, "at", "", "Describe the clickable region at line:column")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return options{}, errors.New("missing pdf path")
	}
	opts.pdfPath = fs.Arg(0)

	fc, err := loadConfig(opts.configPath)
	if err != nil {
		return options{}, err
	}
	opts.file = fc
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["v"] {
		opts.verbosity = fc.Verbosity
	}
	if !set["log"] {
		opts.logFile = fc.LogFile
	}
	if !set["lenient"] {
		opts.lenient = fc.Lenient
	}
	return opts, nil
}

func run(opts options, out io.Writer) error {
	var logPath *string
	if opts.logFile != "" {
		logPath = &opts.logFile
	}
	commonlog.Configure(opts.verbosity, logPath)
	log := observability.NewCommonLogger("pdfdump")

	fc := opts.file
	fc.Lenient = opts.lenient
	cfg, lenient := fc.sessionConfig()
	cfg.Logger = log

	f, err := os.Open(opts.pdfPath)
	if err != nil {
		return errors.Wrap(err, "open pdf")
	}
	defer f.Close()

	s, err := inspect.Open(context.Background(), f, cfg)
	if err != nil {
		return errors.Wrapf(err, "inspect %s", opts.pdfPath)
	}
	if lenient != nil {
		for _, e := range lenient.Errors {
			log.Warn("skipped", observability.Error("error", e))
		}
	}

	fmt.Fprintf(out, "tokens=%d lines=%d streams=%d regions=%d\n",
		len(s.Tokens()), s.Store().LineCount(), len(s.Streams()), s.Objects().ObjectsCount())
	if opts.tokens {
		printTokens(out, s)
	}
	if opts.lines {
		printLines(out, s.Store())
	}
	if opts.streams {
		printStreams(out, s.Streams())
	}
	if opts.duplicates {
		printDuplicates(out, s.Duplicates())
	}
	if opts.find != "" {
		printMatches(out, s, opts.find, !opts.backward, opts.ignoreCase)
	}
	if opts.at != "" {
		if err := describeAt(out, s, opts.at); err != nil {
			return err
		}
	}
	return nil
}

func printTokens(out io.Writer, s *inspect.Session) {
	fmt.Fprintln(out, "== tokens ==")
	for i, tok := range s.Tokens() {
		fmt.Fprintf(out, "%d %s %s\n", i, tok.Kind(), token.Render(tok))
	}
}

func printLines(out io.Writer, store *textstore.Store) {
	fmt.Fprintln(out, "== lines ==")
	for i := 0; i < store.LineCount(); i++ {
		fmt.Fprintf(out, "%5d  %s\n", i, store.Line(i))
	}
}

func printStreams(out io.Writer, streams []inspect.StreamInfo) {
	fmt.Fprintln(out, "== streams ==")
	for _, st := range streams {
		fmt.Fprintf(out, "obj %d %d offset=%d length=%d resolved=%t line=%d blake2b=%s\n",
			st.ID.Number, st.ID.Generation, st.Offset, st.Length, st.Resolved, st.Line, hex.EncodeToString(st.Digest[:8]))
	}
}

func printDuplicates(out io.Writer, groups []inspect.DuplicateGroup) {
	fmt.Fprintln(out, "== duplicate streams ==")
	for _, g := range groups {
		ids := make([]string, len(g.Streams))
		for i, st := range g.Streams {
			ids[i] = fmt.Sprintf("%d %d", st.ID.Number, st.ID.Generation)
		}
		fmt.Fprintf(out, "%s: %s\n", hex.EncodeToString(g.Digest[:8]), strings.Join(ids, ", "))
	}
}

// printMatches walks every match once, stopping when the search wraps back
// to the first one.
func printMatches(out io.Writer, s *inspect.Session, needle string, forward, ignoreCase bool) {
	fmt.Fprintf(out, "== find %q ==\n", needle)
	first, ok := s.Find(nil, needle, forward, ignoreCase)
	if !ok {
		fmt.Fprintln(out, "no match")
		return
	}
	for sel := first; ; {
		text, _ := s.Store().Slice(sel)
		fmt.Fprintf(out, "%d:%d-%d:%d %q\n", sel.StartLine, sel.StartChar, sel.EndLine, sel.EndChar, text)
		next, _ := s.Find(&sel, needle, forward, ignoreCase)
		if next.StartLine == first.StartLine && next.StartChar == first.StartChar {
			return
		}
		sel = next
	}
}

func describeAt(out io.Writer, s *inspect.Session, pos string) error {
	lineText, colText, ok := strings.Cut(pos, ":")
	if !ok {
		return errors.Errorf("position %q is not line:column", pos)
	}
	line, err := strconv.Atoi(lineText)
	if err != nil || line < 0 {
		return errors.Errorf("invalid line in %q", pos)
	}
	col, err := strconv.Atoi(colText)
	if err != nil || col < 0 {
		return errors.Errorf("invalid column in %q", pos)
	}
	obj, ok := s.ObjectAt(line, col)
	if !ok {
		fmt.Fprintf(out, "%d:%d nothing\n", line, col)
		return nil
	}
	switch o := obj.(type) {
	case viewer.Link:
		fmt.Fprintf(out, "%d:%d link to %d %d R", line, col, o.Anchor.Number, o.Anchor.Generation)
	case viewer.StreamRegion:
		fmt.Fprintf(out, "%d:%d stream of object %d %d", line, col, o.ID.Number, o.ID.Generation)
	}
	if tl, tc, ok := s.Follow(obj); ok {
		fmt.Fprintf(out, " -> %d:%d", tl, tc)
	}
	fmt.Fprintln(out)
	return nil
}
