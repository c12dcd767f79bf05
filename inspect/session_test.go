package inspect

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/parser"
	"github.com/wudi/pdfview/recovery"
	"github.com/wudi/pdfview/scanner"
	"github.com/wudi/pdfview/token"
	"github.com/wudi/pdfview/viewer"
)

const content = "BT /F1 12 Tf (Hi) Tj ET"

var sample = strings.Join([]string{
	"%PDF-1.7",
	"1 0 obj",
	"<< /Type /Catalog /Pages 2 0 R >>",
	"endobj",
	"2 0 obj",
	"<< /Kids [3 0 R] /Count 1 >>",
	"endobj",
	"3 0 obj",
	"<< /Length 4 0 R >>",
	"stream",
	content,
	"endstream",
	"endobj",
	"4 0 obj",
	"23",
	"endobj",
	"5 0 obj",
	"<< /Length 23 >>",
	"stream",
	content,
	"endstream",
	"endobj",
	"",
}, "\r")

func openSample(t *testing.T) *Session {
	t.Helper()
	s, err := Open(context.Background(), strings.NewReader(sample), Config{})
	require.NoError(t, err)
	return s
}

func TestOpen_IndexesDocument(t *testing.T) {
	s := openSample(t)
	assert.Len(t, s.Tokens(), 5)
	assert.Equal(t, 23, s.Store().LineCount())
	assert.Equal(t, "<< /Kids [3 0 R] /Count 1 >>", s.Store().Line(5))
	assert.Equal(t, []byte(sample), s.Bytes())

	objs := s.Objects()
	assert.Equal(t, 5, objs.ObjectsCount())
	assert.Equal(t, []viewer.Object{viewer.Link{Anchor: token.ObjectID{Number: 2}, Line: 2, StartX: 25, EndX: 29}}, objs.Line(2))
	assert.Equal(t, []viewer.Object{viewer.Link{Anchor: token.ObjectID{Number: 3}, Line: 5, StartX: 10, EndX: 14}}, objs.Line(5))
	assert.Equal(t, []viewer.Object{viewer.Link{Anchor: token.ObjectID{Number: 4}, Line: 8, StartX: 11, EndX: 15}}, objs.Line(8))
	assert.Equal(t, []viewer.Object{viewer.StreamRegion{ID: token.ObjectID{Number: 3}, Line: 9, StartX: 0, EndX: 5}}, objs.Line(9))
	assert.Equal(t, []viewer.Object{viewer.StreamRegion{ID: token.ObjectID{Number: 5}, Line: 18, StartX: 0, EndX: 5}}, objs.Line(18))
	assert.Equal(t, 19, objs.DisplayLinesCount())
}

func TestOpen_Streams(t *testing.T) {
	s := openSample(t)
	streams := s.Streams()
	require.Len(t, streams, 2)

	first, second := streams[0], streams[1]
	assert.Equal(t, token.ObjectID{Number: 3}, first.ID)
	assert.False(t, first.Resolved)
	assert.True(t, second.Resolved)
	assert.Equal(t, int64(len(content)), first.Length)
	assert.Equal(t, int64(len(content)), second.Length)
	assert.Equal(t, content, string(s.Payload(first)))
	assert.Equal(t, content, string(s.Payload(second)))
	assert.Equal(t, int64(strings.Index(sample, content)), first.Offset)
	assert.Equal(t, 9, first.Line)
	assert.Equal(t, 18, second.Line)
	assert.Equal(t, first.Digest, second.Digest)

	dups := s.Duplicates()
	require.Len(t, dups, 1)
	assert.Equal(t, []StreamInfo{first, second}, dups[0].Streams)
	assert.Equal(t, []StreamInfo{second}, s.StreamsOf(token.ObjectID{Number: 5}))
}

func TestSession_FollowLinks(t *testing.T) {
	s := openSample(t)
	obj, ok := s.ObjectAt(2, 27)
	require.True(t, ok)
	line, char, ok := s.Follow(obj)
	require.True(t, ok)
	assert.Equal(t, [2]int{4, 0}, [2]int{line, char})

	obj, ok = s.ObjectAt(18, 3)
	require.True(t, ok)
	line, _, ok = s.Follow(obj)
	require.True(t, ok)
	assert.Equal(t, 16, line)

	_, ok = s.ObjectAt(2, 24)
	assert.False(t, ok)

	_, _, ok = s.Follow(viewer.Link{Anchor: token.ObjectID{Number: 99}})
	assert.False(t, ok)

	target, ok := s.Lookup(token.ObjectID{Number: 4})
	require.True(t, ok)
	assert.Equal(t, token.Integer(23), target.Value)
}

func TestSession_Find(t *testing.T) {
	s := openSample(t)
	sel, ok := s.Find(nil, "(Hi)", true, false)
	require.True(t, ok)
	assert.Equal(t, [4]int{10, 13, 10, 16}, [4]int{sel.StartLine, sel.StartChar, sel.EndLine, sel.EndChar})

	sel, ok = s.Find(&sel, "(hi)", true, true)
	require.True(t, ok)
	assert.Equal(t, 19, sel.StartLine)

	sel, ok = s.Find(nil, "endobj\r4 0", false, false)
	require.True(t, ok)
	assert.Equal(t, [4]int{12, 0, 13, 2}, [4]int{sel.StartLine, sel.StartChar, sel.EndLine, sel.EndChar})
}

func TestOpen_SyntaxErrorIsWrapped(t *testing.T) {
	_, err := Open(context.Background(), strings.NewReader("1 0 obj << /A 1 2 >> endobj"), Config{})
	require.Error(t, err)
	var se *scanner.SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Reason, "must be a name")
	assert.Contains(t, err.Error(), "tokenise at offset")
}

func TestOpen_RecoveryContinues(t *testing.T) {
	rec := recovery.NewLenientStrategy()
	data := "1 0 obj << /A 1 2 >> endobj\n2 0 obj << /Next 1 0 R >> endobj\n"
	s, err := Open(context.Background(), strings.NewReader(data), Config{
		Parser: parser.Config{Recovery: rec},
	})
	require.NoError(t, err)
	assert.Len(t, s.Tokens(), 1)
	assert.Len(t, rec.Errors, 1)
	assert.Equal(t, 1, s.Objects().ObjectsCount())
}

func TestOpen_InputLimit(t *testing.T) {
	_, err := Open(context.Background(), strings.NewReader(sample), Config{MaxInputBytes: 16})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")

	_, err = Open(context.Background(), strings.NewReader(sample), Config{MaxInputBytes: int64(len(sample))})
	assert.NoError(t, err)
}

func TestOpen_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Open(ctx, strings.NewReader(sample), Config{})
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingSpan struct {
	name string
	tags map[string]interface{}
	err  error
	done bool
}

func (s *recordingSpan) SetTag(key string, value interface{}) { s.tags[key] = value }
func (s *recordingSpan) SetError(err error)                   { s.err = err }
func (s *recordingSpan) Finish()                              { s.done = true }

type recordingTracer struct{ spans []*recordingSpan }

func (r *recordingTracer) StartSpan(ctx context.Context, name string) (context.Context, observability.Span) {
	span := &recordingSpan{name: name, tags: map[string]interface{}{}}
	r.spans = append(r.spans, span)
	return ctx, span
}

func TestOpen_Tracing(t *testing.T) {
	tr := &recordingTracer{}
	_, err := Open(context.Background(), strings.NewReader(sample), Config{Tracer: tr})
	require.NoError(t, err)
	require.Len(t, tr.spans, 1)
	span := tr.spans[0]
	assert.Equal(t, "inspect.open", span.name)
	assert.True(t, span.done)
	assert.Equal(t, 5, span.tags[observability.TagTokenCount])
	assert.Equal(t, 2, span.tags[observability.TagStreamCount])
	assert.Equal(t, len(sample), span.tags[observability.TagInputBytes])

	_, err = Open(context.Background(), strings.NewReader("[1 2"), Config{Tracer: tr})
	require.Error(t, err)
	assert.Error(t, tr.spans[1].err)
}
