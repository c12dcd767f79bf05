package observability

import (
	"github.com/tliron/commonlog"
)

// commonLogger forwards structured fields to a commonlog logger as
// key/value pairs.
type commonLogger struct {
	log    commonlog.Logger
	fields []Field
}

// NewCommonLogger returns a Logger backed by the commonlog logger of the
// given name. The backend is selected by the program, usually by importing
// github.com/tliron/commonlog/simple and calling commonlog.Configure.
func NewCommonLogger(name string) Logger {
	return &commonLogger{log: commonlog.GetLogger(name)}
}

func (c *commonLogger) keyValues(fields []Field) []any {
	kv := make([]any, 0, 2*(len(c.fields)+len(fields)))
	for _, f := range c.fields {
		kv = append(kv, f.Key(), f.Value())
	}
	for _, f := range fields {
		kv = append(kv, f.Key(), f.Value())
	}
	return kv
}

func (c *commonLogger) Debug(msg string, fields ...Field) { c.log.Debug(msg, c.keyValues(fields)...) }
func (c *commonLogger) Info(msg string, fields ...Field)  { c.log.Info(msg, c.keyValues(fields)...) }
func (c *commonLogger) Warn(msg string, fields ...Field)  { c.log.Warning(msg, c.keyValues(fields)...) }
func (c *commonLogger) Error(msg string, fields ...Field) { c.log.Error(msg, c.keyValues(fields)...) }

func (c *commonLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &commonLogger{log: c.log, fields: merged}
}
