package pipeline

import (
	"io"

	"github.com/banshee-data/footprint.report/internal/lod/logstream"
)

var logs logstream.Streams

// SetLogWriters configures the pipeline's log streams. Pass nil for any
// writer to disable that stream.
func SetLogWriters(ops, diag, trace io.Writer) {
	logs = logstream.New("[lod] ", ops, diag, trace)
}

func opsf(format string, args ...any)   { logs.Opsf(format, args...) }
func diagf(format string, args ...any)  { logs.Diagf(format, args...) }
func tracef(format string, args ...any) { logs.Tracef(format, args...) }
