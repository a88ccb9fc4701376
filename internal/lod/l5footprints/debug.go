package l5footprints

import (
	"io"

	"github.com/banshee-data/footprint.report/internal/lod/logstream"
)

var logs logstream.Streams

// SetLogWriters configures the footprint log streams: rejected footprints
// on ops, run summaries on diag, ring detail on trace.
func SetLogWriters(ops, diag, trace io.Writer) {
	logs = logstream.New("[footprints] ", ops, diag, trace)
}
