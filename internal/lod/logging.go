// Package lod configures the reconstruction layers as a whole. The layers
// themselves live in the subpackages.
package lod

import (
	"io"

	"github.com/banshee-data/footprint.report/internal/lod/l5footprints"
	"github.com/banshee-data/footprint.report/internal/lod/pipeline"
)

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

// SetLogWriters configures the three logging streams of every layer that
// logs. Pass nil for any writer to disable that stream.
func SetLogWriters(w LogWriters) {
	pipeline.SetLogWriters(w.Ops, w.Diag, w.Trace)
	l5footprints.SetLogWriters(w.Ops, w.Diag, w.Trace)
}

// SetLegacyLogger routes all three streams to a single writer.
// Pass nil to disable all logging.
func SetLegacyLogger(w io.Writer) {
	SetLogWriters(LogWriters{Ops: w, Diag: w, Trace: w})
}
