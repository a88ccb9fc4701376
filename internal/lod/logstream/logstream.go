// Package logstream implements the ops/diag/trace logging streams shared by
// the reconstruction layers.
//
//   - ops: actionable problems, such as dropped footprints or fallback heights
//   - diag: one summary per build
//   - trace: stage timings and per-item detail
package logstream

import (
	"io"
	"log"
)

// Streams is one package's set of loggers. The zero value discards
// everything.
type Streams struct {
	ops, diag, trace *log.Logger
}

// New builds Streams whose lines carry prefix. A nil writer disables that
// stream.
func New(prefix string, ops, diag, trace io.Writer) Streams {
	return Streams{
		ops:   open(prefix, ops),
		diag:  open(prefix, diag),
		trace: open(prefix, trace),
	}
}

func open(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

func (s Streams) Opsf(format string, args ...any)   { printf(s.ops, format, args) }
func (s Streams) Diagf(format string, args ...any)  { printf(s.diag, format, args) }
func (s Streams) Tracef(format string, args ...any) { printf(s.trace, format, args) }

func printf(l *log.Logger, format string, args []any) {
	if l != nil {
		l.Printf(format, args...)
	}
}
