// Copyright (C) 2026 The openpmd-go Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package logctx wraps the standard library's log.Logger with a
// per-Series prefix, in the style of tenant.Manager's WithLogger
// option and db.Definition's direct log.Printf calls: no structured
// logging framework, just stdlib log with enough context attached to
// tell which series a diagnostic came from.
package logctx

import (
	"io"
	"log"
	"os"
)

// Logger reports non-fatal diagnostics: a side channel for errors
// that are caught locally and do not abort the calling operation
// (§7's propagation policy, §4.8's "if opening fails, log, skip, and
// try again").
type Logger struct {
	l *log.Logger
}

// New returns a Logger prefixed "[openpmd] series=<path> ", writing to
// w (os.Stderr if w is nil).
func New(path string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{l: log.New(w, "[openpmd] series="+path+" ", log.LstdFlags)}
}

// Printf logs a formatted diagnostic.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.l == nil {
		return
	}
	l.l.Printf(format, args...)
}

// Discard is a Logger that drops every message, for callers (tests,
// one-shot CLI runs) that don't want series diagnostics on stderr.
var Discard = &Logger{l: log.New(io.Discard, "", 0)}
