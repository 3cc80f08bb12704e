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

// Package openpmderr defines the typed error kinds surfaced at the
// boundary of this module (§7 of SPEC_FULL.md), in the style of
// db.ErrBadPattern and fs.PathError in the teacher package: plain
// error values, sentinel-comparable with errors.Is, carrying enough
// context (an openPMD path, an operation name) to produce a useful
// message without a stack trace.
package openpmderr

import "fmt"

// Kind is the closed set of error categories the core can raise.
type Kind int

const (
	_ Kind = iota
	NoSuchAttribute
	WrongAPIUsage
	OperationUnsupportedInBackend
	BackendConfigSchema
	ReadErrorUnexpectedContent
	ReadErrorUnreadableFile
	ReadErrorSchemaInconsistency
	Internal
)

func (k Kind) String() string {
	switch k {
	case NoSuchAttribute:
		return "NoSuchAttribute"
	case WrongAPIUsage:
		return "WrongAPIUsage"
	case OperationUnsupportedInBackend:
		return "OperationUnsupportedInBackend"
	case BackendConfigSchema:
		return "BackendConfigSchema"
	case ReadErrorUnexpectedContent:
		return "ReadError(UnexpectedContent)"
	case ReadErrorUnreadableFile:
		return "ReadError(UnreadableFile)"
	case ReadErrorSchemaInconsistency:
		return "ReadError(SchemaInconsistency)"
	case Internal:
		return "Internal"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the concrete typed error returned at module boundaries.
// Path names the offending openPMD path (e.g. "/data/42/meshes/E/x");
// it may be empty for errors that have no associated node (e.g. a
// config-schema error rooted at the Series).
type Error struct {
	Kind Kind
	Path string
	Op   string
	Err  error // wrapped underlying cause, if any
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("openpmd: %s: %s (%s): %v", e.Op, e.Path, e.Kind, e.Err)
	case e.Path != "":
		return fmt.Sprintf("openpmd: %s: %s (%s)", e.Op, e.Path, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("openpmd: %s (%s): %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("openpmd: %s (%s)", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, openpmderr.WrongAPIUsage) style checks
// against a bare Kind by way of a sentinel wrapper — see KindError.
func (e *Error) Is(target error) bool {
	if k, ok := target.(*kindSentinel); ok {
		return e.Kind == k.kind
	}
	return false
}

// New constructs an *Error.
func New(kind Kind, op, path string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: cause}
}

type kindSentinel struct{ kind Kind }

func (k *kindSentinel) Error() string { return "openpmderr: " + k.kind.String() }

// KindError returns a sentinel error comparable via errors.Is against
// any *Error of the given Kind, e.g.:
//
//	if errors.Is(err, openpmderr.KindError(openpmderr.WrongAPIUsage)) { ... }
func KindError(k Kind) error { return &kindSentinel{kind: k} }

// BackendConfigPath records the location of an invalid configuration
// key for a BackendConfigSchema error.
type BackendConfigPath struct {
	Path []string
}

func (p BackendConfigPath) String() string {
	s := ""
	for i, seg := range p.Path {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}

// NewConfigSchema builds a BackendConfigSchema *Error naming the
// offending configuration location.
func NewConfigSchema(path []string, cause error) *Error {
	return &Error{
		Kind: BackendConfigSchema,
		Op:   "config",
		Path: BackendConfigPath{Path: path}.String(),
		Err:  cause,
	}
}
