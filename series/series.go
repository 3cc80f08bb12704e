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

// Package series implements the Series root (§4.7 of SPEC_FULL.md):
// global metadata, iteration encoding, the iteration container in
// key-ascending order, filename pattern handling, backend selection
// by file extension, and the depth-first flush orchestration of §4.9.
package series

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/openPMD/openpmd-go/backend"
	"github.com/openPMD/openpmd-go/config"
	"github.com/openPMD/openpmd-go/hierarchy"
	"github.com/openPMD/openpmd-go/iteration"
	"github.com/openPMD/openpmd-go/openpmderr"
)

// Encoding is the iteration-encoding strategy (§4.7).
type Encoding string

const (
	FileBased     Encoding = "file_based"
	GroupBased    Encoding = "group_based"
	VariableBased Encoding = "variable_based"
)

// ParsePreference selects when a reread re-parses attribute/record
// lists: once up front, or freshly at every step (§4.8).
type ParsePreference int

const (
	UpFront ParsePreference = iota
	PerStep
)

// backendByExtension implements the "File extensions and backend
// mapping" table of §6.
var backendByExtension = map[string]string{
	".h5":   "hdf5",
	".bp":   "adios2",
	".bp4":  "adios2",
	".bp5":  "adios2",
	".json": "json",
	".toml": "toml",
}

// filenamePattern matches exactly one %T or %0NT token (§4.7, §6).
var filenamePattern = regexp.MustCompile(`%(0(\d+))?T`)

// Series is the root of one openPMD data set (§3, §4.7).
type Series struct {
	hierarchy.Attributable

	arena      *backend.Arena
	iterations *hierarchy.Container[*iteration.Iteration]

	path            string
	encoding        Encoding
	parsePreference ParsePreference
	backendName     string
	cfg             *config.Config
}

// Open constructs a Series bound to a fresh arena dispatching to be,
// selecting the backend and iteration encoding from path's extension
// and cfg (cfg may be nil, meaning all-default), and writes the
// required root attributes (§6).
func Open(path string, be backend.Backend, cfg *config.Config) (*Series, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	name, err := SelectBackend(path, cfg)
	if err != nil {
		return nil, err
	}
	enc := resolveEncoding(cfg, name)
	if enc == FileBased {
		if err := validateFilenamePattern(path); err != nil {
			return nil, err
		}
	}

	arena := backend.NewArena(be)
	s := &Series{
		arena:           arena,
		path:            path,
		encoding:        enc,
		backendName:     name,
		cfg:             cfg,
		parsePreference: UpFront,
	}
	if cfg.DeferIterationParsing {
		s.parsePreference = PerStep
	}
	s.Attributable.Init(arena, arena.Root())
	arena.SetFlusher(arena.Root(), s.FlushAttributes)
	s.iterations = hierarchy.NewContainer[*iteration.Iteration](arena, arena.Root(), nil, hierarchy.ReadWrite,
		func() *iteration.Iteration { return &iteration.Iteration{Streaming: enc == VariableBased} })

	if err := s.SetAttribute("openPMD", "2.0.0"); err != nil {
		return nil, err
	}
	if err := s.SetAttribute("openPMDextension", uint32(0)); err != nil {
		return nil, err
	}
	if err := s.SetAttribute("basePath", "/data/%T/"); err != nil {
		return nil, err
	}
	if err := s.SetAttribute("iterationEncoding", string(enc)); err != nil {
		return nil, err
	}
	if err := s.SetAttribute("iterationFormat", filepath.Base(path)); err != nil {
		return nil, err
	}
	return s, nil
}

// SelectBackend resolves the backend name for path: cfg.Backend
// overrides the extension-based default (§4.7 "inferred from the
// filename extension... unless overridden by configuration").
func SelectBackend(path string, cfg *config.Config) (string, error) {
	if cfg != nil && cfg.Backend != "" {
		return cfg.Backend, nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	name, ok := backendByExtension[ext]
	if !ok {
		return "", openpmderr.New(openpmderr.WrongAPIUsage, "SelectBackend", path,
			fmt.Errorf("no backend registered for extension %q", ext))
	}
	return name, nil
}

func resolveEncoding(cfg *config.Config, backendName string) Encoding {
	switch cfg.IterationEncoding {
	case string(FileBased):
		return FileBased
	case string(GroupBased):
		return GroupBased
	case string(VariableBased):
		return VariableBased
	}
	if backendName == "adios2" {
		return VariableBased
	}
	return FileBased
}

func validateFilenamePattern(path string) error {
	matches := filenamePattern.FindAllString(path, -1)
	if len(matches) != 1 {
		return openpmderr.New(openpmderr.WrongAPIUsage, "Open", path,
			fmt.Errorf("file-based encoding requires exactly one %%T or %%0NT token, found %d", len(matches)))
	}
	return nil
}

// ExpandFilename substitutes index into the series' %T/%0NT token.
func (s *Series) ExpandFilename(index uint64) string {
	return expandFilename(s.path, index)
}

func expandFilename(pattern string, index uint64) string {
	return filenamePattern.ReplaceAllStringFunc(pattern, func(tok string) string {
		m := filenamePattern.FindStringSubmatch(tok)
		if m[2] != "" {
			width, _ := strconv.Atoi(m[2])
			return fmt.Sprintf("%0*d", width, index)
		}
		return strconv.FormatUint(index, 10)
	})
}

// SetAuthor, SetSoftware, SetSoftwareVersion, SetDate, SetMachine, and
// SetSoftwareDependencies store the optional global metadata strings
// named in §6.
func (s *Series) SetAuthor(v string) error                { return s.SetAttribute("author", v) }
func (s *Series) SetSoftware(v string) error              { return s.SetAttribute("software", v) }
func (s *Series) SetSoftwareVersion(v string) error       { return s.SetAttribute("softwareVersion", v) }
func (s *Series) SetDate(v string) error                  { return s.SetAttribute("date", v) }
func (s *Series) SetMachine(v string) error                { return s.SetAttribute("machine", v) }
func (s *Series) SetSoftwareDependencies(v string) error   { return s.SetAttribute("softwareDependencies", v) }
func (s *Series) SetMeshesPath(v string) error             { return s.SetAttribute("meshesPath", v) }
func (s *Series) SetParticlesPath(v string) error          { return s.SetAttribute("particlesPath", v) }

// Path returns the filename or pattern the series was opened with.
func (s *Series) Path() string { return s.path }

// Encoding reports the series' iteration encoding.
func (s *Series) Encoding() Encoding { return s.encoding }

// ParsePreference reports the series' parse preference.
func (s *Series) ParsePreference() ParsePreference { return s.parsePreference }

// BackendName reports the resolved backend name (§4.7).
func (s *Series) BackendName() string { return s.backendName }

// BackendConfig returns the configuration this series was opened with
// (possibly empty, never nil).
func (s *Series) BackendConfig() *config.Config { return s.cfg }

// Arena exposes the shared arena, for packages that must enqueue
// tasks or inspect Writables directly.
func (s *Series) Arena() *backend.Arena { return s.arena }

// Iteration returns (creating if necessary) the iteration at idx.
func (s *Series) Iteration(idx uint64) (*iteration.Iteration, error) {
	return s.iterations.Get(strconv.FormatUint(idx, 10))
}

// Iterations returns the iteration indices currently present, sorted
// ascending (§4.7 "iteration container (integer-keyed, key-ascending
// order)" — Container[T] itself only guarantees insertion order, so
// Series sorts numerically on top of it).
func (s *Series) Iterations() []uint64 {
	keys := s.iterations.Keys()
	out := make([]uint64, 0, len(keys))
	for _, k := range keys {
		n, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DropIteration discards idx's frontend state without emitting a
// backend delete: used by a linear-read stateful iterator to bound
// memory once an iteration can no longer be revisited (§4.8).
func (s *Series) DropIteration(idx uint64) {
	s.iterations.Drop(strconv.FormatUint(idx, 10))
}

// Flush performs the depth-first traversal of §4.9 over the whole
// series tree and drains the shared task queue.
func (s *Series) Flush(level backend.FlushLevel) error {
	return s.arena.FlushTree(s.arena.Root(), backend.FlushParams{Level: level})
}

// Close closes every iteration not yet closed (whatever the encoding)
// and flushes every pending task (§4.6, §5 "dropping the
// Series flushes pending tasks and closes all open backend handles").
func (s *Series) Close() error {
	for _, idx := range s.Iterations() {
		it, err := s.iterations.At(strconv.FormatUint(idx, 10))
		if err != nil {
			continue
		}
		if it.State() != iteration.ClosedInBackend && it.State() != iteration.ClosedInFrontend {
			_ = it.Close(false, nil)
		}
	}
	return s.Flush(backend.UserFlush)
}
