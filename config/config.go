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

// Package config implements the JSON/TOML backend configuration
// surface of §4.7/§6 of SPEC_FULL.md: global backend selection and
// per-dataset overrides matched by regex against a dataset's path.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/openPMD/openpmd-go/openpmderr"
)

// Operator is one entry of a dataset.operators pipeline (e.g.
// compression), applied in list order.
type Operator struct {
	Type       string                 `json:"type" toml:"type"`
	Parameters map[string]interface{} `json:"parameters,omitempty" toml:"parameters,omitempty"`
}

// Dataset is the `<backend>.dataset` configuration shape, shared by
// the global default and every per-dataset override's cfg.
type Dataset struct {
	Chunks    string     `json:"chunks,omitempty" toml:"chunks,omitempty"`
	Operators []Operator `json:"operators,omitempty" toml:"operators,omitempty"`
}

// Engine carries a backend-engine variant selector (e.g. BP4 vs BP5).
type Engine struct {
	Type string `json:"type,omitempty" toml:"type,omitempty"`
}

// Override is one element of a per-dataset `<backend>.dataset` list:
// cfg applies to any dataset path matched by one of Select's regexes.
type Override struct {
	Select []string `json:"select" toml:"select"`
	Cfg    Dataset  `json:"cfg" toml:"cfg"`

	compiled []*regexp.Regexp
}

// Backend carries the options namespaced under the active backend's
// name (e.g. "hdf5", "adios2", "json", "toml").
type Backend struct {
	Dataset  Dataset    `json:"dataset,omitempty" toml:"dataset,omitempty"`
	Engine   Engine     `json:"engine,omitempty" toml:"engine,omitempty"`
	Override []Override `json:"-" toml:"-"`
}

// Config is the fully parsed, schema-validated backend configuration
// (§4.7, §6).
type Config struct {
	Backend               string `json:"backend,omitempty" toml:"backend"`
	IterationEncoding     string `json:"iteration_encoding,omitempty" toml:"iteration_encoding"`
	DeferIterationParsing bool   `json:"defer_iteration_parsing,omitempty" toml:"defer_iteration_parsing"`

	// backends holds the per-backend-namespace sub-configuration
	// (e.g. config.backends["hdf5"]), keyed by backend name;
	// populated during Parse from every top-level key that is not in
	// knownTopLevelKeys, since the wire format nests options one level
	// deeper under a backend's name.
	backends map[string]*Backend
}

// known top-level keys; any other key is decoded as a backend
// namespace, and one that does not decode as such is a
// BackendConfigSchema error.
var knownTopLevelKeys = map[string]bool{
	"backend": true, "iteration_encoding": true, "defer_iteration_parsing": true,
}

// Parse auto-detects JSON vs. TOML from the leading non-whitespace
// byte (`{` means JSON, anything else is tried as TOML, matching the
// teacher's own convention of sniffing content rather than trusting
// an extension — see jsonrl's row-detection heuristics) and validates
// the result against the known key schema, reporting the first
// unknown key's location via openpmderr.NewConfigSchema. Every
// top-level key other than the known ones is taken as a backend
// namespace; unknown keys inside a namespace or a dataset_override
// entry are errors.
func Parse(raw []byte) (*Config, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return parseJSON(raw)
	}
	return parseTOML(raw)
}

// Load resolves the `@`-prefixed external-file convention (§4.7):
// raw beginning with '@' names a filesystem path to read the
// configuration from instead of being the configuration itself.
func Load(raw string) (*Config, error) {
	if strings.HasPrefix(raw, "@") {
		data, err := os.ReadFile(raw[1:])
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", raw[1:], err)
		}
		return Parse(data)
	}
	return Parse([]byte(raw))
}

func parseJSON(raw []byte) (*Config, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, openpmderr.NewConfigSchema(nil, err)
	}
	cfg := &Config{backends: make(map[string]*Backend)}
	for key, val := range top {
		if knownTopLevelKeys[key] {
			switch key {
			case "backend":
				_ = json.Unmarshal(val, &cfg.Backend)
			case "iteration_encoding":
				_ = json.Unmarshal(val, &cfg.IterationEncoding)
			case "defer_iteration_parsing":
				_ = json.Unmarshal(val, &cfg.DeferIterationParsing)
			}
			continue
		}
		// Anything else must be a `<backend-name>` namespace: decode
		// it as a Backend blob, including its dataset-override list.
		var b jsonBackend
		dec := json.NewDecoder(bytes.NewReader(val))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			return nil, openpmderr.NewConfigSchema([]string{key}, err)
		}
		parsed := &Backend{Dataset: b.Dataset, Engine: b.Engine}
		for _, ovRaw := range b.DatasetOverrides {
			ov, err := decodeOverrideJSON(ovRaw)
			if err != nil {
				return nil, openpmderr.NewConfigSchema([]string{key, "dataset"}, err)
			}
			parsed.Override = append(parsed.Override, ov)
		}
		cfg.backends[key] = parsed
	}
	return cfg, nil
}

// jsonBackend mirrors Backend for JSON decoding: `dataset` carries the
// namespace's default options, `dataset_override` the per-dataset
// override list (§6's "<backend>.dataset may be a list" generalized
// to a sibling key so a namespace can carry both defaults and
// overrides at once, mirroring the TOML side's tomlBackend shape).
type jsonBackend struct {
	Dataset          Dataset           `json:"dataset,omitempty"`
	Engine           Engine            `json:"engine,omitempty"`
	DatasetOverrides []json.RawMessage `json:"dataset_override,omitempty"`
}

func decodeOverrideJSON(raw json.RawMessage) (Override, error) {
	var wire struct {
		Select json.RawMessage `json:"select"`
		Cfg    Dataset          `json:"cfg"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return Override{}, err
	}
	ov := Override{Cfg: wire.Cfg}
	sel := bytes.TrimSpace(wire.Select)
	if len(sel) > 0 && sel[0] == '[' {
		if err := json.Unmarshal(sel, &ov.Select); err != nil {
			return Override{}, err
		}
	} else if len(sel) > 0 {
		var s string
		if err := json.Unmarshal(sel, &s); err != nil {
			return Override{}, err
		}
		ov.Select = []string{s}
	}
	if err := ov.compile(); err != nil {
		return Override{}, err
	}
	return ov, nil
}

// tomlBackend mirrors the wire format for one backend namespace when
// decoding TOML. BurntSushi/toml's MetaData.Undecoded gives us the
// unknown-key schema check, as json.Decoder.DisallowUnknownFields
// does for parseJSON.
type tomlBackend struct {
	Dataset  Dataset          `toml:"dataset"`
	Engine   Engine           `toml:"engine"`
	Override []tomlOverride   `toml:"dataset_override"`
}

type tomlOverride struct {
	Select []string `toml:"select"`
	Cfg    Dataset  `toml:"cfg"`
}

func parseTOML(raw []byte) (*Config, error) {
	var anyDoc map[string]toml.Primitive
	md, err := toml.Decode(string(raw), &anyDoc)
	if err != nil {
		return nil, openpmderr.NewConfigSchema(nil, err)
	}
	cfg := &Config{backends: make(map[string]*Backend)}
	for key, prim := range anyDoc {
		if knownTopLevelKeys[key] {
			switch key {
			case "backend":
				_ = md.PrimitiveDecode(prim, &cfg.Backend)
			case "iteration_encoding":
				_ = md.PrimitiveDecode(prim, &cfg.IterationEncoding)
			case "defer_iteration_parsing":
				_ = md.PrimitiveDecode(prim, &cfg.DeferIterationParsing)
			}
			continue
		}
		var b tomlBackend
		if err := md.PrimitiveDecode(prim, &b); err != nil {
			return nil, openpmderr.NewConfigSchema([]string{key}, err)
		}
		parsed := &Backend{Dataset: b.Dataset, Engine: b.Engine}
		for _, ov := range b.Override {
			o := Override{Select: ov.Select, Cfg: ov.Cfg}
			if err := o.compile(); err != nil {
				return nil, openpmderr.NewConfigSchema([]string{key, "dataset_override"}, err)
			}
			parsed.Override = append(parsed.Override, o)
		}
		cfg.backends[key] = parsed
	}
	if len(md.Undecoded()) > 0 {
		u := md.Undecoded()[0]
		return nil, openpmderr.NewConfigSchema(strings.Split(u.String(), "."), fmt.Errorf("unknown configuration key"))
	}
	return cfg, nil
}

func (o *Override) compile() error {
	o.compiled = o.compiled[:0]
	for _, pat := range o.Select {
		re, err := regexp.Compile("(?i)" + pat)
		if err != nil {
			return fmt.Errorf("config: invalid select regex %q: %w", pat, err)
		}
		o.compiled = append(o.compiled, re)
	}
	return nil
}

func (o *Override) matches(fullPath, intraIterationPath string) bool {
	for _, re := range o.compiled {
		if re.MatchString(fullPath) || re.MatchString(intraIterationPath) {
			return true
		}
	}
	return false
}

// ForBackend returns the per-backend-namespace configuration for
// name, or an empty Backend if none was supplied.
func (c *Config) ForBackend(name string) *Backend {
	if b, ok := c.backends[name]; ok {
		return b
	}
	return &Backend{}
}

// ResolveDataset implements the "Config selection" testable property
// (§8): given a dataset's full path and its path relative to the
// enclosing iteration, evaluate the per-dataset override list
// top-down and return the first match's cfg, case-insensitively,
// against both path forms; falling back to the backend's defaults.
func (b *Backend) ResolveDataset(fullPath, intraIterationPath string) Dataset {
	for _, ov := range b.Override {
		if ov.matches(fullPath, intraIterationPath) {
			return ov.Cfg
		}
	}
	return b.Dataset
}
