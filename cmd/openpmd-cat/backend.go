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

package main

import (
	"fmt"

	"github.com/openPMD/openpmd-go/backend"
	"github.com/openPMD/openpmd-go/backend/containerfs"
	"github.com/openPMD/openpmd-go/backend/debugfs"
	"github.com/openPMD/openpmd-go/backend/stream"
	"github.com/openPMD/openpmd-go/config"
	"github.com/openPMD/openpmd-go/series"
)

// openBackend mirrors cmd/openpmd-ls's helper of the same name: the
// two binaries share no importable package (both are package main),
// so each carries its own copy of this glue, the same way cmd/sdb and
// cmd/sneller each define their own small flag-parsing helpers rather
// than factoring them into a shared package.
func openBackend(path string, cfg *config.Config) (backend.Backend, error) {
	name, err := series.SelectBackend(path, cfg)
	if err != nil {
		return nil, err
	}
	switch name {
	case "hdf5":
		return containerfs.New(path + ".d"), nil
	case "adios2":
		return stream.New(path + ".d"), nil
	case "json":
		return debugfs.New(path, debugfs.JSON), nil
	case "toml":
		return debugfs.New(path, debugfs.TOML), nil
	}
	return nil, fmt.Errorf("no concrete backend registered for %q", name)
}
