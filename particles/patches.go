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

package particles

import (
	"github.com/openPMD/openpmd-go/backend"
	"github.com/openPMD/openpmd-go/hierarchy"
)

// Patches is the per-subdomain metadata container attached to a
// Species (§4.5, GLOSSARY "Particle patch"): count, offset, and
// extent records, one scalar component per patch index.
type Patches struct {
	leaves *hierarchy.Container[*Record]
}

func newPatches(arena *backend.Arena, speciesID backend.ID) *Patches {
	return &Patches{
		leaves: hierarchy.NewContainer[*Record](arena, speciesID, []string{"particlePatches"}, hierarchy.ReadWrite,
			func() *Record { return &Record{} }),
	}
}

// Record returns (creating if necessary) the named per-patch scalar
// record (conventionally "numParticles", "numParticlesOffset",
// "offset", "extent").
func (p *Patches) Record(name string) (*Record, error) {
	return p.leaves.Get(name)
}

// Names lists the per-patch record names present.
func (p *Patches) Names() []string {
	return p.leaves.Keys()
}
