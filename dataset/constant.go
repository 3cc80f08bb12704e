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

package dataset

import (
	"fmt"

	"github.com/openPMD/openpmd-go/attr"
	"github.com/openPMD/openpmd-go/openpmderr"
)

// constantValueAttr and constantShapeAttr are the two attributes a
// constant component is represented as on the backend (§4.4,
// §8 scenario 2): no dataset object is created, and readers detect
// the constant pattern by the presence of both attributes.
const (
	constantValueAttr = "value"
	constantShapeAttr = "shape"
)

// MakeConstant marks the component as holding a single scalar value
// shared by every point, rather than per-point storage. value_type
// must equal the component's declared Datatype (or, if reset_dataset
// was never called, value's Datatype is adopted). It is mutually
// exclusive with MakeEmpty: whichever is called first wins, and the
// second call fails (§8 "Constant/empty disjointness").
func (c *Component) MakeConstant(value any) error {
	if c.isEmpty {
		return openpmderr.New(openpmderr.WrongAPIUsage, "MakeConstant", c.path(),
			fmt.Errorf("component is already empty"))
	}
	if c.isConstant {
		return openpmderr.New(openpmderr.WrongAPIUsage, "MakeConstant", c.path(),
			fmt.Errorf("component is already constant"))
	}
	v, err := attr.NewValue(value)
	if err != nil {
		return openpmderr.New(openpmderr.WrongAPIUsage, "MakeConstant", c.path(), err)
	}
	if c.resetDone && v.Datatype() != c.datatype {
		return openpmderr.New(openpmderr.WrongAPIUsage, "MakeConstant", c.path(),
			fmt.Errorf("value_type %v does not match component datatype %v", v.Datatype(), c.datatype))
	}
	if !c.resetDone {
		c.datatype = v.Datatype()
		c.resetDone = true
	}
	c.isConstant = true
	c.constantValue = v
	if err := c.SetAttribute(constantValueAttr, value); err != nil {
		return err
	}
	if err := c.SetAttribute(constantShapeAttr, c.extentOrDefault()); err != nil {
		return err
	}
	c.Arena.MarkDirty(c.ID)
	return nil
}

// extentOrDefault returns the declared extent as a []uint64, or an
// empty slice if reset_dataset was never called before MakeConstant.
func (c *Component) extentOrDefault() []uint64 {
	if c.extent == nil {
		return []uint64{}
	}
	return c.extent
}

// IsConstant reports whether the component was marked constant.
func (c *Component) IsConstant() bool { return c.isConstant }

// ConstantValue returns the stored scalar value and whether the
// component is in fact constant.
func (c *Component) ConstantValue() (attr.Value, bool) {
	return c.constantValue, c.isConstant
}

// MakeEmpty marks the component as zero-extent in every dimension,
// enabling zero-chunk traversal without backing storage. Mutually
// exclusive with MakeConstant.
func (c *Component) MakeEmpty(dt attr.Datatype, ndims int) error {
	if c.isConstant {
		return openpmderr.New(openpmderr.WrongAPIUsage, "MakeEmpty", c.path(),
			fmt.Errorf("component is already constant"))
	}
	if c.isEmpty {
		return openpmderr.New(openpmderr.WrongAPIUsage, "MakeEmpty", c.path(),
			fmt.Errorf("component is already empty"))
	}
	c.datatype = dt
	c.extent = make([]uint64, ndims)
	c.emptyNDims = ndims
	c.isEmpty = true
	c.resetDone = true
	c.Arena.MarkDirty(c.ID)
	return nil
}

// IsEmpty reports whether the component was marked empty.
func (c *Component) IsEmpty() bool { return c.isEmpty }
