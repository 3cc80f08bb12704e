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

// Package attr implements the openPMD Datatype enumeration and the
// Attribute value variant that carries any instance of it.
//
// Datatype is a closed set, the same way ion.Type is a closed set in
// the teacher package: every Datatype is one of a fixed list of tags,
// and every operation on it (size, signedness, vector-ness) is a
// table lookup rather than open dispatch.
package attr

import "fmt"

// Datatype identifies the concrete representation of an Attribute or
// a RecordComponent's element type.
type Datatype int

const (
	UNDEFINED Datatype = iota
	DATATYPE           // the meta-type "this attribute holds a Datatype value"

	CHAR
	UCHAR
	SCHAR

	SHORT
	INT
	LONG
	LONGLONG
	USHORT
	UINT
	ULONG
	ULONGLONG

	FLOAT
	DOUBLE
	LONG_DOUBLE

	CFLOAT
	CDOUBLE
	CLONG_DOUBLE

	STRING
	VEC_STRING

	BOOL

	ARR_DBL_7 // fixed 7-element double array (unitDimension)

	// vector variants, one per scalar numeric/string/bool type above
	VEC_CHAR
	VEC_SHORT
	VEC_INT
	VEC_LONG
	VEC_LONGLONG
	VEC_UCHAR
	VEC_USHORT
	VEC_UINT
	VEC_ULONG
	VEC_ULONGLONG
	VEC_FLOAT
	VEC_DOUBLE
	VEC_LONG_DOUBLE
	VEC_CFLOAT
	VEC_CDOUBLE
	VEC_CLONG_DOUBLE
	VEC_BOOL
)

type typeInfo struct {
	name     string
	bytes    int // 0 means "not scalar-sized" (vector/array/string/undefined)
	integer  bool
	signed   bool
	floating bool
	complex_ bool
	vector   bool
	basic    Datatype // the scalar this type is a vector of, or itself if scalar
}

var info = map[Datatype]typeInfo{
	UNDEFINED: {name: "UNDEFINED"},
	DATATYPE:  {name: "DATATYPE"},

	CHAR:  {name: "CHAR", bytes: 1, integer: true, signed: true, basic: CHAR},
	SCHAR: {name: "SCHAR", bytes: 1, integer: true, signed: true, basic: SCHAR},
	UCHAR: {name: "UCHAR", bytes: 1, integer: true, signed: false, basic: UCHAR},

	SHORT:     {name: "SHORT", bytes: 2, integer: true, signed: true, basic: SHORT},
	INT:       {name: "INT", bytes: 4, integer: true, signed: true, basic: INT},
	LONG:      {name: "LONG", bytes: 8, integer: true, signed: true, basic: LONG},
	LONGLONG:  {name: "LONGLONG", bytes: 8, integer: true, signed: true, basic: LONGLONG},
	USHORT:    {name: "USHORT", bytes: 2, integer: true, signed: false, basic: USHORT},
	UINT:      {name: "UINT", bytes: 4, integer: true, signed: false, basic: UINT},
	ULONG:     {name: "ULONG", bytes: 8, integer: true, signed: false, basic: ULONG},
	ULONGLONG: {name: "ULONGLONG", bytes: 8, integer: true, signed: false, basic: ULONGLONG},

	FLOAT:       {name: "FLOAT", bytes: 4, floating: true, basic: FLOAT},
	DOUBLE:      {name: "DOUBLE", bytes: 8, floating: true, basic: DOUBLE},
	LONG_DOUBLE: {name: "LONG_DOUBLE", bytes: 16, floating: true, basic: LONG_DOUBLE},

	CFLOAT:       {name: "CFLOAT", bytes: 8, floating: true, complex_: true, basic: CFLOAT},
	CDOUBLE:      {name: "CDOUBLE", bytes: 16, floating: true, complex_: true, basic: CDOUBLE},
	CLONG_DOUBLE: {name: "CLONG_DOUBLE", bytes: 32, floating: true, complex_: true, basic: CLONG_DOUBLE},

	STRING:     {name: "STRING", basic: STRING},
	VEC_STRING: {name: "VEC_STRING", vector: true, basic: STRING},

	BOOL: {name: "BOOL", bytes: 1, basic: BOOL},

	ARR_DBL_7: {name: "ARR_DBL_7", bytes: 8 * 7, basic: DOUBLE},

	VEC_CHAR:        {name: "VEC_CHAR", vector: true, bytes: 1, integer: true, signed: true, basic: CHAR},
	VEC_SHORT:       {name: "VEC_SHORT", vector: true, bytes: 2, integer: true, signed: true, basic: SHORT},
	VEC_INT:         {name: "VEC_INT", vector: true, bytes: 4, integer: true, signed: true, basic: INT},
	VEC_LONG:        {name: "VEC_LONG", vector: true, bytes: 8, integer: true, signed: true, basic: LONG},
	VEC_LONGLONG:    {name: "VEC_LONGLONG", vector: true, bytes: 8, integer: true, signed: true, basic: LONGLONG},
	VEC_UCHAR:       {name: "VEC_UCHAR", vector: true, bytes: 1, integer: true, signed: false, basic: UCHAR},
	VEC_USHORT:      {name: "VEC_USHORT", vector: true, bytes: 2, integer: true, signed: false, basic: USHORT},
	VEC_UINT:        {name: "VEC_UINT", vector: true, bytes: 4, integer: true, signed: false, basic: UINT},
	VEC_ULONG:       {name: "VEC_ULONG", vector: true, bytes: 8, integer: true, signed: false, basic: ULONG},
	VEC_ULONGLONG:   {name: "VEC_ULONGLONG", vector: true, bytes: 8, integer: true, signed: false, basic: ULONGLONG},
	VEC_FLOAT:       {name: "VEC_FLOAT", vector: true, bytes: 4, floating: true, basic: FLOAT},
	VEC_DOUBLE:      {name: "VEC_DOUBLE", vector: true, bytes: 8, floating: true, basic: DOUBLE},
	VEC_LONG_DOUBLE: {name: "VEC_LONG_DOUBLE", vector: true, bytes: 16, floating: true, basic: LONG_DOUBLE},
	VEC_CFLOAT:      {name: "VEC_CFLOAT", vector: true, bytes: 8, floating: true, complex_: true, basic: CFLOAT},
	VEC_CDOUBLE:     {name: "VEC_CDOUBLE", vector: true, bytes: 16, floating: true, complex_: true, basic: CDOUBLE},
	VEC_CLONG_DOUBLE: {
		name: "VEC_CLONG_DOUBLE", vector: true, bytes: 32, floating: true, complex_: true, basic: CLONG_DOUBLE,
	},
	VEC_BOOL: {name: "VEC_BOOL", vector: true, bytes: 1, basic: BOOL},
}

func (t Datatype) String() string {
	if i, ok := info[t]; ok {
		return i.name
	}
	return fmt.Sprintf("Datatype(%d)", int(t))
}

// ToBytes returns the size in bytes of one scalar element of t.
// It returns an error for UNDEFINED, DATATYPE, and the pure string types,
// none of which have a fixed per-element size.
func ToBytes(t Datatype) (int, error) {
	i, ok := info[t]
	if !ok || t == UNDEFINED || t == DATATYPE || i.bytes == 0 {
		return 0, fmt.Errorf("attr: ToBytes undefined for %v", t)
	}
	return i.bytes, nil
}

// ToBits is ToBytes times eight.
func ToBits(t Datatype) (int, error) {
	b, err := ToBytes(t)
	if err != nil {
		return 0, err
	}
	return b * 8, nil
}

// IsVector reports whether t is a vector (or fixed-array) variant.
func IsVector(t Datatype) bool {
	i, ok := info[t]
	return ok && (i.vector || t == ARR_DBL_7)
}

// IsFloatingPoint reports whether t's underlying scalar is a
// floating-point type (real or complex).
func IsFloatingPoint(t Datatype) bool {
	i, ok := info[t]
	return ok && i.floating
}

// IsComplexFloatingPoint reports whether t's underlying scalar is a
// complex floating-point type.
func IsComplexFloatingPoint(t Datatype) bool {
	i, ok := info[t]
	return ok && i.complex_
}

// IsInteger reports whether t's underlying scalar is an integer type,
// and if so, whether it is signed.
func IsInteger(t Datatype) (isInt bool, isSigned bool) {
	i, ok := info[t]
	if !ok {
		return false, false
	}
	return i.integer, i.signed
}

// IsSame reports whether a and b share bit-width, signedness, floating
// kind, complex kind, and vector-ness — i.e. they are interchangeable
// on a platform where e.g. LONG and LONGLONG have identical
// representation.
func IsSame(a, b Datatype) bool {
	if a == b {
		return true
	}
	ia, oka := info[a]
	ib, okb := info[b]
	if !oka || !okb {
		return false
	}
	if ia.vector != ib.vector {
		return false
	}
	if ia.bytes == 0 || ib.bytes == 0 {
		return false
	}
	return ia.bytes == ib.bytes &&
		ia.integer == ib.integer &&
		ia.signed == ib.signed &&
		ia.floating == ib.floating &&
		ia.complex_ == ib.complex_
}

// BasicDatatype strips the vector/array outer level of t, returning
// the underlying scalar tag. For scalar t it returns t unchanged.
func BasicDatatype(t Datatype) Datatype {
	if i, ok := info[t]; ok {
		return i.basic
	}
	return t
}

var toVector = map[Datatype]Datatype{
	CHAR: VEC_CHAR, SHORT: VEC_SHORT, INT: VEC_INT, LONG: VEC_LONG, LONGLONG: VEC_LONGLONG,
	UCHAR: VEC_UCHAR, USHORT: VEC_USHORT, UINT: VEC_UINT, ULONG: VEC_ULONG, ULONGLONG: VEC_ULONGLONG,
	FLOAT: VEC_FLOAT, DOUBLE: VEC_DOUBLE, LONG_DOUBLE: VEC_LONG_DOUBLE,
	CFLOAT: VEC_CFLOAT, CDOUBLE: VEC_CDOUBLE, CLONG_DOUBLE: VEC_CLONG_DOUBLE,
	STRING: VEC_STRING, BOOL: VEC_BOOL,
}

// ToVectorType promotes a scalar tag to its vector counterpart. It
// returns UNDEFINED if t has no vector counterpart (t is already a
// vector, or is UNDEFINED/DATATYPE/ARR_DBL_7).
func ToVectorType(t Datatype) Datatype {
	if v, ok := toVector[t]; ok {
		return v
	}
	return UNDEFINED
}

var byName map[string]Datatype

func init() {
	byName = make(map[string]Datatype, len(info))
	for t, i := range info {
		byName[i.name] = t
	}
}

// StringToDatatype parses the canonical name of a Datatype (as used in
// serialized attribute schemas), e.g. "DOUBLE" or "VEC_FLOAT".
func StringToDatatype(s string) (Datatype, error) {
	if t, ok := byName[s]; ok {
		return t, nil
	}
	return UNDEFINED, fmt.Errorf("attr: unknown datatype name %q", s)
}

// DatatypeToString is the inverse of StringToDatatype.
func DatatypeToString(t Datatype) string {
	return t.String()
}
