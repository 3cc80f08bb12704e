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

package attr

import (
	"fmt"
	"reflect"
)

// Value is a tagged value holding one instance of a Datatype, the way
// ion.Datum tags an ion value over ion.Type — the same closed-tag
// approach applied to openPMD's attribute type system instead of a
// wire encoding.
type Value struct {
	dt Datatype
	v  any
}

// Datatype returns the tag under which v was stored.
func (a Value) Datatype() Datatype { return a.dt }

// Raw returns the underlying Go value, for backends that must
// serialize an attribute generically (JSON/TOML encoding, wire
// formats) without statically knowing every Datatype's Go
// representation up front.
func (a Value) Raw() any { return a.v }

// FromRaw reconstructs a Value from a previously-serialized (dt, raw)
// pair, the inverse of Datatype/Raw. Unlike NewValue it trusts the
// caller's dt rather than re-deriving it from raw's Go type, since a
// deserializer (e.g. containerfs reading back a meta.json) already
// knows the Datatype from the stored schema.
func FromRaw(dt Datatype, raw any) Value {
	return Value{dt: dt, v: raw}
}

// scalarGoType maps a Datatype's basic scalar tag to the reflect.Type
// used to represent it in Go. Several Datatypes alias the same Go
// type (LONG/LONGLONG both int64, ULONG/ULONGLONG both uint64,
// DOUBLE/LONG_DOUBLE both float64, CDOUBLE/CLONG_DOUBLE both
// complex128) because Go has no distinct "long long" — this is the
// same representation collapse IsSame documents for platforms where
// those C++ types share a bit pattern.
var scalarGoType = map[Datatype]reflect.Type{
	CHAR: reflect.TypeOf(int8(0)), SCHAR: reflect.TypeOf(int8(0)), UCHAR: reflect.TypeOf(uint8(0)),
	SHORT: reflect.TypeOf(int16(0)), USHORT: reflect.TypeOf(uint16(0)),
	INT: reflect.TypeOf(int32(0)), UINT: reflect.TypeOf(uint32(0)),
	LONG: reflect.TypeOf(int64(0)), LONGLONG: reflect.TypeOf(int64(0)),
	ULONG: reflect.TypeOf(uint64(0)), ULONGLONG: reflect.TypeOf(uint64(0)),
	FLOAT: reflect.TypeOf(float32(0)), DOUBLE: reflect.TypeOf(float64(0)), LONG_DOUBLE: reflect.TypeOf(float64(0)),
	CFLOAT: reflect.TypeOf(complex64(0)), CDOUBLE: reflect.TypeOf(complex128(0)), CLONG_DOUBLE: reflect.TypeOf(complex128(0)),
	STRING: reflect.TypeOf(""), BOOL: reflect.TypeOf(false),
}

// goTypeToDatatype is the canonical, deterministic inverse of
// scalarGoType used when constructing a Value from a Go value: where
// several Datatypes alias one Go type, the narrower/more common tag
// (LONG over LONGLONG, ULONG over ULONGLONG, DOUBLE over LONG_DOUBLE,
// CDOUBLE over CLONG_DOUBLE) is chosen, matching the convention that
// those wider tags are only ever observed by reading a value a
// backend declared that way, never constructed from a Go literal.
var goTypeToDatatype = map[reflect.Type]Datatype{
	reflect.TypeOf(int8(0)):       CHAR,
	reflect.TypeOf(uint8(0)):      UCHAR,
	reflect.TypeOf(int16(0)):      SHORT,
	reflect.TypeOf(uint16(0)):     USHORT,
	reflect.TypeOf(int32(0)):      INT,
	reflect.TypeOf(uint32(0)):     UINT,
	reflect.TypeOf(int64(0)):      LONG,
	reflect.TypeOf(uint64(0)):     ULONG,
	reflect.TypeOf(float32(0)):    FLOAT,
	reflect.TypeOf(float64(0)):    DOUBLE,
	reflect.TypeOf(complex64(0)):  CFLOAT,
	reflect.TypeOf(complex128(0)): CDOUBLE,
	reflect.TypeOf(""):            STRING,
	reflect.TypeOf(false):         BOOL,
}

// determineFromGoType finds the Datatype tag corresponding to a Go
// runtime type, mirroring determine_datatype<T>() from the C++ API:
// it has special handling for [7]float64 (unitDimension) and for
// slices (promoted to the VEC_ variant of their element type).
func determineFromGoType(t reflect.Type) (Datatype, error) {
	if t.Kind() == reflect.Array && t.Len() == 7 && t.Elem().Kind() == reflect.Float64 {
		return ARR_DBL_7, nil
	}
	if t.Kind() == reflect.Slice {
		elemDT, err := determineFromGoType(t.Elem())
		if err != nil {
			return UNDEFINED, err
		}
		v := ToVectorType(elemDT)
		if v == UNDEFINED {
			return UNDEFINED, fmt.Errorf("attr: no vector Datatype for element type %v", t.Elem())
		}
		return v, nil
	}
	if dt, ok := goTypeToDatatype[t]; ok {
		return dt, nil
	}
	return UNDEFINED, fmt.Errorf("attr: no Datatype for Go type %v", t)
}

// GoType returns the reflect.Type used to represent the basic scalar
// underlying Datatype t, or nil if t has no fixed Go representation
// (UNDEFINED, DATATYPE, vector/array types — use BasicDatatype first).
func GoType(t Datatype) reflect.Type {
	return scalarGoType[t]
}

// NewValue builds an Attribute Value from a concrete Go value,
// determining its Datatype the way determine_datatype<T>() does.
func NewValue(v any) (Value, error) {
	rt := reflect.TypeOf(v)
	dt, err := determineFromGoType(rt)
	if err != nil {
		return Value{}, err
	}
	return Value{dt: dt, v: v}, nil
}

// MustValue is NewValue but panics on error; intended for call sites
// constructing Values from compile-time-known Go types (schema
// defaults, tests), mirroring the teacher's convention of panicking
// only on invariant violations that indicate a prior bug in the
// calling code (see ion.Datum.Encode's panic on non-symbolized types).
func MustValue(v any) Value {
	a, err := NewValue(v)
	if err != nil {
		panic(err)
	}
	return a
}

// ErrTypeMismatch is returned by Get when the stored Datatype cannot
// be converted to the requested Go type under the openPMD conversion
// rules (§4.1 of SPEC_FULL.md / §3 of spec.md).
type ErrTypeMismatch struct {
	Stored    Datatype
	Requested reflect.Type
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("attr: cannot read attribute of type %v as %v", e.Stored, e.Requested)
}

// Get reads a's value as T, applying the conversion rules in §3 of
// spec.md: identical type, scalar<->scalar widening/narrowing,
// vector<->vector elementwise, scalar->1-element vector, and
// fixed-array<->vector of matching length. It fails with
// *ErrTypeMismatch if no rule applies.
func Get[T any](a Value) (T, error) {
	var zero T
	target := reflect.TypeOf(zero)
	out, err := convert(a.v, target)
	if err != nil {
		return zero, &ErrTypeMismatch{Stored: a.dt, Requested: target}
	}
	tv, ok := out.Interface().(T)
	if !ok {
		return zero, &ErrTypeMismatch{Stored: a.dt, Requested: target}
	}
	return tv, nil
}

// GetOptional is Get but returns (zero, false) instead of an error
// when the conversion is not possible.
func GetOptional[T any](a Value) (T, bool) {
	v, err := Get[T](a)
	return v, err == nil
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

// convert implements the conversion table; it returns a
// reflect.Value of exactly type `target` on success.
func convert(stored any, target reflect.Type) (reflect.Value, error) {
	sv := reflect.ValueOf(stored)
	st := sv.Type()

	// (a) identical
	if st == target {
		return sv, nil
	}

	// (b) scalar -> scalar widening/narrowing via static cast
	if isNumericKind(st.Kind()) && isNumericKind(target.Kind()) {
		return sv.Convert(target), nil
	}

	// (d) scalar -> 1-element vector
	if isNumericKind(st.Kind()) && target.Kind() == reflect.Slice && isNumericKind(target.Elem().Kind()) {
		out := reflect.MakeSlice(target, 1, 1)
		out.Index(0).Set(sv.Convert(target.Elem()))
		return out, nil
	}
	if st.Kind() == reflect.String && target.Kind() == reflect.Slice && target.Elem().Kind() == reflect.String {
		out := reflect.MakeSlice(target, 1, 1)
		out.Index(0).Set(sv)
		return out, nil
	}

	// (c) vector -> vector element-wise
	if st.Kind() == reflect.Slice && target.Kind() == reflect.Slice {
		n := sv.Len()
		out := reflect.MakeSlice(target, n, n)
		for i := 0; i < n; i++ {
			elem, err := convert(sv.Index(i).Interface(), target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(elem)
		}
		return out, nil
	}

	// (e) fixed-array <-> vector of matching length
	if st.Kind() == reflect.Array && target.Kind() == reflect.Slice {
		n := st.Len()
		out := reflect.MakeSlice(target, n, n)
		for i := 0; i < n; i++ {
			elem, err := convert(sv.Index(i).Interface(), target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(elem)
		}
		return out, nil
	}
	if st.Kind() == reflect.Slice && target.Kind() == reflect.Array {
		if sv.Len() != target.Len() {
			return reflect.Value{}, fmt.Errorf("attr: length mismatch converting %v (len %d) to %v (len %d)",
				st, sv.Len(), target, target.Len())
		}
		out := reflect.New(target).Elem()
		for i := 0; i < target.Len(); i++ {
			elem, err := convert(sv.Index(i).Interface(), target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(elem)
		}
		return out, nil
	}

	return reflect.Value{}, fmt.Errorf("attr: no conversion from %v to %v", st, target)
}

// Equal reports whether a and b hold elementwise-equal values,
// regardless of exact stored Datatype (used by round-trip tests).
func Equal(a, b Value) bool {
	return reflect.DeepEqual(a.v, b.v)
}
