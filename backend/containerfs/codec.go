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

package containerfs

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/openPMD/openpmd-go/attr"
)

// encodeValue converts v's underlying Go value into a representation
// encoding/json can marshal directly: complex64/complex128 (real and
// vector forms) have no native JSON encoding, so they are carried as
// [2]float64 "re, im" pairs instead.
func encodeValue(v attr.Value) (any, error) {
	return encodeRaw(v.Raw())
}

// EncodeValue and DecodeValue are exported so other backends (package
// debugfs) can reuse this Datatype-aware JSON codec — in particular
// the complex64/complex128 pairing above — instead of re-deriving it.
func EncodeValue(v attr.Value) (any, error) { return encodeValue(v) }

func DecodeValue(dt attr.Datatype, raw json.RawMessage) (attr.Value, error) {
	return decodeValue(dt, raw)
}

func encodeRaw(raw any) (any, error) {
	switch x := raw.(type) {
	case complex64:
		return [2]float64{float64(real(x)), float64(imag(x))}, nil
	case complex128:
		return [2]float64{real(x), imag(x)}, nil
	case []complex64:
		out := make([][2]float64, len(x))
		for i, c := range x {
			out[i] = [2]float64{float64(real(c)), float64(imag(c))}
		}
		return out, nil
	case []complex128:
		out := make([][2]float64, len(x))
		for i, c := range x {
			out[i] = [2]float64{real(c), imag(c)}
		}
		return out, nil
	}
	return raw, nil
}

// decodeValue is the inverse of encodeValue, reconstructing an
// attr.Value from its stored Datatype tag and the raw JSON
// representation written by encodeValue.
func decodeValue(dt attr.Datatype, raw json.RawMessage) (attr.Value, error) {
	if dt == attr.ARR_DBL_7 {
		var arr [7]float64
		if err := json.Unmarshal(raw, &arr); err != nil {
			return attr.Value{}, err
		}
		return attr.FromRaw(dt, arr), nil
	}
	if attr.IsComplexFloatingPoint(dt) {
		if attr.IsVector(dt) {
			var pairs [][2]float64
			if err := json.Unmarshal(raw, &pairs); err != nil {
				return attr.Value{}, err
			}
			basicBytes, _ := attr.ToBytes(attr.BasicDatatype(dt))
			if basicBytes == 8 { // CFLOAT
				out := make([]complex64, len(pairs))
				for i, p := range pairs {
					out[i] = complex(float32(p[0]), float32(p[1]))
				}
				return attr.FromRaw(dt, out), nil
			}
			out := make([]complex128, len(pairs))
			for i, p := range pairs {
				out[i] = complex(p[0], p[1])
			}
			return attr.FromRaw(dt, out), nil
		}
		var p [2]float64
		if err := json.Unmarshal(raw, &p); err != nil {
			return attr.Value{}, err
		}
		if attr.BasicDatatype(dt) == attr.CFLOAT {
			return attr.FromRaw(dt, complex(float32(p[0]), float32(p[1]))), nil
		}
		return attr.FromRaw(dt, complex(p[0], p[1])), nil
	}

	basic := attr.BasicDatatype(dt)
	goType := attr.GoType(basic)
	if goType == nil {
		return attr.Value{}, fmt.Errorf("containerfs: no Go representation for datatype %v", dt)
	}
	if attr.IsVector(dt) {
		slicePtr := reflect.New(reflect.SliceOf(goType))
		if err := json.Unmarshal(raw, slicePtr.Interface()); err != nil {
			return attr.Value{}, err
		}
		return attr.FromRaw(dt, slicePtr.Elem().Interface()), nil
	}
	ptr := reflect.New(goType)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return attr.Value{}, err
	}
	return attr.FromRaw(dt, ptr.Elem().Interface()), nil
}
