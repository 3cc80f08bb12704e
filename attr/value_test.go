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

import "testing"

func TestRoundTrip(t *testing.T) {
	cases := []any{
		int32(42), float64(3.14), "hello", true,
		[]float64{1, 2, 3}, []string{"x", "y"}, [7]float64{1, 2, 3, 4, 5, 6, 7},
	}
	for _, v := range cases {
		a, err := NewValue(v)
		if err != nil {
			t.Fatalf("NewValue(%v): %v", v, err)
		}
		switch want := v.(type) {
		case int32:
			got, err := Get[int32](a)
			if err != nil || got != want {
				t.Errorf("Get[int32]: got %v, %v, want %v", got, err, want)
			}
		case float64:
			got, err := Get[float64](a)
			if err != nil || got != want {
				t.Errorf("Get[float64]: got %v, %v, want %v", got, err, want)
			}
		case string:
			got, err := Get[string](a)
			if err != nil || got != want {
				t.Errorf("Get[string]: got %v, %v, want %v", got, err, want)
			}
		case bool:
			got, err := Get[bool](a)
			if err != nil || got != want {
				t.Errorf("Get[bool]: got %v, %v, want %v", got, err, want)
			}
		case []float64:
			got, err := Get[[]float64](a)
			if err != nil || !Equal(MustValue(got), MustValue(want)) {
				t.Errorf("Get[[]float64]: got %v, %v, want %v", got, err, want)
			}
		case []string:
			got, err := Get[[]string](a)
			if err != nil || !Equal(MustValue(got), MustValue(want)) {
				t.Errorf("Get[[]string]: got %v, %v, want %v", got, err, want)
			}
		case [7]float64:
			got, err := Get[[7]float64](a)
			if err != nil || got != want {
				t.Errorf("Get[[7]float64]: got %v, %v, want %v", got, err, want)
			}
		}
	}
}

func TestWideningCast(t *testing.T) {
	a := MustValue(int32(7))
	got, err := Get[int64](a)
	if err != nil || got != 7 {
		t.Fatalf("widening INT->LONG: got %v, %v", got, err)
	}
	got2, err := Get[float64](a)
	if err != nil || got2 != 7.0 {
		t.Fatalf("INT->DOUBLE static cast: got %v, %v", got2, err)
	}
}

func TestScalarToOneElementVector(t *testing.T) {
	a := MustValue(float64(2.5))
	got, err := Get[[]float64](a)
	if err != nil || len(got) != 1 || got[0] != 2.5 {
		t.Fatalf("scalar->vector: got %v, %v", got, err)
	}
}

func TestFixedArrayVectorConversion(t *testing.T) {
	arr := [7]float64{1, 1, -3, 0, 0, 0, 0}
	a := MustValue(arr)
	vec, err := Get[[]float64](a)
	if err != nil || len(vec) != 7 {
		t.Fatalf("array->vector: %v, %v", vec, err)
	}
	b := MustValue(vec)
	back, err := Get[[7]float64](b)
	if err != nil || back != arr {
		t.Fatalf("vector->array roundtrip: %v, %v", back, err)
	}
}

func TestTypeMismatch(t *testing.T) {
	a := MustValue("not a number")
	_, err := Get[int32](a)
	if err == nil {
		t.Fatal("expected type mismatch error")
	}
	var tm *ErrTypeMismatch
	if _, ok := err.(*ErrTypeMismatch); !ok {
		t.Fatalf("expected *ErrTypeMismatch, got %T", err)
	}
	_ = tm
}

func TestGetOptional(t *testing.T) {
	a := MustValue("x")
	if _, ok := GetOptional[int32](a); ok {
		t.Fatal("expected GetOptional to fail for string->int32")
	}
	if v, ok := GetOptional[string](a); !ok || v != "x" {
		t.Fatalf("GetOptional[string]: %v, %v", v, ok)
	}
}

func TestIsSameAndBasicDatatype(t *testing.T) {
	if !IsSame(LONG, LONGLONG) {
		t.Error("LONG and LONGLONG should compare equal under IsSame")
	}
	if IsSame(INT, LONG) {
		t.Error("INT and LONG differ in width, should not be IsSame")
	}
	if BasicDatatype(VEC_DOUBLE) != DOUBLE {
		t.Error("BasicDatatype(VEC_DOUBLE) should be DOUBLE")
	}
	if ToVectorType(DOUBLE) != VEC_DOUBLE {
		t.Error("ToVectorType(DOUBLE) should be VEC_DOUBLE")
	}
}

func TestToBytesFailsForUndefined(t *testing.T) {
	if _, err := ToBytes(UNDEFINED); err == nil {
		t.Error("ToBytes(UNDEFINED) should fail")
	}
	if _, err := ToBytes(DATATYPE); err == nil {
		t.Error("ToBytes(DATATYPE) should fail")
	}
	if b, err := ToBytes(DOUBLE); err != nil || b != 8 {
		t.Errorf("ToBytes(DOUBLE) = %d, %v", b, err)
	}
}
