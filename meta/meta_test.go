package meta

import (
	"reflect"
	"testing"
)

func TestFieldsOrder(t *testing.T) {
	f := NewFields()
	f.Set("b", NumberValue(1))
	f.Set("a", StringValue("x"))
	f.Set("c", ArrayValue([]float64{1, 2}))
	f.Set("b", NumberValue(2)) // keeps its position

	want := []string{"b", "a", "c"}
	if got := f.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
	if v, _ := f.Get("b"); v.Num() != 2 {
		t.Errorf("b = %v, want 2", v)
	}

	f.Delete("a")
	if got := f.Keys(); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("keys after delete = %v", got)
	}
}

func TestCopyIsDeep(t *testing.T) {
	a := []float64{1, 2, 3}
	f := NewFields()
	f.Set("arr", ArrayValue(a))
	a[0] = 100
	c := f.Copy()
	v, _ := f.Get("arr")
	v.Floats()[1] = 200

	cv, _ := c.Get("arr")
	if want := []float64{1, 2, 3}; !reflect.DeepEqual(cv.Floats(), want) {
		t.Errorf("copy = %v, want %v", cv.Floats(), want)
	}
}

func TestCoerce(t *testing.T) {
	nested := NewFields()
	nested.Set("inner", MissingValue())
	nested.Set("ok", StringValue("fine"))

	f := NewFields()
	f.Set("FILENAME", StringValue("scan.nvl"))
	f.Set("BIAS", MissingValue())
	f.Set("TABLE", TableValue([]string{"t", "v"}, [][]float64{{0, 1}, {1, 2}}))
	f.Set("SETPOINT", NumberValue(1e-10))
	f.Set("SUB", MapValue(nested))

	out, repl := Coerce(f, "NVL to MAT")

	if !reflect.DeepEqual(out.Keys(), f.Keys()) {
		t.Errorf("keys changed: %v != %v", out.Keys(), f.Keys())
	}
	if !out.Canonical() {
		t.Errorf("coerced fields are not canonical: %v", out)
	}
	if f.Canonical() {
		t.Errorf("input should not be canonical")
	}
	cases := map[string]string{
		"BIAS":     NoValue,
		"TABLE":    "Recarray deleted in NVL to MAT conversion",
		"FILENAME": "scan.nvl",
	}
	for k, want := range cases {
		v, _ := out.Get(k)
		if v.Kind() != String || v.Str() != want {
			t.Errorf("%s = %v (%v), want %q", k, v, v.Kind(), want)
		}
	}
	if v, _ := out.Get("SETPOINT"); v.Kind() != Number || v.Num() != 1e-10 {
		t.Errorf("SETPOINT = %v", v)
	}

	wantRepl := []Replacement{
		{Key: "BIAS", Was: Missing, With: NoValue},
		{Key: "TABLE", Was: Table, With: "Recarray deleted in NVL to MAT conversion"},
		{Key: "SUB.inner", Was: Missing, With: NoValue},
	}
	if !reflect.DeepEqual(repl, wantRepl) {
		t.Errorf("replacements = %+v, want %+v", repl, wantRepl)
	}

	// The input is left untouched.
	if v, _ := f.Get("BIAS"); v.Kind() != Missing {
		t.Errorf("input modified: BIAS = %v", v)
	}
}

func TestCoerceEmpty(t *testing.T) {
	out, repl := Coerce(nil, "x")
	if out.Len() != 0 || len(repl) != 0 {
		t.Errorf("got %v %v", out, repl)
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{StringValue("a"), StringValue("a"), true},
		{StringValue("a"), StringValue("b"), false},
		{NumberValue(1), ArrayValue([]float64{1}), false},
		{ArrayValue([]float64{1, 2}), ArrayValue([]float64{1, 2}), true},
		{MissingValue(), Value{}, true},
		{TableValue([]string{"a"}, [][]float64{{1}}), TableValue([]string{"a"}, [][]float64{{1}}), true},
		{TableValue([]string{"a"}, [][]float64{{1}}), TableValue([]string{"b"}, [][]float64{{1}}), false},
	}
	for i, test := range tests {
		if got := test.a.Equal(test.b); got != test.want {
			t.Errorf("%d: %v.Equal(%v) = %v", i, test.a, test.b, got)
		}
	}
}
