package value

import "testing"

func TestDescribe(t *testing.T) {
	arena := NewArena()

	cases := []struct {
		v    Value
		want string
	}{
		{Uninitialized, "?"},
		{Any, "any"},
		{CallerStack, "caller_sp"},
		{ReturnAddress, "return_addr"},
		{Parameter(3), "param3"},
		{I16(-5), "-5"},
		{U32(0x1000), "0x1000"},
		{CallResult(0x80001000), "call_result(0x80001000)"},
	}
	for _, c := range cases {
		if got := Describe(c.v); got != c.want {
			t.Errorf("Describe(%v) = %q, want %q", c.v, got, c.want)
		}
	}

	sum := Add(Parameter(0), I16(4), arena)
	if got := Describe(sum); got != "(param0 + 4)" {
		t.Errorf("Describe(add) = %q", got)
	}
}
