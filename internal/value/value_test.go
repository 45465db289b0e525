package value_test

import (
	"testing"

	"github.com/dolscan/dolscan/internal/value"
)

func TestJoinIdempotentAndSticky(t *testing.T) {
	v := value.U32(5)
	if !value.Equal(value.Join(v, v), v) {
		t.Fatalf("join(v,v) != v")
	}
	if !value.Equal(value.Join(v, value.Uninitialized), value.Uninitialized) {
		t.Fatalf("join(v, Uninitialized) != Uninitialized")
	}
	if !value.Equal(value.Join(value.Uninitialized, v), value.Uninitialized) {
		t.Fatalf("join(Uninitialized, v) != Uninitialized")
	}
	if !value.Equal(value.Join(value.U32(1), value.U32(2)), value.Any) {
		t.Fatalf("join of distinct ints should widen to Any")
	}
}

func TestOneIfPredicates(t *testing.T) {
	arena := value.NewArena()
	if !value.Equal(value.OneIfZero(value.Int(0, value.I32), arena), value.U32(1)) {
		t.Fatalf("one_if_zero(0) != 1")
	}
	if !value.Equal(value.OneIfZero(value.Int(7, value.I32), arena), value.U32(0)) {
		t.Fatalf("one_if_zero(7) != 0")
	}
	minI32 := value.Int(0x80000000, value.I32)
	if !value.Equal(value.OneIfNegative(minI32, arena), value.U32(1)) {
		t.Fatalf("one_if_negative(i32::MIN) != 1")
	}
	if !value.Equal(value.OneIfPositive(value.Int(0, value.I32), arena), value.U32(0)) {
		t.Fatalf("one_if_positive(0) != 0")
	}
}

func TestAddCommutativeAndAssociative(t *testing.T) {
	arena := value.NewArena()
	a := value.Parameter(0)
	b := value.Parameter(1)
	c := value.Parameter(2)

	ab := value.Add(a, b, arena)
	ba := value.Add(b, a, arena)
	if !value.Equal(ab, ba) {
		t.Fatalf("add(a,b) != add(b,a): %+v vs %+v", ab, ba)
	}

	left := value.Add(a, value.Add(b, c, arena), arena)
	right := value.Add(value.Add(a, b, arena), c, arena)
	if !value.Equal(left, right) {
		t.Fatalf("add is not associative after canonicalization")
	}
}

func TestAddFoldsConstants(t *testing.T) {
	arena := value.NewArena()
	sum := value.Add(value.U32(2), value.U32(3), arena)
	imm, ok := sum.AsInt()
	if !ok || imm.Val != 5 {
		t.Fatalf("add(2,3) = %+v, want Int{5}", sum)
	}
}

func TestAddSingleTermDropsZeroConstant(t *testing.T) {
	arena := value.NewArena()
	p := value.Parameter(0)
	sum := value.Add(p, value.U32(0), arena)
	if !value.Equal(sum, p) {
		t.Fatalf("add(p, 0) should collapse to p, got %+v", sum)
	}
}

func TestBitOrCommutative(t *testing.T) {
	arena := value.NewArena()
	a := value.Parameter(0)
	b := value.Parameter(1)
	if !value.Equal(value.BitOr(a, b, arena), value.BitOr(b, a, arena)) {
		t.Fatalf("bit_or is not commutative after canonicalization")
	}
}

func TestBitOrFoldsEqualTypeInts(t *testing.T) {
	arena := value.NewArena()
	v := value.BitOr(value.U32(0b0101), value.U32(0b1010), arena)
	imm, ok := v.AsInt()
	if !ok || imm.Val != 0b1111 {
		t.Fatalf("bit_or(5,10) = %+v, want Int{15}", v)
	}
}

func TestIsInitialized(t *testing.T) {
	if value.IsInitialized(value.Uninitialized) {
		t.Fatalf("Uninitialized should not be initialized")
	}
	if !value.IsInitialized(value.U32(0)) {
		t.Fatalf("U32(0) should be initialized")
	}
}
