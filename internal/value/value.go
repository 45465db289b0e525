// Package value implements the symbolic value lattice used by the dataflow
// analysis: an arena-backed expression DAG with canonicalizing constructors
// for addition, bitwise-or, and the sign predicates, plus a lattice join.
//
// A Value is a small by-value tag (mirroring the abstract machine's GPR
// slots, which are cheap copies); only composite variants (Add, BitOr, the
// OneIf* predicates) hold pointers, and those pointers are always allocated
// from an Arena so they stay valid for the arena's lifetime without
// reference counting.
package value

import (
	"math"
	"sort"
)

// Kind tags the variant of a Value. Declaration order doubles as the
// primary key for Compare, matching how the variants are conventionally
// enumerated in this domain.
type Kind uint8

const (
	KindUninitialized Kind = iota
	KindCallerStack
	KindParam
	KindInt
	KindAdd
	KindBitOr
	KindOneIfNegative
	KindOneIfPositive
	KindOneIfZero
	KindCallResult
	KindReturnAddress
	KindAny
)

// IntType is the declared width/signedness of an Int leaf. TyI16 and TyU32
// carry a prefix because I16 and U32 name the leaf constructors below.
type IntType uint8

const (
	I8 IntType = iota
	TyI16
	I32
	U8
	U16
	TyU32
	F32
	Ptr
)

// VInt is an integer or float leaf payload, normalized to Ty's width.
type VInt struct {
	Val uint32
	Ty  IntType
}

// newVInt truncates/sign-extends val to ty's declared width, matching the
// representation invariant: an Int payload is always canonicalized to its
// type's width (e.g. I8 stored sign-extended into the full u32).
func newVInt(val uint32, ty IntType) VInt {
	switch ty {
	case I8:
		val = uint32(int8(val))
	case TyI16:
		val = uint32(int16(val))
	case I32:
		val = uint32(int32(val))
	case U8:
		val = uint32(uint8(val))
	case U16:
		val = uint32(uint16(val))
	}
	return VInt{Val: val, Ty: ty}
}

func isFloat(ty IntType) bool { return ty == F32 }

// add folds two integer/float leaves by VInt::add's original rule: same-type
// float folds via f32 arithmetic; any int/int pairing folds via wrapping u32
// addition and takes on v's own type (not necessarily other's); a float
// paired with a non-float never folds.
func (v VInt) add(other VInt) (VInt, bool) {
	switch {
	case isFloat(v.Ty) && isFloat(other.Ty):
		sum := math.Float32frombits(v.Val) + math.Float32frombits(other.Val)
		return newVInt(math.Float32bits(sum), v.Ty), true
	case isFloat(v.Ty) != isFloat(other.Ty):
		return VInt{}, false
	default:
		return newVInt(v.Val+other.Val, v.Ty), true
	}
}

// Value is a handle into the symbolic expression DAG. The zero Value is
// KindUninitialized, matching the lattice's bottom element.
type Value struct {
	kind     Kind
	param    uint8
	intVal   VInt
	left     *Value
	right    *Value
	operand  *Value
	callAddr uint32
}

var (
	// Uninitialized is the lattice bottom: "not set".
	Uninitialized = Value{kind: KindUninitialized}
	// Any is the lattice top: "unknown, could be anything".
	Any = Value{kind: KindAny}
	// CallerStack denotes the inbound stack pointer at function entry.
	CallerStack = Value{kind: KindCallerStack}
	// ReturnAddress denotes the inbound link register at function entry.
	ReturnAddress = Value{kind: KindReturnAddress}
	// ZeroU32 is the canonical Int{0, U32} leaf.
	ZeroU32 = U32(0)
)

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// AsInt returns v's integer payload, if v is an Int leaf.
func (v Value) AsInt() (VInt, bool) {
	if v.kind != KindInt {
		return VInt{}, false
	}
	return v.intVal, true
}

// AsParam returns the parameter index, if v is a Param leaf.
func (v Value) AsParam() (uint8, bool) {
	if v.kind != KindParam {
		return 0, false
	}
	return v.param, true
}

// AsCallResult returns the callee address, if v is a CallResult leaf.
func (v Value) AsCallResult() (uint32, bool) {
	if v.kind != KindCallResult {
		return 0, false
	}
	return v.callAddr, true
}

// Children returns v's two operands for Add and BitOr; ok is false
// otherwise.
func (v Value) Children() (left, right Value, ok bool) {
	if v.kind != KindAdd && v.kind != KindBitOr {
		return Value{}, Value{}, false
	}
	return *v.left, *v.right, true
}

// Operand returns v's single operand for the OneIf* predicates; ok is false
// otherwise.
func (v Value) Operand() (operand Value, ok bool) {
	switch v.kind {
	case KindOneIfNegative, KindOneIfPositive, KindOneIfZero:
		return *v.operand, true
	default:
		return Value{}, false
	}
}

// U32 builds an Int leaf of type U32.
func U32(imm uint32) Value { return Value{kind: KindInt, intVal: newVInt(imm, TyU32)} }

// I16 builds an Int leaf of type I16, sign-extended into the backing u32.
func I16(imm int16) Value { return Value{kind: KindInt, intVal: newVInt(uint32(imm), TyI16)} }

// Int builds an Int leaf of the given type, normalizing imm to its width.
func Int(imm uint32, ty IntType) Value { return Value{kind: KindInt, intVal: newVInt(imm, ty)} }

// Parameter lifts the nth inbound parameter as a leaf.
func Parameter(n uint8) Value { return Value{kind: KindParam, param: n} }

// CallResult lifts the return value of a call to addr as a leaf.
func CallResult(addr uint32) Value { return Value{kind: KindCallResult, callAddr: addr} }

// IsInitialized reports whether v is anything other than Uninitialized.
func IsInitialized(v Value) bool { return v.kind != KindUninitialized }

// Join computes the lattice join of two values: equal values join to
// themselves, Uninitialized is sticky (joining with it yields
// Uninitialized), and any other conflict widens to Any.
func Join(a, b Value) Value {
	if Equal(a, b) {
		return a
	}
	if a.kind == KindUninitialized || b.kind == KindUninitialized {
		return Uninitialized
	}
	return Any
}

// Equal is structural equality over the expression tree.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindParam:
		return a.param == b.param
	case KindInt:
		return a.intVal == b.intVal
	case KindAdd, KindBitOr:
		return Equal(*a.left, *b.left) && Equal(*a.right, *b.right)
	case KindOneIfNegative, KindOneIfPositive, KindOneIfZero:
		return Equal(*a.operand, *b.operand)
	case KindCallResult:
		return a.callAddr == b.callAddr
	default:
		return true
	}
}

// Compare imposes a total order over values, used to canonicalize BitOr
// operand order. It orders first by Kind (declaration order), then by
// payload.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindParam:
		return compareUint8(a.param, b.param)
	case KindInt:
		if c := compareUint32(a.intVal.Val, b.intVal.Val); c != 0 {
			return c
		}
		return compareUint8(uint8(a.intVal.Ty), uint8(b.intVal.Ty))
	case KindAdd, KindBitOr:
		if c := Compare(*a.left, *b.left); c != 0 {
			return c
		}
		return Compare(*a.right, *b.right)
	case KindOneIfNegative, KindOneIfPositive, KindOneIfZero:
		return Compare(*a.operand, *b.operand)
	case KindCallResult:
		return compareUint32(a.callAddr, b.callAddr)
	default:
		return 0
	}
}

func compareUint8(a, b uint8) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// OneIfNegative folds an Int leaf to 0/1 by the sign of its i32
// reinterpretation, or wraps v symbolically otherwise.
func OneIfNegative(v Value, arena *Arena) Value {
	if imm, ok := v.AsInt(); ok {
		if int32(imm.Val) < 0 {
			return U32(1)
		}
		return U32(0)
	}
	return Value{kind: KindOneIfNegative, operand: arena.child(v)}
}

// OneIfPositive folds an Int leaf to 0/1 by the sign of its i32
// reinterpretation, or wraps v symbolically otherwise.
func OneIfPositive(v Value, arena *Arena) Value {
	if imm, ok := v.AsInt(); ok {
		if int32(imm.Val) > 0 {
			return U32(1)
		}
		return U32(0)
	}
	return Value{kind: KindOneIfPositive, operand: arena.child(v)}
}

// OneIfZero folds an Int leaf to 0/1 by equality with zero, or wraps v
// symbolically otherwise.
func OneIfZero(v Value, arena *Arena) Value {
	if imm, ok := v.AsInt(); ok {
		if imm.Val == 0 {
			return U32(1)
		}
		return U32(0)
	}
	return Value{kind: KindOneIfZero, operand: arena.child(v)}
}

// BitOr folds two equal-type Int leaves directly; otherwise it canonically
// orders the operands by Compare and builds a BitOr node. Mixing Int types
// is a hard failure (panic).
func BitOr(a, b Value, arena *Arena) Value {
	aInt, aIsInt := a.AsInt()
	bInt, bIsInt := b.AsInt()
	if aIsInt && bIsInt {
		if aInt.Ty != bInt.Ty {
			panic("value: bit_or operands have mismatched int types")
		}
		return Int(aInt.Val|bInt.Val, aInt.Ty)
	}
	if Compare(a, b) > 0 {
		return BitOr(b, a, arena)
	}
	return Value{kind: KindBitOr, left: arena.child(a), right: arena.child(b)}
}

// Add flattens any Add subtrees of a and b, folds all foldable constant
// leaves into one running sum, and rebuilds a canonical right-leaning tree
// from the remaining 0..4 non-constant terms plus the optional constant.
func Add(a, b Value, arena *Arena) Value {
	var sum *VInt
	terms := make([]Value, 0, 4)

	addTerm := func(v Value) {
		imm, isInt := v.AsInt()
		if !isInt {
			terms = append(terms, v)
			return
		}
		if sum == nil {
			s := imm
			sum = &s
			return
		}
		if folded, ok := sum.add(imm); ok {
			*sum = folded
		} else {
			terms = append(terms, v)
		}
	}
	var flatten func(v Value)
	flatten = func(v Value) {
		if left, right, ok := v.Children(); ok && v.kind == KindAdd {
			flatten(left)
			flatten(right)
		} else {
			addTerm(v)
		}
	}
	flatten(a)
	flatten(b)

	// The tree shape must be a deterministic function of the *sorted*
	// multiset of non-constant terms, not their encounter order, so that
	// add(a, b) == add(b, a) holds structurally after canonicalization.
	sort.Slice(terms, func(i, j int) bool { return Compare(terms[i], terms[j]) < 0 })

	wrapAdd := func(l, r Value) Value {
		return Value{kind: KindAdd, left: arena.child(l), right: arena.child(r)}
	}
	sumNonzero := sum != nil && sum.Val != 0
	sumLeaf := func() Value { return Value{kind: KindInt, intVal: *sum} }

	switch len(terms) {
	case 0:
		return sumLeaf()
	case 1:
		if !sumNonzero {
			return terms[0]
		}
		return wrapAdd(terms[0], sumLeaf())
	case 2:
		if sumNonzero {
			return wrapAdd(wrapAdd(terms[0], terms[1]), sumLeaf())
		}
		return wrapAdd(terms[0], terms[1])
	case 3:
		if sumNonzero {
			return wrapAdd(wrapAdd(terms[0], terms[1]), wrapAdd(terms[2], sumLeaf()))
		}
		return wrapAdd(wrapAdd(terms[0], terms[1]), terms[2])
	case 4:
		if sumNonzero {
			return wrapAdd(wrapAdd(terms[0], terms[1]), wrapAdd(terms[2], wrapAdd(terms[3], sumLeaf())))
		}
		return wrapAdd(wrapAdd(terms[0], terms[1]), wrapAdd(terms[2], terms[3]))
	default:
		// More than 4 non-constant terms is unsupported; widen to Any
		// rather than reject, since the analysis must keep progressing.
		return Any
	}
}
