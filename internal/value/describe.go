package value

import (
	"fmt"
	"math"
)

// Describe renders v as a short symbolic expression, for the terminal
// inspector and any other text surface that needs to show a BlockState
// without reaching into Value's unexported fields.
func Describe(v Value) string {
	switch v.kind {
	case KindUninitialized:
		return "?"
	case KindAny:
		return "any"
	case KindCallerStack:
		return "caller_sp"
	case KindReturnAddress:
		return "return_addr"
	case KindParam:
		return fmt.Sprintf("param%d", v.param)
	case KindInt:
		return describeInt(v.intVal)
	case KindAdd:
		return fmt.Sprintf("(%s + %s)", Describe(*v.left), Describe(*v.right))
	case KindBitOr:
		return fmt.Sprintf("(%s | %s)", Describe(*v.left), Describe(*v.right))
	case KindOneIfNegative:
		return fmt.Sprintf("one_if_negative(%s)", Describe(*v.operand))
	case KindOneIfPositive:
		return fmt.Sprintf("one_if_positive(%s)", Describe(*v.operand))
	case KindOneIfZero:
		return fmt.Sprintf("one_if_zero(%s)", Describe(*v.operand))
	case KindCallResult:
		return fmt.Sprintf("call_result(0x%08X)", v.callAddr)
	default:
		return "?"
	}
}

func describeInt(imm VInt) string {
	if imm.Ty == F32 {
		return fmt.Sprintf("%g", math.Float32frombits(imm.Val))
	}
	switch imm.Ty {
	case I8, TyI16, I32:
		return fmt.Sprintf("%d", int32(imm.Val))
	default:
		return fmt.Sprintf("0x%X", imm.Val)
	}
}
