package bytecode

import (
	"math/big"

	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/diag"
	"github.com/velalang/velac/types"
	"github.com/velalang/velac/value"
)

// Interpreter runs a Program to completion on a single stack-machine
// thread. It is used only for constexpr evaluation and test execution:
// no ambient global state, no suspension points.
type Interpreter struct {
	prog        *Program
	stack       []value.Value
	slots       []value.Value
	chanCounter uint64
}

// NewInterpreter creates an interpreter for prog with the given initial
// parameter values seated in slots 0..len(args)-1.
func NewInterpreter(prog *Program, args []value.Value) *Interpreter {
	slots := make([]value.Value, prog.NumSlots)
	copy(slots, args)
	return &Interpreter{prog: prog, slots: slots}
}

func (in *Interpreter) push(v value.Value) { in.stack = append(in.stack, v) }

func (in *Interpreter) pop() value.Value {
	v := in.stack[len(in.stack)-1]
	in.stack = in.stack[:len(in.stack)-1]
	return v
}

// Run interprets the program and returns the final value left on the
// stack. jump_rel and jump_rel_if offsets are relative to the successor
// instruction: target = pc+1+offset.
func (in *Interpreter) Run() (value.Value, error) {
	pc := 0
	for pc < len(in.prog.Instrs) {
		instr := in.prog.Instrs[pc]
		switch instr.Op {
		case Literal:
			in.push(instr.Value)
		case Load:
			in.push(in.slots[instr.Slot])
		case Store:
			in.slots[instr.Slot] = in.pop()
		case Add, Sub, Mul, Div, And, Or, Xor, Shll, Shrl, Shra, Concat, Eq, Ne, Lt, Le, Gt, Ge:
			b := in.pop()
			a := in.pop()
			result, err := applyBinary(instr.Op, a, b, instr.Span)
			if err != nil {
				return value.Value{}, err
			}
			in.push(result)
		case Invert:
			in.push(in.pop().Invert())
		case Negate:
			in.push(in.pop().Negate())
		case Cast:
			v, err := applyCast(in.pop(), instr.Target, instr.Span)
			if err != nil {
				return value.Value{}, err
			}
			in.push(v)
		case Index:
			idx := in.pop()
			base := in.pop()
			elems := base.Elems()
			i := idx.Int64()
			if i < 0 || int(i) >= len(elems) {
				return value.Value{}, &diag.InternalError{Span: instr.Span, Message: "bytecode: index out of range"}
			}
			in.push(elems[i])
		case Slice, WidthSlice:
			base := in.pop()
			in.push(bitSliceFromBig(base.Unsigned(), uint32(instr.Slot), uint32(instr.N)))
		case CreateTuple:
			elems := in.popN(instr.N)
			in.push(value.NewTuple(elems...))
		case CreateArray:
			elems := in.popN(instr.N)
			in.push(value.NewArray(value.Bits, elems...))
		case ExpandTuple:
			t := in.pop()
			elems := t.Elems()
			for i := len(elems) - 1; i >= 0; i-- {
				in.push(elems[i])
			}
		case Call:
			args := in.popN(instr.N)
			result, err := callBuiltin(instr.Callee.FuncRef().Name, args, instr.Span)
			if err != nil {
				return value.Value{}, err
			}
			in.push(result)
		case NewChannel:
			in.chanCounter++
			id := value.ChannelID(in.chanCounter)
			in.push(value.NewTuple(value.NewChannel(id, value.DirOut), value.NewChannel(id, value.DirIn)))
		case JumpRel:
			pc = pc + 1 + instr.Offset
			continue
		case JumpRelIf:
			cond := in.pop()
			if cond.IsTrue() {
				pc = pc + 1 + instr.Offset
				continue
			}
		case JumpDest:
			// no-op marker
		case Return:
			return in.pop(), nil
		default:
			return value.Value{}, &diag.InternalError{Span: instr.Span, Message: "bytecode: unknown opcode in interpreter"}
		}
		pc++
	}
	if len(in.stack) == 0 {
		return value.Value{}, nil
	}
	return in.pop(), nil
}

func (in *Interpreter) popN(n int) []value.Value {
	out := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = in.pop()
	}
	return out
}

func applyBinary(op Opcode, a, b value.Value, span ast.Span) (value.Value, error) {
	switch op {
	case Add:
		return a.Add(b), nil
	case Sub:
		return a.Sub(b), nil
	case Mul:
		return a.Mul(b), nil
	case Div:
		return a.Div(b), nil
	case And:
		return a.And(b), nil
	case Or:
		return a.Or(b), nil
	case Xor:
		return a.Xor(b), nil
	case Shll:
		return a.Shll(b), nil
	case Shrl:
		return a.Shrl(b), nil
	case Shra:
		return a.Shra(b), nil
	case Concat:
		return a.Concat(b), nil
	case Eq:
		return a.Eq(b), nil
	case Ne:
		return a.Ne(b), nil
	case Lt:
		return a.Lt(b), nil
	case Le:
		return a.Le(b), nil
	case Gt:
		return a.Gt(b), nil
	case Ge:
		return a.Ge(b), nil
	}
	return value.Value{}, &diag.InternalError{Span: span, Message: "bytecode: unreachable binary opcode"}
}

// applyCast implements the cast shapes the compiler supports directly:
// resizing/reinterpreting a Bits value, Bits<->Enum conversion, and
// little-endian Bits<->Array conversion.
func applyCast(v value.Value, target *types.Type, span ast.Span) (value.Value, error) {
	switch target.Kind() {
	case types.BitsKind:
		width := uint32(0)
		if target.Size().IsConst() {
			width = uint32(target.Size().ConstValue())
		}
		switch v.Kind() {
		case value.Bits:
			raw := v.Unsigned()
			if v.Signed() {
				raw = v.Signed2C()
			}
			return value.NewBits(width, target.Signed(), raw), nil
		case value.Array:
			return arrayToBits(v, width, target.Signed()), nil
		case value.Enum:
			return value.NewBits(width, target.Signed(), v.EnumUnderlying().Unsigned()), nil
		}
	case types.EnumKind:
		if v.Kind() == value.Bits {
			width := uint32(0)
			if target.Underlying().Size().IsConst() {
				width = uint32(target.Underlying().Size().ConstValue())
			}
			return value.NewEnum(target.Nominal().Str(), width, v.Unsigned()), nil
		}
	case types.ArrayKind:
		if v.Kind() == value.Bits {
			elemWidth := uint32(0)
			if target.Elem().Kind() == types.BitsKind && target.Elem().Size().IsConst() {
				elemWidth = uint32(target.Elem().Size().ConstValue())
			}
			return bitsToArray(v, elemWidth), nil
		}
	}
	return value.Value{}, &diag.InternalError{Span: span, Message: "bytecode: unsupported cast"}
}

// arrayToBits packs array elements little-endian: element 0 occupies the
// low-order bits of the result.
func arrayToBits(arr value.Value, width uint32, signed bool) value.Value {
	elems := arr.Elems()
	acc := big.NewInt(0)
	shift := uint32(0)
	for _, e := range elems {
		shifted := new(big.Int).Lsh(e.Unsigned(), uint(shift))
		acc.Or(acc, shifted)
		shift += e.Width()
	}
	return value.NewBits(width, signed, acc)
}

// bitsToArray unpacks a bits value into elemWidth-wide elements,
// little-endian: element 0 comes from the low-order bits.
func bitsToArray(bits value.Value, elemWidth uint32) value.Value {
	if elemWidth == 0 {
		return value.NewArray(value.Bits)
	}
	total := bits.Width()
	n := int(total / elemWidth)
	elems := make([]value.Value, n)
	mag := bits.Unsigned()
	for i := 0; i < n; i++ {
		elems[i] = bitSliceFromBig(mag, uint32(i)*elemWidth, elemWidth)
	}
	return value.NewArray(value.Bits, elems...)
}

func bitSliceFromBig(mag *big.Int, start, width uint32) value.Value {
	shifted := new(big.Int).Rsh(mag, uint(start))
	return value.NewBits(width, false, shifted)
}
