package bytecode

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/types"
	"github.com/velalang/velac/value"
)

// Print renders prog in the canonical textual form: one
// "NNN <op> [<operand>]" line per instruction, NNN zero-padded to at least
// 3 digits. parse(print(p)) = p is a tested invariant.
func Print(prog *Program) string {
	var b strings.Builder
	width := 3
	for n := len(prog.Instrs); n > 1000; n /= 10 {
		width++
	}
	for i, instr := range prog.Instrs {
		fmt.Fprintf(&b, "%0*d %s", width, i, instr.Op)
		if operand := renderOperand(instr); operand != "" {
			b.WriteString(" ")
			b.WriteString(operand)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderOperand(instr Instr) string {
	switch instr.Op {
	case Literal:
		return instr.Value.String()
	case Load, Store:
		return strconv.Itoa(instr.Slot)
	case JumpRel, JumpRelIf:
		if instr.Offset >= 0 {
			return fmt.Sprintf("+%d", instr.Offset)
		}
		return strconv.Itoa(instr.Offset)
	case Call:
		return instr.Callee.String()
	case Cast:
		return instr.Target.String()
	case CreateTuple, CreateArray, ExpandTuple:
		return strconv.Itoa(instr.N)
	case Slice, WidthSlice:
		return fmt.Sprintf("%d %d", instr.Slot, instr.N)
	}
	return ""
}

// Parse parses the canonical textual form produced by Print back into an
// equivalent Program. The instruction index prefix is validated but not
// otherwise used (positions are implicit in line order).
func Parse(text string) (*Program, error) {
	var prog Program
	maxSlot := -1
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("bytecode: malformed line %q", line)
		}
		if idx, err := strconv.Atoi(fields[0]); err != nil || idx != len(prog.Instrs) {
			return nil, fmt.Errorf("bytecode: bad instruction index in line %q", line)
		}
		op, ok := byMnemonic[fields[1]]
		if !ok {
			return nil, fmt.Errorf("bytecode: unknown mnemonic %q", fields[1])
		}
		instr := Instr{Op: op}
		operand := strings.Join(fields[2:], " ")
		if err := parseOperand(&instr, operand); err != nil {
			return nil, err
		}
		if op == Load || op == Store {
			if instr.Slot > maxSlot {
				maxSlot = instr.Slot
			}
		}
		prog.Instrs = append(prog.Instrs, instr)
	}
	prog.NumSlots = maxSlot + 1
	return &prog, nil
}

func parseOperand(instr *Instr, operand string) error {
	switch instr.Op {
	case Literal:
		v, err := parseLiteralValue(operand)
		if err != nil {
			return err
		}
		instr.Value = v
	case Load, Store:
		slot, err := strconv.Atoi(operand)
		if err != nil {
			return fmt.Errorf("bytecode: bad slot operand %q: %w", operand, err)
		}
		instr.Slot = slot
	case JumpRel, JumpRelIf:
		off, err := strconv.Atoi(operand)
		if err != nil {
			return fmt.Errorf("bytecode: bad jump offset %q: %w", operand, err)
		}
		instr.Offset = off
	case Call:
		instr.Callee = value.NewFunc(&value.FuncRef{Name: strings.TrimPrefix(operand, "func:")})
	case Cast:
		t, err := parseTypeString(operand)
		if err != nil {
			return err
		}
		instr.Target = t
	case CreateTuple, CreateArray, ExpandTuple:
		n, err := strconv.Atoi(operand)
		if err != nil {
			return fmt.Errorf("bytecode: bad arity operand %q: %w", operand, err)
		}
		instr.N = n
	case Slice, WidthSlice:
		parts := strings.Fields(operand)
		if len(parts) != 2 {
			return fmt.Errorf("bytecode: bad slice operand %q", operand)
		}
		start, err := strconv.Atoi(parts[0])
		if err != nil {
			return err
		}
		widthVal, err := strconv.Atoi(parts[1])
		if err != nil {
			return err
		}
		instr.Slot, instr.N = start, widthVal
	}
	return nil
}

// parseLiteralValue parses the "uK:V" / "sK:V" rendering value.Value.String
// produces for Bits values.
func parseLiteralValue(s string) (value.Value, error) {
	if len(s) < 2 {
		return value.Value{}, fmt.Errorf("bytecode: malformed literal %q", s)
	}
	signed := s[0] == 's'
	if !signed && s[0] != 'u' {
		return value.Value{}, fmt.Errorf("bytecode: malformed literal %q", s)
	}
	rest := s[1:]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return value.Value{}, fmt.Errorf("bytecode: malformed literal %q", s)
	}
	width, err := strconv.Atoi(rest[:colon])
	if err != nil {
		return value.Value{}, fmt.Errorf("bytecode: malformed literal width %q: %w", s, err)
	}
	raw, ok := new(big.Int).SetString(rest[colon+1:], 10)
	if !ok {
		return value.Value{}, fmt.Errorf("bytecode: malformed literal value %q", s)
	}
	return value.NewBits(uint32(width), signed, raw), nil
}

// parseTypeString parses the subset of types.Type.String's output the
// emitter ever produces for a Cast target: plain bits types "uK"/"sK".
func parseTypeString(s string) (*types.Type, error) {
	if len(s) < 2 {
		return nil, fmt.Errorf("bytecode: malformed type %q", s)
	}
	signed := s[0] == 's'
	if !signed && s[0] != 'u' {
		return nil, fmt.Errorf("bytecode: unsupported cast type %q", s)
	}
	width, err := strconv.Atoi(s[1:])
	if err != nil {
		return nil, fmt.Errorf("bytecode: malformed type width %q: %w", s, err)
	}
	return types.Bits(signed, dim.NewConst(uint64(width))), nil
}
