package vm

import (
	"io"
	"strconv"

	"github.com/glintlang/glint/internal/config"
	"github.com/glintlang/glint/internal/diagnostics"
	"github.com/glintlang/glint/internal/ext"
	"github.com/glintlang/glint/internal/typesystem"
)

// frame is one call-frame: the chunk and instruction pointer to resume, and
// the stack byte-offset where this call's locals begin (§3's "Call frame").
type frame struct {
	chunkIdx int
	ip       int
	base     int
}

// VM interprets a compiled Program over a byte-addressed operand stack, a
// reference-counted heap, and an externals dispatcher (§4.7). All
// human-facing print output goes through Out rather than fmt.Println
// directly, matching the teacher's single-sink logging convention.
type VM struct {
	program   *Program
	stack     *ByteVec
	heap      *Heap
	externals *ext.Registry
	out       io.Writer

	frames []frame
}

// NewVM creates a VM ready to run program, writing print output to out.
func NewVM(program *Program, externals *ext.Registry, out io.Writer) *VM {
	return &VM{
		program:   program,
		stack:     NewByteVec(config.InitialStackCapacity),
		heap:      NewHeap(),
		externals: externals,
		out:       out,
	}
}

// Heap exposes the VM's heap for tests asserting Heap.CountLive() (§8).
func (vm *VM) Heap() *Heap { return vm.heap }

// Run executes the program's entry chunk (chunk 0) to completion.
func (vm *VM) Run() *diagnostics.DiagnosticError {
	vm.frames = append(vm.frames, frame{chunkIdx: 0, ip: 0, base: 0})

	for len(vm.frames) > 0 {
		if err := vm.step(); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) curFrame() *frame { return &vm.frames[len(vm.frames)-1] }

func (vm *VM) curChunk() *Chunk { return vm.program.Chunks[vm.curFrame().chunkIdx] }

// readU8/readU16 advance the current frame's instruction pointer past the
// operand they read, per each opcode's documented inline-operand width.
func (vm *VM) readU8() uint8 {
	f := vm.curFrame()
	b := vm.curChunk().Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readU16() uint16 {
	f := vm.curFrame()
	x := vm.curChunk().ReadU16(f.ip)
	f.ip += 2
	return x
}

// step executes exactly one instruction.
func (vm *VM) step() *diagnostics.DiagnosticError {
	chunk := vm.curChunk()
	f := vm.curFrame()
	op := Opcode(chunk.Code[f.ip])
	f.ip++

	switch op {
	case OpReturn:
		width := int(vm.readU8())
		ret := vm.stack.PopBytes(width)
		base := vm.curFrame().base
		vm.stack.Truncate(base)
		vm.stack.PushBytes(ret)
		vm.frames = vm.frames[:len(vm.frames)-1]

	case OpConstantF64:
		idx := vm.readU16()
		vm.stack.PushF64(chunk.FloatConstant(idx))

	case OpConstantString:
		idx := vm.readU16()
		addr := vm.heap.Add(&HeapString{Value: chunk.StringConstant(idx)})
		vm.stack.PushU32(addr)

	case OpConstantU8:
		vm.stack.PushU8(vm.readU8())

	case OpTrue:
		vm.stack.PushBool(true)
	case OpFalse:
		vm.stack.PushBool(false)
	case OpNot:
		vm.stack.PushBool(!vm.stack.PopBool())
	case OpNegateF64:
		vm.stack.PushF64(-vm.stack.PopF64())

	case OpAddF64:
		b, a := vm.stack.PopF64(), vm.stack.PopF64()
		vm.stack.PushF64(a + b)
	case OpSubF64:
		b, a := vm.stack.PopF64(), vm.stack.PopF64()
		vm.stack.PushF64(a - b)
	case OpMulF64:
		b, a := vm.stack.PopF64(), vm.stack.PopF64()
		vm.stack.PushF64(a * b)
	case OpDivF64:
		b, a := vm.stack.PopF64(), vm.stack.PopF64()
		if b == 0 {
			return diagnostics.NewRuntimeError("division by zero")
		}
		vm.stack.PushF64(a / b)

	case OpEqualU8:
		b, a := vm.stack.PopU8(), vm.stack.PopU8()
		vm.stack.PushBool(a == b)
	case OpEqualU64:
		b, a := vm.stack.PopF64(), vm.stack.PopF64()
		vm.stack.PushBool(a == b)
	case OpGreaterF64:
		b, a := vm.stack.PopF64(), vm.stack.PopF64()
		vm.stack.PushBool(a > b)
	case OpLesserF64:
		b, a := vm.stack.PopF64(), vm.stack.PopF64()
		vm.stack.PushBool(a < b)

	case OpPrintF64:
		io.WriteString(vm.out, strconv.FormatFloat(vm.stack.PopF64(), 'g', -1, 64)+"\n")
	case OpPrintBool:
		io.WriteString(vm.out, strconv.FormatBool(vm.stack.PopBool())+"\n")
	case OpPrintString:
		addr := vm.stack.PopU32()
		s := vm.heap.Get(addr).(*HeapString)
		io.WriteString(vm.out, s.Value+"\n")

	case OpPushU16:
		vm.stack.PushU16(vm.readU16())

	case OpPopU8:
		vm.stack.PopU8()
	case OpPopU16:
		vm.stack.PopU16()
	case OpPopU32:
		vm.stack.PopU32()
	case OpPopU64:
		vm.stack.PopU64()

	case OpVariableU8:
		off := int(vm.readU16())
		vm.stack.PushU8(vm.stack.PeekU8(f.base + off))
	case OpVariableU16:
		off := int(vm.readU16())
		vm.stack.PushU16(vm.stack.PeekU16(f.base + off))
	case OpVariableU32:
		off := int(vm.readU16())
		vm.stack.PushU32(vm.stack.PeekU32(f.base + off))
	case OpVariableU64:
		off := int(vm.readU16())
		vm.stack.PushU64(vm.stack.PeekU64(f.base + off))

	case OpAssignU8:
		off := int(vm.readU16())
		x := vm.stack.PeekU8(vm.stack.Len() - 1)
		copy(vm.stack.Bytes()[f.base+off:], []byte{x})
	case OpAssignU16:
		off := int(vm.readU16())
		x := vm.stack.PeekU16(vm.stack.Len() - 2)
		writeU16At(vm.stack, f.base+off, x)
	case OpAssignU32:
		off := int(vm.readU16())
		x := vm.stack.PeekU32(vm.stack.Len() - 4)
		writeU32At(vm.stack, f.base+off, x)
	case OpAssignU64:
		off := int(vm.readU16())
		x := vm.stack.PeekU64(vm.stack.Len() - 8)
		writeU64At(vm.stack, f.base+off, x)

	case OpJumpIfFalse:
		target := int(vm.readU16())
		if !vm.stack.PeekBool(vm.stack.Len() - 1) {
			vm.curFrame().ip = target
		}
	case OpJump:
		target := int(vm.readU16())
		vm.curFrame().ip = target

	case OpFunction:
		idx := vm.readU16()
		vm.stack.PushU16(idx)

	case OpCall:
		argsWidth := int(vm.readU8())
		calleeIdx := vm.stack.PopU16()
		base := vm.stack.Len() - argsWidth
		vm.frames = append(vm.frames, frame{chunkIdx: int(calleeIdx), ip: 0, base: base})

	case OpCallClosure:
		argsWidth := int(vm.readU8())
		closureAddr := vm.stack.PopU32()
		cl, ok := vm.heap.Get(closureAddr).(*Closure)
		if !ok {
			return diagnostics.NewRuntimeError("call target is not a closure")
		}
		insertAt := vm.stack.Len() - argsWidth
		capBytes := make([]byte, 0, 4*len(cl.Captured))
		for _, addr := range cl.Captured {
			vm.heap.Inc(addr)
			capBytes = append(capBytes, byte(addr), byte(addr>>8), byte(addr>>16), byte(addr>>24))
		}
		vm.stack.InsertBytes(insertAt, capBytes)
		vm.frames = append(vm.frames, frame{chunkIdx: int(cl.ChunkIndex), ip: 0, base: insertAt})

	case OpCallExternal:
		extIdx := int(vm.readU16())
		vm.readU8() // args_width: redundant with the external's own Args signature, kept for disassembly
		ex, ok := vm.externals.At(extIdx)
		if !ok {
			return diagnostics.NewRuntimeError("unknown external index %d", extIdx)
		}
		args := vm.popExternalArgs(ex.Args)
		result, err := vm.externals.Call(extIdx, args)
		if err != nil {
			return diagnostics.NewRuntimeError("external call failed: %s", err.Error())
		}
		vm.pushExternalResult(result, ex.Ret)

	case OpCallEnum:
		tag := vm.readU8()
		vm.stack.PushU8(tag)

	case OpIncreaseRC:
		addr := vm.stack.PopU32()
		vm.heap.Inc(addr)
		vm.stack.PushU32(addr)
	case OpDecreaseRC:
		addr := vm.stack.PopU32()
		vm.heap.Dec(addr)
	case OpDecreaseRCUnder:
		top := vm.stack.PopU32()
		addr := vm.stack.PopU32()
		vm.heap.Dec(addr)
		vm.stack.PushU32(top)

	case OpMakeClosure:
		chunkIdx := vm.readU16()
		n := int(vm.readU8())
		captured := make([]uint32, n)
		for i := n - 1; i >= 0; i-- {
			captured[i] = vm.stack.PopU32()
		}
		addr := vm.heap.Add(&Closure{ChunkIndex: chunkIdx, Captured: captured})
		vm.stack.PushU32(addr)

	case OpMakeCell:
		v := vm.stack.PopF64()
		addr := vm.heap.Add(&HeapCell{Value: v})
		vm.stack.PushU32(addr)
	case OpLoadCell:
		off := int(vm.readU16())
		addr := vm.stack.PeekU32(f.base + off)
		cell := vm.heap.Get(addr).(*HeapCell)
		vm.stack.PushF64(cell.Value)
	case OpStoreCell:
		off := int(vm.readU16())
		v := vm.stack.PeekF64(vm.stack.Len() - 8)
		addr := vm.stack.PeekU32(f.base + off)
		vm.heap.Get(addr).(*HeapCell).Value = v

	default:
		return diagnostics.NewRuntimeError("unknown opcode %d", byte(op))
	}
	return nil
}

// popExternalArgs pops argTypes' worth of values off the stack in reverse
// declaration order (the last argument was pushed last, so it is on top)
// and marshals them into ext.Value, dereferencing any heap-resident string.
func (vm *VM) popExternalArgs(argTypes []typesystem.Type) []ext.Value {
	vals := make([]ext.Value, len(argTypes))
	for i := len(argTypes) - 1; i >= 0; i-- {
		vals[i] = vm.popExternalArg(argTypes[i])
	}
	return vals
}

func (vm *VM) popExternalArg(t typesystem.Type) ext.Value {
	switch t.(type) {
	case typesystem.Float:
		return ext.Value{Float: vm.stack.PopF64()}
	case typesystem.Bool:
		return ext.Value{Bool: vm.stack.PopBool()}
	case typesystem.String:
		addr := vm.stack.PopU32()
		return ext.Value{Str: vm.heap.Get(addr).(*HeapString).Value}
	default:
		return ext.Value{IsNil: true}
	}
}

// pushExternalResult marshals an external's Go-side return value back onto
// the stack per its declared return type, allocating a fresh heap string
// with refcount 1 when the result is a str (owned by whoever receives it,
// exactly like any other newly constructed string).
func (vm *VM) pushExternalResult(v ext.Value, ret typesystem.Type) {
	switch ret.(type) {
	case typesystem.Float:
		vm.stack.PushF64(v.Float)
	case typesystem.Bool:
		vm.stack.PushBool(v.Bool)
	case typesystem.String:
		addr := vm.heap.Add(&HeapString{Value: v.Str})
		vm.stack.PushU32(addr)
	}
}

func writeU16At(v *ByteVec, off int, x uint16) {
	b := v.Bytes()
	b[off] = byte(x)
	b[off+1] = byte(x >> 8)
}

func writeU32At(v *ByteVec, off int, x uint32) {
	b := v.Bytes()
	b[off] = byte(x)
	b[off+1] = byte(x >> 8)
	b[off+2] = byte(x >> 16)
	b[off+3] = byte(x >> 24)
}

func writeU64At(v *ByteVec, off int, x uint64) {
	b := v.Bytes()
	for i := 0; i < 8; i++ {
		b[off+i] = byte(x >> (8 * i))
	}
}
