package vm

import (
	"bytes"
	"fmt"
)

// Chunk is a self-contained unit of bytecode: a sequence of opcodes with
// inline operands (Code), plus a constant pool (Data) holding float and
// string literals referenced by index (§3, §4.5). One chunk is emitted per
// function literal; chunk 0 is always the top-level program.
type Chunk struct {
	Code []byte
	Data *ByteVec

	// Lines/Columns map a Code offset to its originating source position,
	// mirroring the teacher's per-byte line table, for runtime diagnostics.
	Lines   []int
	Columns []int

	// dataIndex records the byte offset each AddXConstant call wrote its
	// value at, so the compiler can reference it by a stable small integer
	// rather than by raw byte offset.
	dataIndex []int
}

// NewChunk creates an empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		Code:    make([]byte, 0, 256),
		Data:    NewByteVec(64),
		Lines:   make([]int, 0, 256),
		Columns: make([]int, 0, 256),
	}
}

// Write appends a raw byte with its originating source position.
func (c *Chunk) Write(b byte, line, col int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	c.Columns = append(c.Columns, col)
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op Opcode, line, col int) {
	c.Write(byte(op), line, col)
}

// WriteU8/WriteU16 append an inline operand, little-endian for the 16-bit
// case, immediately following an opcode written with WriteOp.
func (c *Chunk) WriteU8(x uint8, line, col int) {
	c.Write(x, line, col)
}

func (c *Chunk) WriteU16(x uint16, line, col int) {
	c.Write(byte(x), line, col)
	c.Write(byte(x>>8), line, col)
}

// ReadU16 reads a little-endian operand at the given code offset.
func (c *Chunk) ReadU16(offset int) uint16 {
	return uint16(c.Code[offset]) | uint16(c.Code[offset+1])<<8
}

// PatchU16 overwrites the operand at offset, used for jump backpatching
// (§4.4: "patched by overwriting the placeholder with the current code
// length at patch time").
func (c *Chunk) PatchU16(offset int, x uint16) {
	c.Code[offset] = byte(x)
	c.Code[offset+1] = byte(x >> 8)
}

// Len returns the number of bytes emitted so far.
func (c *Chunk) Len() int { return len(c.Code) }

// AddFloatConstant appends a float to the constant pool and returns its
// index.
func (c *Chunk) AddFloatConstant(v float64) uint16 {
	idx := len(c.dataIndex)
	c.dataIndex = append(c.dataIndex, c.Data.Len())
	c.Data.PushF64(v)
	return uint16(idx)
}

// AddStringConstant appends a u16-length-prefixed string to the constant
// pool and returns its index.
func (c *Chunk) AddStringConstant(s string) uint16 {
	idx := len(c.dataIndex)
	c.dataIndex = append(c.dataIndex, c.Data.Len())
	c.Data.PushString(s)
	return uint16(idx)
}

// FloatConstant reads back the float at constant index idx.
func (c *Chunk) FloatConstant(idx uint16) float64 {
	return c.Data.PeekF64(c.dataIndex[idx])
}

// StringConstant reads back the string at constant index idx.
func (c *Chunk) StringConstant(idx uint16) string {
	s, _ := c.Data.PeekString(c.dataIndex[idx])
	return s
}

// magic identifies a serialized glint bytecode file ("GLTB").
var magic = [4]byte{'G', 'L', 'T', 'B'}

const bytecodeVersion byte = 1

// Program is the compiler's output: an ordered list of chunks, chunk 0
// being the entry point (§6: "an ordered list of chunks; chunk 0 is the
// entry").
type Program struct {
	Chunks []*Chunk
}

// Serialize writes a Program to a simple length-prefixed binary layout,
// encoded through the same ByteVec/funbit machinery the compiler uses for
// its constant pools rather than hand-rolled byte packing. cmd/glint's
// `-c`/`-r` flags give this a reachable on-disk `.glintc` cache, mirroring
// the teacher's `-c`/`-r` compiled-artifact workflow.
func (p *Program) Serialize() []byte {
	v := NewByteVec(256)
	v.buf = append(v.buf, magic[:]...)
	v.PushU8(bytecodeVersion)
	v.PushU32(uint32(len(p.Chunks)))
	for _, c := range p.Chunks {
		v.PushU32(uint32(len(c.Code)))
		v.buf = append(v.buf, c.Code...)
		data := c.Data.Bytes()
		v.PushU32(uint32(len(data)))
		v.buf = append(v.buf, data...)
		v.PushU32(uint32(len(c.dataIndex)))
		for _, off := range c.dataIndex {
			v.PushU32(uint32(off))
		}
	}
	return v.Bytes()
}

// DeserializeProgram reverses Serialize.
func DeserializeProgram(data []byte) (*Program, error) {
	if len(data) < 5 || !bytes.Equal(data[:4], magic[:]) {
		return nil, fmt.Errorf("vm: not a glint bytecode file")
	}
	if data[4] != bytecodeVersion {
		return nil, fmt.Errorf("vm: unsupported bytecode version %d", data[4])
	}
	v := &ByteVec{buf: data}
	off := 5
	n := int(v.PeekU32(off))
	off += 4
	chunks := make([]*Chunk, n)
	for i := 0; i < n; i++ {
		codeLen := int(v.PeekU32(off))
		off += 4
		code := make([]byte, codeLen)
		copy(code, data[off:off+codeLen])
		off += codeLen

		dataLen := int(v.PeekU32(off))
		off += 4
		dataBytes := make([]byte, dataLen)
		copy(dataBytes, data[off:off+dataLen])
		off += dataLen

		idxLen := int(v.PeekU32(off))
		off += 4
		idx := make([]int, idxLen)
		for j := 0; j < idxLen; j++ {
			idx[j] = int(v.PeekU32(off))
			off += 4
		}

		chunks[i] = &Chunk{Code: code, Data: &ByteVec{buf: dataBytes}, dataIndex: idx}
	}
	return &Program{Chunks: chunks}, nil
}
