package vm

import (
	"github.com/funvibe/funbit/pkg/funbit"
)

// ByteVec is a resizable little-endian byte container with typed
// push/pop/peek at the natural widths the instruction set uses (1/2/4/8
// bytes). It backs both the chunk's constant pool (§4.5) and the VM's
// operand stack: encoding goes through funbit's Builder, decoding through
// its Matcher, so the widths and endianness are defined in one place
// instead of by hand-rolled binary.LittleEndian calls scattered across the
// compiler and the VM.
type ByteVec struct {
	buf []byte
}

// NewByteVec creates an empty vector with room for n bytes before the first
// reallocation.
func NewByteVec(n int) *ByteVec {
	return &ByteVec{buf: make([]byte, 0, n)}
}

// Bytes exposes the live contents of the vector.
func (v *ByteVec) Bytes() []byte { return v.buf }

// Len reports the number of live bytes.
func (v *ByteVec) Len() int { return len(v.buf) }

// Truncate resets the write cursor to n, discarding bytes beyond it.
func (v *ByteVec) Truncate(n int) { v.buf = v.buf[:n] }

func (v *ByteVec) build(segment func(b *funbit.Builder)) {
	b := funbit.NewBuilder()
	segment(b)
	bs, err := b.Build()
	if err != nil {
		panic("vm: byte vector encode: " + err.Error())
	}
	v.buf = append(v.buf, bs.ToBytes()...)
}

// PushU8/PushU16/PushU32/PushU64 append an unsigned little-endian scalar.
func (v *ByteVec) PushU8(x uint8) {
	v.build(func(b *funbit.Builder) {
		b.AddInteger(uint(x), funbit.WithSize(8), funbit.WithEndianness(funbit.EndiannessLittle))
	})
}

func (v *ByteVec) PushU16(x uint16) {
	v.build(func(b *funbit.Builder) {
		b.AddInteger(uint(x), funbit.WithSize(16), funbit.WithEndianness(funbit.EndiannessLittle))
	})
}

func (v *ByteVec) PushU32(x uint32) {
	v.build(func(b *funbit.Builder) {
		b.AddInteger(uint(x), funbit.WithSize(32), funbit.WithEndianness(funbit.EndiannessLittle))
	})
}

func (v *ByteVec) PushU64(x uint64) {
	v.build(func(b *funbit.Builder) {
		b.AddInteger(x, funbit.WithSize(64), funbit.WithEndianness(funbit.EndiannessLittle))
	})
}

// PushF64 appends an IEEE-754 double, little-endian.
func (v *ByteVec) PushF64(x float64) {
	v.build(func(b *funbit.Builder) {
		b.AddFloat(x, funbit.WithSize(64), funbit.WithEndianness(funbit.EndiannessLittle))
	})
}

// PushBool appends a single byte: 1 for true, 0 for false.
func (v *ByteVec) PushBool(x bool) {
	var u uint8
	if x {
		u = 1
	}
	v.PushU8(u)
}

// PushString appends a u16 length prefix followed by the raw UTF-8 bytes,
// per §4.5.
func (v *ByteVec) PushString(s string) {
	v.PushU16(uint16(len(s)))
	v.buf = append(v.buf, s...)
}

func extractUint(data []byte, size uint) uint64 {
	var out uint64
	m := funbit.NewMatcher().Integer(&out, funbit.WithSize(size), funbit.WithEndianness(funbit.EndiannessLittle))
	if _, err := m.Match(funbit.NewBitStringFromBytes(data)); err != nil {
		panic("vm: byte vector decode: " + err.Error())
	}
	return out
}

// PeekU8/PeekU16/PeekU32/PeekU64 read a scalar at the given byte offset
// without mutating the vector.
func (v *ByteVec) PeekU8(off int) uint8   { return uint8(extractUint(v.buf[off:off+1], 8)) }
func (v *ByteVec) PeekU16(off int) uint16 { return uint16(extractUint(v.buf[off:off+2], 16)) }
func (v *ByteVec) PeekU32(off int) uint32 { return uint32(extractUint(v.buf[off:off+4], 32)) }
func (v *ByteVec) PeekU64(off int) uint64 { return extractUint(v.buf[off:off+8], 64) }

func (v *ByteVec) PeekF64(off int) float64 {
	var out float64
	m := funbit.NewMatcher().Float(&out, funbit.WithSize(64), funbit.WithEndianness(funbit.EndiannessLittle))
	if _, err := m.Match(funbit.NewBitStringFromBytes(v.buf[off : off+8])); err != nil {
		panic("vm: byte vector decode float: " + err.Error())
	}
	return out
}

func (v *ByteVec) PeekBool(off int) bool { return v.PeekU8(off) != 0 }

// PeekString reads a u16-length-prefixed string starting at off, returning
// it alongside the offset just past it.
func (v *ByteVec) PeekString(off int) (string, int) {
	n := int(v.PeekU16(off))
	start := off + 2
	return string(v.buf[start : start+n]), start + n
}

// PopU8/PopU16/PopU32/PopU64 remove and return the top scalar of the given
// width; "top" is always the last len(width) bytes of the vector.
func (v *ByteVec) PopU8() uint8 {
	x := v.PeekU8(len(v.buf) - 1)
	v.Truncate(len(v.buf) - 1)
	return x
}

func (v *ByteVec) PopU16() uint16 {
	x := v.PeekU16(len(v.buf) - 2)
	v.Truncate(len(v.buf) - 2)
	return x
}

func (v *ByteVec) PopU32() uint32 {
	x := v.PeekU32(len(v.buf) - 4)
	v.Truncate(len(v.buf) - 4)
	return x
}

func (v *ByteVec) PopU64() uint64 {
	x := v.PeekU64(len(v.buf) - 8)
	v.Truncate(len(v.buf) - 8)
	return x
}

func (v *ByteVec) PopF64() float64 {
	x := v.PeekF64(len(v.buf) - 8)
	v.Truncate(len(v.buf) - 8)
	return x
}

func (v *ByteVec) PopBool() bool { return v.PopU8() != 0 }

// PopBytes removes and returns the top n raw bytes, preserving their order.
func (v *ByteVec) PopBytes(n int) []byte {
	start := len(v.buf) - n
	out := make([]byte, n)
	copy(out, v.buf[start:])
	v.Truncate(start)
	return out
}

// PushBytes appends raw bytes verbatim, used to restore a value popped
// earlier with PopBytes (e.g. a return value surviving a frame pop) or to
// splice bytes into place via InsertBytes.
func (v *ByteVec) PushBytes(b []byte) { v.buf = append(v.buf, b...) }

// InsertBytes splices b into the vector at byte offset at, shifting
// everything from at onward to the right. Used to place a closure's
// captured addresses ahead of its already-pushed declared arguments.
func (v *ByteVec) InsertBytes(at int, b []byte) {
	v.buf = append(v.buf[:at], append(append([]byte{}, b...), v.buf[at:]...)...)
}
