package vm

import "github.com/glintlang/glint/internal/config"

// Object is the closed set of heap-resident values: strings and closures.
// Floats and bools never reach the heap on their own (they only live on the
// operand stack or as closure captures, which are themselves heap
// addresses), but the spec's heap object set names Float/Bool slots for a
// captured-by-value local that has been promoted — see HeapCell below.
type Object interface {
	isObject()
}

// HeapString is a heap-resident UTF-8 string.
type HeapString struct{ Value string }

// HeapCell is a heap-promoted local: a captured variable's storage cell,
// addressed by closures that reference it. Its Value width matches the
// captured variable's static type, but since glint's only capturable
// scalar is Float (§4.3: captures are exposed with type HeapAllocated(T)),
// a cell always holds exactly one float.
type HeapCell struct{ Value float64 }

// Closure is a function value paired with its captured environment:
// ChunkIndex identifies the compiled chunk to invoke, Captured holds the
// heap addresses of each captured cell in declaration order.
type Closure struct {
	ChunkIndex uint16
	Captured   []uint32
}

func (*HeapString) isObject() {}
func (*HeapCell) isObject()   {}
func (*Closure) isObject()    {}

type slot struct {
	refcount uint16
	obj      Object // nil when free
}

// Heap is a reference-counted object arena with free-slot reuse (§4.6).
type Heap struct {
	slots    []slot
	freeList []uint32
}

// NewHeap creates an empty heap with room for config.InitialHeapCapacity
// objects before its first reallocation.
func NewHeap() *Heap {
	return &Heap{slots: make([]slot, 0, config.InitialHeapCapacity)}
}

// Add inserts obj with refcount 1, reusing a free slot if one exists, and
// returns its heap address.
func (h *Heap) Add(obj Object) uint32 {
	if n := len(h.freeList); n > 0 {
		idx := h.freeList[n-1]
		h.freeList = h.freeList[:n-1]
		h.slots[idx] = slot{refcount: 1, obj: obj}
		return idx
	}
	h.slots = append(h.slots, slot{refcount: 1, obj: obj})
	return uint32(len(h.slots) - 1)
}

// Get returns the object at addr.
func (h *Heap) Get(addr uint32) Object {
	return h.slots[addr].obj
}

// Inc increments addr's refcount.
func (h *Heap) Inc(addr uint32) {
	h.slots[addr].refcount++
}

// Dec decrements addr's refcount, freeing the slot and recursively
// decrementing a freed closure's captures when it reaches zero. The
// recursion is driven by an explicit work-stack (§9) rather than Go call
// recursion, since closures cannot form reference cycles but a capture
// chain could in principle run deep.
func (h *Heap) Dec(addr uint32) {
	work := []uint32{addr}
	for len(work) > 0 {
		a := work[len(work)-1]
		work = work[:len(work)-1]

		s := &h.slots[a]
		s.refcount--
		if s.refcount > 0 {
			continue
		}
		freed := s.obj
		s.obj = nil
		h.freeList = append(h.freeList, a)
		if cl, ok := freed.(*Closure); ok {
			work = append(work, cl.Captured...)
		}
	}
}

// CountLive returns the number of non-free slots, a testability hook for
// the "after execution exactly one heap object is live" scenarios (§8).
func (h *Heap) CountLive() int {
	n := 0
	for _, s := range h.slots {
		if s.obj != nil {
			n++
		}
	}
	return n
}
