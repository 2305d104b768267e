// Package atomic32 provides a lock-free, thread-safe 32-bit integer cell.
//
// Every operation maps to a single hardware atomic instruction or to a
// bounded CAS-retry loop over such instructions; the cell is never guarded
// by a mutex. Loads carry acquire semantics, stores and successful swaps
// carry release semantics, and all operations on one cell are linearizable
// with respect to each other. Operations on different cells are independent.
package atomic32

import (
	"strconv"
	"sync/atomic"
)

// Int32 is a lock-free cell holding a signed 32-bit integer.
//
// The zero value holds 0 and is ready to use. An Int32 must not be copied
// after first use; share it by pointer. Reading the value out produces a
// plain snapshot with no atomicity of its own.
type Int32 struct {
	value int32
}

// New creates a new cell initialized to value.
func New(value int32) *Int32 {
	return &Int32{value: value}
}

// Load returns the current value.
// It observes every write that was released before the load.
func (i *Int32) Load() int32 {
	return atomic.LoadInt32(&i.value)
}

// Store sets the cell to value.
// Readers that observe value also observe everything written before it.
func (i *Int32) Store(value int32) {
	atomic.StoreInt32(&i.value, value)
}

// Swap stores new and returns the value the cell held before.
func (i *Int32) Swap(new int32) int32 {
	return atomic.SwapInt32(&i.value, new)
}

// CompareAndSwap replaces the value with new only if it currently equals old.
// It makes exactly one attempt and returns true iff the swap happened.
func (i *Int32) CompareAndSwap(old, new int32) bool {
	return atomic.CompareAndSwapInt32(&i.value, old, new)
}

// CompareAndExchange is CompareAndSwap reporting the value it saw instead of
// a boolean: on success it returns old, otherwise the value observed during
// the failed attempt. It makes exactly one attempt and never retries.
func (i *Int32) CompareAndExchange(old, new int32) int32 {
	if atomic.CompareAndSwapInt32(&i.value, old, new) {
		return old
	}
	return atomic.LoadInt32(&i.value)
}

// Add adds delta to the cell and returns the new value.
// Arithmetic wraps on overflow with two's-complement semantics.
func (i *Int32) Add(delta int32) int32 {
	return atomic.AddInt32(&i.value, delta)
}

// Inc increments the cell by 1 and returns the new value.
func (i *Int32) Inc() int32 {
	return i.Add(1)
}

// Dec decrements the cell by 1 and returns the new value.
func (i *Int32) Dec() int32 {
	return i.Add(-1)
}

// GetAndAdd adds delta and returns the value the cell held before the
// addition. The read and the add are one atomic step, never a separate
// load followed by an add.
func (i *Int32) GetAndAdd(delta int32) int32 {
	return i.Add(delta) - delta
}

// GetAndInc increments by 1 and returns the value before the increment.
func (i *Int32) GetAndInc() int32 {
	return i.Add(1) - 1
}

// GetAndDec decrements by 1 and returns the value before the decrement.
func (i *Int32) GetAndDec() int32 {
	return i.Add(-1) + 1
}

// String returns the current value in base 10, so cells can be handed
// directly to log statements.
func (i *Int32) String() string {
	return strconv.FormatInt(int64(i.Load()), 10)
}
