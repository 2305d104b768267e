package atomic32

// Integer is the capability contract of a thread-safe 32-bit integer.
//
// It is a pure operation set: no implementation, no state. Code that only
// needs "an atomic int32" should depend on Integer rather than *Int32 so
// that tests can substitute recording doubles and alternative backings can
// be dropped in without touching callers. *Int32 is the canonical
// implementation.
type Integer interface {
	// Load returns the current value.
	Load() int32
	// Store sets the value.
	Store(value int32)
	// Swap stores new and returns the previous value.
	Swap(new int32) int32
	// CompareAndSwap swaps old for new in one attempt, reporting success.
	CompareAndSwap(old, new int32) bool
	// CompareAndExchange swaps old for new in one attempt, reporting the
	// value observed whether or not it matched old.
	CompareAndExchange(old, new int32) int32

	// Add adds delta and returns the new value; wraps on overflow.
	Add(delta int32) int32
	// Inc adds 1 and returns the new value.
	Inc() int32
	// Dec subtracts 1 and returns the new value.
	Dec() int32
	// GetAndAdd adds delta and returns the value before the addition.
	GetAndAdd(delta int32) int32
	// GetAndInc adds 1 and returns the value before the increment.
	GetAndInc() int32
	// GetAndDec subtracts 1 and returns the value before the decrement.
	GetAndDec() int32

	// SetIfGreater raises the value to v, retrying under contention, and
	// returns the winning value.
	SetIfGreater(v int32) int32
	// SetIfLess lowers the value to v, retrying under contention, and
	// returns the winning value.
	SetIfLess(v int32) int32
	// TrySetIfGreater makes one attempt to raise the value to v.
	TrySetIfGreater(v int32) bool
	// TrySetIfLess makes one attempt to lower the value to v.
	TrySetIfLess(v int32) bool

	// Update applies a pure transform under a CAS-retry loop and returns
	// the stored result.
	Update(fn func(current int32) int32) int32
	// TryUpdate applies a pure transform with a single swap attempt,
	// reporting the observed value, the computed value and success.
	TryUpdate(fn func(current int32) int32) (old, new int32, swapped bool)
	// Accumulate combines the current value with x under a CAS-retry loop
	// and returns the stored result.
	Accumulate(x int32, fn func(current, x int32) int32) int32
}

// Int32 implements the full contract.
var _ Integer = (*Int32)(nil)
