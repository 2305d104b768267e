package atomic32

import "runtime"

// transform is the shared CAS-retry loop behind Update, Accumulate,
// SetIfGreater and SetIfLess. It repeatedly loads the current value,
// computes next(current), and tries to swap the result in. When next
// returns the current value unchanged the loop stops without writing.
// A failed swap means another goroutine won the race; the loop yields
// the processor briefly and retries from a fresh load. Retries are
// unbounded: under sustained contention from many goroutines this can
// in principle spin forever, which is the accepted cost of staying
// lock-free.
func (i *Int32) transform(next func(current int32) int32) int32 {
	for {
		current := i.Load()
		updated := next(current)
		if updated == current {
			return current
		}
		if i.CompareAndSwap(current, updated) {
			return updated
		}
		runtime.Gosched()
	}
}

// Update applies fn to the current value until the result can be swapped in,
// then returns the value it stored. fn must be pure: under contention it runs
// once per attempt, so any side effect would be duplicated. Update panics if
// fn is nil, before touching the cell.
func (i *Int32) Update(fn func(current int32) int32) int32 {
	if fn == nil {
		panic("atomic32: Update called with nil transform function")
	}
	return i.transform(fn)
}

// TryUpdate computes fn(current) once and makes exactly one swap attempt.
// It returns the value it observed, the value it computed, and whether the
// swap succeeded. It never retries; callers decide what a failure means.
// TryUpdate panics if fn is nil, before touching the cell.
func (i *Int32) TryUpdate(fn func(current int32) int32) (old, new int32, swapped bool) {
	if fn == nil {
		panic("atomic32: TryUpdate called with nil transform function")
	}
	old = i.Load()
	new = fn(old)
	return old, new, i.CompareAndSwap(old, new)
}

// Accumulate is Update with a two-argument combiner: the stored value becomes
// fn(current, x). It exists so callers can pass a plain combining function
// without building a closure around x. Accumulate panics if fn is nil.
func (i *Int32) Accumulate(x int32, fn func(current, x int32) int32) int32 {
	if fn == nil {
		panic("atomic32: Accumulate called with nil accumulator function")
	}
	return i.transform(func(current int32) int32 {
		return fn(current, x)
	})
}

// SetIfGreater raises the cell to v unless it already holds v or more.
// It retries until the bound is enforced and returns the winning value:
// v when the swap happened, or the current value when that value already
// satisfied the bound. Repeated calls never lower the cell.
func (i *Int32) SetIfGreater(v int32) int32 {
	return i.transform(func(current int32) int32 {
		if v <= current {
			return current
		}
		return v
	})
}

// SetIfLess lowers the cell to v unless it already holds v or less.
// Symmetric to SetIfGreater.
func (i *Int32) SetIfLess(v int32) int32 {
	return i.transform(func(current int32) int32 {
		if v >= current {
			return current
		}
		return v
	})
}

// TrySetIfGreater makes a single attempt to raise the cell to v.
// It returns false when v does not improve on the current value, and also
// when another goroutine changed the cell between the load and the swap,
// a spurious failure the caller may retry. Use SetIfGreater for the
// guaranteed variant.
func (i *Int32) TrySetIfGreater(v int32) bool {
	current := i.Load()
	if v <= current {
		return false
	}
	return i.CompareAndSwap(current, v)
}

// TrySetIfLess makes a single attempt to lower the cell to v.
// Symmetric to TrySetIfGreater.
func (i *Int32) TrySetIfLess(v int32) bool {
	current := i.Load()
	if v >= current {
		return false
	}
	return i.CompareAndSwap(current, v)
}
