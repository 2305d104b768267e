package atomic32

import (
	"sync"
	"testing"
)

// mutexInt32 is a lock-based reference implementation used to benchmark the
// lock-free cell against.
type mutexInt32 struct {
	mu    sync.Mutex
	value int32
}

func (m *mutexInt32) Load() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

func (m *mutexInt32) Inc() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value++
	return m.value
}

func (m *mutexInt32) SetIfGreater(v int32) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v > m.value {
		m.value = v
	}
	return m.value
}

func BenchmarkInt32_Load(b *testing.B) {
	i := New(42)
	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		_ = i.Load()
	}
}

func BenchmarkInt32_Store(b *testing.B) {
	i := New(0)
	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		i.Store(int32(n))
	}
}

func BenchmarkInt32_Inc(b *testing.B) {
	i := New(0)
	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		i.Inc()
	}
}

func BenchmarkInt32_IncParallel(b *testing.B) {
	i := New(0)
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i.Inc()
		}
	})
}

func BenchmarkMutexInt32_IncParallel(b *testing.B) {
	var m mutexInt32
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc()
		}
	})
}

func BenchmarkInt32_CompareAndSwap(b *testing.B) {
	i := New(0)
	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		i.CompareAndSwap(int32(n), int32(n+1))
	}
}

func BenchmarkInt32_Update(b *testing.B) {
	i := New(0)
	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		i.Update(func(current int32) int32 { return current + 1 })
	}
}

func BenchmarkInt32_UpdateParallel(b *testing.B) {
	i := New(0)
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i.Update(func(current int32) int32 { return current + 1 })
		}
	})
}

func BenchmarkInt32_SetIfGreaterParallel(b *testing.B) {
	i := New(0)
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		v := int32(0)
		for pb.Next() {
			v++
			i.SetIfGreater(v)
		}
	})
}

func BenchmarkMutexInt32_SetIfGreaterParallel(b *testing.B) {
	var m mutexInt32
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		v := int32(0)
		for pb.Next() {
			v++
			m.SetIfGreater(v)
		}
	})
}
