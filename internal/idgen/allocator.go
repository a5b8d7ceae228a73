package idgen

import (
	"sync/atomic"
	"time"
)

// negativeIDModulus bounds generated negative IDs to 32-bit range in
// practice: now_ms XOR counter, reduced mod 10^9, is always < 2^31.
const negativeIDModulus = 1_000_000_000

// Allocator produces locally-allocated negative IDs for offline entities.
// It is safe for concurrent use; the monotonic counter only needs to be
// unique within this process, not across processes or restarts.
type Allocator struct {
	counter uint64
	last    uint64 // magnitude of the most recent ID handed out
}

// NewAllocator returns an Allocator with its counter seeded from the
// current time so two allocators started in the same process at different
// moments don't retrace the same counter sequence.
func NewAllocator() *Allocator {
	a := &Allocator{}
	atomic.StoreUint64(&a.counter, uint64(time.Now().UnixNano()))
	return a
}

// Next returns the next negative ID: id = -((now_ms XOR counter) mod 10^9).
// Callers that hit a unique-constraint collision on insert should call Next
// again and retry; collisions are rare but possible since the formula does
// not guarantee global uniqueness, only strong practical uniqueness.
// Within one Allocator the IDs strictly decrease: a formula value that is
// not above the last one handed out is replaced by last+1, wrapping back to
// -1 once the 10^9 bound is reached.
func (a *Allocator) Next() int64 {
	for {
		prev := atomic.LoadUint64(&a.last)
		c := atomic.AddUint64(&a.counter, 1)
		nowMS := uint64(time.Now().UnixMilli())
		v := (nowMS ^ c) % negativeIDModulus
		if v <= prev {
			v = prev + 1 // also keeps v above zero, which is reserved
		}
		if v >= negativeIDModulus {
			v = 1
		}
		if atomic.CompareAndSwapUint64(&a.last, prev, v) {
			return -int64(v)
		}
	}
}

// NextBlock returns n negative IDs for a bulk insert by calling Next n
// times, in the order allocated. The IDs strictly decrease but are not
// guaranteed to be contiguous, and IDs handed to a concurrent caller may
// fall between them.
func (a *Allocator) NextBlock(n int) []int64 {
	if n <= 0 {
		return nil
	}
	ids := make([]int64, n)
	for i := 0; i < n; i++ {
		ids[i] = a.Next()
	}
	return ids
}
