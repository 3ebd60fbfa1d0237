package atomic_float

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 encapsulates a float64 for non-locking atomic operations.
// The value is stored as its IEEE-754 bits in an atomic.Uint64, so readers never
// observe a torn value while an http handler overwrites a tensor cell that the
// view publisher is reading.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

// NewAtomicFloat64 encapsulates a float64 for atomic operations.
func NewAtomicFloat64(val float64) *AtomicFloat64 {
	af := &AtomicFloat64{}
	af.bits.Store(math.Float64bits(val))
	return af
}

// AtomicRead atomically reads the float64.
func (af *AtomicFloat64) AtomicRead() float64 {
	return math.Float64frombits(af.bits.Load())
}

// AtomicStore unconditionally sets the float64.
func (af *AtomicFloat64) AtomicStore(val float64) {
	af.bits.Store(math.Float64bits(val))
}

// AtomicAdd attempts a single compare-and-swap of old+addend.
// If the value changed while we were operating on it, succeeded is false and the caller
// decides whether to retry, drop the update, or recalculate.
func (af *AtomicFloat64) AtomicAdd(addend float64) (newVal float64, succeeded bool) {
	old := af.bits.Load()
	newVal = math.Float64frombits(old) + addend
	succeeded = af.bits.CompareAndSwap(old, math.Float64bits(newVal))
	return
}

// AtomicSwap sets the float64 and returns the previous value.
func (af *AtomicFloat64) AtomicSwap(val float64) (old float64) {
	return math.Float64frombits(af.bits.Swap(math.Float64bits(val)))
}
