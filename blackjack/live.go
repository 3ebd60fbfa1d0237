package blackjack

import (
	"stateplot/atomic_float"
)

// LiveTensor is a tensor whose cells may be written by one goroutine (e.g. an http handler
// receiving values from a training process) while others take snapshots for rendering.
// Cells are individually atomic; a Snapshot taken during a Store may mix old and new cells,
// which is fine for display since the next update supersedes it.
type LiveTensor struct {
	cells [NUM_DEALER_CARDS][NUM_PLAYER_SUMS][NUM_ACE_FLAGS]*atomic_float.AtomicFloat64
}

// NewLiveTensor initializes a live tensor from the passed values.
func NewLiveTensor(initial *Tensor) *LiveTensor {
	lt := &LiveTensor{}
	for d := range lt.cells {
		for p := range lt.cells[d] {
			for ua := range lt.cells[d][p] {
				lt.cells[d][p][ua] = atomic_float.NewAtomicFloat64(initial[d][p][ua])
			}
		}
	}
	return lt
}

// Set sets a single cell.
func (lt *LiveTensor) Set(d, p, ua int, val float64) {
	lt.cells[d][p][ua].AtomicStore(val)
}

// Add adds to a single cell, retrying until the compare-and-swap succeeds, and returns the new value.
func (lt *LiveTensor) Add(d, p, ua int, addend float64) float64 {
	for {
		if newVal, ok := lt.cells[d][p][ua].AtomicAdd(addend); ok {
			return newVal
		}
	}
}

// Store overwrites every cell with the passed tensor.
func (lt *LiveTensor) Store(t *Tensor) {
	t.Visit(func(d, p, ua int, val float64) {
		lt.cells[d][p][ua].AtomicStore(val)
	})
}

// Snapshot copies the current values into a plain Tensor.
func (lt *LiveTensor) Snapshot() (t *Tensor) {
	t = &Tensor{}
	for d := range lt.cells {
		for p := range lt.cells[d] {
			for ua := range lt.cells[d][p] {
				t[d][p][ua] = lt.cells[d][p][ua].AtomicRead()
			}
		}
	}
	return
}
