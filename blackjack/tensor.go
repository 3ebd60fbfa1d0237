// blackjack holds the state tensor of the Black-Jack problem: per-state values or policy
// probabilities indexed by dealer showing card, player sum and usable ace.
package blackjack

import (
	"math"
	"strconv"
)

// Tensor dimensions. The shape is fixed by the problem definition; nothing else is supported.
const (
	NUM_DEALER_CARDS = 10
	NUM_PLAYER_SUMS  = 10
	NUM_ACE_FLAGS    = 2

	// MIN_PLAYER_SUM is the player sum at bucket zero. Sums below 12 are trivially hit and omitted.
	MIN_PLAYER_SUM = 12
)

// Usable-ace flag indices.
const (
	NO_USABLE_ACE = 0
	USABLE_ACE    = 1
)

// Tensor is the dense (dealer, player, usable-ace) array of state values.
// Indexing follows the problem: t[d][p][ua] where d=0 is an ace showing, p=0 is a player sum
// of 12 and ua=1 means the player holds a usable ace. Being an array, a Tensor is a value:
// assignment copies it, and its (10,10,2) shape is enforced by the compiler.
type Tensor [NUM_DEALER_CARDS][NUM_PLAYER_SUMS][NUM_ACE_FLAGS]float64

// At returns the value at (d, p, ua).
func (t *Tensor) At(d, p, ua int) float64 {
	return t[d][p][ua]
}

// Visit calls fn for every cell, in dealer, player, ace order.
func (t *Tensor) Visit(fn func(d, p, ua int, val float64)) {
	for d := range t {
		for p := range t[d] {
			for ua := range t[d][p] {
				fn(d, p, ua, t[d][p][ua])
			}
		}
	}
}

// MinMax returns the extremes of the tensor's ua-slice.
func (t *Tensor) MinMax(ua int) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for d := range t {
		for p := range t[d] {
			lo = math.Min(lo, t[d][p][ua])
			hi = math.Max(hi, t[d][p][ua])
		}
	}
	return
}

// DealerLabel returns the card name for a dealer index: A, 2, ..., 10.
func DealerLabel(d int) string {
	if d == 0 {
		return "A"
	}
	return strconv.Itoa(d + 1)
}

// PlayerLabel returns the player sum for a player index: 12, ..., 21.
func PlayerLabel(p int) string {
	return strconv.Itoa(p + MIN_PLAYER_SUM)
}

// AceTitle returns the display title for a usable-ace flag index.
func AceTitle(ua int) string {
	if ua == USABLE_ACE {
		return "Usable Ace"
	}
	return "No Usable Ace"
}
