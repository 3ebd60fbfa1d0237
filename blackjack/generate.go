package blackjack

import "math"

// DataKind selects the closed-form formula used by Generate.
type DataKind string

const (
	STATE_VALUE DataKind = "state_value"
	PROB        DataKind = "prob"
)

// Generate returns a synthetic tensor for exercising plots.
// Cell (d,p,ua) is (5*ua + p - 1.4*(d+1)) / 14, which rises with the player sum, falls with
// the dealer card and is lifted by a usable ace. PROB takes its absolute value so that it lies
// in [0,1]. Any other kind yields an all-zero tensor; unknown kinds are not an error.
func Generate(kind DataKind) (t *Tensor) {
	t = &Tensor{}
	if kind != STATE_VALUE && kind != PROB {
		return
	}

	for ua := 0; ua < NUM_ACE_FLAGS; ua++ {
		for d := 0; d < NUM_DEALER_CARDS; d++ {
			for p := 0; p < NUM_PLAYER_SUMS; p++ {
				val := (5*float64(ua) + float64(p) - 1.4*float64(d+1)) / 14.0
				if kind == PROB {
					val = math.Abs(val)
				}
				t[d][p][ua] = val
			}
		}
	}
	return
}
