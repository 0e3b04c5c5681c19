package setups

import "qeicode-go/types"

// ResourcePlan specifies which counters a board exposes. Providers consume
// it to decide what ClaimCounter may hand out.
type ResourcePlan struct {
	Timers       []string          // hardware timers usable in encoder mode, e.g. "tim3"
	SoftEncoders []SoftEncoderPlan // pin-interrupt decoders for chips without encoder timers
}

type SoftEncoderPlan struct {
	ID        string // e.g. "enc0"
	A, B      int    // GPIO numbers
	Precision int    // counts per quadrature cycle: 1, 2 or 4
}

// Setup pairs a plan with the HAL configuration the board boots with.
type Setup struct {
	Name   string
	Plan   ResourcePlan
	Config types.HALConfig
}

// HasTimer reports whether id is in the plan's timer list.
func (p ResourcePlan) HasTimer(id string) bool {
	for _, t := range p.Timers {
		if t == id {
			return true
		}
	}
	return false
}
