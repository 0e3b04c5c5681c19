//go:build !stm32f0 && !rp2040

package provider

import (
	"qeicode-go/drivers/qei/qeisim"
	"qeicode-go/services/hal/internal/core"
	"qeicode-go/services/hal/internal/provider/setups"
)

// Board is the simulated chip behind the host registry. Tests and the host
// demo drive its inputs.
var Board = qeisim.NewBoard()

func init() { Selected = setups.Host }

func newRegistry(plan setups.ResourcePlan) core.ResourceRegistry {
	return NewTimerRegistry(plan, Board.Peripherals(), Board.Clock())
}
