package provider

import (
	"qeicode-go/services/hal/internal/core"
	"qeicode-go/services/hal/internal/provider/setups"
	"qeicode-go/types"
)

// Selected is the board setup chosen by build tags (host_setup.go,
// stm32f0_setup.go, rp2_setup.go).
var Selected setups.Setup

// NewResources builds the registry for the selected board.
func NewResources() core.Resources {
	return core.Resources{Reg: newRegistry(Selected.Plan)}
}

// InitialHALConfig is the configuration the selected board boots with.
func InitialHALConfig() types.HALConfig { return Selected.Config }
