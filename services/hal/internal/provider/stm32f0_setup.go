//go:build stm32f0

package provider

import (
	"qeicode-go/drivers/qei"
	"qeicode-go/services/hal/internal/core"
	"qeicode-go/services/hal/internal/provider/setups"
)

func init() { Selected = setups.NucleoF072 }

func newRegistry(plan setups.ResourcePlan) core.ResourceRegistry {
	return NewTimerRegistry(plan, qei.Default, qei.Clock)
}
