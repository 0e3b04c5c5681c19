//go:build !stm32f0 && !rp2040

package hal

import (
	"qeicode-go/drivers/qei/qeisim"
	"qeicode-go/services/hal/internal/provider"
)

// SimBoard is the simulated chip the host build runs on.
func SimBoard() *qeisim.Board { return provider.Board }
