//go:build stm32f0

// Firmware image for STM32F0 boards: decodes an encoder on TIM3 (PA6/PA7,
// alternate function set up by the board runtime) and prints the count
// and direction once a second.
package main

import (
	"time"

	"qeicode-go/drivers/qei"
)

func main() {
	time.Sleep(2 * time.Second)
	println("[qei] boot")

	h, err := qei.TakeTIM3(qei.Default)
	if err != nil {
		println("[qei] take tim3:", err.Error())
		return
	}
	enc, err := qei.New(h, qei.BothChannels, qei.Clock)
	if err != nil {
		println("[qei] configure:", err.Error())
		return
	}

	var tr qei.Tracker[uint16]
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for range tick.C {
		s := enc.Snapshot()
		pos, _ := tr.Observe(s.Count)
		println("[qei] count", s.Count, "pos", pos, s.Direction.String())
	}
}
