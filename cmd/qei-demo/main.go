//go:build !stm32f0 && !rp2040

// qei-demo runs the HAL against the simulated TIM3 and prints the spindle
// position as the simulated shaft turns forward then back.
package main

import (
	"context"
	"time"

	"qeicode-go/bus"
	"qeicode-go/services/hal"
	"qeicode-go/services/heartbeat"
	"qeicode-go/types"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()

	b := bus.NewBus(8)
	go hal.Run(ctx, b.NewConnection("hal"))
	hb := &heartbeat.Service{}
	_ = hb.Start(ctx, b.NewConnection("heartbeat"))

	ui := b.NewConnection("ui")
	vals := ui.Subscribe(hal.EncoderValueTopic("motion", "spindle"))
	beats := ui.Subscribe(heartbeat.TopicBeat())
	ui.Publish(ui.NewMessage(hal.TopicConfig(), hal.DefaultConfig(), true))
	println("[demo] board:", hal.Board())

	go turn(ctx, hal.SimBoard().Timer("tim3"))

	for {
		select {
		case <-ctx.Done():
			println("[demo] done")
			return
		case m := <-beats.Channel():
			if beat, ok := m.Payload.(types.Heartbeat); ok {
				println("[demo] heartbeat", beat.Seq)
			}
		case m := <-vals.Channel():
			v, ok := m.Payload.(types.EncoderValue)
			if !ok {
				continue
			}
			println("[demo] count", v.Count, "pos", v.Position, "delta", v.Delta, "rev", v.Revolutions, v.Direction)
		}
	}
}

type shaft interface {
	Forward(n int)
	Reverse(n int)
}

// turn spins forward for 1.5 s then back, crossing zero so the count wraps.
func turn(ctx context.Context, s shaft) {
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if time.Since(start) < 1500*time.Millisecond {
				s.Forward(40)
			} else {
				s.Reverse(60)
			}
		}
	}
}
