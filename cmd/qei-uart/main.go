//go:build rp2040

// qei-uart streams encoder readings from the HAL over UART0 as text lines:
//
//	knob count=123 pos=-45 delta=3 rev=0 dir=up
//
// Sending 'z' on the UART rebases the position to zero.
package main

import (
	"context"
	"machine"
	"strconv"
	"time"

	"qeicode-go/bus"
	"qeicode-go/services/hal"
	"qeicode-go/services/heartbeat"
	"qeicode-go/types"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

const (
	baud   = 115200
	txPin  = machine.GPIO0
	rxPin  = machine.GPIO1
	domain = "motion"
	name   = "knob"
)

func appendValue(b []byte, v types.EncoderValue) []byte {
	b = append(b, name...)
	b = append(b, " count="...)
	b = strconv.AppendUint(b, uint64(v.Count), 10)
	b = append(b, " pos="...)
	b = strconv.AppendInt(b, v.Position, 10)
	b = append(b, " delta="...)
	b = strconv.AppendInt(b, v.Delta, 10)
	b = append(b, " rev="...)
	b = strconv.AppendInt(b, v.Revolutions, 10)
	b = append(b, " dir="...)
	b = append(b, v.Direction...)
	return append(b, '\r', '\n')
}

func main() {
	time.Sleep(1500 * time.Millisecond)
	println("[uart] boot, board:", hal.Board())

	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{BaudRate: baud, TX: txPin, RX: rxPin}); err != nil {
		println("[uart] configure failed:", err.Error())
		return
	}

	ctx := context.Background()
	b := bus.NewBus(4)
	go hal.Run(ctx, b.NewConnection("hal"))
	hb := &heartbeat.Service{}
	_ = hb.Start(ctx, b.NewConnection("heartbeat"))

	ui := b.NewConnection("ui")
	vals := ui.Subscribe(hal.EncoderValueTopic(domain, name))
	ui.Publish(ui.NewMessage(hal.TopicConfig(), hal.DefaultConfig(), true))

	go commands(ctx, u, ui)

	beats := ui.Subscribe(heartbeat.TopicBeat())
	line := make([]byte, 0, 96)
	for {
		select {
		case m := <-beats.Channel():
			if beat, ok := m.Payload.(types.Heartbeat); ok {
				line = strconv.AppendUint(append(line[:0], "hb "...), uint64(beat.Seq), 10)
				line = append(line, '\r', '\n')
			}
		case m := <-vals.Channel():
			v, ok := m.Payload.(types.EncoderValue)
			if !ok {
				continue
			}
			line = appendValue(line[:0], v)
		}
		if len(line) == 0 {
			continue
		}
		if _, err := u.Write(line); err != nil {
			println("[uart] write failed:", err.Error())
		}
		line = line[:0]
	}
}

// commands reads single-byte commands from the UART.
func commands(ctx context.Context, u *uartx.UART, ui *bus.Connection) {
	var buf [16]byte
	for {
		n, err := u.RecvSomeContext(ctx, buf[:])
		if err != nil {
			println("[uart] recv failed:", err.Error())
			return
		}
		for _, c := range buf[:n] {
			var verb string
			switch c {
			case 'z', 'Z':
				verb = "zero"
			case 'r', 'R':
				verb = "read"
			default:
				continue
			}
			rctx, cancel := context.WithTimeout(ctx, time.Second)
			r, err := ui.Request(rctx, ui.NewMessage(hal.EncoderControlTopic(domain, name, verb), nil, false))
			cancel()
			if err != nil {
				println("[uart]", verb, "failed:", err.Error())
				continue
			}
			if e, bad := r.Payload.(types.ErrorReply); bad {
				println("[uart]", verb, "error:", e.Error)
			}
		}
	}
}
