// Package qei runs a timer peripheral as a quadrature encoder interface.
// Counting happens entirely in hardware; the driver configures the timer
// once and then reads count and direction on demand.
//
//	h, _ := qei.TakeTIM3(periph)
//	enc, err := qei.New(h, qei.BothChannels, rcc)
//	pos := enc.Count()
//
// Concurrency: Count, Direction and Snapshot only read registers and may be
// called from any goroutine. New and Release must not race with anything.
package qei

import (
	"qeicode-go/errcode"
	"qeicode-go/x/mathx"

	"tinygo.org/x/drivers"
)

var (
	_ drivers.Sensor = (*Encoder[uint16])(nil)
	_ drivers.Sensor = (*Encoder[uint32])(nil)
)

// Direction is the counting direction reported by the timer.
type Direction uint8

const (
	Upcounting Direction = iota
	Downcounting
)

func (d Direction) String() string {
	if d == Downcounting {
		return "down"
	}
	return "up"
}

// Sample is a count and direction read together.
type Sample[W Counter] struct {
	Count     W
	Direction Direction
}

// snapshotRetries bounds the CNT/DIR/CNT loop in Snapshot.
const snapshotRetries = 4

// Encoder owns a timer configured in encoder mode.
type Encoder[W Counter] struct {
	h    *Handle[W]
	regs Registers
	ch   Channels
	last Sample[W]
}

// New configures the timer behind h as an encoder for the given channel
// binding and starts it. The handle is consumed until Release.
//
// Sequence: clock enable, reset pulse, capture source/polarity/slave mode,
// full-scale auto-reload, counter enable.
func New[W Counter](h *Handle[W], ch Channels, clk ClockController) (*Encoder[W], error) {
	// A handle not minted by Peripherals has no register block and a zero
	// clock line, which would pulse TIM2's reset.
	if h == nil || h.regs == nil || clk == nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "qei.New"}
	}
	if !ch.Valid() {
		return nil, &errcode.E{C: errcode.InvalidBinding, Op: "qei.New", Msg: h.timer.Name}
	}
	if h.inUse {
		return nil, &errcode.E{C: errcode.PeripheralInUse, Op: "qei.New", Msg: h.timer.Name}
	}
	h.inUse = true

	clk.EnablePeripheral(h.timer.Clock)
	clk.ResetPeripheral(h.timer.Clock)

	r := h.regs
	var ccs, ccsMask, ccp uint32
	if ch.Has1() {
		ccs, ccsMask, ccp = ccs|CC1STI1, ccsMask|CC1SMask, ccp|CCERCC1P
	}
	if ch.Has2() {
		ccs, ccsMask, ccp = ccs|CC2STI2, ccsMask|CC2SMask, ccp|CCERCC2P
	}
	modify(r, OffCCMR1, ccs, ccsMask&^ccs)
	r.Store(OffCCER, ccp)
	r.Store(OffSMCR, ch.mode())

	r.Store(OffARR, uint32(mathx.FullScale[W]()))
	r.Store(OffCR1, CR1CEN)

	return &Encoder[W]{h: h, regs: r, ch: ch}, nil
}

// Direction reads the live direction bit.
func (e *Encoder[W]) Direction() Direction {
	return dirOf(e.regs.Load(OffCR1))
}

// Count reads the live counter. It wraps modulo 2^Width; use a Tracker to
// accumulate across wraps.
func (e *Encoder[W]) Count() W {
	return W(e.regs.Load(OffCNT))
}

// Snapshot returns a count and direction that belong together: the counter
// is read on both sides of the direction bit and the read is retried while
// it moves.
func (e *Encoder[W]) Snapshot() Sample[W] {
	c0 := W(e.regs.Load(OffCNT))
	for i := 0; ; i++ {
		cr1 := e.regs.Load(OffCR1)
		c1 := W(e.regs.Load(OffCNT))
		if c1 == c0 || i == snapshotRetries {
			return Sample[W]{Count: c1, Direction: dirOf(cr1)}
		}
		c0 = c1
	}
}

// Update implements drivers.Sensor. drivers.Distance latches a Snapshot
// for Last; other measurements are ignored.
func (e *Encoder[W]) Update(which drivers.Measurement) error {
	if which&drivers.Distance != 0 {
		e.last = e.Snapshot()
	}
	return nil
}

// Last returns the sample latched by the most recent Update.
func (e *Encoder[W]) Last() Sample[W] { return e.last }

// Release stops the counter and hands the timer back. The encoder must not
// be used afterwards.
func (e *Encoder[W]) Release() *Handle[W] {
	h := e.h
	if h == nil {
		return nil
	}
	modify(e.regs, OffCR1, 0, CR1CEN)
	h.inUse = false
	e.h = nil
	return h
}

// Introspection.
func (e *Encoder[W]) Binding() Channels { return e.ch }
func (e *Encoder[W]) Width() uint8      { return widthOf[W]() }
func (e *Encoder[W]) Max() W            { return mathx.FullScale[W]() }
func (e *Encoder[W]) Peripheral() Timer {
	if e.h == nil {
		return Timer{}
	}
	return e.h.timer
}

func dirOf(cr1 uint32) Direction {
	if cr1&CR1DIR != 0 {
		return Downcounting
	}
	return Upcounting
}
