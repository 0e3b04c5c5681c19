package qei

import (
	"sync"

	"qeicode-go/errcode"
	"qeicode-go/x/mathx"
)

// Counter is the set of counter register widths a timer can have.
type Counter interface {
	~uint16 | ~uint32
}

// Timer describes one timer instance. A single Encoder implementation
// serves every description; only the values differ.
type Timer struct {
	Name  string
	Base  uintptr
	Width uint8 // counter bits, 16 or 32
	Clock ClockLine
}

var (
	// TIM2 has a 32-bit counter (not present on every F0 part).
	TIM2 = Timer{Name: "tim2", Base: TIM2Base, Width: 32, Clock: ClockLine{Bus: APB1, Bit: 0}}
	// TIM3 has a 16-bit counter.
	TIM3 = Timer{Name: "tim3", Base: TIM3Base, Width: 16, Clock: ClockLine{Bus: APB1, Bit: 1}}
)

// Lookup returns the built-in description for name.
func Lookup(name string) (Timer, bool) {
	switch name {
	case TIM2.Name:
		return TIM2, true
	case TIM3.Name:
		return TIM3, true
	}
	return Timer{}, false
}

func widthOf[W Counter]() uint8 {
	if uint32(mathx.FullScale[W]()) == 0xFFFF {
		return 16
	}
	return 32
}

// Handle is exclusive access to one timer's register block. Handles are
// only minted by Peripherals and are consumed by New.
type Handle[W Counter] struct {
	timer Timer
	regs  Registers
	inUse bool
}

// Timer returns the description the handle was taken for.
func (h *Handle[W]) Timer() Timer { return h.timer }

// Peripherals hands out each timer handle at most once.
type Peripherals struct {
	mu    sync.Mutex
	taken map[string]bool
	regs  func(Timer) Registers
}

// NewPeripherals builds a handle source. regs maps a description to its
// register block (MMIO on hardware, a simulator on the host).
func NewPeripherals(regs func(Timer) Registers) *Peripherals {
	return &Peripherals{taken: map[string]bool{}, regs: regs}
}

// Take returns the handle for t. A second Take for the same timer fails
// with errcode.PeripheralInUse, and W must match t.Width.
func Take[W Counter](p *Peripherals, t Timer) (*Handle[W], error) {
	if widthOf[W]() != t.Width {
		return nil, &errcode.E{C: errcode.WidthMismatch, Op: "qei.Take", Msg: t.Name}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.taken[t.Name] {
		return nil, &errcode.E{C: errcode.PeripheralInUse, Op: "qei.Take", Msg: t.Name}
	}
	r := p.regs(t)
	if r == nil {
		return nil, &errcode.E{C: errcode.UnknownTimer, Op: "qei.Take", Msg: t.Name}
	}
	p.taken[t.Name] = true
	return &Handle[W]{timer: t, regs: r}, nil
}

// TakeTIM2 and TakeTIM3 are the per-instance entry points.
func TakeTIM2(p *Peripherals) (*Handle[uint32], error) { return Take[uint32](p, TIM2) }
func TakeTIM3(p *Peripherals) (*Handle[uint16], error) { return Take[uint16](p, TIM3) }

// Give returns a handle to p so it can be taken again. The handle must not
// be inside a live Encoder.
func (p *Peripherals) Give(t Timer) {
	p.mu.Lock()
	delete(p.taken, t.Name)
	p.mu.Unlock()
}
