// Package qeisim simulates the timer and reset/clock registers that package
// qei drives, closely enough to test configuration sequences and to feed
// quadrature signals on the host.
//
// Writes to a timer whose clock is off are discarded, a reset pulse returns
// a timer to its reset values, CR1.DIR is read-only in encoder mode, and the
// counter follows the TI1/TI2 direction table for encoder modes 1 to 3.
package qeisim

import (
	"sync"

	"qeicode-go/drivers/qei"
)

// Write is one recorded register store.
type Write struct {
	Block   string // "rcc" or the timer name
	Off     uintptr
	Value   uint32
	Dropped bool // store hit a timer whose clock was off
}

// Board is a set of timers sharing one reset and clock control block.
type Board struct {
	mu     sync.Mutex
	rcc    map[uintptr]uint32
	timers map[string]*Timer
	order  []string
	log    []Write
}

// NewBoard creates a board with the given timers, or TIM2 and TIM3 when
// none are given.
func NewBoard(ts ...qei.Timer) *Board {
	if len(ts) == 0 {
		ts = []qei.Timer{qei.TIM2, qei.TIM3}
	}
	b := &Board{rcc: map[uintptr]uint32{}, timers: map[string]*Timer{}}
	for _, d := range ts {
		t := &Timer{b: b, desc: d}
		t.reset()
		b.timers[d.Name] = t
		b.order = append(b.order, d.Name)
	}
	return b
}

// RCC returns the reset and clock control register block.
func (b *Board) RCC() qei.Registers { return rccBlock{b} }

// Clock returns a clock controller driving this board's RCC block.
func (b *Board) Clock() *qei.RCC { return qei.NewRCC(b.RCC()) }

// Timer returns the simulated timer called name, or nil.
func (b *Board) Timer(name string) *Timer { return b.timers[name] }

// Registers maps a description to its simulated block. It has the shape
// qei.NewPeripherals expects.
func (b *Board) Registers(d qei.Timer) qei.Registers {
	if t, ok := b.timers[d.Name]; ok {
		return t
	}
	return nil
}

// Peripherals returns a handle source over this board.
func (b *Board) Peripherals() *qei.Peripherals { return qei.NewPeripherals(b.Registers) }

// Writes returns a copy of the store log.
func (b *Board) Writes() []Write {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Write(nil), b.log...)
}

// WritesTo returns the logged stores for one block.
func (b *Board) WritesTo(block string) []Write {
	var out []Write
	for _, w := range b.Writes() {
		if w.Block == block {
			out = append(out, w)
		}
	}
	return out
}

// ClearLog forgets recorded stores.
func (b *Board) ClearLog() {
	b.mu.Lock()
	b.log = nil
	b.mu.Unlock()
}

func (b *Board) clockOn(l qei.ClockLine) bool {
	return b.rcc[qei.EnableOffset(l)]&(1<<l.Bit) != 0
}

type rccBlock struct{ b *Board }

func (r rccBlock) Load(off uintptr) uint32 {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	return r.b.rcc[off]
}

func (r rccBlock) Store(off uintptr, v uint32) {
	b := r.b
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.rcc[off]
	b.rcc[off] = v
	b.log = append(b.log, Write{Block: "rcc", Off: off, Value: v})
	rising := v &^ old
	for _, name := range b.order {
		t := b.timers[name]
		l := t.desc.Clock
		if qei.ResetOffset(l) == off && rising&(1<<l.Bit) != 0 {
			t.reset()
		}
	}
}
