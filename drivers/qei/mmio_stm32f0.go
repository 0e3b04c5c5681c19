//go:build stm32f0

package qei

import (
	"runtime/volatile"
	"unsafe"
)

// mmio is a register block at a fixed physical address.
type mmio uintptr

func (m mmio) reg(off uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(m) + off))
}

func (m mmio) Load(off uintptr) uint32     { return m.reg(off).Get() }
func (m mmio) Store(off uintptr, v uint32) { m.reg(off).Set(v) }

// MMIO returns the register block at base.
func MMIO(base uintptr) Registers { return mmio(base) }

var (
	// Default is the chip's timer set. Each handle can be taken once.
	Default = NewPeripherals(func(t Timer) Registers { return MMIO(t.Base) })
	// Clock is the chip's reset and clock control block.
	Clock = NewRCC(MMIO(RCCBase))
)
