package qei

// Registers is word access to one peripheral register block. Offsets are
// relative to the block base. Implementations must not cache values.
type Registers interface {
	Load(off uintptr) uint32
	Store(off uintptr, v uint32)
}

// modify performs a read-modify-write: (current | set) &^ clear.
func modify(r Registers, off uintptr, set, clear uint32) {
	r.Store(off, (r.Load(off)|set)&^clear)
}

// Bus names a peripheral clock domain.
type Bus uint8

const (
	APB1 Bus = iota
	APB2
)

func (b Bus) String() string {
	if b == APB2 {
		return "apb2"
	}
	return "apb1"
}

// ClockLine locates a peripheral's enable and reset bit.
type ClockLine struct {
	Bus Bus
	Bit uint8
}

// ClockController is the clock-tree authority shared by all peripherals.
type ClockController interface {
	// EnablePeripheral turns on the clock for l. It must be in effect
	// before the peripheral's registers are written.
	EnablePeripheral(l ClockLine)
	// ResetPeripheral pulses the reset bit for l.
	ResetPeripheral(l ClockLine)
}

// RCC implements ClockController over the reset-and-clock-control block.
type RCC struct {
	regs Registers
}

func NewRCC(regs Registers) *RCC { return &RCC{regs: regs} }

func (c *RCC) EnablePeripheral(l ClockLine) {
	modify(c.regs, enrFor(l.Bus), 1<<l.Bit, 0)
}

func (c *RCC) ResetPeripheral(l ClockLine) {
	off := rstrFor(l.Bus)
	modify(c.regs, off, 1<<l.Bit, 0)
	modify(c.regs, off, 0, 1<<l.Bit)
}

// Enabled reports whether the clock for l is on.
func (c *RCC) Enabled(l ClockLine) bool {
	return c.regs.Load(enrFor(l.Bus))&(1<<l.Bit) != 0
}

func enrFor(b Bus) uintptr {
	if b == APB2 {
		return OffAPB2ENR
	}
	return OffAPB1ENR
}

func rstrFor(b Bus) uintptr {
	if b == APB2 {
		return OffAPB2RSTR
	}
	return OffAPB1RSTR
}

// EnableOffset and ResetOffset expose the RCC register that holds l's bit.
func EnableOffset(l ClockLine) uintptr { return enrFor(l.Bus) }
func ResetOffset(l ClockLine) uintptr  { return rstrFor(l.Bus) }
