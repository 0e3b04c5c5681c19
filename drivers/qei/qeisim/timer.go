package qeisim

import "qeicode-go/drivers/qei"

// Timer is one simulated timer block. It implements qei.Registers.
type Timer struct {
	b    *Board
	desc qei.Timer
	regs map[uintptr]uint32
	a, c bool // physical levels on channel 1 (A) and channel 2 (B)
}

func (t *Timer) mask() uint32 {
	if t.desc.Width == 16 {
		return 0xFFFF
	}
	return 0xFFFFFFFF
}

// reset restores reset values. Input levels are physical and survive.
func (t *Timer) reset() {
	t.regs = map[uintptr]uint32{qei.OffARR: t.mask()}
}

func (t *Timer) Load(off uintptr) uint32 {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	return t.regs[off]
}

func (t *Timer) Store(off uintptr, v uint32) {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	if !t.b.clockOn(t.desc.Clock) {
		t.b.log = append(t.b.log, Write{Block: t.desc.Name, Off: off, Value: v, Dropped: true})
		return
	}
	t.b.log = append(t.b.log, Write{Block: t.desc.Name, Off: off, Value: v})
	switch off {
	case qei.OffCR1:
		if t.encoderMode() != 0 {
			v = v&^qei.CR1DIR | t.regs[qei.OffCR1]&qei.CR1DIR
		}
	case qei.OffCNT, qei.OffARR:
		v &= t.mask()
	}
	t.regs[off] = v
}

// Peek reads a register without going through the log or clock gate.
func (t *Timer) Peek(off uintptr) uint32 { return t.Load(off) }

// SetCount forces the counter value.
func (t *Timer) SetCount(v uint32) {
	t.b.mu.Lock()
	t.regs[qei.OffCNT] = v & t.mask()
	t.b.mu.Unlock()
}

// ForceDirection forces CR1.DIR.
func (t *Timer) ForceDirection(d qei.Direction) {
	t.b.mu.Lock()
	if d == qei.Downcounting {
		t.regs[qei.OffCR1] |= qei.CR1DIR
	} else {
		t.regs[qei.OffCR1] &^= qei.CR1DIR
	}
	t.b.mu.Unlock()
}

// Step counts |n| edges up (n > 0) or down (n < 0), independent of the
// input levels. Nothing happens while the counter is disabled.
func (t *Timer) Step(n int) {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	up := n > 0
	if n < 0 {
		n = -n
	}
	for ; n > 0; n-- {
		t.tick(up)
	}
}

// Inputs drives the physical channel levels. Channel 1 is applied before
// channel 2 when both change.
func (t *Timer) Inputs(a, c bool) {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	t.setInputs(a, c)
}

// quadrature states in forward (A leads B) order: 00, 10, 11, 01.
var phase = [4][2]bool{{false, false}, {true, false}, {true, true}, {false, true}}

func phaseIndex(a, c bool) int {
	for i, p := range phase {
		if p[0] == a && p[1] == c {
			return i
		}
	}
	return 0
}

// Forward advances the inputs n quadrature states with A leading B.
func (t *Timer) Forward(n int) { t.walk(n, 1) }

// Reverse advances the inputs n quadrature states with B leading A.
func (t *Timer) Reverse(n int) { t.walk(n, 3) }

func (t *Timer) walk(n, step int) {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	for ; n > 0; n-- {
		p := phase[(phaseIndex(t.a, t.c)+step)%4]
		t.setInputs(p[0], p[1])
	}
}

func (t *Timer) setInputs(a, c bool) {
	ccer := t.regs[qei.OffCCER]
	p1 := ccer&qei.CCERCC1P != 0
	p2 := ccer&qei.CCERCC2P != 0
	mode := t.encoderMode()

	if a != t.a {
		t.a = a
		if mode == qei.SMSEncoder1 || mode == qei.SMSEncoder3 {
			ti1, ti2 := a != p1, t.c != p2
			t.tick(ti1 != ti2)
		}
	}
	if c != t.c {
		t.c = c
		if mode == qei.SMSEncoder2 || mode == qei.SMSEncoder3 {
			ti1, ti2 := t.a != p1, c != p2
			t.tick(ti1 == ti2)
		}
	}
}

func (t *Timer) encoderMode() uint32 {
	m := t.regs[qei.OffSMCR] & qei.SMSMask
	if m >= qei.SMSEncoder1 && m <= qei.SMSEncoder3 {
		return m
	}
	return 0
}

func (t *Timer) tick(up bool) {
	cr1 := t.regs[qei.OffCR1]
	if cr1&qei.CR1CEN == 0 {
		return
	}
	arr := t.regs[qei.OffARR]
	cnt := t.regs[qei.OffCNT]
	if up {
		if cnt >= arr {
			cnt = 0
		} else {
			cnt++
		}
		cr1 &^= qei.CR1DIR
	} else {
		if cnt == 0 {
			cnt = arr
		} else {
			cnt--
		}
		cr1 |= qei.CR1DIR
	}
	t.regs[qei.OffCNT] = cnt & t.mask()
	t.regs[qei.OffCR1] = cr1
}
