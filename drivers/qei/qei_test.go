package qei_test

import (
	"testing"

	"qeicode-go/drivers/qei"
	"qeicode-go/drivers/qei/qeisim"
	"qeicode-go/errcode"

	"tinygo.org/x/drivers"
)

func newTIM3(t *testing.T, ch qei.Channels) (*qeisim.Board, *qei.Encoder[uint16]) {
	t.Helper()
	b := qeisim.NewBoard()
	h, err := qei.TakeTIM3(b.Peripherals())
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	e, err := qei.New(h, ch, b.Clock())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return b, e
}

func lastStore(ws []qeisim.Write, off uintptr) (qeisim.Write, bool) {
	for i := len(ws) - 1; i >= 0; i-- {
		if ws[i].Off == off {
			return ws[i], true
		}
	}
	return qeisim.Write{}, false
}

func TestBothChannels16Bit(t *testing.T) {
	b, e := newTIM3(t, qei.BothChannels)
	tim := b.Timer("tim3")

	if got := tim.Peek(qei.OffARR); got != 0xFFFF {
		t.Fatalf("ARR=%#x want 0xFFFF", got)
	}
	if w, ok := lastStore(b.WritesTo("tim3"), qei.OffARR); !ok || w.Value != 0xFFFF {
		t.Fatalf("ARR store missing or wrong: %+v", w)
	}
	if tim.Peek(qei.OffCR1)&qei.CR1CEN == 0 {
		t.Fatal("counter not enabled")
	}
	if got := tim.Peek(qei.OffSMCR) & qei.SMSMask; got != qei.SMSEncoder3 {
		t.Fatalf("SMS=%d want encoder mode 3", got)
	}
	ccer := tim.Peek(qei.OffCCER)
	if ccer&qei.CCERCC1P == 0 || ccer&qei.CCERCC2P == 0 {
		t.Fatalf("CCER=%#x want both polarities inverted", ccer)
	}
	ccmr := tim.Peek(qei.OffCCMR1)
	if ccmr&qei.CC1SMask != qei.CC1STI1 || ccmr&qei.CC2SMask != qei.CC2STI2 {
		t.Fatalf("CCMR1=%#x want TI1/TI2 sources", ccmr)
	}
	if e.Width() != 16 || e.Max() != 0xFFFF || e.Binding() != qei.BothChannels {
		t.Fatalf("introspection: width=%d max=%#x binding=%v", e.Width(), e.Max(), e.Binding())
	}
	if e.Peripheral().Name != "tim3" {
		t.Fatalf("peripheral=%q", e.Peripheral().Name)
	}
}

func TestChannel1OnlyLeavesChannel2Alone(t *testing.T) {
	b, _ := newTIM3(t, qei.Channel1Only)
	tim := b.Timer("tim3")

	if got := tim.Peek(qei.OffSMCR) & qei.SMSMask; got != qei.SMSEncoder1 {
		t.Fatalf("SMS=%d want encoder mode 1", got)
	}
	for _, w := range b.WritesTo("tim3") {
		switch w.Off {
		case qei.OffCCMR1:
			if w.Value&qei.CC2SMask != 0 {
				t.Fatalf("CCMR1 store touched CC2S: %#x", w.Value)
			}
			if w.Value&qei.CC1SMask != qei.CC1STI1 {
				t.Fatalf("CCMR1 store missing CC1S=TI1: %#x", w.Value)
			}
		case qei.OffCCER:
			if w.Value&qei.CCERCC2P != 0 {
				t.Fatalf("CCER store set CC2P: %#x", w.Value)
			}
			if w.Value&qei.CCERCC1P == 0 {
				t.Fatalf("CCER store missing CC1P: %#x", w.Value)
			}
		}
	}
	if tim.Peek(qei.OffCCMR1)&qei.CC2SMask != 0 || tim.Peek(qei.OffCCER)&qei.CCERCC2P != 0 {
		t.Fatal("channel 2 bits not at reset default")
	}
}

func TestChannel2OnlySelectsMode2(t *testing.T) {
	b, _ := newTIM3(t, qei.Channel2Only)
	tim := b.Timer("tim3")
	if got := tim.Peek(qei.OffSMCR) & qei.SMSMask; got != qei.SMSEncoder2 {
		t.Fatalf("SMS=%d want encoder mode 2", got)
	}
	if tim.Peek(qei.OffCCMR1)&qei.CC1SMask != 0 || tim.Peek(qei.OffCCER)&qei.CCERCC1P != 0 {
		t.Fatal("channel 1 bits not at reset default")
	}
	if tim.Peek(qei.OffCCER)&qei.CCERCC2P == 0 {
		t.Fatal("CC2P not set")
	}
}

func TestClockAndResetPrecedeTimerWrites(t *testing.T) {
	b, _ := newTIM3(t, qei.BothChannels)
	ws := b.Writes()
	if len(ws) < 3 {
		t.Fatalf("too few writes: %d", len(ws))
	}
	bit := uint32(1) << qei.TIM3.Clock.Bit
	want := []qeisim.Write{
		{Block: "rcc", Off: qei.OffAPB1ENR, Value: bit},
		{Block: "rcc", Off: qei.OffAPB1RSTR, Value: bit},
		{Block: "rcc", Off: qei.OffAPB1RSTR, Value: 0},
	}
	for i, w := range want {
		if ws[i] != w {
			t.Fatalf("write %d = %+v want %+v", i, ws[i], w)
		}
	}
	for _, w := range ws[3:] {
		if w.Block != "tim3" {
			t.Fatalf("unexpected block after reset: %+v", w)
		}
		if w.Dropped {
			t.Fatalf("timer write dropped: %+v", w)
		}
	}
	// Last timer store is the counter enable.
	if last := ws[len(ws)-1]; last.Off != qei.OffCR1 || last.Value != qei.CR1CEN {
		t.Fatalf("last write %+v want CR1=CEN", last)
	}
}

func TestResetClearsPriorState(t *testing.T) {
	b := qeisim.NewBoard()
	clk := b.Clock()
	clk.EnablePeripheral(qei.TIM3.Clock)
	tim := b.Timer("tim3")
	tim.Store(qei.OffSMCR, 0x7)
	tim.Store(qei.OffCCER, 0xFF)

	h, _ := qei.TakeTIM3(b.Peripherals())
	if _, err := qei.New(h, qei.Channel1Only, clk); err != nil {
		t.Fatal(err)
	}
	if got := tim.Peek(qei.OffCCER); got != qei.CCERCC1P {
		t.Fatalf("CCER=%#x; stale bits survived reset", got)
	}
}

// Without a clock the hardware drops writes; the configuration sequence
// must enable it itself.
type noClock struct{}

func (noClock) EnablePeripheral(qei.ClockLine) {}
func (noClock) ResetPeripheral(qei.ClockLine)  {}

func TestWritesDroppedWithoutClock(t *testing.T) {
	b := qeisim.NewBoard()
	h, _ := qei.TakeTIM3(b.Peripherals())
	if _, err := qei.New(h, qei.BothChannels, noClock{}); err != nil {
		t.Fatal(err)
	}
	for _, w := range b.WritesTo("tim3") {
		if !w.Dropped {
			t.Fatalf("write accepted without clock: %+v", w)
		}
	}
	if b.Timer("tim3").Peek(qei.OffCR1)&qei.CR1CEN != 0 {
		t.Fatal("counter running without clock")
	}
}

func TestIdempotentReads(t *testing.T) {
	b, e := newTIM3(t, qei.BothChannels)
	b.Timer("tim3").Forward(5)
	c, d := e.Count(), e.Direction()
	for i := 0; i < 10; i++ {
		if e.Count() != c || e.Direction() != d {
			t.Fatalf("read %d changed without input", i)
		}
	}
}

func TestWrapAround16(t *testing.T) {
	b, e := newTIM3(t, qei.BothChannels)
	tim := b.Timer("tim3")
	tim.SetCount(0xFFFF)
	tim.Step(1)
	if got := e.Count(); got != 0 {
		t.Fatalf("count=%d want 0 after wrap", got)
	}
	tim.Step(-1)
	if got := e.Count(); got != 0xFFFF {
		t.Fatalf("count=%#x want 0xFFFF after reverse wrap", got)
	}
}

func TestWrapAround32(t *testing.T) {
	b := qeisim.NewBoard()
	h, err := qei.TakeTIM2(b.Peripherals())
	if err != nil {
		t.Fatal(err)
	}
	e, err := qei.New(h, qei.BothChannels, b.Clock())
	if err != nil {
		t.Fatal(err)
	}
	tim := b.Timer("tim2")
	if got := tim.Peek(qei.OffARR); got != 0xFFFFFFFF {
		t.Fatalf("ARR=%#x", got)
	}
	tim.SetCount(0xFFFFFFFF)
	tim.Step(1)
	if got := e.Count(); got != 0 {
		t.Fatalf("count=%d want 0", got)
	}
	if e.Width() != 32 {
		t.Fatalf("width=%d", e.Width())
	}
}

func TestDirectionFollowsPhase(t *testing.T) {
	b, e := newTIM3(t, qei.BothChannels)
	tim := b.Timer("tim3")

	tim.Forward(8)
	if e.Direction() != qei.Upcounting {
		t.Fatalf("forward: direction=%v", e.Direction())
	}
	if got := e.Count(); got != 8 {
		t.Fatalf("forward: count=%d want 8 (4x decoding)", got)
	}

	tim.Reverse(3)
	if e.Direction() != qei.Downcounting {
		t.Fatalf("reverse: direction=%v", e.Direction())
	}
	if got := e.Count(); got != 5 {
		t.Fatalf("reverse: count=%d want 5", got)
	}
}

func TestSingleChannelCountsHalfTheEdges(t *testing.T) {
	b, e := newTIM3(t, qei.Channel1Only)
	tim := b.Timer("tim3")
	tim.Forward(8) // four edges on channel 1
	// Only CC1P is inverted, so A-leading motion decodes as reverse.
	if n := e.Count(); n != 0xFFFC {
		t.Fatalf("count=%#x want 0xfffc", n)
	}
	if e.Direction() != qei.Downcounting {
		t.Fatalf("dir=%v want down", e.Direction())
	}
	tim.Reverse(8)
	if e.Direction() != qei.Upcounting {
		t.Fatalf("dir=%v want up after reverse", e.Direction())
	}
	if e.Count() != 0 {
		t.Fatalf("count=%d want back at 0", e.Count())
	}
}

func TestForcedDirectionBit(t *testing.T) {
	b, e := newTIM3(t, qei.BothChannels)
	tim := b.Timer("tim3")
	tim.ForceDirection(qei.Upcounting)
	if e.Direction() != qei.Upcounting {
		t.Fatal("DIR clear should read Upcounting")
	}
	tim.ForceDirection(qei.Downcounting)
	if e.Direction() != qei.Downcounting {
		t.Fatal("DIR set should read Downcounting")
	}
}

func TestSnapshot(t *testing.T) {
	b, e := newTIM3(t, qei.BothChannels)
	tim := b.Timer("tim3")
	tim.Reverse(2)
	s := e.Snapshot()
	if s.Count != 0xFFFE || s.Direction != qei.Downcounting {
		t.Fatalf("snapshot=%+v", s)
	}

	if err := e.Update(drivers.Temperature); err != nil {
		t.Fatal(err)
	}
	if e.Last() != (qei.Sample[uint16]{}) {
		t.Fatal("unrelated measurement latched a sample")
	}
	if err := e.Update(drivers.Distance); err != nil {
		t.Fatal(err)
	}
	if e.Last() != s {
		t.Fatalf("Last=%+v want %+v", e.Last(), s)
	}
}

// movingRegs advances CNT on every read, as a spinning encoder would.
type movingRegs struct {
	cnt  uint32
	cr1  uint32
	seen int
}

func (m *movingRegs) Load(off uintptr) uint32 {
	if off == qei.OffCNT {
		m.seen++
		if m.seen <= 3 {
			m.cnt++
		}
		return m.cnt
	}
	return m.cr1
}
func (m *movingRegs) Store(off uintptr, v uint32) {
	if off == qei.OffCR1 {
		m.cr1 = v
	}
}

func TestSnapshotRetriesWhileMoving(t *testing.T) {
	regs := &movingRegs{}
	p := qei.NewPeripherals(func(qei.Timer) qei.Registers { return regs })
	h, _ := qei.TakeTIM3(p)
	e, err := qei.New(h, qei.BothChannels, noClock{})
	if err != nil {
		t.Fatal(err)
	}
	regs.seen, regs.cnt = 0, 10
	if s := e.Snapshot(); s.Count != 13 {
		t.Fatalf("snapshot count=%d want settled 13", s.Count)
	}
}

func TestInvalidBinding(t *testing.T) {
	b := qeisim.NewBoard()
	h, _ := qei.TakeTIM3(b.Peripherals())
	_, err := qei.New(h, qei.NoChannels, b.Clock())
	if errcode.Of(err) != errcode.InvalidBinding {
		t.Fatalf("err=%v want invalid_binding", err)
	}
	if n := len(b.Writes()); n != 0 {
		t.Fatalf("%d registers written for a rejected binding", n)
	}
	// The handle is still usable.
	if _, err := qei.New(h, qei.Channel2Only, b.Clock()); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestOwnership(t *testing.T) {
	b := qeisim.NewBoard()
	p := b.Peripherals()
	h, err := qei.TakeTIM3(p)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := qei.TakeTIM3(p); errcode.Of(err) != errcode.PeripheralInUse {
		t.Fatalf("second take: %v", err)
	}
	if _, err := qei.Take[uint32](p, qei.TIM3); errcode.Of(err) != errcode.WidthMismatch {
		t.Fatalf("width mismatch: %v", err)
	}

	e, err := qei.New(h, qei.BothChannels, b.Clock())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := qei.New(h, qei.BothChannels, b.Clock()); errcode.Of(err) != errcode.PeripheralInUse {
		t.Fatalf("double configure: %v", err)
	}

	got := e.Release()
	if got != h {
		t.Fatal("release returned a different handle")
	}
	if b.Timer("tim3").Peek(qei.OffCR1)&qei.CR1CEN != 0 {
		t.Fatal("release left the counter running")
	}
	if e.Release() != nil {
		t.Fatal("second release returned a handle")
	}
	if _, err := qei.New(got, qei.Channel1Only, b.Clock()); err != nil {
		t.Fatalf("reconfigure after release: %v", err)
	}

	p.Give(qei.TIM2)
	if _, err := qei.TakeTIM2(p); err != nil {
		t.Fatalf("take tim2: %v", err)
	}
}

func TestUnknownTimer(t *testing.T) {
	b := qeisim.NewBoard(qei.TIM3)
	if _, err := qei.TakeTIM2(b.Peripherals()); errcode.Of(err) != errcode.UnknownTimer {
		t.Fatalf("err=%v want unknown_timer", err)
	}
}

func TestZeroHandleRejectedBeforeClock(t *testing.T) {
	b := qeisim.NewBoard()
	// A live TIM2 encoder that a stray reset on APB1 bit 0 would clobber.
	h2, err := qei.TakeTIM2(b.Peripherals())
	if err != nil {
		t.Fatal(err)
	}
	e2, err := qei.New(h2, qei.BothChannels, b.Clock())
	if err != nil {
		t.Fatal(err)
	}
	b.Timer("tim2").Forward(5)
	b.ClearLog()

	if _, err := qei.New(&qei.Handle[uint16]{}, qei.BothChannels, b.Clock()); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("err=%v want invalid_params", err)
	}
	if ws := b.Writes(); len(ws) != 0 {
		t.Fatalf("writes=%v want none", ws)
	}
	if e2.Count() != 5 {
		t.Fatalf("tim2 count=%d want 5", e2.Count())
	}
}
