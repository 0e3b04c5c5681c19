package provider

import (
	"sync"

	"qeicode-go/drivers/qei"
	"qeicode-go/errcode"
	"qeicode-go/services/hal/internal/core"
	"qeicode-go/services/hal/internal/provider/setups"
)

// timerRegistry hands out encoder-mode hardware timers.
type timerRegistry struct {
	mu     sync.Mutex
	plan   setups.ResourcePlan
	periph *qei.Peripherals
	clk    qei.ClockController
	owners map[core.ResourceID]string
	live   map[core.ResourceID]releaser
}

type releaser interface {
	core.Counter
	release()
}

// NewTimerRegistry serves the plan's timers from periph, configuring each
// with clk.
func NewTimerRegistry(plan setups.ResourcePlan, periph *qei.Peripherals, clk qei.ClockController) core.ResourceRegistry {
	return &timerRegistry{
		plan:   plan,
		periph: periph,
		clk:    clk,
		owners: map[core.ResourceID]string{},
		live:   map[core.ResourceID]releaser{},
	}
}

func (r *timerRegistry) ClaimCounter(devID string, id core.ResourceID, ch qei.Channels) (core.Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, taken := r.owners[id]; taken {
		return nil, &errcode.E{C: errcode.PeripheralInUse, Op: "claim", Msg: string(id) + " held by " + owner}
	}
	t, ok := qei.Lookup(string(id))
	if !ok || !r.plan.HasTimer(string(id)) {
		return nil, &errcode.E{C: errcode.UnknownTimer, Op: "claim", Msg: string(id)}
	}

	var (
		c   releaser
		err error
	)
	if t.Width == 16 {
		c, err = claimTimer[uint16](r.periph, t, ch, r.clk)
	} else {
		c, err = claimTimer[uint32](r.periph, t, ch, r.clk)
	}
	if err != nil {
		return nil, err
	}
	r.owners[id] = devID
	r.live[id] = c
	println("[qei] claimed", string(id), "for", devID, "channels", ch.String())
	return c, nil
}

func (r *timerRegistry) ReleaseCounter(devID string, id core.ResourceID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.live[id]
	if !ok || r.owners[id] != devID {
		return
	}
	c.release()
	delete(r.owners, id)
	delete(r.live, id)
}

// hwCounter adapts a typed encoder to core.Counter.
type hwCounter[W qei.Counter] struct {
	enc    *qei.Encoder[W]
	periph *qei.Peripherals
}

func claimTimer[W qei.Counter](p *qei.Peripherals, t qei.Timer, ch qei.Channels, clk qei.ClockController) (releaser, error) {
	h, err := qei.Take[W](p, t)
	if err != nil {
		return nil, err
	}
	enc, err := qei.New(h, ch, clk)
	if err != nil {
		p.Give(t)
		return nil, err
	}
	return &hwCounter[W]{enc: enc, periph: p}, nil
}

func (c *hwCounter[W]) Width() uint8 { return c.enc.Width() }

func (c *hwCounter[W]) Sample() (uint32, qei.Direction) {
	s := c.enc.Snapshot()
	return uint32(s.Count), s.Direction
}

func (c *hwCounter[W]) release() {
	if h := c.enc.Release(); h != nil {
		c.periph.Give(h.Timer())
	}
}
