//go:build rp2040

package provider

import (
	"machine"
	"sync"

	"qeicode-go/drivers/qei"
	"qeicode-go/errcode"
	"qeicode-go/services/hal/internal/core"
	"qeicode-go/services/hal/internal/provider/setups"

	"tinygo.org/x/drivers/encoders"
)

func init() { Selected = setups.PicoQEI }

// softRegistry serves pin-interrupt quadrature decoders.
type softRegistry struct {
	mu     sync.Mutex
	plan   map[core.ResourceID]setups.SoftEncoderPlan
	owners map[core.ResourceID]string
	devs   map[core.ResourceID]*encoders.QuadratureDevice
}

func newRegistry(plan setups.ResourcePlan) core.ResourceRegistry {
	r := &softRegistry{
		plan:   map[core.ResourceID]setups.SoftEncoderPlan{},
		owners: map[core.ResourceID]string{},
		devs:   map[core.ResourceID]*encoders.QuadratureDevice{},
	}
	for _, p := range plan.SoftEncoders {
		r.plan[core.ResourceID(p.ID)] = p
	}
	return r
}

func (r *softRegistry) ClaimCounter(devID string, id core.ResourceID, ch qei.Channels) (core.Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plan[id]
	if !ok {
		return nil, errcode.UnknownTimer
	}
	if _, taken := r.owners[id]; taken {
		return nil, errcode.PeripheralInUse
	}
	// Interrupt decoding needs both phases.
	if ch != qei.BothChannels {
		return nil, errcode.InvalidBinding
	}
	q := r.devs[id]
	if q == nil {
		q = encoders.NewQuadratureViaInterrupt(machine.Pin(p.A), machine.Pin(p.B))
		if err := q.Configure(encoders.QuadratureConfig{Precision: p.Precision}); err != nil {
			return nil, errcode.Wrap(errcode.Error, "encoders.Configure", err)
		}
		r.devs[id] = q
	}
	q.SetPosition(0)
	r.owners[id] = devID
	println("[qei] claimed", string(id), "for", devID, "(software)")
	return &softCounter{q: q}, nil
}

func (r *softRegistry) ReleaseCounter(devID string, id core.ResourceID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owners[id] == devID {
		delete(r.owners, id)
	}
}

// softCounter presents a software position as a free-running 32-bit count.
type softCounter struct {
	q    *encoders.QuadratureDevice
	last int
	dir  qei.Direction
}

func (c *softCounter) Width() uint8 { return 32 }

func (c *softCounter) Sample() (uint32, qei.Direction) {
	pos := c.q.Position()
	switch {
	case pos > c.last:
		c.dir = qei.Upcounting
	case pos < c.last:
		c.dir = qei.Downcounting
	}
	c.last = pos
	return uint32(pos), c.dir
}
