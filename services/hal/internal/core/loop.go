package core

import (
	"context"
	"time"

	"qeicode-go/bus"
	"qeicode-go/errcode"
	"qeicode-go/types"
	"qeicode-go/x/mathx"
	"qeicode-go/x/strx"
	"qeicode-go/x/timex"
)

const (
	eventQueueLen = 16
	pollQueueLen  = 8

	minPollMs = 5
	maxPollMs = 60_000
)

type HAL struct {
	conn *bus.Connection
	res  Resources

	dev      map[string]Device  // devID -> device
	capIndex map[CapAddr]string // capability -> devID

	poller *Poller
	pollCh chan PollReq
	evCh   chan Event
}

func NewHAL(conn *bus.Connection, res Resources) *HAL {
	pollCh := make(chan PollReq, pollQueueLen)
	h := &HAL{
		conn:     conn,
		res:      res,
		dev:      map[string]Device{},
		capIndex: map[CapAddr]string{},
		poller:   NewPoller(pollCh),
		pollCh:   pollCh,
		evCh:     make(chan Event, eventQueueLen),
	}
	// HAL provides the emitter to devices.
	h.res.Pub = h
	return h
}

// Run serves configuration, controls and polls until ctx is done. All
// device access happens on this goroutine.
func (h *HAL) Run(ctx context.Context) {
	cfgSub := h.conn.Subscribe(TopicConfigHAL())
	ctrlSub := h.conn.Subscribe(ctrlWildcard())
	defer h.conn.Unsubscribe(cfgSub)
	defer h.conn.Unsubscribe(ctrlSub)
	defer h.closeAll()

	go h.poller.Run(ctx)
	h.pubHALState("idle", "")

	ready := false
	for {
		select {
		case <-ctx.Done():
			h.pubHALState("stopped", "context_cancelled")
			return
		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(types.HALConfig)
			if !ok {
				println("[hal] ignoring config payload of unexpected type")
				continue
			}
			h.applyConfig(ctx, cfg)
			if !ready {
				ready = true
				h.pubHALState("ready", "")
			}
		case m := <-ctrlSub.Channel():
			if !ready {
				h.replyErr(m, errcode.HALNotReady)
				continue
			}
			h.handleControl(m)
		case req := <-h.pollCh:
			h.handlePoll(req)
		case ev := <-h.evCh:
			h.handleEvent(ev)
		}
	}
}

// applyConfig is additive: devices already built are left alone.
func (h *HAL) applyConfig(ctx context.Context, cfg types.HALConfig) {
	for _, dc := range cfg.Devices {
		if _, exists := h.dev[dc.ID]; exists {
			continue
		}
		b, ok := lookupBuilder(dc.Type)
		if !ok {
			println("[hal] no builder for type:", dc.Type, "id:", dc.ID)
			continue
		}
		dev, err := b.Build(ctx, BuilderInput{ID: dc.ID, Type: dc.Type, Params: dc.Params, Res: h.res})
		if err != nil {
			println("[hal] build failed for:", dc.ID, "err:", err.Error())
			continue
		}
		h.dev[dev.ID()] = dev

		for _, cs := range dev.Capabilities() {
			k := string(cs.Kind)
			a := CapAddr{
				Domain: strx.Coalesce(cs.Domain, defaultDomainFor(k)),
				Kind:   k,
				Name:   strx.Coalesce(cs.Name, dev.ID()),
			}
			h.capIndex[a] = dev.ID()
			h.conn.Publish(h.conn.NewMessage(CapInfo(a), cs.Info, true))
			h.conn.Publish(h.conn.NewMessage(
				CapStatus(a),
				types.CapabilityStatus{Link: types.LinkDown, TSms: timex.NowMs()},
				true,
			))
		}

		if err := dev.Init(ctx); err != nil {
			println("[hal] init failed for:", dc.ID, "err:", err.Error())
		}
	}

	for _, ps := range cfg.Pollers {
		a := CapAddr{
			Domain: strx.Coalesce(ps.Domain, defaultDomainFor(string(ps.Kind))),
			Kind:   string(ps.Kind),
			Name:   ps.Name,
		}
		if _, ok := h.capIndex[a]; !ok {
			println("[hal] poller for unknown capability:", a.Domain, a.Kind, a.Name)
			continue
		}
		every := timex.Ms(mathx.Clamp(ps.IntervalMs, minPollMs, maxPollMs))
		h.poller.Upsert(a, strx.Coalesce(ps.Verb, "read"), every, timex.Ms(uint32(ps.JitterMs)))
	}
}

func (h *HAL) handlePoll(req PollReq) {
	devID, ok := h.capIndex[req.Addr]
	if !ok {
		h.poller.Stop(req.Addr, req.Verb)
		return
	}
	if _, err := h.dev[devID].Control(req.Addr, req.Verb, nil); err != nil {
		println("[hal] poll failed:", req.Addr.Name, err.Error())
	}
}

func (h *HAL) closeAll() {
	for id, d := range h.dev {
		if err := d.Close(); err != nil {
			println("[hal] close failed for:", id, err.Error())
		}
	}
}

func (h *HAL) pubHALState(level, status string) {
	h.conn.Publish(h.conn.NewMessage(
		TopicState(),
		types.HALState{Level: level, Status: status, TSms: timex.NowMs()},
		true,
	))
}

func defaultDomainFor(kind string) string {
	switch kind {
	case string(types.KindEncoder):
		return "motion"
	default:
		return "io"
	}
}

// ---- HAL as EventEmitter (enqueue to single publisher) ----

func (h *HAL) Emit(ev Event) bool {
	if ev.TSms == 0 {
		ev.TSms = time.Now().UnixMilli()
	}
	select {
	case h.evCh <- ev:
		return true
	default:
		return false
	}
}
