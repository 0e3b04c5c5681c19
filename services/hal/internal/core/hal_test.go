package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"qeicode-go/bus"
	"qeicode-go/errcode"
	"qeicode-go/types"
)

type fakeDevice struct {
	id     string
	pub    EventEmitter
	reads  atomic.Int32
	closed atomic.Bool
}

func (d *fakeDevice) ID() string { return d.id }
func (d *fakeDevice) Capabilities() []CapabilitySpec {
	return []CapabilitySpec{{Kind: types.KindEncoder, Info: types.Info{SchemaVersion: 1, Driver: "fake"}}}
}
func (d *fakeDevice) Init(context.Context) error { return nil }
func (d *fakeDevice) Close() error               { d.closed.Store(true); return nil }

func (d *fakeDevice) Control(a CapAddr, method string, _ any) (EnqueueResult, error) {
	switch method {
	case "read":
		n := d.reads.Add(1)
		d.pub.Emit(Event{Addr: a, Payload: int(n)})
		return EnqueueResult{OK: true}, nil
	case "fail":
		d.pub.Emit(Event{Addr: a, Err: "io_error"})
		return EnqueueResult{}, errors.New("boom")
	}
	return EnqueueResult{Error: errcode.Unsupported}, nil
}

type fakeBuilder struct{ made chan *fakeDevice }

func (b fakeBuilder) Build(_ context.Context, in BuilderInput) (Device, error) {
	if in.Params == "bad" {
		return nil, errcode.InvalidParams
	}
	d := &fakeDevice{id: in.ID, pub: in.Res.Pub}
	b.made <- d
	return d, nil
}

var made = make(chan *fakeDevice, 8)

func init() { RegisterBuilder("fake_counter", fakeBuilder{made: made}) }

func waitMsg(t *testing.T, s *bus.Subscription, match func(*bus.Message) bool) *bus.Message {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-s.Channel():
			if match(m) {
				return m
			}
		case <-deadline:
			t.Fatalf("timeout on %v", s.Topic())
			return nil
		}
	}
}

func startHAL(t *testing.T) (*bus.Connection, context.CancelFunc) {
	t.Helper()
	b := bus.NewBus(16)
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHAL(b.NewConnection("hal"), Resources{})
	go h.Run(ctx)
	ui := b.NewConnection("ui")
	st := ui.Subscribe(TopicState())
	waitMsg(t, st, func(m *bus.Message) bool { return m.Payload.(types.HALState).Level == "idle" })
	ui.Unsubscribe(st)
	return ui, cancel
}

func TestControlBeforeConfig(t *testing.T) {
	ui, cancel := startHAL(t)
	defer cancel()
	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	a := CapAddr{Domain: "motion", Kind: "encoder", Name: "x"}
	r, err := ui.Request(ctx, ui.NewMessage(CapCtrl(a, "read"), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	if e, ok := r.Payload.(types.ErrorReply); !ok || e.Error != string(errcode.HALNotReady) {
		t.Fatalf("reply=%+v", r.Payload)
	}
}

func TestConfigControlAndPoll(t *testing.T) {
	ui, cancel := startHAL(t)

	a := CapAddr{Domain: "motion", Kind: "encoder", Name: "enc"}
	state := ui.Subscribe(TopicState())
	info := ui.Subscribe(CapInfo(a))
	value := ui.Subscribe(CapValue(a))
	status := ui.Subscribe(CapStatus(a))

	ui.Publish(ui.NewMessage(TopicConfigHAL(), types.HALConfig{
		Devices: []types.HALDevice{
			{ID: "enc", Type: "fake_counter"},
			{ID: "bad", Type: "fake_counter", Params: "bad"},
			{ID: "other", Type: "no_such_type"},
		},
		Pollers: []types.PollSpec{{Kind: types.KindEncoder, Name: "enc", IntervalMs: 10}},
	}, true))

	waitMsg(t, state, func(m *bus.Message) bool { return m.Payload.(types.HALState).Level == "ready" })
	if m := waitMsg(t, info, func(*bus.Message) bool { return true }); m.Payload.(types.Info).Driver != "fake" {
		t.Fatalf("info=%+v", m.Payload)
	}
	dev := <-made

	// Poller drives reads without any control.
	waitMsg(t, value, func(m *bus.Message) bool { return m.Payload.(int) >= 2 })
	waitMsg(t, status, func(m *bus.Message) bool {
		return m.Payload.(types.CapabilityStatus).Link == types.LinkUp
	})

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	r, err := ui.Request(ctx, ui.NewMessage(CapCtrl(a, "read"), nil, false))
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := r.Payload.(types.OKReply); !ok.OK {
		t.Fatalf("read reply=%+v", r.Payload)
	}

	r, _ = ui.Request(ctx, ui.NewMessage(CapCtrl(a, "spin"), nil, false))
	if e, _ := r.Payload.(types.ErrorReply); e.Error != string(errcode.Unsupported) {
		t.Fatalf("spin reply=%+v", r.Payload)
	}

	r, _ = ui.Request(ctx, ui.NewMessage(CapCtrl(a, "fail"), nil, false))
	if e, _ := r.Payload.(types.ErrorReply); e.Error != string(errcode.Error) {
		t.Fatalf("fail reply=%+v", r.Payload)
	}
	waitMsg(t, status, func(m *bus.Message) bool {
		return m.Payload.(types.CapabilityStatus).Link == types.LinkDegraded
	})

	missing := CapAddr{Domain: "motion", Kind: "encoder", Name: "nope"}
	r, _ = ui.Request(ctx, ui.NewMessage(CapCtrl(missing, "read"), nil, false))
	if e, _ := r.Payload.(types.ErrorReply); e.Error != string(errcode.UnknownCapability) {
		t.Fatalf("unknown reply=%+v", r.Payload)
	}

	cancel()
	waitMsg(t, state, func(m *bus.Message) bool { return m.Payload.(types.HALState).Level == "stopped" })
	time.Sleep(10 * time.Millisecond)
	if !dev.closed.Load() {
		t.Fatal("device not closed on shutdown")
	}
}
