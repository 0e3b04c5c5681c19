// Package heartbeat publishes a liveness beat on the bus so a host on the
// other end of a link can tell the firmware is running.
package heartbeat

import (
	"context"
	"time"

	"qeicode-go/bus"
	"qeicode-go/types"
	"qeicode-go/x/mathx"
	"qeicode-go/x/timex"
)

const (
	defaultIntervalMs = 1000
	minIntervalMs     = 50
	maxIntervalMs     = 60_000
)

func TopicConfig() bus.Topic { return bus.T("config", "heartbeat") }
func TopicBeat() bus.Topic   { return bus.T("heartbeat") }

type Service struct {
	seq uint32
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(TopicConfig())
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(timex.Ms(defaultIntervalMs))
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("[heartbeat] stopping")
			return
		case <-tick.C:
			s.seq++
			conn.Publish(conn.NewMessage(TopicBeat(), types.Heartbeat{Seq: s.seq, TSms: timex.NowMs()}, true))
		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(types.HeartbeatConfig)
			if !ok || cfg.IntervalMs == 0 {
				println("[heartbeat] ignoring config payload")
				continue
			}
			iv := mathx.Clamp(cfg.IntervalMs, minIntervalMs, maxIntervalMs)
			tick.Reset(timex.Ms(iv))
			println("[heartbeat] interval set to", iv, "ms")
		}
	}
}

// Start runs the heartbeat service until ctx is done.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
