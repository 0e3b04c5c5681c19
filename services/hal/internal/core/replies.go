package core

import (
	"qeicode-go/bus"
	"qeicode-go/errcode"
	"qeicode-go/types"
)

func (h *HAL) replyOK(m *bus.Message) {
	h.conn.Reply(m, types.OKReply{OK: true}, false)
}

func (h *HAL) replyErr(m *bus.Message, code errcode.Code) {
	if code == "" {
		code = errcode.Error
	}
	h.conn.Reply(m, types.ErrorReply{OK: false, Error: string(code)}, false)
}

func (h *HAL) handleControl(msg *bus.Message) {
	// hal/cap/<domain>/<kind>/<name>/control/<verb>
	if msg.Topic.Len() != 7 {
		h.replyErr(msg, errcode.InvalidTopic)
		return
	}
	a := CapAddr{Domain: msg.Topic.At(2), Kind: msg.Topic.At(3), Name: msg.Topic.At(4)}
	verb := msg.Topic.At(6)

	devID, ok := h.capIndex[a]
	if !ok {
		h.replyErr(msg, errcode.UnknownCapability)
		return
	}
	res, err := h.dev[devID].Control(a, verb, msg.Payload)
	if err != nil {
		h.replyErr(msg, errcode.Of(err))
		return
	}
	if res.OK {
		h.replyOK(msg)
		return
	}
	h.replyErr(msg, res.Error)
}

func (h *HAL) handleEvent(ev Event) {
	if ev.Err != "" {
		h.conn.Publish(h.conn.NewMessage(
			CapStatus(ev.Addr),
			types.CapabilityStatus{Link: types.LinkDegraded, TSms: ev.TSms, Error: ev.Err},
			true,
		))
		return
	}
	h.conn.Publish(h.conn.NewMessage(CapValue(ev.Addr), ev.Payload, true))
	h.conn.Publish(h.conn.NewMessage(
		CapStatus(ev.Addr),
		types.CapabilityStatus{Link: types.LinkUp, TSms: ev.TSms},
		true,
	))
}
