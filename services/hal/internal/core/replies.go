package core

import (
	"batterycode-go/bus"
	"batterycode-go/errcode"
	"batterycode-go/types"
)

func (h *HAL) replyOK(m *bus.Message) {
	if m.CanReply() {
		h.conn.Reply(m, types.OKReply{OK: true}, false)
	}
}

func (h *HAL) replyErr(m *bus.Message, code errcode.Code) {
	if !m.CanReply() {
		return
	}
	if code == "" {
		code = errcode.Error
	}
	h.conn.Reply(m, types.ErrorReply{OK: false, Error: string(code)}, false)
}

func (h *HAL) replyFromError(m *bus.Message, err error) {
	h.replyErr(m, errcode.Of(err))
}

func (h *HAL) replyResult(m *bus.Message, res EnqueueResult) {
	if !m.CanReply() {
		return
	}
	switch {
	case !res.OK:
		code := res.Error
		if code == "" {
			code = errcode.Busy
		}
		h.replyErr(m, code)
	case res.Value != nil:
		h.conn.Reply(m, res.Value, false)
	default:
		h.replyOK(m)
	}
}
