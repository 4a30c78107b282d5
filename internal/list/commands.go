package list

import (
	"github.com/DavidWenzler/reAM250-sub000/internal/protocol"
)

// RegisterCommands registers the list administration commands.
func (x *Executor) RegisterCommands(d *protocol.Dispatcher) error {
	handlers := []protocol.Handler{
		protocol.HandlerFunc{ID: protocol.CommandBeginList, Fn: x.handleBeginList},
		protocol.HandlerFunc{ID: protocol.CommandFinishList, Fn: x.handleFinishList},
		protocol.HandlerFunc{ID: protocol.CommandExecuteList, Fn: x.handleExecuteList},
		protocol.HandlerFunc{ID: protocol.CommandListStatus, Fn: x.handleListStatus},
		protocol.HandlerFunc{ID: protocol.CommandAbortList, Fn: x.handleAbortList},
		protocol.HandlerFunc{ID: protocol.CommandDeleteList, Fn: x.handleDeleteList},
	}
	for _, h := range handlers {
		if err := d.Register(h); err != nil {
			return err
		}
	}
	return nil
}

// RegisterBuffered registers buffered commands. Each request for such a
// command is appended to the list being written and answered with the
// entry index.
func (x *Executor) RegisterBuffered(d *protocol.Dispatcher, cmds ...Command) error {
	for _, cmd := range cmds {
		if err := d.Register(bufferedHandler{x: x, cmd: cmd}); err != nil {
			return err
		}
	}
	return nil
}

type bufferedHandler struct {
	x   *Executor
	cmd Command
}

func (h bufferedHandler) CommandID() uint32 { return h.cmd.CommandID() }

func (h bufferedHandler) HandlePacket(p *protocol.Payload, resp *protocol.Response) error {
	index, err := h.x.Append(h.cmd, p)
	if err != nil {
		return err
	}
	return resp.AddUint32(index)
}

func (x *Executor) handleBeginList(_ *protocol.Payload, resp *protocol.Response) error {
	id, err := x.BeginList()
	if err != nil {
		return err
	}
	return resp.AddUint32(id)
}

func (x *Executor) handleFinishList(_ *protocol.Payload, resp *protocol.Response) error {
	st, err := x.FinishList()
	if err != nil {
		return err
	}
	if err := resp.AddUint32(st.ID); err != nil {
		return err
	}
	return resp.AddUint32(st.EntryCount)
}

func (x *Executor) handleExecuteList(p *protocol.Payload, resp *protocol.Response) error {
	id, err := p.Uint32(0)
	if err != nil {
		return err
	}
	st, err := x.ExecuteList(id)
	if err != nil {
		return err
	}
	return resp.AddUint32(st.EntryCount)
}

func (x *Executor) handleListStatus(p *protocol.Payload, resp *protocol.Response) error {
	id, err := p.Uint32(0)
	if err != nil {
		return err
	}
	st, _ := x.Status(id)
	return addStatus(resp, st)
}

func (x *Executor) handleAbortList(p *protocol.Payload, resp *protocol.Response) error {
	id, err := p.Uint32(0)
	if err != nil {
		return err
	}
	st, err := x.AbortList(id)
	if err != nil {
		return err
	}
	return addStatus(resp, st)
}

func (x *Executor) handleDeleteList(p *protocol.Payload, resp *protocol.Response) error {
	id, err := p.Uint32(0)
	if err != nil {
		return err
	}
	if err := x.DeleteList(id); err != nil {
		return err
	}
	return resp.AddUint32(id)
}

func addStatus(resp *protocol.Response, st Status) error {
	for _, v := range []uint32{st.ID, uint32(st.State), st.EntryCount, st.CurrentIndex} {
		if err := resp.AddUint32(v); err != nil {
			return err
		}
	}
	return nil
}
