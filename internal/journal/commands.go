package journal

import (
	"github.com/DavidWenzler/reAM250-sub000/internal/protocol"
)

// RegisterCommands registers the journal query commands.
func (j *Journal) RegisterCommands(d *protocol.Dispatcher) error {
	handlers := []protocol.Handler{
		protocol.HandlerFunc{ID: protocol.CommandJournalStatus, Fn: func(_ *protocol.Payload, resp *protocol.Response) error {
			return j.AppendStatus(resp)
		}},
		protocol.HandlerFunc{ID: protocol.CommandJournalSchema, Fn: func(_ *protocol.Payload, resp *protocol.Response) error {
			return j.AppendSchema(resp)
		}},
		protocol.HandlerFunc{ID: protocol.CommandJournalVariable, Fn: j.handleVariable},
		protocol.HandlerFunc{ID: protocol.CommandJournalHistory, Fn: func(_ *protocol.Payload, resp *protocol.Response) error {
			return j.AppendHistory(resp)
		}},
	}
	for _, h := range handlers {
		if err := d.Register(h); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) handleVariable(p *protocol.Payload, resp *protocol.Response) error {
	groupID, err := p.Uint32(0)
	if err != nil {
		return err
	}
	entryID, err := p.Uint32(4)
	if err != nil {
		return err
	}
	return j.AppendVariable(resp, groupID, entryID)
}
