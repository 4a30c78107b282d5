package engine

import (
	"github.com/DavidWenzler/reAM250-sub000/internal/journal"
	"github.com/DavidWenzler/reAM250-sub000/internal/list"
	"github.com/DavidWenzler/reAM250-sub000/internal/protocol"
)

// Snapshot is an immutable copy of the observable engine state, published
// after every tick. Readers on other goroutines get it from
// Engine.Snapshot and never touch live state.
type Snapshot struct {
	Cycle     uint64        `json:"cycle"`
	Time      uint64        `json:"time_us"`
	Exception *Exception    `json:"last_exception,omitempty"`
	Dropped   uint64        `json:"dropped_requests"`
	Lists     ListsView     `json:"lists"`
	Machines  []MachineView `json:"machines"`
	Journal   JournalView   `json:"journal"`
}

// ListsView summarizes the list executor.
type ListsView struct {
	Executing   uint32       `json:"executing"`
	Writing     uint32       `json:"writing"`
	FreeLists   int          `json:"free_lists"`
	FreeEntries int          `json:"free_entries"`
	Active      []ListStatus `json:"active"`
}

// ListStatus is the JSON form of list.Status.
type ListStatus struct {
	ID           uint32 `json:"id"`
	State        string `json:"state"`
	StateCode    uint32 `json:"state_code"`
	EntryCount   uint32 `json:"entry_count"`
	CurrentIndex uint32 `json:"current_index"`
}

// NewListStatus converts an executor status.
func NewListStatus(st list.Status) ListStatus {
	return ListStatus{
		ID:           st.ID,
		State:        st.State.String(),
		StateCode:    uint32(st.State),
		EntryCount:   st.EntryCount,
		CurrentIndex: st.CurrentIndex,
	}
}

// MachineView is the current state of one state machine.
type MachineView struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// JournalView holds the decoded journal status and ring usage.
type JournalView struct {
	Buffered int             `json:"buffered"`
	Overflow uint32          `json:"overflow"`
	Capacity int             `json:"capacity"`
	Values   []journal.Value `json:"values"`
}

// Snapshot returns the most recently published snapshot.
// Thread-safe: may be called from any goroutine.
func (e *Engine) Snapshot() Snapshot {
	s := e.snapshot.Load()
	if s == nil {
		return Snapshot{}
	}
	return *s
}

// Schema returns the journal schema JSON, nil before Prepare.
func (e *Engine) Schema() []byte {
	return e.journal.Schema()
}

// publish builds a fresh snapshot. Only the tick goroutine calls it.
func (e *Engine) publish() {
	counts := e.lists.Counts()
	s := &Snapshot{
		Cycle:   e.cycle.Number,
		Time:    e.cycle.Now,
		Dropped: e.dropped.Load(),
		Lists: ListsView{
			Executing:   e.lists.Executing(),
			Writing:     e.lists.Writing(),
			FreeLists:   counts.FreeLists,
			FreeEntries: counts.FreeEntries,
		},
		Journal: JournalView{
			Buffered: e.journal.Buffered(),
			Overflow: e.journal.Overflow(),
			Capacity: e.journal.Capacity(),
		},
	}
	if ex := e.last.Load(); ex != nil {
		c := *ex
		s.Exception = &c
	}
	for _, st := range e.lists.Statuses() {
		s.Lists.Active = append(s.Lists.Active, NewListStatus(st))
	}
	for _, m := range e.machines {
		v := MachineView{Name: m.Name()}
		if mm, ok := m.(*Machine); ok {
			v.State = mm.Current()
		}
		s.Machines = append(s.Machines, v)
	}

	resp := protocol.NewResponse()
	if err := e.journal.AppendStatus(resp); err == nil {
		if values, err := journal.DecodeStatus(resp.Payload()); err == nil {
			s.Journal.Values = values
		}
	}
	e.snapshot.Store(s)
}
