package harness

import (
	"fmt"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
)

// Trace event kinds.
const (
	EventState  = "state"
	EventOutput = "output"
	EventList   = "list"
	EventInput  = "input"
	EventReply  = "reply"
)

// TraceEvent is one observable change during a scenario.
type TraceEvent struct {
	Cycle   uint64 `json:"cycle"`
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Value   string `json:"value"`
}

// String renders the event as kind:subject:value, the form trace_order
// assertions use.
func (e TraceEvent) String() string {
	return fmt.Sprintf("%s:%s:%s", e.Kind, e.Subject, e.Value)
}

// Reply is a decoded response to a scenario request.
type Reply struct {
	Step    int        `json:"step"`
	Command string     `json:"command"`
	Cycle   uint64     `json:"cycle"`
	Status  fault.Code `json:"status"`
	Words   []uint32   `json:"words"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace lists the observed changes in order.
	Trace []TraceEvent `json:"trace"`

	// Replies holds the responses by request, in send order.
	Replies []Reply `json:"replies"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Cycles is the number of ticks run.
	Cycles uint64 `json:"cycles"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Replies: []Reply{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addEvent(cycle uint64, kind, subject, value string) {
	r.Trace = append(r.Trace, TraceEvent{Cycle: cycle, Kind: kind, Subject: subject, Value: value})
}
