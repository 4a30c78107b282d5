package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [cycle %d] %s\n", event.Cycle, event)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages.
func EvaluateAssertions(result *Result, assertions []Assertion, h *Harness) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, h); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, h *Harness) error {
	switch a.Type {
	case AssertMachineState:
		return assertMachineState(h, a)
	case AssertJournal:
		return assertJournal(h, a)
	case AssertListState:
		return assertListState(h, a)
	case AssertRelease:
		return assertRelease(h, a)
	case AssertNoException:
		return assertNoException(h)
	case AssertException:
		return assertException(h, a)
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertMachineState(h *Harness, a Assertion) error {
	want := fmt.Sprint(a.Expect)
	for _, m := range h.engine.Snapshot().Machines {
		if m.Name != a.Machine {
			continue
		}
		if m.State != want {
			return &AssertionError{
				Type:     AssertMachineState,
				Expected: fmt.Sprintf("%s in state %s", a.Machine, want),
				Actual:   m.State,
				Trace:    h.result.Trace,
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertMachineState,
		Expected: fmt.Sprintf("machine %s", a.Machine),
		Actual:   "no such machine",
	}
}

func assertJournal(h *Harness, a Assertion) error {
	for _, v := range h.engine.Snapshot().Journal.Values {
		if v.Group != a.Group || v.Entry != a.Entry {
			continue
		}
		if fmt.Sprint(v.Value) != fmt.Sprint(a.Expect) {
			return &AssertionError{
				Type:     AssertJournal,
				Expected: fmt.Sprintf("journal %d.%d = %v", a.Group, a.Entry, a.Expect),
				Actual:   fmt.Sprint(v.Value),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertJournal,
		Expected: fmt.Sprintf("journal entry %d.%d", a.Group, a.Entry),
		Actual:   "no such entry",
	}
}

func assertListState(h *Harness, a Assertion) error {
	st, ok := h.engine.Lists().Status(a.List)
	if !ok {
		return &AssertionError{
			Type:     AssertListState,
			Expected: fmt.Sprintf("list %d", a.List),
			Actual:   "no such list",
		}
	}
	if got := st.State.String(); got != fmt.Sprint(a.Expect) {
		return &AssertionError{
			Type:     AssertListState,
			Expected: fmt.Sprintf("list %d %v", a.List, a.Expect),
			Actual:   got,
			Trace:    h.result.Trace,
		}
	}
	return nil
}

func assertRelease(h *Harness, a Assertion) error {
	want, _ := a.Expect.(bool)
	if got := h.io.Released(); got != want {
		return &AssertionError{
			Type:     AssertRelease,
			Expected: fmt.Sprintf("release output %t", want),
			Actual:   fmt.Sprintf("release output %t", got),
			Trace:    h.result.Trace,
		}
	}
	return nil
}

func assertNoException(h *Harness) error {
	if ex, failed := h.engine.LastException(); failed {
		return &AssertionError{
			Type:     AssertNoException,
			Expected: "no exception",
			Actual:   ex.Error(),
		}
	}
	return nil
}

func assertException(h *Harness, a Assertion) error {
	want, err := parseStatus(fmt.Sprint(a.Expect))
	if err != nil {
		return err
	}
	ex, failed := h.engine.LastException()
	if !failed {
		return &AssertionError{
			Type:     AssertException,
			Expected: want.String(),
			Actual:   "no exception",
		}
	}
	if ex.Code != want {
		return &AssertionError{
			Type:     AssertException,
			Expected: want.String(),
			Actual:   ex.Error(),
		}
	}
	return nil
}

// assertTraceContains checks for an event of the given kind. Subject and
// value are only compared when set.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, e := range trace {
		if e.Kind == a.Kind &&
			(a.Subject == "" || e.Subject == a.Subject) &&
			(a.Value == "" || e.Value == a.Value) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s:%s:%s", a.Kind, a.Subject, a.Value),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the events appear in the given order.
// Other events may appear in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, e := range trace {
		if next < len(a.Events) && e.String() == a.Events[next] {
			next++
		}
	}
	if next < len(a.Events) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: strings.Join(a.Events, " -> "),
			Actual:   fmt.Sprintf("missing or out of order: %s", a.Events[next]),
			Trace:    trace,
		}
	}
	return nil
}
