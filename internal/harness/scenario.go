package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultCycleMillis is the clock advance per tick unless a scenario sets
// cycle_ms.
const DefaultCycleMillis = 10

// Scenario defines a controller scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// CycleMillis is the clock advance per tick.
	CycleMillis uint64 `yaml:"cycle_ms,omitempty"`

	// Lists and ListEntries size the list executor. Zero keeps the
	// harness defaults.
	Lists       int `yaml:"lists,omitempty"`
	ListEntries int `yaml:"list_entries,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario step. Exactly one field is set.
type Step struct {
	// Tick runs this many cycles.
	Tick int `yaml:"tick,omitempty"`

	// AdvanceMillis moves the clock without running a cycle.
	AdvanceMillis uint64 `yaml:"advance_ms,omitempty"`

	// Input changes the simulated door hardware.
	Input *Input `yaml:"input,omitempty"`

	// Send queues a request frame for the next tick.
	Send *Request `yaml:"send,omitempty"`
}

// Input changes simulated door inputs. Unset fields are left alone.
type Input struct {
	// Button presses (true) or lets go of (false) the release button.
	Button *bool `yaml:"button,omitempty"`

	// Door is "open" or "closed".
	Door string `yaml:"door,omitempty"`
}

// Request is a frame sent to the controller.
type Request struct {
	// Command is a command name (begin_list, open_door, ...) or id.
	Command string `yaml:"command"`

	// Payload fields are packed in order from address 0.
	Payload []PayloadField `yaml:"payload,omitempty"`

	// Expect checks the response. Nil accepts any response.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// PayloadField is one little-endian value of a request payload. Exactly
// one field is set.
type PayloadField struct {
	U8  *uint8   `yaml:"u8,omitempty"`
	U16 *uint16  `yaml:"u16,omitempty"`
	U32 *uint32  `yaml:"u32,omitempty"`
	I32 *int32   `yaml:"i32,omitempty"`
	F64 *float64 `yaml:"f64,omitempty"`
}

// ExpectClause specifies the expected response.
type ExpectClause struct {
	// Status is "ok", a status name (INVALID_REQUEST) or a number.
	Status string `yaml:"status"`

	// Words are the expected leading payload words. Subset match.
	Words []uint32 `yaml:"words,omitempty"`
}

// Assertion validates the final state or the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Machine names the machine (machine_state).
	Machine string `yaml:"machine,omitempty"`

	// Group and Entry address a journal entry (journal).
	Group uint32 `yaml:"group,omitempty"`
	Entry uint32 `yaml:"entry,omitempty"`

	// List is the list id (list_state).
	List uint32 `yaml:"list,omitempty"`

	// Kind, Subject and Value select a trace event (trace_contains).
	Kind    string `yaml:"kind,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	Value   string `yaml:"value,omitempty"`

	// Events are kind:subject:value strings (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Expect is the expected value: a state name, journal value, list
	// state, release flag or status code.
	Expect any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertMachineState  = "machine_state"
	AssertJournal       = "journal"
	AssertListState     = "list_state"
	AssertRelease       = "release"
	AssertNoException   = "no_exception"
	AssertException     = "exception"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: empty document")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.Lists < 0 || s.ListEntries < 0 {
		return fmt.Errorf("lists and list_entries must be non-negative")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	set := 0
	if st.Tick != 0 {
		set++
	}
	if st.AdvanceMillis != 0 {
		set++
	}
	if st.Input != nil {
		set++
	}
	if st.Send != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of tick, advance_ms, input, send is required", index)
	}

	switch {
	case st.Tick < 0:
		return fmt.Errorf("steps[%d]: tick must be positive", index)
	case st.Input != nil:
		if st.Input.Button == nil && st.Input.Door == "" {
			return fmt.Errorf("steps[%d]: input needs button or door", index)
		}
		if st.Input.Door != "" && st.Input.Door != "open" && st.Input.Door != "closed" {
			return fmt.Errorf("steps[%d]: door must be open or closed, got %q", index, st.Input.Door)
		}
	case st.Send != nil:
		if st.Send.Command == "" {
			return fmt.Errorf("steps[%d]: command is required", index)
		}
		for j, f := range st.Send.Payload {
			if f.count() != 1 {
				return fmt.Errorf("steps[%d].payload[%d]: exactly one of u8, u16, u32, i32, f64 is required", index, j)
			}
		}
		if st.Send.Expect != nil && st.Send.Expect.Status == "" {
			return fmt.Errorf("steps[%d].expect: status is required", index)
		}
	}
	return nil
}

func (f PayloadField) count() int {
	n := 0
	for _, set := range []bool{f.U8 != nil, f.U16 != nil, f.U32 != nil, f.I32 != nil, f.F64 != nil} {
		if set {
			n++
		}
	}
	return n
}

// width is the encoded size of the field in bytes.
func (f PayloadField) width() int {
	switch {
	case f.U8 != nil:
		return 1
	case f.U16 != nil:
		return 2
	case f.F64 != nil:
		return 8
	default:
		return 4
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertMachineState:
		if a.Machine == "" || a.Expect == nil {
			return fmt.Errorf("assertions[%d]: machine and expect are required for machine_state", index)
		}
	case AssertJournal:
		if a.Group == 0 || a.Entry == 0 || a.Expect == nil {
			return fmt.Errorf("assertions[%d]: group, entry and expect are required for journal", index)
		}
	case AssertListState:
		if a.List == 0 || a.Expect == nil {
			return fmt.Errorf("assertions[%d]: list and expect are required for list_state", index)
		}
	case AssertRelease:
		if _, ok := a.Expect.(bool); !ok {
			return fmt.Errorf("assertions[%d]: expect must be true or false for release", index)
		}
	case AssertNoException:
	case AssertException:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for exception", index)
		}
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
