package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/DavidWenzler/reAM250-sub000/internal/journal"
)

// TraceSnapshot is the golden form of a scenario trace.
type TraceSnapshot struct {
	Scenario string       `json:"scenario"`
	Trace    []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot for journal.MarshalCanonical, which
// only handles maps, slices and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		trace[i] = map[string]any{
			"cycle":   int64(e.Cycle),
			"kind":    e.Kind,
			"subject": e.Subject,
			"value":   e.Value,
		}
	}
	return map[string]any{
		"scenario": s.Scenario,
		"trace":    trace,
	}
}

// MarshalTrace returns the canonical JSON of a scenario trace.
func MarshalTrace(name string, trace []TraceEvent) ([]byte, error) {
	s := TraceSnapshot{Scenario: name, Trace: trace}
	return journal.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(name, result.Trace)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
	return nil
}
