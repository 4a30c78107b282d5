package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/door_release_list.yaml")
	require.NoError(t, err)

	assert.Equal(t, "door_release_list", s.Name)
	require.Len(t, s.Steps, 7)
	require.NotNil(t, s.Steps[3].Send)
	assert.Equal(t, "execute_list", s.Steps[3].Send.Command)
	require.Len(t, s.Steps[3].Send.Payload, 1)
	assert.Equal(t, uint32(1), *s.Steps[3].Send.Payload[0].U32)
	assert.Equal(t, []uint32{1, 1}, s.Steps[2].Send.Expect.Words)
	assert.Equal(t, 4, s.Steps[4].Tick)
	assert.Equal(t, uint64(10000), s.Steps[5].AdvanceMillis)
	assert.Equal(t, AssertListState, s.Assertions[0].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: tiny
description: "one tick"
steps:
  - tick: 1
assertions:
  - type: no_exception
`), 0o600))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", s.Name)
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", ``, "empty document"},
		{"unknown field", "name: x\ndescription: d\nstepz: []\n", "field stepz not found"},
		{"no name", "description: d\nsteps: [{tick: 1}]\nassertions: [{type: no_exception}]\n", "name is required"},
		{"no description", "name: x\nsteps: [{tick: 1}]\nassertions: [{type: no_exception}]\n", "description is required"},
		{"no steps", "name: x\ndescription: d\nassertions: [{type: no_exception}]\n", "steps list is required"},
		{"no assertions", "name: x\ndescription: d\nsteps: [{tick: 1}]\n", "assertions list is required"},
		{"empty step", "name: x\ndescription: d\nsteps: [{}]\nassertions: [{type: no_exception}]\n", "exactly one of tick"},
		{"two actions", "name: x\ndescription: d\nsteps: [{tick: 1, advance_ms: 5}]\nassertions: [{type: no_exception}]\n", "exactly one of tick"},
		{"negative tick", "name: x\ndescription: d\nsteps: [{tick: -1}]\nassertions: [{type: no_exception}]\n", "tick must be positive"},
		{"bad door", "name: x\ndescription: d\nsteps: [{input: {door: ajar}}]\nassertions: [{type: no_exception}]\n", "door must be open or closed"},
		{"empty input", "name: x\ndescription: d\nsteps: [{input: {}}]\nassertions: [{type: no_exception}]\n", "input needs button or door"},
		{"no command", "name: x\ndescription: d\nsteps: [{send: {command: ''}}]\nassertions: [{type: no_exception}]\n", "command is required"},
		{"double payload field", "name: x\ndescription: d\nsteps: [{send: {command: begin_list, payload: [{u8: 1, u32: 2}]}}]\nassertions: [{type: no_exception}]\n", "exactly one of u8"},
		{"expect without status", "name: x\ndescription: d\nsteps: [{send: {command: begin_list, expect: {words: [1]}}}]\nassertions: [{type: no_exception}]\n", "status is required"},
		{"unknown assertion", "name: x\ndescription: d\nsteps: [{tick: 1}]\nassertions: [{type: vibes}]\n", "unknown assertion type"},
		{"machine without expect", "name: x\ndescription: d\nsteps: [{tick: 1}]\nassertions: [{type: machine_state, machine: door}]\n", "machine and expect are required"},
		{"journal without entry", "name: x\ndescription: d\nsteps: [{tick: 1}]\nassertions: [{type: journal, group: 10, expect: 1}]\n", "group, entry and expect are required"},
		{"release not bool", "name: x\ndescription: d\nsteps: [{tick: 1}]\nassertions: [{type: release, expect: yes please}]\n", "expect must be true or false"},
		{"order without events", "name: x\ndescription: d\nsteps: [{tick: 1}]\nassertions: [{type: trace_order}]\n", "events list is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
