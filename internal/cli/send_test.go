package cli

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidWenzler/reAM250-sub000/internal/door"
	"github.com/DavidWenzler/reAM250-sub000/internal/protocol"
)

func TestParsePayload(t *testing.T) {
	p, err := parsePayload([]string{"u8:1", "u16:0x0203", "u32:7", "i32:-1"})
	require.NoError(t, err)

	want := protocol.Payload{1, 3, 2, 7, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}
	assert.Equal(t, want, p)

	p, err = parsePayload([]string{"f64:1.5"})
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(1.5), uint64(p[0])|uint64(p[1])<<8|uint64(p[2])<<16|uint64(p[3])<<24|
		uint64(p[4])<<32|uint64(p[5])<<40|uint64(p[6])<<48|uint64(p[7])<<56)
}

func TestParsePayload_Errors(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		want   string
	}{
		{"no separator", []string{"u8"}, "not type:value"},
		{"unknown type", []string{"x8:1"}, "unknown type"},
		{"out of range", []string{"u8:300"}, "field 0"},
		{"not a number", []string{"i32:abc"}, "field 0"},
		{"too large", []string{"f64:1", "f64:2", "f64:3", "u8:4"}, "payload exceeds 24 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePayload(tt.fields)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResolveCommand(t *testing.T) {
	tests := []struct {
		name string
		want uint32
	}{
		{"begin_list", protocol.CommandBeginList},
		{"journal_history", protocol.CommandJournalHistory},
		{"open_door", door.CommandOpenDoor},
		{"lock_door", door.CommandLockDoor},
		{"4242", 4242},
	}
	for _, tt := range tests {
		id, err := resolveCommand(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, id, tt.name)
	}

	_, err := resolveCommand("launch")
	assert.Error(t, err)

	assert.Equal(t, "lock_door", commandLabel(door.CommandLockDoor))
	assert.Equal(t, "abort_list", commandLabel(protocol.CommandAbortList))
	assert.Equal(t, "4242", commandLabel(4242))
}

func TestPayloadWords(t *testing.T) {
	assert.Equal(t, []uint32{1, 0x04030201}, payloadWords([]byte{1, 0, 0, 0, 1, 2, 3, 4, 9}))
	assert.Empty(t, payloadWords(nil))
}

func TestSend_BeginList(t *testing.T) {
	_, addr := startController(t)

	out, _, err := execute(t, NewSendCommand(&RootOptions{Format: "text"}), "--addr", addr, "begin_list")
	require.NoError(t, err)
	assert.Contains(t, out, "begin_list (101) seq=1 status=ok")
	assert.Contains(t, out, "words [1]")
}

func TestSend_JournalStatusJSON(t *testing.T) {
	_, addr := startController(t)

	out, _, err := execute(t, NewSendCommand(&RootOptions{Format: "json"}), "--addr", addr, "--client-id", "7", "journal_status")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Command string `json:"command"`
			Status  string `json:"status"`
			Values  []struct {
				Group uint32 `json:"group"`
				Entry uint32 `json:"entry"`
				Type  string `json:"type"`
			} `json:"values"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "journal_status", resp.Data.Command)
	assert.Equal(t, "ok", resp.Data.Status)
	require.Len(t, resp.Data.Values, 4)
	for _, v := range resp.Data.Values {
		assert.Equal(t, door.JournalGroup, v.Group)
	}
	assert.Equal(t, "bool", resp.Data.Values[0].Type)
}

func TestSend_UnknownCommandRejected(t *testing.T) {
	_, addr := startController(t)

	out, _, err := execute(t, NewSendCommand(&RootOptions{Format: "text"}), "--addr", addr, "9999")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "status=INVALID_REQUEST")
}

func TestSend_BadArguments(t *testing.T) {
	_, _, err := execute(t, NewSendCommand(&RootOptions{Format: "text"}), "--addr", "127.0.0.1:1", "launch")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, NewSendCommand(&RootOptions{Format: "text"}), "--addr", "127.0.0.1:1", "begin_list", "u8")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSend_Unreachable(t *testing.T) {
	out, _, err := execute(t, NewSendCommand(&RootOptions{Format: "text"}), "--addr", "127.0.0.1:1", "--timeout", "1s", "journal_status")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
}
