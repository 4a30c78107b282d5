package cli

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/DavidWenzler/reAM250-sub000/internal/door"
	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
	"github.com/DavidWenzler/reAM250-sub000/internal/journal"
	"github.com/DavidWenzler/reAM250-sub000/internal/protocol"
	"github.com/DavidWenzler/reAM250-sub000/internal/transport"
)

// SendOptions holds flags for the send command.
type SendOptions struct {
	*RootOptions
	Address  string
	ClientID uint32
	Timeout  time.Duration
}

// SendResult is one answered request.
type SendResult struct {
	Command  string          `json:"command"`
	ID       uint32          `json:"command_id"`
	Sequence uint32          `json:"sequence"`
	Status   string          `json:"status"`
	Code     uint32          `json:"status_code"`
	Words    []uint32        `json:"words"`
	Values   []journal.Value `json:"values,omitempty"`
}

// commandAliases names the buffered commands of the installed domains.
var commandAliases = map[string]uint32{
	"open_door": door.CommandOpenDoor,
	"lock_door": door.CommandLockDoor,
}

// NewSendCommand creates the send command.
func NewSendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "send <command> [field...]",
		Short: "Send one request to a running controller",
		Long: `Send one request frame to a running controller and print the response.

The command is a numeric id or a name (begin_list, finish_list,
execute_list, list_status, abort_list, delete_list, journal_status,
journal_schema, journal_variable, journal_history, open_door, lock_door).
Payload fields are packed in order as type:value with type one of u8, u16,
u32, i32 or f64.

Examples:
  ream send begin_list
  ream send lock_door u8:1
  ream send list_status u32:1
  ream send journal_status --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Address, "addr", "", "controller address (default: server.host:server.port)")
	cmd.Flags().Uint32Var(&opts.ClientID, "client-id", 1, "client id echoed in the response")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", transport.DefaultTimeout, "response timeout")

	return cmd
}

func runSend(opts *SendOptions, name string, fields []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	addr := opts.Address
	if addr == "" {
		addr = cfg.Server.Address()
	}

	id, err := resolveCommand(name)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid command", err)
	}
	payload, err := parsePayload(fields)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid payload", err)
	}

	client, err := transport.Dial(cmd.Context(), addr,
		transport.WithSignature(cfg.Server.Signature),
		transport.WithClientID(opts.ClientID),
		transport.WithTimeout(opts.Timeout),
	)
	if err != nil {
		_ = formatter.Error(ErrCodeConnection, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to connect", err)
	}
	defer client.Close()

	formatter.VerboseLog("sending %s (%d) to %s", name, id, addr)
	reply, err := client.Send(cmd.Context(), id, payload)
	if err != nil {
		_ = formatter.Error(ErrCodeConnection, err.Error(), nil)
		return WrapExitError(ExitCommandError, "request failed", err)
	}

	result := SendResult{
		Command:  commandLabel(id),
		ID:       id,
		Sequence: reply.Header.SequenceID,
		Status:   statusLabel(reply.Status()),
		Code:     uint32(reply.Status()),
		Words:    payloadWords(reply.Payload),
	}
	if id == protocol.CommandJournalStatus && reply.Status() == 0 {
		if values, err := journal.DecodeStatus(reply.Payload); err == nil {
			result.Values = values
		}
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		printSendResult(cmd, result)
	}
	if reply.Status() != 0 {
		return WrapExitError(ExitFailure, "request rejected", reply.Err())
	}
	return nil
}

func printSendResult(cmd *cobra.Command, r SendResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%d) seq=%d status=%s\n", r.Command, r.ID, r.Sequence, r.Status)
	if len(r.Values) > 0 {
		for _, v := range r.Values {
			fmt.Fprintf(out, "  %d.%d %s = %v\n", v.Group, v.Entry, v.Type, v.Value)
		}
		return
	}
	if len(r.Words) > 0 {
		fmt.Fprintf(out, "  words %v\n", r.Words)
	}
}

func resolveCommand(name string) (uint32, error) {
	if id, err := strconv.ParseUint(name, 10, 32); err == nil {
		return uint32(id), nil
	}
	if id, ok := commandAliases[name]; ok {
		return id, nil
	}
	if id, ok := protocol.CommandID(name); ok {
		return id, nil
	}
	return 0, fmt.Errorf("unknown command %q", name)
}

func commandLabel(id uint32) string {
	if n := protocol.CommandName(id); n != "" {
		return n
	}
	for n, alias := range commandAliases {
		if alias == id {
			return n
		}
	}
	return strconv.FormatUint(uint64(id), 10)
}

func statusLabel(c fault.Code) string {
	if c == 0 {
		return "ok"
	}
	return c.String()
}

// parsePayload packs type:value fields into a request payload.
func parsePayload(fields []string) (protocol.Payload, error) {
	var b protocol.PayloadBuilder
	size := 0
	for i, f := range fields {
		typ, val, ok := strings.Cut(f, ":")
		if !ok {
			return protocol.Payload{}, fmt.Errorf("field %d: %q is not type:value", i, f)
		}
		width := map[string]int{"u8": 1, "u16": 2, "u32": 4, "i32": 4, "f64": 8}[typ]
		if width == 0 {
			return protocol.Payload{}, fmt.Errorf("field %d: unknown type %q", i, typ)
		}
		if size+width > protocol.PayloadSize {
			return protocol.Payload{}, fmt.Errorf("field %d: payload exceeds %d bytes", i, protocol.PayloadSize)
		}
		size += width

		var err error
		switch typ {
		case "u8":
			var n uint64
			if n, err = strconv.ParseUint(val, 0, 8); err == nil {
				b.Uint8(uint8(n))
			}
		case "u16":
			var n uint64
			if n, err = strconv.ParseUint(val, 0, 16); err == nil {
				b.Uint16(uint16(n))
			}
		case "u32":
			var n uint64
			if n, err = strconv.ParseUint(val, 0, 32); err == nil {
				b.Uint32(uint32(n))
			}
		case "i32":
			var n int64
			if n, err = strconv.ParseInt(val, 0, 32); err == nil {
				b.Int32(int32(n))
			}
		case "f64":
			var x float64
			if x, err = strconv.ParseFloat(val, 64); err == nil {
				b.Float64(x)
			}
		}
		if err != nil {
			return protocol.Payload{}, fmt.Errorf("field %d: %w", i, err)
		}
	}
	return b.Payload(), nil
}

// payloadWords splits a response payload into little-endian words. A
// trailing partial word is dropped.
func payloadWords(b []byte) []uint32 {
	words := make([]uint32, 0, len(b)/4)
	for i := 0; i+4 <= len(b); i += 4 {
		words = append(words, binary.LittleEndian.Uint32(b[i:]))
	}
	return words
}
