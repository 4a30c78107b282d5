package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"

	"github.com/DavidWenzler/reAM250-sub000/internal/engine"
)

// DefaultAddress is the monitor listen address.
const DefaultAddress = "127.0.0.1:12280"

// Source provides the published engine state.
type Source interface {
	Snapshot() engine.Snapshot
	Schema() []byte
}

// TransportStats are the counters of a transport server.
type TransportStats interface {
	Connections() int
	Refused() uint64
	Dropped() uint64
}

// ArchiveStats are the counters of a journal archiver.
type ArchiveStats interface {
	RunID() string
	Written() uint64
	Dropped() uint64
}

// Monitor serves the HTTP API.
type Monitor struct {
	source    Source
	transport TransportStats
	archive   ArchiveStats
	logger    *slog.Logger
	router    *mux.Router
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the monitor logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithTransport adds transport counters to /api/engine.
func WithTransport(t TransportStats) Option {
	return func(m *Monitor) { m.transport = t }
}

// WithArchive adds archive counters to /api/engine.
func WithArchive(a ArchiveStats) Option {
	return func(m *Monitor) { m.archive = a }
}

// New creates a monitor for src.
func New(src Source, opts ...Option) *Monitor {
	m := &Monitor{
		source: src,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/engine", m.engineStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/journal/schema", m.journalSchema).Methods(http.MethodGet)
	r.HandleFunc("/api/journal/status", m.journalStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/lists", m.lists).Methods(http.MethodGet)
	r.HandleFunc("/api/lists/{id:[0-9]+}", m.listStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/machines", m.machines).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.resources).Methods(http.MethodGet)
	m.router = r
	return m
}

// Handler returns the HTTP handler of the API.
func (m *Monitor) Handler() http.Handler { return m.router }

// ListenAndServe serves on addr until ctx is cancelled.
func (m *Monitor) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return m.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled and returns nil on a clean
// shutdown.
func (m *Monitor) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           m.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdown, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			m.logger.Warn("monitor shutdown", "error", err)
		}
	})
	defer stop()

	m.logger.Info("monitor listening", "address", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("monitor: %w", err)
	}
	return nil
}

type engineRsp struct {
	engine.Snapshot
	Transport *transportRsp `json:"transport,omitempty"`
	Archive   *archiveRsp   `json:"archive,omitempty"`
}

type transportRsp struct {
	Connections int    `json:"connections"`
	Refused     uint64 `json:"refused"`
	Dropped     uint64 `json:"dropped"`
}

type archiveRsp struct {
	RunID   string `json:"run_id"`
	Written uint64 `json:"written"`
	Dropped uint64 `json:"dropped"`
}

func (m *Monitor) engineStatus(w http.ResponseWriter, _ *http.Request) {
	rsp := engineRsp{Snapshot: m.source.Snapshot()}
	rsp.Journal.Values = nil
	if m.transport != nil {
		rsp.Transport = &transportRsp{
			Connections: m.transport.Connections(),
			Refused:     m.transport.Refused(),
			Dropped:     m.transport.Dropped(),
		}
	}
	if m.archive != nil {
		rsp.Archive = &archiveRsp{
			RunID:   m.archive.RunID(),
			Written: m.archive.Written(),
			Dropped: m.archive.Dropped(),
		}
	}
	m.writeJSON(w, rsp)
}

func (m *Monitor) journalSchema(w http.ResponseWriter, _ *http.Request) {
	schema := m.source.Schema()
	if schema == nil {
		http.Error(w, "journal is not prepared", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(schema); err != nil {
		m.logger.Debug("monitor write", "error", err)
	}
}

func (m *Monitor) journalStatus(w http.ResponseWriter, _ *http.Request) {
	s := m.source.Snapshot()
	m.writeJSON(w, struct {
		Cycle uint64 `json:"cycle"`
		engine.JournalView
	}{s.Cycle, s.Journal})
}

func (m *Monitor) lists(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.source.Snapshot().Lists)
}

func (m *Monitor) listStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid list id: %v", err), http.StatusBadRequest)
		return
	}
	for _, st := range m.source.Snapshot().Lists.Active {
		if st.ID == uint32(id) {
			m.writeJSON(w, st)
			return
		}
	}
	http.Error(w, fmt.Sprintf("list %d not found", id), http.StatusNotFound)
}

func (m *Monitor) machines(w http.ResponseWriter, _ *http.Request) {
	machines := m.source.Snapshot().Machines
	if machines == nil {
		machines = []engine.MachineView{}
	}
	m.writeJSON(w, machines)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) resources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		m.internalError(w, err)
		return
	}
	cpu, err := proc.CPUPercent()
	if err != nil {
		m.internalError(w, err)
		return
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		m.internalError(w, err)
		return
	}
	m.writeJSON(w, resourceRsp{CPUPercent: cpu, MemorySize: mem.RSS})
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		m.logger.Debug("monitor write", "error", err)
	}
}

func (m *Monitor) internalError(w http.ResponseWriter, err error) {
	m.logger.Warn("monitor request failed", "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
