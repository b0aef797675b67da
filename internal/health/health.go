// Package health implements the agent's process health snapshot (D6) and
// the optional local /healthz and /metrics HTTP endpoints. Entirely
// outside the core's decision loop: the Supervisor only ever reports into
// it, never reads from it.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/hayotensor/subnet-consensus-agent/consensus"
)

// Reporter is implemented by *consensus.Supervisor: the minimal surface the
// health endpoint needs to report on the agent's progress.
type Reporter interface {
	State() *consensus.AgentState
}

// Snapshot is the /healthz response body.
type Snapshot struct {
	PID                int             `json:"pid"`
	UptimeSeconds      float64         `json:"uptime_seconds"`
	CPUPercent         float64         `json:"cpu_percent"`
	MemUsedBytes       uint64          `json:"mem_used_bytes"`
	LastCompletedEpoch consensus.Epoch `json:"last_completed_epoch"`
	SubnetAccepted     bool            `json:"subnet_accepted"`
	ObservedAt         time.Time       `json:"observed_at"`
}

// Server serves /healthz and /metrics on a bind address.
type Server struct {
	reporter  Reporter
	startedAt time.Time
	http      *http.Server
}

// NewServer builds a Server; it does not start listening until Start.
func NewServer(addr string, reporter Reporter) *Server {
	router := mux.NewRouter()
	s := &Server{reporter: reporter, startedAt: nowStamp()}

	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	handler := cors.Default().Handler(router)
	s.http = &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	return s
}

// nowStamp exists only so tests can observe a fixed instant; production
// always calls it once at construction.
var nowStamp = time.Now

// Start begins serving in the background. Errors after a graceful Shutdown
// are not reported, matching net/http.Server's documented contract.
func (s *Server) Start() {
	go func() {
		_ = s.http.ListenAndServe()
	}()
}

// Shutdown stops the server, waiting up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func (s *Server) snapshot() Snapshot {
	state := s.reporter.State().Snapshot()
	snap := Snapshot{
		PID:                os.Getpid(),
		UptimeSeconds:      time.Since(s.startedAt).Seconds(),
		ObservedAt:         time.Now(),
		LastCompletedEpoch: state.LastCompletedEpoch,
		SubnetAccepted:     state.SubnetAcceptingConsensus,
	}

	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		snap.CPUPercent = percentages[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		snap.MemUsedBytes = vm.Used
	}
	return snap
}
