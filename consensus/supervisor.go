package consensus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hayotensor/subnet-consensus-agent/internal/logging"
	"go.uber.org/zap"
)

// Supervisor owns the ConsensusLoop's worker goroutine, a cooperative stop
// signal, and a top-level recover/catch around each iteration so that an
// unhandled error never unwinds the worker: it is logged and the loop
// continues at the next iteration, not the next epoch (§4.7).
type Supervisor struct {
	loop *ConsensusLoop
	log  logging.Logger

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	started bool
}

// NewSupervisor wraps loop with start/stop lifecycle management.
func NewSupervisor(loop *ConsensusLoop, log logging.Logger) *Supervisor {
	return &Supervisor{loop: loop, log: log}
}

// Start begins running the loop on a dedicated goroutine. Calling Start
// twice without an intervening Stop is a no-op.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	stop := s.stop
	done := s.done
	go s.run(ctx, stop, done)
}

func (s *Supervisor) run(ctx context.Context, stop chan struct{}, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			s.log.Info("consensus supervisor stopping")
			return
		default:
		}

		if err := s.safeRunOnce(ctx, stop); err != nil {
			var chainErr *ChainError
			if errors.As(err, &chainErr) && chainErr.Kind.Fatal() {
				s.log.Error("fatal error, shutting down", zap.Error(err))
				return
			}
			s.log.Error("consensus iteration error, retrying next iteration", zap.Error(err))
			if !interruptibleSleep(s.loop.chain.BlockSecs(), stop) {
				return
			}
		}
	}
}

// safeRunOnce calls loop.RunOnce and converts a panic into an error so a
// single bad iteration can never take down the worker goroutine.
func (s *Supervisor) safeRunOnce(ctx context.Context, stop chan struct{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewChainError(KindTransport, "run_once_panic", panicError{r})
		}
	}()
	return s.loop.RunOnce(ctx, stop)
}

type panicError struct{ v interface{} }

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.v) }

// Stop signals the worker to exit at its next suspension point and waits
// for it to actually exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	stop := s.stop
	done := s.done
	s.started = false
	s.mu.Unlock()

	close(stop)
	<-done
}

// State exposes the underlying loop's AgentState.
func (s *Supervisor) State() *AgentState { return s.loop.State() }

