// Package reaper evicts participants that stopped signalling activity.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/clock"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/domain"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/store"
	pkglog "github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/log"
	"github.com/rs/zerolog"
)

// ErrAlreadyStarted is returned by Start while the loop is running.
var ErrAlreadyStarted = errors.New("reaper already started")

// State reports what the reaper loop is doing.
type State int32

const (
	StateIdle State = iota
	StateReaping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReaping:
		return "reaping"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Config holds reaper timing.
type Config struct {
	Interval time.Duration // time between ticks
	Window   time.Duration // inactivity after which a participant is evicted
}

// Reaper removes at most one stale participant per tick and announces the
// departure in the message log.
type Reaper struct {
	participants store.ParticipantStore
	messages     store.MessageLog
	clock        clock.Clock
	stamper      *clock.Stamper
	config       Config
	logger       zerolog.Logger

	state atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Reaper. Call Start to run it periodically.
func New(
	participants store.ParticipantStore,
	messages store.MessageLog,
	clk clock.Clock,
	stamper *clock.Stamper,
	cfg Config,
) *Reaper {
	return &Reaper{
		participants: participants,
		messages:     messages,
		clock:        clk,
		stamper:      stamper,
		config:       cfg,
		logger:       pkglog.L().With().Str(pkglog.FieldComponent, "reaper").Logger(),
	}
}

// Start launches the tick loop. It runs until ctx is done or Stop is called.
func (r *Reaper) Start(ctx context.Context) error {
	if r.config.Interval <= 0 {
		return fmt.Errorf("reaper interval must be positive, got %s", r.config.Interval)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(ctx, r.done)

	r.logger.Info().
		Dur("interval", r.config.Interval).
		Dur("window", r.config.Window).
		Msg("reaper started")
	return nil
}

// Stop cancels the loop and waits for an in-flight tick to finish.
func (r *Reaper) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	r.logger.Info().Msg("reaper stopped")
}

// State returns whether a tick is currently running.
func (r *Reaper) State() State {
	return State(r.state.Load())
}

func (r *Reaper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Tick(ctx); err != nil && !errors.Is(err, domain.ErrNotFound) {
				r.logger.Error().Err(err).Msg("reap tick failed")
			}
		}
	}
}

// Tick evicts the stalest participant idle for longer than the window and
// appends its "left" status. domain.ErrNotFound means nobody was stale.
func (r *Reaper) Tick(ctx context.Context) (domain.Participant, error) {
	r.state.Store(int32(StateReaping))
	defer r.state.Store(int32(StateIdle))

	now := r.clock.Now()
	threshold := now.Add(-r.config.Window)

	p, err := r.participants.ExpireOne(ctx, threshold)
	if err != nil {
		return domain.Participant{}, err
	}

	r.logger.Info().
		Str(pkglog.FieldParticipant, p.Name).
		Time(pkglog.FieldThreshold, threshold).
		Msg("participant evicted")

	if err := r.messages.Append(ctx, domain.NewStatus(p.Name, domain.StatusLeft, r.stamper.Stamp(now))); err != nil {
		return p, fmt.Errorf("failed to announce departure of %s: %w", p.Name, err)
	}
	return p, nil
}
