package presence

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"BatePapo/internal/model"
	"BatePapo/internal/repo"
	"BatePapo/internal/service"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is how long a participant may stay silent before
	// the next sweep evicts it.
	DefaultTimeout = 10 * time.Second

	// DefaultInterval is the period between sweep ticks.
	DefaultInterval = 15 * time.Second
)

// Sweeper periodically reconciles the participant registry against the
// presence deadline: silent participants are removed and a "left the
// room" status message is appended for each one. It alternates between
// idle (waiting for the ticker) and a single in-flight pass; a tick
// that fires while a pass is still running is skipped.
type Sweeper struct {
	participants repo.ParticipantRepository
	messages     service.MessageService
	timeout      time.Duration
	interval     time.Duration
	logger       *zap.Logger
	now          func() time.Time

	sweeping atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewSweeper(participants repo.ParticipantRepository, messages service.MessageService, timeout, interval time.Duration, logger *zap.Logger) *Sweeper {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		participants: participants,
		messages:     messages,
		timeout:      timeout,
		interval:     interval,
		logger:       logger,
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the ticker loop.
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop cancels the loop and waits for an in-flight pass to finish. No
// new ticks are scheduled after Stop returns.
func (s *Sweeper) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if !s.sweeping.CompareAndSwap(false, true) {
				s.logger.Warn("sweep tick skipped, previous pass still running")
				continue
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer s.sweeping.Store(false)
				s.SweepOnce(s.ctx)
			}()
		}
	}
}

// SweepOnce runs one eviction pass. Storage failures are logged and the
// pass moves on; a bad tick must never prevent future ticks, so no
// error escapes here. Returns the names actually evicted.
func (s *Sweeper) SweepOnce(ctx context.Context) []string {
	deadline := s.now().Add(-s.timeout).UnixMilli()

	stale, err := s.participants.FindStale(ctx, deadline)
	if err != nil {
		s.logger.Error("stale scan failed, skipping pass", zap.Error(err))
		return nil
	}
	if len(stale) == 0 {
		return nil
	}

	s.logger.Debug("stale participants found",
		zap.Strings("names", lo.Map(stale, func(p model.Participant, _ int) string { return p.Name })),
		zap.Int64("deadline", deadline),
	)

	var evicted []string
	for _, p := range stale {
		// The delete re-checks staleness, so a heartbeat that landed
		// after the scan keeps the participant and suppresses the
		// leave announcement.
		removed, err := s.participants.EvictIfStale(ctx, p.Name, deadline)
		if err != nil {
			s.logger.Error("eviction failed", zap.Error(err), zap.String("name", p.Name))
			continue
		}
		if !removed {
			continue
		}
		evicted = append(evicted, p.Name)

		// Eviction is not transactional with the announcement; a
		// failed append is a logged data-quality gap, not a rollback.
		if _, err := s.messages.AppendSynthetic(ctx, p.Name, model.LeftText); err != nil {
			s.logger.Error("leave announcement failed", zap.Error(err), zap.String("name", p.Name))
		}
	}

	if len(evicted) > 0 {
		s.logger.Info("sweep pass finished", zap.Strings("evicted", evicted))
	}
	return evicted
}
