package status

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/metrics"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

const DefaultInterval = 5 * time.Second

var ErrTickInProgress = errors.New("previous tick still running")

// Store is the persistence the mutator reads robots from and writes the
// derived status back to.
type Store interface {
	ListRobots(ctx context.Context) ([]models.Robot, error)
	SaveStatus(ctx context.Context, robot *models.Robot) error
}

type Publisher interface {
	Publish(update models.StatusUpdate)
}

type TickResult struct {
	Updated int
	Failed  int
}

type Mutator struct {
	store     Store
	publisher Publisher
	interval  time.Duration
	metrics   *metrics.Metrics

	running atomic.Bool
	wg      sync.WaitGroup
}

type Option func(*Mutator)

func WithInterval(d time.Duration) Option {
	return func(m *Mutator) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Mutator) {
		m.metrics = mt
	}
}

func NewMutator(store Store, publisher Publisher, opts ...Option) *Mutator {
	m := &Mutator{
		store:     store,
		publisher: publisher,
		interval:  DefaultInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mutator) Interval() time.Duration {
	return m.interval
}

// Tick runs one mutation pass over every robot. It refuses to start while
// another pass is in flight and returns ErrTickInProgress instead. A robot
// that fails to persist is logged and skipped; the pass carries on with the
// rest and the robot is picked up again next tick.
func (m *Mutator) Tick(ctx context.Context) (TickResult, error) {
	logger := common.GetLoggerWith(common.LoggerNameStatusMutator)

	if !m.running.CompareAndSwap(false, true) {
		m.metrics.TickSkipped()
		logger.Warn("Skipping tick, previous tick still running")
		return TickResult{}, ErrTickInProgress
	}
	defer m.running.Store(false)

	m.metrics.Tick()

	robots, err := m.store.ListRobots(ctx)
	if err != nil {
		logger.Error("Failed to load robots", zap.Error(err))
		return TickResult{}, err
	}

	var result TickResult
	for _, robot := range robots {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		next := Derive(robot)
		if err := m.store.SaveStatus(ctx, &next); err != nil {
			result.Failed++
			m.metrics.RobotUpdateFailed()
			logger.Error("Failed to update robot status",
				zap.String("robot_id", robot.ID),
				zap.Error(err))
			continue
		}

		result.Updated++
		if m.publisher != nil {
			m.publisher.Publish(next.StatusUpdate())
		}
	}

	logger.Debug("Tick completed",
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed))

	return result, nil
}

// Run fires a tick every interval until ctx is cancelled, then waits for the
// in-flight tick to finish. Ticks run off the timer goroutine so a slow pass
// is skipped rather than delaying the schedule.
func (m *Mutator) Run(ctx context.Context) {
	logger := common.GetLoggerWith(common.LoggerNameStatusMutator)
	logger.Info("Status mutator started", zap.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.wg.Wait()
			logger.Info("Status mutator stopped")
			return
		case <-ticker.C:
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				_, _ = m.Tick(ctx)
			}()
		}
	}
}
