package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sessionlens/server/domain/entities"
	"github.com/sessionlens/server/domain/repositories"
)

// PollState is the readiness state machine over artifact processing.
// Active, Failed, and TimedOut are terminal.
type PollState string

const (
	PollProcessing PollState = "processing"
	PollActive     PollState = "active"
	PollFailed     PollState = "failed"
	PollTimedOut   PollState = "timed_out"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultPollDeadline = 5 * time.Minute
)

// ReadinessPoller waits for an uploaded artifact to finish server-side
// processing. It re-queries while the artifact reports Processing, at a
// fixed interval, until a terminal state or the deadline.
//
// Any status-query failure is fatal for the whole operation; transient
// and permanent failures are not distinguished. Conservative, but it
// keeps the state machine small.
type ReadinessPoller struct {
	store    repositories.MediaStore
	logger   *zap.Logger
	interval time.Duration
	deadline time.Duration
}

// NewReadinessPoller creates a poller with the fixed production interval
// and deadline.
func NewReadinessPoller(store repositories.MediaStore, logger *zap.Logger) *ReadinessPoller {
	return &ReadinessPoller{
		store:    store,
		logger:   logger,
		interval: defaultPollInterval,
		deadline: defaultPollDeadline,
	}
}

// nextPollState maps a reported artifact state onto the machine.
func nextPollState(state entities.ArtifactState) PollState {
	switch state {
	case entities.ArtifactActive:
		return PollActive
	case entities.ArtifactFailed:
		return PollFailed
	default:
		return PollProcessing
	}
}

// AwaitReady blocks until the artifact is Active, its processing fails,
// the deadline elapses, or ctx is cancelled. This is the only long-lived
// blocking operation in the pipeline; cancelling ctx stops polling
// immediately.
func (p *ReadinessPoller) AwaitReady(ctx context.Context, name string) (entities.ArtifactInfo, error) {
	started := time.Now()
	queries := 0

	for {
		info, err := p.store.Status(ctx, name)
		if err != nil {
			return entities.ArtifactInfo{}, err
		}
		queries++

		switch nextPollState(info.State) {
		case PollActive:
			p.logger.Info("Artifact ready",
				zap.String("file", name),
				zap.Int("queries", queries),
				zap.Duration("waited", time.Since(started)))
			return info, nil
		case PollFailed:
			p.logger.Warn("Artifact processing failed",
				zap.String("file", name),
				zap.Int("queries", queries))
			return entities.ArtifactInfo{}, fmt.Errorf("%w: %s", entities.ErrProcessingFailed, name)
		}

		if time.Since(started) >= p.deadline {
			p.logger.Warn("Artifact processing deadline elapsed",
				zap.String("file", name),
				zap.Int("queries", queries),
				zap.Duration("deadline", p.deadline))
			return entities.ArtifactInfo{}, fmt.Errorf("%w after %s", entities.ErrProcessingTimedOut, p.deadline)
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return entities.ArtifactInfo{}, ctx.Err()
		case <-timer.C:
		}
	}
}
