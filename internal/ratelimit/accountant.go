package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sessionlens/server/domain/repositories"
)

// Resource distinguishes independent quotas so exhausting one expensive
// backend does not block the other.
type Resource string

const (
	ResourceMediaAnalysis Resource = "media_analysis"
	ResourceTextAnalysis  Resource = "text_analysis"
)

// Counter keys live one hour past the last write so stale buckets clean
// themselves up.
const bucketTTL = time.Hour

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed           bool
	Used              int
	RetryAfterSeconds int
}

// QuotaStatus is the read-only view exposed to clients.
type QuotaStatus struct {
	Used            int `json:"used"`
	Limit           int `json:"limit"`
	Remaining       int `json:"remaining"`
	ResetsInSeconds int `json:"resets_in"`
}

// Accountant tracks per-user request counts in (principal, resource, UTC
// calendar hour) buckets backed by a shared counter store. The quota
// resets on the wall-clock hour boundary, not on a rolling window.
//
// CheckAndReserve and Commit are deliberately separate so a request that
// fails downstream never consumes quota. The two steps are not atomic
// together: concurrent requests from one user can all pass the check
// before any commits, over-admitting by up to (concurrency - 1) per
// bucket. The commit itself is an atomic store increment, so committed
// counts are never lost.
type Accountant struct {
	store  repositories.CounterStore
	logger *zap.Logger
	now    func() time.Time
}

// NewAccountant creates a rate accountant on top of a counter store.
func NewAccountant(store repositories.CounterStore, logger *zap.Logger) *Accountant {
	return &Accountant{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// CheckAndReserve admits or denies a request against the current hour
// bucket. A denial includes the seconds remaining until the bucket rolls
// over.
func (a *Accountant) CheckAndReserve(ctx context.Context, principalID string, resource Resource, limit int) (Decision, error) {
	now := a.now().UTC()
	key := bucketKey(principalID, resource, now)

	used, err := a.store.Get(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("rate counter read: %w", err)
	}

	if used >= int64(limit) {
		retryAfter := secondsToNextHour(now)
		a.logger.Warn("Rate limit exceeded",
			zap.String("user_id", principalID),
			zap.String("resource", string(resource)),
			zap.Int64("used", used),
			zap.Int("limit", limit),
			zap.Int("retry_after", retryAfter))
		return Decision{Allowed: false, Used: int(used), RetryAfterSeconds: retryAfter}, nil
	}

	return Decision{Allowed: true, Used: int(used)}, nil
}

// Commit records one consumed request in the current hour bucket. Called
// only after the expensive downstream call has succeeded.
func (a *Accountant) Commit(ctx context.Context, principalID string, resource Resource) error {
	now := a.now().UTC()
	key := bucketKey(principalID, resource, now)

	count, err := a.store.Increment(ctx, key, bucketTTL)
	if err != nil {
		return fmt.Errorf("rate counter increment: %w", err)
	}

	a.logger.Debug("Rate counter committed",
		zap.String("user_id", principalID),
		zap.String("resource", string(resource)),
		zap.Int64("count", count))
	return nil
}

// Status reports the caller's current quota window without modifying it.
func (a *Accountant) Status(ctx context.Context, principalID string, resource Resource, limit int) (QuotaStatus, error) {
	now := a.now().UTC()
	key := bucketKey(principalID, resource, now)

	used, err := a.store.Get(ctx, key)
	if err != nil {
		return QuotaStatus{}, fmt.Errorf("rate counter read: %w", err)
	}

	remaining := limit - int(used)
	if remaining < 0 {
		remaining = 0
	}
	return QuotaStatus{
		Used:            int(used),
		Limit:           limit,
		Remaining:       remaining,
		ResetsInSeconds: secondsToNextHour(now),
	}, nil
}

// bucketKey derives the counting key from the principal, resource class,
// and the current UTC hour truncated to the hour.
func bucketKey(principalID string, resource Resource, now time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%s:%s", resource, principalID, now.Format("2006-01-02T15"))
}

// secondsToNextHour is always in [0, 3600). Exactly on the boundary the
// bucket has already rolled over, so the wait is zero.
func secondsToNextHour(now time.Time) int {
	next := now.Truncate(time.Hour).Add(time.Hour)
	return int(next.Sub(now).Seconds()) % 3600
}
