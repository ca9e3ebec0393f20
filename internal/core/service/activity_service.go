package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tcc/task-manager-api/internal/api/metrics"
	"github.com/tcc/task-manager-api/internal/core/domain"
	"github.com/tcc/task-manager-api/internal/core/ports"
)

// DedupChecker abstracts the idempotency store (Redis) used to skip
// already-recorded activity events.
type DedupChecker interface {
	IsDuplicate(ctx context.Context, taskID, action string, ts time.Time) (bool, error)
	Mark(ctx context.Context, taskID, action string, ts time.Time) error
}

type activityService struct {
	repo  ports.ActivityRepository
	dedup DedupChecker
	log   zerolog.Logger
}

// NewActivityService returns an ActivityService implementation.
func NewActivityService(repo ports.ActivityRepository, dedup DedupChecker, log zerolog.Logger) ports.ActivityService {
	return &activityService{repo: repo, dedup: dedup, log: log}
}

// Process deduplicates and persists a single task activity event.
func (s *activityService) Process(ctx context.Context, in ports.ActivityInput) error {
	isDup, err := s.dedup.IsDuplicate(ctx, in.TaskID, in.Action, in.Timestamp)
	if err != nil {
		s.log.Warn().Err(err).Str("task_id", in.TaskID).Msg("dedup check failed, recording anyway")
	} else if isDup {
		metrics.ActivityDedupTotal.WithLabelValues("hit").Inc()
		s.log.Debug().Str("task_id", in.TaskID).Str("action", in.Action).Msg("duplicate activity skipped")
		return nil
	}
	metrics.ActivityDedupTotal.WithLabelValues("miss").Inc()

	// Mark before writing so a retried event is not recorded twice.
	if markErr := s.dedup.Mark(ctx, in.TaskID, in.Action, in.Timestamp); markErr != nil {
		s.log.Warn().Err(markErr).Str("task_id", in.TaskID).Msg("failed to set dedup key")
	}

	activity := &domain.TaskActivity{
		TaskID:    in.TaskID,
		Action:    in.Action,
		Status:    in.Status,
		Actor:     in.Actor,
		Timestamp: in.Timestamp,
	}
	if err := s.repo.Insert(ctx, activity); err != nil {
		metrics.ActivityErrorsTotal.Inc()
		return fmt.Errorf("record activity: %w", err)
	}

	metrics.ActivityProcessedTotal.WithLabelValues(in.Action).Inc()
	s.log.Debug().
		Str("task_id", in.TaskID).
		Str("action", in.Action).
		Str("actor", in.Actor).
		Msg("activity recorded")
	return nil
}
