package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tcc/task-manager-api/internal/core/domain"
	"github.com/tcc/task-manager-api/internal/core/ports"
)

type stubDedup struct {
	seen map[string]bool
}

func newStubDedup() *stubDedup {
	return &stubDedup{seen: make(map[string]bool)}
}

func (d *stubDedup) key(taskID, action string, ts time.Time) string {
	return fmt.Sprintf("%s:%s:%d", taskID, action, ts.Unix())
}

func (d *stubDedup) IsDuplicate(_ context.Context, taskID, action string, ts time.Time) (bool, error) {
	return d.seen[d.key(taskID, action, ts)], nil
}

func (d *stubDedup) Mark(_ context.Context, taskID, action string, ts time.Time) error {
	d.seen[d.key(taskID, action, ts)] = true
	return nil
}

type stubActivityRepo struct {
	entries []domain.TaskActivity
	failing bool
}

func (r *stubActivityRepo) Insert(_ context.Context, a *domain.TaskActivity) error {
	if r.failing {
		return fmt.Errorf("insert failed")
	}
	r.entries = append(r.entries, *a)
	return nil
}

func (r *stubActivityRepo) ListByTask(_ context.Context, taskID string) ([]domain.TaskActivity, error) {
	var out []domain.TaskActivity
	for _, e := range r.entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestActivityService_Process(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := NewActivityService(repo, newStubDedup(), zerolog.Nop())

	event := ports.ActivityInput{
		TaskID:    "t-1",
		Action:    domain.ActivityStatusChanged,
		Status:    domain.TaskStatusDone,
		Actor:     "alice",
		Timestamp: time.Now().UTC(),
	}
	if err := svc.Process(context.Background(), event); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].Action != domain.ActivityStatusChanged || repo.entries[0].Actor != "alice" {
		t.Fatalf("unexpected entry: %+v", repo.entries[0])
	}
}

func TestActivityService_Process_Duplicate(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := NewActivityService(repo, newStubDedup(), zerolog.Nop())

	event := ports.ActivityInput{
		TaskID:    "t-1",
		Action:    domain.ActivityUpdated,
		Actor:     "alice",
		Timestamp: time.Now().UTC(),
	}
	if err := svc.Process(context.Background(), event); err != nil {
		t.Fatalf("first process failed: %v", err)
	}
	if err := svc.Process(context.Background(), event); err != nil {
		t.Fatalf("duplicate process errored: %v", err)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("duplicate was recorded: %d entries", len(repo.entries))
	}
}

func TestActivityService_Process_InsertFailure(t *testing.T) {
	repo := &stubActivityRepo{failing: true}
	svc := NewActivityService(repo, newStubDedup(), zerolog.Nop())

	err := svc.Process(context.Background(), ports.ActivityInput{
		TaskID:    "t-1",
		Action:    domain.ActivityCreated,
		Timestamp: time.Now().UTC(),
	})
	if err == nil {
		t.Fatalf("expected error when insert fails")
	}
}
