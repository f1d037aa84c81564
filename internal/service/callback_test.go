package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"mining-scheduler/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestSetTaskStatusSuccess_TransitionsProcessingTask(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	pinTime(t, now)

	taskRepo := newFakeTaskRepo()
	taskID := taskRepo.add(model.ScheduledTask{
		DataSourceID: 1,
		Status:       model.TaskStatusProcessing,
		StartedAt:    now.Add(-10 * time.Minute),
		LockedAt:     sql.NullTime{Time: now.Add(-10 * time.Minute), Valid: true},
		Attempts:     1,
	})

	callback := NewCallbackService(testLogger(), taskRepo, &fakeUnitOfWork{})
	ok := callback.SetTaskStatusSuccess(context.Background(), taskID, "mined 42 documents")

	assert.True(t, ok)
	task := taskRepo.get(taskID)
	assert.Equal(t, model.TaskStatusSuccess, task.Status)
	assert.False(t, task.LockedAt.Valid)
	assert.True(t, task.EndedAt.Valid)
	assert.Equal(t, now, task.EndedAt.Time)
	assert.Equal(t, "mined 42 documents", task.ResultSummary.String)
}

func TestSetTaskStatusSuccess_EmptySummaryIsStored(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	pinTime(t, now)

	taskRepo := newFakeTaskRepo()
	taskID := taskRepo.add(model.ScheduledTask{
		DataSourceID: 1,
		Status:       model.TaskStatusProcessing,
		StartedAt:    now,
	})

	ok := NewCallbackService(testLogger(), taskRepo, &fakeUnitOfWork{}).
		SetTaskStatusSuccess(context.Background(), taskID, "")

	assert.True(t, ok)
	task := taskRepo.get(taskID)
	assert.True(t, task.ResultSummary.Valid)
	assert.Equal(t, "", task.ResultSummary.String)
}

func TestSetTaskStatusSuccess_UnknownTaskReturnsFalse(t *testing.T) {
	taskRepo := newFakeTaskRepo()

	ok := NewCallbackService(testLogger(), taskRepo, &fakeUnitOfWork{}).
		SetTaskStatusSuccess(context.Background(), 42, "ok")

	assert.False(t, ok)
	assert.Equal(t, 0, taskRepo.updateCount, "no row is created or touched")
}

func TestSetTaskStatusSuccess_CommitFailureReturnsFalse(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	pinTime(t, now)

	taskRepo := newFakeTaskRepo()
	taskID := taskRepo.add(model.ScheduledTask{
		DataSourceID: 1,
		Status:       model.TaskStatusProcessing,
		StartedAt:    now,
	})

	uow := &fakeUnitOfWork{runErr: errors.New("commit failed")}
	ok := NewCallbackService(testLogger(), taskRepo, uow).
		SetTaskStatusSuccess(context.Background(), taskID, "ok")

	assert.False(t, ok)
}

func TestSetTaskStatusSuccess_ConcurrentCallsApplyOnce(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	pinTime(t, now)

	taskRepo := newFakeTaskRepo()
	taskID := taskRepo.add(model.ScheduledTask{
		DataSourceID: 1,
		Status:       model.TaskStatusProcessing,
		StartedAt:    now.Add(-5 * time.Minute),
		LockedAt:     sql.NullTime{Time: now.Add(-5 * time.Minute), Valid: true},
		Attempts:     1,
	})

	callback := NewCallbackService(testLogger(), taskRepo, &fakeUnitOfWork{})

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = callback.SetTaskStatusSuccess(context.Background(), taskID, "done")
		}(i)
	}
	wg.Wait()

	assert.True(t, results[0])
	assert.True(t, results[1])
	assert.Equal(t, 1, taskRepo.updateCount, "second caller sees SUCCESS and does not re-apply")
	assert.Equal(t, model.TaskStatusSuccess, taskRepo.get(taskID).Status)
}
