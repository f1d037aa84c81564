package service

import (
	"context"
	"database/sql"
	"fmt"

	"mining-scheduler/internal/model"
	"mining-scheduler/internal/repository"
	"mining-scheduler/pkg/logger"
	"mining-scheduler/pkg/utils"
)

type CallbackService interface {
	// SetTaskStatusSuccess is invoked by a mining module reporting that a
	// task finished. It returns false both when the task does not exist and
	// when the transition could not be committed; callers must treat false
	// as "status not updated", nothing more specific.
	SetTaskStatusSuccess(ctx context.Context, taskID uint, resultSummary string) bool
}

type callbackService struct {
	log      *logger.Logger
	taskRepo repository.ScheduledTaskRepository
	uow      repository.UnitOfWork
}

func NewCallbackService(log *logger.Logger, taskRepo repository.ScheduledTaskRepository, uow repository.UnitOfWork) CallbackService {
	return &callbackService{log: log, taskRepo: taskRepo, uow: uow}
}

func (c *callbackService) SetTaskStatusSuccess(ctx context.Context, taskID uint, resultSummary string) bool {
	found := false
	err := c.uow.Run(func(opts ...utils.DBOption) error {
		task, err := c.taskRepo.FindByIDForUpdate(ctx, taskID, opts...)
		if err != nil {
			return fmt.Errorf("failed to lock task: %w", err)
		}
		if task == nil {
			return nil
		}
		found = true

		// A concurrent callback already finished this task; the row lock
		// serialized us behind it. Nothing left to apply.
		if task.Status == model.TaskStatusSuccess {
			return nil
		}

		task.Status = model.TaskStatusSuccess
		task.LockedAt = sql.NullTime{}
		task.EndedAt = sql.NullTime{Time: timeNow(), Valid: true}
		task.ResultSummary = sql.NullString{String: resultSummary, Valid: true}
		if err := c.taskRepo.Update(ctx, task, opts...); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		c.log.InfoContext(ctx, "Task completed",
			logger.IntField("task_id", int(task.ID)),
			logger.IntField("data_source_id", int(task.DataSourceID)),
		)
		return nil
	})
	if err != nil {
		c.log.ErrorContext(ctx, "Failed to set task success",
			logger.ErrorField(err),
			logger.IntField("task_id", int(taskID)),
		)
		return false
	}
	if !found {
		c.log.WarnContext(ctx, "Completion callback for unknown task",
			logger.IntField("task_id", int(taskID)),
		)
	}
	return found
}
