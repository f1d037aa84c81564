package service

import (
	"context"
	"database/sql"
	"fmt"

	"mining-scheduler/config"
	"mining-scheduler/internal/dto"
	"mining-scheduler/internal/model"
	"mining-scheduler/internal/repository"
	"mining-scheduler/pkg/logger"
	"mining-scheduler/pkg/utils"
)

// timeNow is swapped in tests to pin the scheduling clock.
var timeNow = utils.TimeNowUTC

type SchedulerService interface {
	// ScheduleTasks runs one scheduling tick: fail exhausted tasks, revisit
	// on-demand tasks, walk every active data source, then dispatch whatever
	// became ready. It always completes; per-entity failures are logged and
	// skipped.
	ScheduleTasks(ctx context.Context)
	GetDataSourceStatus(ctx context.Context) ([]dto.DataSourceStatusResponse, error)
}

type schedulerService struct {
	cfg            *config.Config
	log            *logger.Logger
	taskRepo       repository.ScheduledTaskRepository
	dataSourceRepo repository.DataSourceRepository
	uow            repository.UnitOfWork
	dispatcher     DispatcherService
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	taskRepo repository.ScheduledTaskRepository,
	dataSourceRepo repository.DataSourceRepository,
	uow repository.UnitOfWork,
	dispatcher DispatcherService,
) SchedulerService {
	return &schedulerService{
		cfg:            cfg,
		log:            log,
		taskRepo:       taskRepo,
		dataSourceRepo: dataSourceRepo,
		uow:            uow,
		dispatcher:     dispatcher,
	}
}

func (s *schedulerService) ScheduleTasks(ctx context.Context) {
	s.log.InfoContext(ctx, "Start scheduling tick")

	s.sweepFailedTasks(ctx)

	dispatchIDs := s.sweepOnDemandTasks(ctx)
	dispatchIDs = append(dispatchIDs, s.sweepDataSources(ctx)...)

	if len(dispatchIDs) > 0 {
		s.dispatcher.TriggerDataSources(ctx, dispatchIDs)
	}

	s.log.InfoContext(ctx, "Scheduling tick completed",
		logger.IntField("dispatched_tasks", len(dispatchIDs)),
	)
}

// sweepFailedTasks force-fails every PENDING/PROCESSING task that exhausted
// its attempts, regardless of timeout state.
func (s *schedulerService) sweepFailedTasks(ctx context.Context) {
	tasks, err := s.taskRepo.Find(ctx, &model.GetScheduledTaskParam{
		Statuses:    []model.TaskStatus{model.TaskStatusPending, model.TaskStatusProcessing},
		MinAttempts: utils.ToPointer(s.cfg.Scheduler.MaxAttempts),
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to find exhausted tasks", logger.ErrorField(err))
		return
	}

	for _, task := range tasks {
		if !utils.ShouldContinue(ctx, s.log) {
			return
		}
		if err := s.failTask(ctx, task.ID); err != nil {
			s.log.ErrorContext(ctx, "Failed to fail task",
				logger.ErrorField(err),
				logger.IntField("task_id", int(task.ID)),
			)
		}
	}
}

// sweepOnDemandTasks revisits manually triggered tasks still in flight and
// returns the ids that must be re-dispatched.
func (s *schedulerService) sweepOnDemandTasks(ctx context.Context) []uint {
	tasks, err := s.taskRepo.Find(ctx, &model.GetScheduledTaskParam{
		Statuses:     []model.TaskStatus{model.TaskStatusPending, model.TaskStatusProcessing},
		ScheduleType: utils.ToPointer(model.ScheduleTypeOnDemand),
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to find on-demand tasks", logger.ErrorField(err))
		return nil
	}

	var dispatchIDs []uint
	for _, task := range tasks {
		if !utils.ShouldContinue(ctx, s.log) {
			return dispatchIDs
		}

		task := task
		id, err := s.handleTask(ctx, &task)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to handle on-demand task",
				logger.ErrorField(err),
				logger.IntField("task_id", int(task.ID)),
			)
			continue
		}
		if id != 0 {
			dispatchIDs = append(dispatchIDs, id)
		}
	}
	return dispatchIDs
}

// handleTask applies the decision table to one in-flight task.
func (s *schedulerService) handleTask(ctx context.Context, task *model.ScheduledTask) (uint, error) {
	source, err := s.dataSourceRepo.FindByID(ctx, task.DataSourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to find data source: %w", err)
	}
	if source == nil {
		s.log.WarnContext(ctx, "Task has no data source, skipping",
			logger.IntField("task_id", int(task.ID)),
			logger.IntField("data_source_id", int(task.DataSourceID)),
		)
		return 0, nil
	}

	switch action := Decide(task, source, timeNow(), s.cfg.Scheduler.MaxAttempts); action {
	case ActionFail:
		return 0, s.failTask(ctx, task.ID)
	case ActionReschedule:
		if err := s.resetTask(ctx, task.ID); err != nil {
			return 0, err
		}
		return task.ID, nil
	default:
		return 0, nil
	}
}

// sweepDataSources walks every active data source and decides, from its
// latest regular task, whether a new collection cycle is due.
func (s *schedulerService) sweepDataSources(ctx context.Context) []uint {
	sources, err := s.dataSourceRepo.Get(ctx, &model.GetDataSourceParam{
		IsActive: utils.ToPointer(true),
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to find active data sources", logger.ErrorField(err))
		return nil
	}

	var dispatchIDs []uint
	for _, source := range sources {
		if !utils.ShouldContinue(ctx, s.log) {
			return dispatchIDs
		}

		source := source
		id, err := s.handleDataSource(ctx, &source)
		if err != nil {
			s.log.ErrorContextWithAlert(ctx, "Failed to schedule data source",
				logger.ErrorField(err),
				logger.IntField("data_source_id", int(source.ID)),
				logger.StringField("data_source_name", source.Name),
			)
			continue
		}
		if id != 0 {
			dispatchIDs = append(dispatchIDs, id)
		}
	}
	return dispatchIDs
}

func (s *schedulerService) handleDataSource(ctx context.Context, source *model.DataSource) (uint, error) {
	latest, err := s.taskRepo.GetLatest(ctx, source.ID, model.ScheduleTypeRegular)
	if err != nil {
		return 0, fmt.Errorf("failed to find latest task: %w", err)
	}

	action := Decide(latest, source, timeNow(), s.cfg.Scheduler.MaxAttempts)
	s.log.DebugContext(ctx, "Data source decision",
		logger.IntField("data_source_id", int(source.ID)),
		logger.StringField("action", action.String()),
	)

	switch action {
	case ActionCreate:
		task := &model.ScheduledTask{
			DataSourceID: source.ID,
			ScheduleType: model.ScheduleTypeRegular,
			Status:       model.TaskStatusPending,
			StartedAt:    timeNow(),
		}
		if err := s.taskRepo.Create(ctx, task); err != nil {
			return 0, fmt.Errorf("failed to create task: %w", err)
		}
		return task.ID, nil
	case ActionReschedule:
		if latest.Status == model.TaskStatusProcessing {
			if err := s.resetTask(ctx, latest.ID); err != nil {
				return 0, err
			}
		}
		return latest.ID, nil
	case ActionFail:
		return 0, s.failTask(ctx, latest.ID)
	default:
		return 0, nil
	}
}

// GetDataSourceStatus is the operator read surface: every data source with
// its latest regular task.
func (s *schedulerService) GetDataSourceStatus(ctx context.Context) ([]dto.DataSourceStatusResponse, error) {
	sources, err := s.dataSourceRepo.Get(ctx, &model.GetDataSourceParam{})
	if err != nil {
		return nil, fmt.Errorf("failed to find data sources: %w", err)
	}

	statuses := make([]dto.DataSourceStatusResponse, 0, len(sources))
	for _, source := range sources {
		status := dto.DataSourceStatusResponse{
			ID:               source.ID,
			Name:             source.Name,
			SourceKind:       source.SourceKind,
			IsActive:         source.IsActive,
			DefaultFrequency: string(source.DefaultFrequency),
			HealthStatus:     source.HealthStatus,
		}
		latest, err := s.taskRepo.GetLatest(ctx, source.ID, model.ScheduleTypeRegular)
		if err != nil {
			return nil, fmt.Errorf("failed to find latest task: %w", err)
		}
		if latest != nil {
			status.LatestTaskID = utils.ToPointer(latest.ID)
			status.LatestTaskStatus = string(latest.Status)
			status.LatestTaskAttempts = utils.ToPointer(latest.Attempts)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// resetTask releases a task back to PENDING under the row lock so a
// concurrent tick cannot race the same transition.
func (s *schedulerService) resetTask(ctx context.Context, taskID uint) error {
	return s.uow.Run(func(opts ...utils.DBOption) error {
		task, err := s.taskRepo.FindByIDForUpdate(ctx, taskID, opts...)
		if err != nil {
			return fmt.Errorf("failed to lock task: %w", err)
		}
		if task == nil {
			s.log.WarnContext(ctx, "Task disappeared before reset", logger.IntField("task_id", int(taskID)))
			return nil
		}

		task.Status = model.TaskStatusPending
		task.LockedAt = sql.NullTime{}
		if err := s.taskRepo.Update(ctx, task, opts...); err != nil {
			return fmt.Errorf("failed to reset task: %w", err)
		}

		s.log.InfoContext(ctx, "Task rescheduled",
			logger.IntField("task_id", int(task.ID)),
			logger.IntField("attempts", task.Attempts),
		)
		return nil
	})
}

// failTask is terminal: once attempts are exhausted the task never re-enters
// PROCESSING through normal flow.
func (s *schedulerService) failTask(ctx context.Context, taskID uint) error {
	return s.uow.Run(func(opts ...utils.DBOption) error {
		task, err := s.taskRepo.FindByIDForUpdate(ctx, taskID, opts...)
		if err != nil {
			return fmt.Errorf("failed to lock task: %w", err)
		}
		if task == nil {
			s.log.WarnContext(ctx, "Task disappeared before fail", logger.IntField("task_id", int(taskID)))
			return nil
		}
		if task.Status == model.TaskStatusSuccess || task.Status == model.TaskStatusFailed {
			return nil
		}

		task.Status = model.TaskStatusFailed
		task.LockedAt = sql.NullTime{}
		task.EndedAt = sql.NullTime{Time: timeNow(), Valid: true}
		if err := s.taskRepo.Update(ctx, task, opts...); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		s.log.ErrorContextWithAlert(ctx, "Task failed after max attempts",
			logger.IntField("task_id", int(task.ID)),
			logger.IntField("data_source_id", int(task.DataSourceID)),
			logger.IntField("attempts", task.Attempts),
		)
		return nil
	})
}
