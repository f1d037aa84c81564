package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mining-scheduler/config"
	"mining-scheduler/internal/model"
	"mining-scheduler/internal/repository"
	"mining-scheduler/internal/strategy"
	"mining-scheduler/pkg/httpclient"
	"mining-scheduler/pkg/logger"
	"mining-scheduler/pkg/utils"

	"golang.org/x/sync/errgroup"
)

type DispatcherService interface {
	// TriggerDataSources moves each task to PROCESSING and invokes its
	// mining module concurrently. Every task is isolated: a network error,
	// HTTP error, or panic on one dispatch never touches its siblings, and
	// the call returns only after all dispatches settle.
	TriggerDataSources(ctx context.Context, taskIDs []uint)
}

type dispatcherService struct {
	cfg             *config.Config
	log             *logger.Logger
	taskRepo        repository.ScheduledTaskRepository
	dataSourceRepo  repository.DataSourceRepository
	companyRepo     repository.CompanyRepository
	uow             repository.UnitOfWork
	httpClient      httpclient.HTTPClient
	payloadBuilders map[strategy.SourceKind]strategy.PayloadBuilder
}

func NewDispatcherService(
	cfg *config.Config,
	log *logger.Logger,
	taskRepo repository.ScheduledTaskRepository,
	dataSourceRepo repository.DataSourceRepository,
	companyRepo repository.CompanyRepository,
	uow repository.UnitOfWork,
	httpClient httpclient.HTTPClient,
	payloadBuilders map[strategy.SourceKind]strategy.PayloadBuilder,
) DispatcherService {
	return &dispatcherService{
		cfg:             cfg,
		log:             log,
		taskRepo:        taskRepo,
		dataSourceRepo:  dataSourceRepo,
		companyRepo:     companyRepo,
		uow:             uow,
		httpClient:      httpClient,
		payloadBuilders: payloadBuilders,
	}
}

func (d *dispatcherService) TriggerDataSources(ctx context.Context, taskIDs []uint) {
	if len(taskIDs) == 0 {
		return
	}

	d.log.InfoContext(ctx, "Dispatching mining triggers",
		logger.IntField("task_count", len(taskIDs)),
		logger.IntField("max_concurrency", d.cfg.Scheduler.MaxConcurrency),
	)

	g := new(errgroup.Group)
	if d.cfg.Scheduler.MaxConcurrency > 0 {
		g.SetLimit(d.cfg.Scheduler.MaxConcurrency)
	}

	for _, taskID := range taskIDs {
		taskID := taskID
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					d.log.ErrorContext(ctx, "Panic during dispatch",
						logger.Field("panic", r),
						logger.IntField("task_id", int(taskID)),
					)
				}
			}()
			d.dispatchTask(ctx, taskID)
			return nil
		})
	}

	_ = g.Wait()
}

// dispatchTask performs one dispatch cycle. All failure modes are terminal
// for this cycle only: the task stays PROCESSING and the timeout sweep
// reclaims it. A dispatch the module might have received is never silently
// retried here.
func (d *dispatcherService) dispatchTask(ctx context.Context, taskID uint) {
	task, err := d.scheduleTask(ctx, taskID)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to schedule task for dispatch",
			logger.ErrorField(err),
			logger.IntField("task_id", int(taskID)),
		)
		return
	}
	if task == nil {
		return
	}

	source, err := d.dataSourceRepo.FindByID(ctx, task.DataSourceID)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to find data source",
			logger.ErrorField(err),
			logger.IntField("task_id", int(task.ID)),
			logger.IntField("data_source_id", int(task.DataSourceID)),
		)
		return
	}
	if source == nil {
		d.log.WarnContext(ctx, "Data source not found, skipping dispatch",
			logger.IntField("task_id", int(task.ID)),
			logger.IntField("data_source_id", int(task.DataSourceID)),
		)
		return
	}
	if !source.InvocationEndpoint.Valid || source.InvocationEndpoint.String == "" {
		d.log.WarnContext(ctx, "Data source has no invocation endpoint, skipping dispatch",
			logger.IntField("task_id", int(task.ID)),
			logger.StringField("data_source_name", source.Name),
		)
		return
	}

	payload, err := d.buildPayload(ctx, source)
	if err != nil {
		d.log.WarnContext(ctx, "Failed to build dispatch payload, skipping dispatch",
			logger.ErrorField(err),
			logger.IntField("task_id", int(task.ID)),
			logger.StringField("data_source_name", source.Name),
		)
		return
	}

	endpoint := strings.TrimRight(source.InvocationEndpoint.String, "/") + d.cfg.Mining.TriggerPath
	headers := map[string]string{}
	if source.ProtocolVersion != "" {
		headers[d.cfg.Mining.ProtocolHeader] = source.ProtocolVersion
	}

	var resp *httpclient.BaseResponse
	if payload == nil {
		resp, err = d.httpClient.Get(ctx, endpoint, nil, headers, nil)
	} else {
		resp, err = d.httpClient.Post(ctx, endpoint, payload, headers, nil)
	}
	if err != nil {
		d.log.ErrorContext(ctx, "Mining trigger network error",
			logger.ErrorField(err),
			logger.IntField("task_id", int(task.ID)),
			logger.StringField("endpoint", endpoint),
		)
		return
	}
	if resp.IsError() {
		d.log.ErrorContext(ctx, "Mining trigger rejected",
			logger.IntField("status_code", resp.StatusCode),
			logger.IntField("task_id", int(task.ID)),
			logger.StringField("endpoint", endpoint),
		)
		return
	}

	d.log.InfoContext(ctx, "Mining trigger dispatched",
		logger.IntField("task_id", int(task.ID)),
		logger.StringField("data_source_name", source.Name),
		logger.IntField("attempts", task.Attempts),
	)
}

// scheduleTask transitions PENDING -> PROCESSING under the row lock and
// commits before any network I/O. Returns nil when the task id is unknown or
// the task is no longer pending, so a concurrent trigger on the same id
// dispatches at most once.
func (d *dispatcherService) scheduleTask(ctx context.Context, taskID uint) (*model.ScheduledTask, error) {
	var task *model.ScheduledTask
	err := d.uow.Run(func(opts ...utils.DBOption) error {
		locked, err := d.taskRepo.FindByIDForUpdate(ctx, taskID, opts...)
		if err != nil {
			return fmt.Errorf("failed to lock task: %w", err)
		}
		if locked == nil {
			d.log.WarnContext(ctx, "Task not found, skipping dispatch",
				logger.IntField("task_id", int(taskID)),
			)
			return nil
		}
		if locked.Status != model.TaskStatusPending {
			d.log.WarnContext(ctx, "Task is not pending, skipping dispatch",
				logger.IntField("task_id", int(taskID)),
				logger.StringField("status", string(locked.Status)),
			)
			return nil
		}

		locked.Status = model.TaskStatusProcessing
		locked.LockedAt = sql.NullTime{Time: timeNow(), Valid: true}
		locked.Attempts++
		if err := d.taskRepo.Update(ctx, locked, opts...); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		task = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (d *dispatcherService) buildPayload(ctx context.Context, source *model.DataSource) (interface{}, error) {
	builder, ok := d.payloadBuilders[strategy.SourceKind(source.SourceKind)]
	if !ok {
		// GET-only source; nothing to build.
		return nil, nil
	}

	companies, err := d.companyRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load company identifiers: %w", err)
	}

	return builder.Build(ctx, source, companies)
}
