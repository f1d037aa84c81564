package service

import (
	"mining-scheduler/config"
	"mining-scheduler/internal/repository"
	"mining-scheduler/internal/strategy"
	"mining-scheduler/pkg/httpclient"
	"mining-scheduler/pkg/logger"
)

type Service struct {
	SchedulerService  SchedulerService
	DispatcherService DispatcherService
	CallbackService   CallbackService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	httpClient httpclient.HTTPClient,
) *Service {
	payloadBuilders := strategy.NewPayloadBuilders(cfg, log)

	dispatcherService := NewDispatcherService(
		cfg,
		log,
		repo.ScheduledTaskRepo,
		repo.DataSourceRepo,
		repo.CompanyRepo,
		repo.UnitOfWork,
		httpClient,
		payloadBuilders,
	)
	schedulerService := NewSchedulerService(
		cfg,
		log,
		repo.ScheduledTaskRepo,
		repo.DataSourceRepo,
		repo.UnitOfWork,
		dispatcherService,
	)
	callbackService := NewCallbackService(log, repo.ScheduledTaskRepo, repo.UnitOfWork)

	return &Service{
		SchedulerService:  schedulerService,
		DispatcherService: dispatcherService,
		CallbackService:   callbackService,
	}
}
