package repository

import (
	"mining-scheduler/config"
	"mining-scheduler/pkg/cache"
	"mining-scheduler/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	ScheduledTaskRepo ScheduledTaskRepository
	DataSourceRepo    DataSourceRepository
	CompanyRepo       CompanyRepository
	UnitOfWork        UnitOfWork
}

func NewRepository(cfg *config.Config, db *gorm.DB, inmemoryCache cache.Cache, log *logger.Logger) (*Repository, error) {
	return &Repository{
		ScheduledTaskRepo: NewScheduledTaskRepository(db),
		DataSourceRepo:    NewDataSourceRepository(db),
		CompanyRepo:       NewCompanyRepository(db, inmemoryCache, log),
		UnitOfWork:        NewUnitOfWork(db),
	}, nil
}
