package repository

import (
	"context"
	"fmt"

	"mining-scheduler/internal/model"
	"mining-scheduler/pkg/cache"
	"mining-scheduler/pkg/common"
	"mining-scheduler/pkg/logger"

	"gorm.io/gorm"
)

// CompanyRepository is the read-only identifier provider consumed when
// building dispatch payloads. Lookups are cached; the company list changes
// rarely compared to how often scheduling ticks run.
type CompanyRepository interface {
	GetAll(ctx context.Context) ([]model.Company, error)
}

type companyRepository struct {
	db    *gorm.DB
	cache cache.Cache
	log   *logger.Logger
}

func NewCompanyRepository(db *gorm.DB, inmemoryCache cache.Cache, log *logger.Logger) CompanyRepository {
	return &companyRepository{db: db, cache: inmemoryCache, log: log}
}

func (r *companyRepository) GetAll(ctx context.Context) ([]model.Company, error) {
	cacheKey := fmt.Sprintf(common.KEY_COMPANY_IDENTIFIERS, "all")
	if cached, ok := r.cache.Get(cacheKey); ok {
		if companies, ok := cached.([]model.Company); ok {
			return companies, nil
		}
	}

	var companies []model.Company
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&companies).Error; err != nil {
		return nil, err
	}

	r.cache.Set(cacheKey, companies, 0)
	return companies, nil
}
