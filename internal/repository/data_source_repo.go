package repository

import (
	"context"
	"errors"

	"mining-scheduler/internal/model"
	"mining-scheduler/pkg/utils"

	"gorm.io/gorm"
)

type DataSourceRepository interface {
	Get(ctx context.Context, param *model.GetDataSourceParam, opts ...utils.DBOption) ([]model.DataSource, error)
	FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.DataSource, error)
}

type dataSourceRepository struct {
	db *gorm.DB
}

func NewDataSourceRepository(db *gorm.DB) DataSourceRepository {
	return &dataSourceRepository{db: db}
}

func (r *dataSourceRepository) Get(ctx context.Context, param *model.GetDataSourceParam, opts ...utils.DBOption) ([]model.DataSource, error) {
	var sources []model.DataSource
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Model(&model.DataSource{})

	if param.IsActive != nil {
		db = db.Where("is_active = ?", *param.IsActive)
	}
	if len(param.IDs) > 0 {
		db = db.Where("id IN ?", param.IDs)
	}
	if param.Limit != nil {
		db = db.Limit(*param.Limit)
	}

	if err := db.Order("id ASC").Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *dataSourceRepository) FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.DataSource, error) {
	var source model.DataSource
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).First(&source, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &source, nil
}
