package repository

import (
	"context"
	"errors"

	"mining-scheduler/internal/model"
	"mining-scheduler/pkg/utils"

	"gorm.io/gorm"
)

type ScheduledTaskRepository interface {
	Find(ctx context.Context, param *model.GetScheduledTaskParam, opts ...utils.DBOption) ([]model.ScheduledTask, error)
	GetLatest(ctx context.Context, dataSourceID uint, scheduleType model.ScheduleType, opts ...utils.DBOption) (*model.ScheduledTask, error)
	Create(ctx context.Context, task *model.ScheduledTask, opts ...utils.DBOption) error
	Update(ctx context.Context, task *model.ScheduledTask, opts ...utils.DBOption) error
	// FindByIDForUpdate selects the task with an exclusive row lock. It must
	// run inside a UnitOfWork transaction; the lock is released on commit or
	// rollback. A missing id yields (nil, nil).
	FindByIDForUpdate(ctx context.Context, id uint, opts ...utils.DBOption) (*model.ScheduledTask, error)
}

type scheduledTaskRepository struct {
	db *gorm.DB
}

func NewScheduledTaskRepository(db *gorm.DB) ScheduledTaskRepository {
	return &scheduledTaskRepository{db: db}
}

func (r *scheduledTaskRepository) Find(ctx context.Context, param *model.GetScheduledTaskParam, opts ...utils.DBOption) ([]model.ScheduledTask, error) {
	var tasks []model.ScheduledTask
	db := utils.ApplyOptions(r.db.WithContext(ctx), opts...).Model(&model.ScheduledTask{})

	if len(param.Statuses) > 0 {
		db = db.Where("status IN ?", param.Statuses)
	}
	if param.ScheduleType != nil {
		db = db.Where("schedule_type = ?", *param.ScheduleType)
	}
	if param.MinAttempts != nil {
		db = db.Where("attempts >= ?", *param.MinAttempts)
	}
	if param.DataSourceID != nil {
		db = db.Where("data_source_id = ?", *param.DataSourceID)
	}
	if param.Limit != nil {
		db = db.Limit(*param.Limit)
	}

	if err := db.Order("started_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetLatest returns the most recent task of the given schedule type for a
// data source, ordered by started_at. Nil when the source has no task yet.
func (r *scheduledTaskRepository) GetLatest(ctx context.Context, dataSourceID uint, scheduleType model.ScheduleType, opts ...utils.DBOption) (*model.ScheduledTask, error) {
	var task model.ScheduledTask
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("data_source_id = ? AND schedule_type = ?", dataSourceID, scheduleType).
		Order("started_at DESC").
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *scheduledTaskRepository) Create(ctx context.Context, task *model.ScheduledTask, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).Create(task).Error
}

func (r *scheduledTaskRepository) Update(ctx context.Context, task *model.ScheduledTask, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Model(&model.ScheduledTask{}).
		Where("id = ?", task.ID).
		Select("status", "started_at", "locked_at", "ended_at", "attempts", "result_summary").
		Updates(task).Error
}

func (r *scheduledTaskRepository) FindByIDForUpdate(ctx context.Context, id uint, opts ...utils.DBOption) (*model.ScheduledTask, error) {
	var task model.ScheduledTask
	opts = append(opts, utils.WithLockForUpdate())
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).First(&task, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}
