package model

import (
	"database/sql"
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusSuccess    TaskStatus = "SUCCESS"
	TaskStatusFailed     TaskStatus = "FAILED"
)

type ScheduleType string

const (
	ScheduleTypeRegular  ScheduleType = "REGULAR"
	ScheduleTypeOnDemand ScheduleType = "ON_DEMAND"
)

type ScheduledTask struct {
	ID            uint         `gorm:"primaryKey"`
	DataSourceID  uint         `gorm:"not null;index"`
	ScheduleType  ScheduleType `gorm:"type:varchar(20);not null;default:'REGULAR'"`
	Status        TaskStatus   `gorm:"type:varchar(20);not null;index"`
	StartedAt     time.Time    `gorm:"not null"`
	LockedAt      sql.NullTime
	EndedAt       sql.NullTime
	Attempts      int            `gorm:"default:0"`
	ResultSummary sql.NullString `gorm:"type:text"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`

	DataSource DataSource `gorm:"foreignKey:DataSourceID;references:ID"`
}

func (ScheduledTask) TableName() string {
	return "scheduled_tasks"
}

type GetScheduledTaskParam struct {
	Statuses     []TaskStatus  `json:"statuses"`
	ScheduleType *ScheduleType `json:"schedule_type"`
	MinAttempts  *int          `json:"min_attempts"`
	DataSourceID *uint         `json:"data_source_id"`
	Limit        *int          `json:"limit"`
}
