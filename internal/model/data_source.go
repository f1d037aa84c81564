package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

type DataSourceFrequency string

const (
	FrequencyDaily  DataSourceFrequency = "DAILY"
	FrequencyWeekly DataSourceFrequency = "WEEKLY"
	FrequencyCron   DataSourceFrequency = "CRON"
)

type DataSource struct {
	ID                 uint                `gorm:"primaryKey"`
	Name               string              `gorm:"type:varchar(255);uniqueIndex;not null"`
	SourceKind         string              `gorm:"type:varchar(50);not null"`
	IsActive           bool                `gorm:"default:true"`
	DefaultFrequency   DataSourceFrequency `gorm:"type:varchar(20);not null;default:'DAILY'"`
	CronPattern        sql.NullString      `gorm:"type:varchar(100)"`
	MaxRunTimeMinutes  int                 `gorm:"default:60"`
	InvocationEndpoint sql.NullString      `gorm:"type:varchar(512)"`
	ProtocolVersion    string              `gorm:"type:varchar(20)"`
	AdditionalParams   datatypes.JSON      `gorm:"type:jsonb"`
	HealthStatus       string              `gorm:"type:varchar(50)"`
	CreatedAt          time.Time           `gorm:"autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"autoUpdateTime"`

	Tasks []ScheduledTask `gorm:"foreignKey:DataSourceID"`
}

func (DataSource) TableName() string {
	return "data_sources"
}

// MaxRunTime is the longest a task of this source may stay PROCESSING
// before the next scheduling tick reclaims it.
func (d *DataSource) MaxRunTime() time.Duration {
	return time.Duration(d.MaxRunTimeMinutes) * time.Minute
}

type GetDataSourceParam struct {
	IDs      []uint `json:"ids"`
	IsActive *bool  `json:"is_active"`
	Limit    *int   `json:"limit"`
}
