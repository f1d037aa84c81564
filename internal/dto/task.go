package dto

// TriggerTasksRequest is the on-demand dispatch request body.
type TriggerTasksRequest struct {
	TaskIDs []uint `json:"task_ids" validate:"required,min=1,dive,gt=0"`
}

// CompleteTaskRequest is posted by a mining module when a task finishes.
type CompleteTaskRequest struct {
	ResultSummary string `json:"result_summary"`
}

type DataSourceStatusResponse struct {
	ID                 uint   `json:"id"`
	Name               string `json:"name"`
	SourceKind         string `json:"source_kind"`
	IsActive           bool   `json:"is_active"`
	DefaultFrequency   string `json:"default_frequency"`
	HealthStatus       string `json:"health_status"`
	LatestTaskID       *uint  `json:"latest_task_id,omitempty"`
	LatestTaskStatus   string `json:"latest_task_status,omitempty"`
	LatestTaskAttempts *int   `json:"latest_task_attempts,omitempty"`
}
