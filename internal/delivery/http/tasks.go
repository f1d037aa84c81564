package http

import (
	"net/http"
	"strconv"

	"mining-scheduler/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupTasks(base *echo.Group) {
	v1 := base.Group("/v1")
	{
		v1.POST("/tasks/schedule", h.ScheduleTasks)
		v1.POST("/tasks/trigger", h.TriggerTasks)
		v1.POST("/tasks/:id/complete", h.CompleteTask)
		v1.GET("/datasources", h.GetDataSourceStatus)
	}
}

// ScheduleTasks runs one scheduling tick. External cron hits this endpoint.
// The tick itself never fails; per-entity errors are logged and skipped.
func (h *HttpAPIHandler) ScheduleTasks(c echo.Context) error {
	h.service.SchedulerService.ScheduleTasks(c.Request().Context())
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Scheduling tick completed", nil))
}

func (h *HttpAPIHandler) TriggerTasks(c echo.Context) error {
	var req dto.TriggerTasksRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	h.service.DispatcherService.TriggerDataSources(c.Request().Context(), req.TaskIDs)
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Dispatch completed", nil))
}

func (h *HttpAPIHandler) CompleteTask(c echo.Context) error {
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid task id"))
	}

	var req dto.CompleteTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	if ok := h.service.CallbackService.SetTaskStatusSuccess(c.Request().Context(), uint(taskID), req.ResultSummary); !ok {
		return c.JSON(http.StatusNotFound,
			dto.NewBaseResponse(http.StatusNotFound, "Task not found or not updated", nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("Task completed", nil))
}

func (h *HttpAPIHandler) GetDataSourceStatus(c echo.Context) error {
	statuses, err := h.service.SchedulerService.GetDataSourceStatus(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError,
			dto.NewBaseResponse(http.StatusInternalServerError, err.Error(), nil))
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("OK", statuses))
}
