package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mining-scheduler/internal/service"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCallbackService struct {
	result      bool
	gotTaskID   uint
	gotSummary  string
	invocations int
}

func (s *stubCallbackService) SetTaskStatusSuccess(ctx context.Context, taskID uint, resultSummary string) bool {
	s.invocations++
	s.gotTaskID = taskID
	s.gotSummary = resultSummary
	return s.result
}

func newCompleteTaskContext(e *echo.Echo, id string, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestCompleteTask_ReturnsOKWhenTaskTransitions(t *testing.T) {
	e := echo.New()
	callback := &stubCallbackService{result: true}
	h := NewHttpAPIHandler(context.Background(), e, goValidator.New(), &service.Service{CallbackService: callback})

	c, rec := newCompleteTaskContext(e, "7", `{"result_summary":"120 companies mined"}`)
	require.NoError(t, h.CompleteTask(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), callback.gotTaskID)
	assert.Equal(t, "120 companies mined", callback.gotSummary)
}

func TestCompleteTask_ReturnsNotFoundWhenTaskDoesNotTransition(t *testing.T) {
	e := echo.New()
	callback := &stubCallbackService{result: false}
	h := NewHttpAPIHandler(context.Background(), e, goValidator.New(), &service.Service{CallbackService: callback})

	c, rec := newCompleteTaskContext(e, "42", `{"result_summary":""}`)
	require.NoError(t, h.CompleteTask(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, callback.invocations)
}

func TestCompleteTask_RejectsNonNumericID(t *testing.T) {
	e := echo.New()
	callback := &stubCallbackService{result: true}
	h := NewHttpAPIHandler(context.Background(), e, goValidator.New(), &service.Service{CallbackService: callback})

	c, rec := newCompleteTaskContext(e, "abc", `{"result_summary":"ok"}`)
	require.NoError(t, h.CompleteTask(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, callback.invocations)
}
