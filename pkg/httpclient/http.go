package httpclient

import (
	"context"
	"net/http"
)

type BaseResponse struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// IsError reports whether the remote module answered with an HTTP error
// status. Transport failures surface as a non-nil error instead.
func (r *BaseResponse) IsError() bool {
	return r.StatusCode >= http.StatusBadRequest
}

type HTTPClient interface {
	Get(ctx context.Context, endpoint string, queryParams map[string]string, headers map[string]string, result interface{}) (*BaseResponse, error)
	Post(ctx context.Context, endpoint string, body interface{}, headers map[string]string, result interface{}) (*BaseResponse, error)
}
