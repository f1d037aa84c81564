package utils

import (
	"context"
	"runtime"
	"strings"

	"mining-scheduler/pkg/logger"
)

func ToPointer[T any](value T) *T {
	return &value
}

// ShouldContinue reports whether the context is still live, logging the
// calling function when it is not.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		pc, _, _, ok := runtime.Caller(1)
		funcName := "unknown"
		if ok {
			fn := runtime.FuncForPC(pc)
			if fn != nil {
				parts := strings.Split(fn.Name(), "/")
				funcName = parts[len(parts)-1]
			}
		}

		log.Warn("Context cancelled",
			logger.StringField("caller", funcName),
		)
		return false
	default:
		return true
	}
}
