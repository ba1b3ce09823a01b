package bash

import (
	"context"
	"time"

	"go.uber.org/zap"
	"mvdan.cc/sh/v3/interp"
)

// NewLoggingExecMiddleware returns middleware that logs every external
// program the shell launches, with its working directory and duration.
func NewLoggingExecMiddleware(logger *zap.Logger) ExecMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			hc := interp.HandlerCtx(ctx)
			start := time.Now()

			err := next(ctx, args)

			logger.Debug("external program finished",
				zap.Strings("args", args),
				zap.String("dir", hc.Dir),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return err
		}
	}
}
