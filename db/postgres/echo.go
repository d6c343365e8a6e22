package postgres

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5/tracelog"

	"github.com/vortex-fintech/supvx2/logger"
)

// echoTracer logs statements through log.
func echoTracer(log logger.LoggerInterface) *tracelog.TraceLog {
	return &tracelog.TraceLog{
		Logger:   tracelog.LoggerFunc(echoFunc(log)),
		LogLevel: tracelog.LogLevelInfo,
	}
}

func echoFunc(log logger.LoggerInterface) func(context.Context, tracelog.LogLevel, string, map[string]any) {
	return func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		kv := make([]any, 0, 2*len(keys)+2)
		kv = append(kv, "pgx_level", level.String())
		for _, k := range keys {
			kv = append(kv, k, data[k])
		}

		switch level {
		case tracelog.LogLevelError:
			log.ErrorwCtx(ctx, msg, kv...)
		case tracelog.LogLevelWarn:
			log.WarnwCtx(ctx, msg, kv...)
		default:
			log.InfowCtx(ctx, msg, kv...)
		}
	}
}
