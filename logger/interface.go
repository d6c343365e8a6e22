package logger

import "context"

// LoggerInterface is what components accept; *Logger implements it.
type LoggerInterface interface {
	Info(...any)

	Infow(string, ...any)
	Warnw(string, ...any)
	Errorw(string, ...any)
	Debugw(string, ...any)

	InfowCtx(context.Context, string, ...any)
	WarnwCtx(context.Context, string, ...any)
	ErrorwCtx(context.Context, string, ...any)

	Named(string) LoggerInterface
	SafeSync()
}

var _ LoggerInterface = (*Logger)(nil)
