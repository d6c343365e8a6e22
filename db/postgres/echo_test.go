package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestEchoFunc_LogsStatements(t *testing.T) {
	t.Parallel()

	log, logs := observed()
	echo := echoFunc(log)

	echo(context.Background(), tracelog.LogLevelInfo, "Query", map[string]any{"sql": "SELECT 1", "args": []any{}})
	echo(context.Background(), tracelog.LogLevelError, "Query", map[string]any{"sql": "SELEC 1", "err": "syntax error"})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
	assert.Equal(t, "info", entries[0].ContextMap()["pgx_level"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}
