package config

import (
	"bytes"
	"context"
	"testing"

	"github.com/openagent/openagent/pkg/logger"
)

// testContext returns a context with a silent logger.
func testContext(t *testing.T) context.Context {
	t.Helper()
	return logger.ContextWithLogger(context.Background(), logger.NewLogger(logger.TestConfig()))
}

// captureLog returns a context whose logger writes warnings and above
// into the returned buffer, so tests can assert on emitted diagnostics.
func captureLog(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	log := logger.NewLogger(&logger.Config{
		Level:  logger.WarnLevel,
		Output: buf,
	})
	return logger.ContextWithLogger(context.Background(), log), buf
}

func strPtr(s string) *string { return &s }
