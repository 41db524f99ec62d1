package testutil

import (
	"testing"

	"github.com/mansoorceksport/fitcoach/internal/logger"
)

// Logger returns a development logger, or a no-op one unless -v is set.
func Logger(t *testing.T) *logger.Logger {
	t.Helper()
	if !testing.Verbose() {
		return logger.Nop()
	}
	log, err := logger.New(logger.Options{Mode: "development", Level: "debug"})
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	return log
}
