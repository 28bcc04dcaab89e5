package orchestrator

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Workflow limits. Each can be overridden through a RELEASEPIPE_* variable;
// test binaries get short defaults.
var (
	// DefaultWorkflowTimeout bounds a dry run.
	DefaultWorkflowTimeout = envOrDefault("RELEASEPIPE_WORKFLOW_TIMEOUT", time.ParseDuration, 60*time.Minute, 5*time.Second)
	// ReleaseWorkflowTimeout bounds a real release, publishing included.
	ReleaseWorkflowTimeout = envOrDefault("RELEASEPIPE_RELEASE_TIMEOUT", time.ParseDuration, 120*time.Minute, 10*time.Second)
	// RollbackTimeout bounds compensation once a step failed.
	RollbackTimeout = envOrDefault("RELEASEPIPE_ROLLBACK_TIMEOUT", time.ParseDuration, 10*time.Minute, 100*time.Millisecond)
	// DefaultRetryCount is how many times a retryable step is retried.
	DefaultRetryCount = envOrDefault("RELEASEPIPE_RETRY_COUNT", parseCount, uint64(3), uint64(1))
	// DefaultRetryDelay is the first backoff interval.
	DefaultRetryDelay = envOrDefault("RELEASEPIPE_RETRY_DELAY", time.ParseDuration, time.Second, 100*time.Millisecond)
)

func parseCount(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

func isTestEnvironment() bool {
	for _, arg := range os.Args {
		if strings.HasSuffix(arg, ".test") || strings.HasPrefix(arg, "-test.") {
			return true
		}
	}
	return os.Getenv("TEST_MODE") == "true"
}

func envOrDefault[T any](name string, parse func(string) (T, error), prod, test T) T {
	if raw := os.Getenv(name); raw != "" {
		if v, err := parse(raw); err == nil {
			return v
		}
	}
	if isTestEnvironment() {
		return test
	}
	return prod
}
