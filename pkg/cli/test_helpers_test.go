package cli

import (
	"bytes"
	"context"
	"testing"
)

// isolatedEnv are the variables a developer machine may set that would
// change command behavior.
var isolatedEnv = []string{
	"RECDIFF_OUTPUT", "RECDIFF_LOG_LEVEL", "RECDIFF_KEYWORD", "RECDIFF_IGNORE", "RECDIFF_COLOR", "NO_COLOR",
	"LOG_LEVEL", "PAGE_SIZE", "MAX_PARALLEL", "STRICT_KEYS", "PATTERN_TIMEOUT", "DOWNLOAD_DIR",
	"TLS_CERT_FILE", "TLS_KEY_FILE", "KEY_ID", "SECRET", "ENDPOINT", "REGION",
	"GCS_KEY_FILE", "GCS_ENABLED", "AZURE_ACCOUNT_NAME", "AZURE_ACCOUNT_KEY",
}

// isolate points HOME at a temporary directory and clears the environment
// the CLI reads.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range isolatedEnv {
		t.Setenv(k, "")
	}
}

// execute runs the CLI in-process and returns its output and exit code.
func execute(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), newRootCmd(), args, &out, &errOut)
	return out.String(), errOut.String(), code
}
