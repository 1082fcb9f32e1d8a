// Package testutil provides shared helpers for integration tests: a
// thread-safe log buffer and a harness that runs a suite from in-memory HCL
// files.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/preflight/internal/app"
	"github.com/vk/preflight/internal/hclloader"
	"github.com/vk/preflight/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// RunSuiteTest provides a standardized harness for running integration
// tests: it writes the given HCL files into a temporary suite directory,
// builds the app with the provided check modules, runs one sweep and
// captures the outcome.
func RunSuiteTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunSuiteTestWithContext(context.Background(), t, files, modules...)
}

// RunSuiteTestWithContext is RunSuiteTest with a caller-provided context.
func RunSuiteTestWithContext(ctx context.Context, t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	suiteDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(suiteDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	cfg, err := app.NewConfig(app.Config{
		SuitePath: suiteDir,
		LogLevel:  "debug",
		LogFormat: "text",
		Workers:   4,
	})
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, cfg, hclloader.NewLoader(), modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	runErr := testApp.Run(ctx, cfg)
	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}
