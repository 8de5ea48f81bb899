package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/girder/internal/config"
	"github.com/vk/girder/internal/ctxlog"
	"github.com/vk/girder/internal/engine"
	"github.com/vk/girder/internal/hcladapter"
	"github.com/vk/girder/internal/source"
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

// HarnessResult holds the outcomes of an analysis test run.
type HarnessResult struct {
	Model     *config.Model
	Source    source.Model
	Results   []engine.Result
	LoadErr   error
	RunErr    error
	LogOutput string
}

// Context returns a background context carrying a debug logger that writes
// into the harness log buffer.
func Context(buf *SafeBuffer) context.Context {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	return ctxlog.WithLogger(context.Background(), logger)
}

// WriteFiles materializes the given relative-path -> content map under a
// fresh temporary directory and returns its root.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", ".tmp-girder-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}
	return tmpDir
}

// LoadModel writes the given HCL files to a temporary directory and runs the
// loader over it, returning the declaration model and semantic source model.
func LoadModel(t *testing.T, files map[string]string) (*config.Model, source.Model, error) {
	t.Helper()

	root := WriteFiles(t, files)
	var buf SafeBuffer
	loader := hcladapter.NewLoader()
	model, src, err := loader.Load(Context(&buf), root)
	return model, src, err
}

// RunAnalysisTest is the standard harness for end-to-end analysis tests: it
// writes the HCL files to a temporary directory, loads them, and runs the
// engine over the resulting model.
func RunAnalysisTest(t *testing.T, files map[string]string) *HarnessResult {
	t.Helper()

	root := WriteFiles(t, files)
	var buf SafeBuffer
	ctx := Context(&buf)

	result := &HarnessResult{}
	loader := hcladapter.NewLoader()
	result.Model, result.Source, result.LoadErr = loader.Load(ctx, root)
	if result.LoadErr != nil {
		result.LogOutput = buf.String()
		return result
	}

	eng := engine.New(result.Source)
	result.Results, result.RunErr = eng.Analyze(ctx, result.Model)
	result.LogOutput = buf.String()
	return result
}

// ResultFor returns the analysis result for the named configuration, failing
// the test when it is absent.
func ResultFor(t *testing.T, results []engine.Result, name string) engine.Result {
	t.Helper()
	for _, res := range results {
		if res.Config.Name == name {
			return res
		}
	}
	t.Fatalf("no analysis result for configuration %q", name)
	return engine.Result{}
}
