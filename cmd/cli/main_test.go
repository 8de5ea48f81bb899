package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.hcl"), []byte(content), 0644))
	return dir
}

func TestRun_AnalyzeOnly(t *testing.T) {
	dir := writeConfig(t, `
		implementation "Cache" {}

		container {
			name = "App"
			register "Cache" {}
		}
	`)

	var out bytes.Buffer
	err := run(&out, []string{"-no-color", dir})

	require.NoError(t, err)
	assert.Contains(t, out.String(), `ok  container "App": 1 service(s)`)
}

func TestRun_EmitsContainers(t *testing.T) {
	dir := writeConfig(t, `
		implementation "Cache" {}

		container {
			name = "App"
			register "Cache" {}
		}
	`)
	outDir := t.TempDir()

	var out bytes.Buffer
	err := run(&out, []string{"-no-color", "-out", outDir, "-pkg", "di", dir})
	require.NoError(t, err)

	generated, err := os.ReadFile(filepath.Join(outDir, "app_container.go"))
	require.NoError(t, err)
	assert.Contains(t, string(generated), "package di")
	assert.Contains(t, string(generated), "func NewApp(")
}

func TestRun_ReportsFindings(t *testing.T) {
	dir := writeConfig(t, `
		implementation "Cache" {}

		container {
			name = "App"
			register "Cache" {}
			register "Cache" {}
		}
	`)

	var out bytes.Buffer
	err := run(&out, []string{"-no-color", dir})

	require.Error(t, err)
	assert.ErrorContains(t, err, "analysis failed with 1 error(s)")
	assert.Contains(t, out.String(), `fail container "App": 1 error(s)`)
	assert.Contains(t, out.String(), "set override = true")
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, nil)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}
