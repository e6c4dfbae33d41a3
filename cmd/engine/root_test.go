package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkedva-engine/internal/engagement"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestBrandImportThenShow(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(t.TempDir(), "brand.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"brandVoice":{"tone":["warm"]},"masterPrompt":"Be kind."}`), 0o644))

	_, err := run(t, dir, "brand", "import", file)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "config.yml"))

	out, err := run(t, dir, "brand", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"masterPrompt": "Be kind."`)

	out, err = run(t, dir, "brand", "export")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{\n  \"brandVoice\""))
}

func TestBrandImportRejectsInvalid(t *testing.T) {
	file := filepath.Join(t.TempDir(), "brand.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"masterPrompt":"x"}`), 0o644))

	_, err := run(t, t.TempDir(), "brand", "import", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing brandVoice or masterPrompt fields.")
}

func TestExportLeadsNeedsData(t *testing.T) {
	_, err := run(t, t.TempDir(), "export", "leads")
	require.Error(t, err)
	assert.Equal(t, "no leads to export", err.Error())
}

func TestCrawlEngagementNeedsURL(t *testing.T) {
	_, err := run(t, t.TempDir(), "crawl-engagement")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--url")
}

func TestCrawlEngagementRejectsProfileURL(t *testing.T) {
	_, err := run(t, t.TempDir(), "crawl-engagement", "--url", "https://www.linkedin.com/in/jane/")
	require.Error(t, err)
	assert.ErrorIs(t, err, engagement.ErrNotAPost)
}
