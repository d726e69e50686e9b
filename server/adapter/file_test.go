package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cjbester78/h2h/server/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileAdapterDiscover(t *testing.T) {
	source := t.TempDir()
	writeSource(t, source, "b.csv", "2")
	writeSource(t, source, "a.csv", "1")
	writeSource(t, source, "notes.txt", "skip me")
	require.NoError(t, os.Mkdir(filepath.Join(source, "sub"), 0o755))

	fa := NewFileAdapter(model.DIRECTION_SENDER, t.TempDir())
	cfg := model.AdapterConfig{"sourceDir": source, "filePattern": "*.csv"}
	files, err := fa.DiscoverFiles(context.Background(), cfg, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(source, "a.csv"),
		filepath.Join(source, "b.csv"),
	}, files)
}

func TestFileAdapterDiscoverMissingSourceDir(t *testing.T) {
	fa := NewFileAdapter(model.DIRECTION_SENDER, t.TempDir())
	_, err := fa.DiscoverFiles(context.Background(), model.AdapterConfig{}, "exec-1")
	assert.Error(t, err)

	cfg := model.AdapterConfig{"sourceDir": filepath.Join(t.TempDir(), "gone")}
	_, err = fa.DiscoverFiles(context.Background(), cfg, "exec-1")
	assert.Error(t, err)
}

func TestFileAdapterProcessStagesFiles(t *testing.T) {
	source := t.TempDir()
	workDir := t.TempDir()
	good := writeSource(t, source, "a.txt", "hello")
	missing := filepath.Join(source, "vanished.txt")

	fa := NewFileAdapter(model.DIRECTION_SENDER, workDir)
	results, err := fa.ProcessFiles(context.Background(), model.AdapterConfig{}, []string{good, missing}, "exec-1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, model.RESULT_SUCCESS, results[0].Status)
	assert.Equal(t, int64(5), results[0].ByteCount)
	assert.Equal(t, filepath.Join(workDir, "exec-1", "a.txt"), results[0].FilePath)
	staged, readErr := os.ReadFile(results[0].FilePath)
	require.NoError(t, readErr)
	assert.Equal(t, "hello", string(staged))

	assert.Equal(t, model.RESULT_FAILED, results[1].Status)
	assert.Equal(t, missing, results[1].FilePath)
	assert.NotEmpty(t, results[1].Error)
}

func TestFileAdapterUploadAndDownload(t *testing.T) {
	target := t.TempDir()
	local := writeSource(t, t.TempDir(), "report.txt", "payload")

	fa := NewFileAdapter(model.DIRECTION_RECEIVER, t.TempDir())
	conn, err := fa.Initialize(context.Background(), model.AdapterConfig{"targetDir": target})
	require.NoError(t, err)
	defer fa.Cleanup(conn)

	up := fa.UploadFile(context.Background(), conn, local, "report.txt", "exec-1")
	assert.Equal(t, model.RESULT_SUCCESS, up.Status)
	assert.Equal(t, int64(7), up.ByteCount)

	listed, err := fa.ListRemoteFiles(context.Background(), conn, target)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "report.txt", listed[0].Name)
	assert.Equal(t, int64(7), listed[0].Size)

	back := filepath.Join(t.TempDir(), "back.txt")
	down := fa.DownloadFile(context.Background(), conn, "report.txt", back, "exec-1")
	assert.Equal(t, model.RESULT_SUCCESS, down.Status)
	content, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
}

func TestFileAdapterInitializeCreatesTargetDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out", "nested")
	fa := NewFileAdapter(model.DIRECTION_RECEIVER, t.TempDir())

	conn, err := fa.Initialize(context.Background(), model.AdapterConfig{"targetDir": target})
	require.NoError(t, err)
	defer fa.Cleanup(conn)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = fa.Initialize(context.Background(), model.AdapterConfig{})
	assert.Error(t, err)
}

func TestFileAdapterTestConnection(t *testing.T) {
	dir := t.TempDir()
	sender := NewFileAdapter(model.DIRECTION_SENDER, t.TempDir())
	assert.NoError(t, sender.TestConnection(context.Background(), model.AdapterConfig{"sourceDir": dir}))
	assert.Error(t, sender.TestConnection(context.Background(), model.AdapterConfig{}))

	receiver := NewFileAdapter(model.DIRECTION_RECEIVER, t.TempDir())
	assert.NoError(t, receiver.TestConnection(context.Background(), model.AdapterConfig{"targetDir": dir}))
	assert.Error(t, receiver.TestConnection(context.Background(), model.AdapterConfig{"targetDir": filepath.Join(dir, "gone")}))
}
