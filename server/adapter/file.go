package adapter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cjbester78/h2h/server/logger"
	"github.com/cjbester78/h2h/server/model"
	"go.uber.org/zap"
)

// FileAdapter moves files on the local filesystem. Config keys:
// sourceDir (sender), targetDir (receiver), filePattern (optional glob).
type FileAdapter struct {
	direction model.AdapterDirection
	workDir   string
}

var _ AdapterExecutor = new(FileAdapter)

func NewFileAdapter(direction model.AdapterDirection, workDir string) *FileAdapter {
	return &FileAdapter{direction: direction, workDir: workDir}
}

func (fa *FileAdapter) Type() model.AdapterType {
	return model.ADAPTER_TYPE_FILE
}

func (fa *FileAdapter) Direction() model.AdapterDirection {
	return fa.direction
}

func (fa *FileAdapter) DiscoverFiles(ctx context.Context, cfg model.AdapterConfig, executionId string) ([]string, error) {
	sourceDir := cfg.Get("sourceDir")
	if sourceDir == "" {
		return nil, fmt.Errorf("file adapter: sourceDir not configured")
	}
	pattern := cfg.GetDefault("filePattern", "*")
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("file adapter: reading %s: %w", sourceDir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match, err := filepath.Match(pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("file adapter: bad filePattern %q: %w", pattern, err)
		}
		if match {
			files = append(files, filepath.Join(sourceDir, e.Name()))
		}
	}
	sort.Strings(files)
	logger.Debug("discovered files", zap.String("executionId", executionId), zap.Int("count", len(files)))
	return files, nil
}

// ProcessFiles stages each discovered file into the execution work
// directory. One result per input, input order preserved.
func (fa *FileAdapter) ProcessFiles(ctx context.Context, cfg model.AdapterConfig, files []string, executionId string) ([]model.FileProcessingResult, error) {
	stageDir := filepath.Join(fa.workDir, executionId)
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return nil, fmt.Errorf("file adapter: creating work dir: %w", err)
	}
	results := make([]model.FileProcessingResult, 0, len(files))
	for _, f := range files {
		staged := filepath.Join(stageDir, filepath.Base(f))
		n, err := copyFile(f, staged)
		if err != nil {
			results = append(results, model.FileProcessingResult{
				Status:   model.RESULT_FAILED,
				FilePath: f,
				Error:    err.Error(),
			})
			continue
		}
		results = append(results, model.FileProcessingResult{
			Status:    model.RESULT_SUCCESS,
			FilePath:  staged,
			ByteCount: n,
		})
	}
	return results, nil
}

type fileConnection struct {
	targetDir string
}

func (c *fileConnection) Close() error {
	return nil
}

func (fa *FileAdapter) Initialize(ctx context.Context, cfg model.AdapterConfig) (Connection, error) {
	targetDir := cfg.Get("targetDir")
	if targetDir == "" {
		return nil, fmt.Errorf("file adapter: targetDir not configured")
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("file adapter: creating target dir: %w", err)
	}
	return &fileConnection{targetDir: targetDir}, nil
}

func (fa *FileAdapter) UploadFile(ctx context.Context, conn Connection, localPath string, remotePath string, executionId string) model.OperationResult {
	fc, ok := conn.(*fileConnection)
	if !ok {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, Error: "invalid connection handle"}
	}
	dest := filepath.Join(fc.targetDir, remotePath)
	n, err := copyFile(localPath, dest)
	if err != nil {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, RemotePath: dest, Error: err.Error()}
	}
	return model.OperationResult{Status: model.RESULT_SUCCESS, LocalPath: localPath, RemotePath: dest, ByteCount: n}
}

func (fa *FileAdapter) DownloadFile(ctx context.Context, conn Connection, remotePath string, localPath string, executionId string) model.OperationResult {
	fc, ok := conn.(*fileConnection)
	if !ok {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, Error: "invalid connection handle"}
	}
	src := filepath.Join(fc.targetDir, remotePath)
	n, err := copyFile(src, localPath)
	if err != nil {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, RemotePath: src, Error: err.Error()}
	}
	return model.OperationResult{Status: model.RESULT_SUCCESS, LocalPath: localPath, RemotePath: src, ByteCount: n}
}

func (fa *FileAdapter) ListRemoteFiles(ctx context.Context, conn Connection, directory string) ([]model.RemoteFileDescriptor, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("file adapter: reading %s: %w", directory, err)
	}
	out := make([]model.RemoteFileDescriptor, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, model.RemoteFileDescriptor{
			Name:  e.Name(),
			Path:  filepath.Join(directory, e.Name()),
			Size:  info.Size(),
			IsDir: e.IsDir(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (fa *FileAdapter) Cleanup(conn Connection) error {
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (fa *FileAdapter) TestConnection(ctx context.Context, cfg model.AdapterConfig) error {
	dir := cfg.Get("sourceDir")
	if fa.direction == model.DIRECTION_RECEIVER {
		dir = cfg.Get("targetDir")
	}
	if dir == "" {
		return fmt.Errorf("file adapter: directory not configured")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("file adapter: %s is not a directory", dir)
	}
	return nil
}

func copyFile(src string, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, err
	}
	return n, out.Close()
}
