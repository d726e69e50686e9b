package adapter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/cjbester78/h2h/server/logger"
	"github.com/cjbester78/h2h/server/model"
	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

// SftpAdapter talks to a remote SFTP endpoint. Config keys: host, port,
// username, password, remoteDir, filePattern. Connections are opened per
// call or held on the Connection handle, never on the adapter itself.
type SftpAdapter struct {
	direction model.AdapterDirection
	workDir   string
}

var _ AdapterExecutor = new(SftpAdapter)

func NewSftpAdapter(direction model.AdapterDirection, workDir string) *SftpAdapter {
	return &SftpAdapter{direction: direction, workDir: workDir}
}

func (sa *SftpAdapter) Type() model.AdapterType {
	return model.ADAPTER_TYPE_SFTP
}

func (sa *SftpAdapter) Direction() model.AdapterDirection {
	return sa.direction
}

type sftpConnection struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	remoteDir  string
}

func (c *sftpConnection) Close() error {
	if c.sftpClient != nil {
		_ = c.sftpClient.Close()
	}
	if c.sshClient != nil {
		return c.sshClient.Close()
	}
	return nil
}

func dial(cfg model.AdapterConfig) (*sftpConnection, error) {
	host := cfg.Get("host")
	if host == "" {
		return nil, fmt.Errorf("sftp adapter: host not configured")
	}
	port := cfg.GetDefault("port", "22")
	sshConf := &ssh.ClientConfig{
		User: cfg.Get("username"),
		Auth: []ssh.AuthMethod{
			ssh.Password(cfg.Get("password")),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}
	sshClient, err := ssh.Dial("tcp", fmt.Sprintf("%s:%s", host, port), sshConf)
	if err != nil {
		return nil, fmt.Errorf("sftp adapter: ssh dial %s: %w", host, err)
	}
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("sftp adapter: open sftp session: %w", err)
	}
	return &sftpConnection{sshClient: sshClient, sftpClient: sftpClient}, nil
}

// DiscoverFiles lists the configured remote directory and returns matching
// remote paths in name order.
func (sa *SftpAdapter) DiscoverFiles(ctx context.Context, cfg model.AdapterConfig, executionId string) ([]string, error) {
	conn, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	remoteDir := cfg.GetDefault("remoteDir", ".")
	pattern := cfg.GetDefault("filePattern", "*")
	entries, err := conn.sftpClient.ReadDir(remoteDir)
	if err != nil {
		return nil, fmt.Errorf("sftp adapter: listing %s: %w", remoteDir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match, err := path.Match(pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("sftp adapter: bad filePattern %q: %w", pattern, err)
		}
		if match {
			files = append(files, path.Join(remoteDir, e.Name()))
		}
	}
	sort.Strings(files)
	logger.Debug("discovered remote files", zap.String("executionId", executionId), zap.Int("count", len(files)))
	return files, nil
}

// ProcessFiles downloads each remote file into the execution work directory.
// One result per input, input order preserved; a failed download is recorded
// on its result, the batch continues.
func (sa *SftpAdapter) ProcessFiles(ctx context.Context, cfg model.AdapterConfig, files []string, executionId string) ([]model.FileProcessingResult, error) {
	conn, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	stageDir := filepath.Join(sa.workDir, executionId)
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return nil, fmt.Errorf("sftp adapter: creating work dir: %w", err)
	}
	results := make([]model.FileProcessingResult, 0, len(files))
	for _, remote := range files {
		staged := filepath.Join(stageDir, path.Base(remote))
		n, err := pullFile(conn.sftpClient, remote, staged)
		if err != nil {
			results = append(results, model.FileProcessingResult{
				Status:   model.RESULT_FAILED,
				FilePath: remote,
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

func (sa *SftpAdapter) Initialize(ctx context.Context, cfg model.AdapterConfig) (Connection, error) {
	conn, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	remoteDir := cfg.GetDefault("remoteDir", ".")
	if err := conn.sftpClient.MkdirAll(remoteDir); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sftp adapter: creating remote dir %s: %w", remoteDir, err)
	}
	conn.remoteDir = remoteDir
	return conn, nil
}

func (sa *SftpAdapter) UploadFile(ctx context.Context, conn Connection, localPath string, remotePath string, executionId string) model.OperationResult {
	sc, ok := conn.(*sftpConnection)
	if !ok {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, Error: "invalid connection handle"}
	}
	// relative remote paths land under the configured remoteDir
	if sc.remoteDir != "" && !path.IsAbs(remotePath) {
		remotePath = path.Join(sc.remoteDir, remotePath)
	}
	in, err := os.Open(localPath)
	if err != nil {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, RemotePath: remotePath, Error: err.Error()}
	}
	defer in.Close()
	out, err := sc.sftpClient.Create(remotePath)
	if err != nil {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, RemotePath: remotePath, Error: err.Error()}
	}
	n, err := io.Copy(out, in)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, RemotePath: remotePath, Error: err.Error(), ByteCount: n}
	}
	return model.OperationResult{Status: model.RESULT_SUCCESS, LocalPath: localPath, RemotePath: remotePath, ByteCount: n}
}

func (sa *SftpAdapter) DownloadFile(ctx context.Context, conn Connection, remotePath string, localPath string, executionId string) model.OperationResult {
	sc, ok := conn.(*sftpConnection)
	if !ok {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, Error: "invalid connection handle"}
	}
	n, err := pullFile(sc.sftpClient, remotePath, localPath)
	if err != nil {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, RemotePath: remotePath, Error: err.Error()}
	}
	return model.OperationResult{Status: model.RESULT_SUCCESS, LocalPath: localPath, RemotePath: remotePath, ByteCount: n}
}

func (sa *SftpAdapter) ListRemoteFiles(ctx context.Context, conn Connection, directory string) ([]model.RemoteFileDescriptor, error) {
	sc, ok := conn.(*sftpConnection)
	if !ok {
		return nil, fmt.Errorf("sftp adapter: invalid connection handle")
	}
	entries, err := sc.sftpClient.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("sftp adapter: listing %s: %w", directory, err)
	}
	out := make([]model.RemoteFileDescriptor, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.RemoteFileDescriptor{
			Name:  e.Name(),
			Path:  path.Join(directory, e.Name()),
			Size:  e.Size(),
			IsDir: e.IsDir(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (sa *SftpAdapter) Cleanup(conn Connection) error {
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (sa *SftpAdapter) TestConnection(ctx context.Context, cfg model.AdapterConfig) error {
	conn, err := dial(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.sftpClient.Getwd()
	return err
}

func pullFile(client *sftp.Client, remotePath string, localPath string) (int64, error) {
	in, err := client.Open(remotePath)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	out, err := os.Create(localPath)
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
