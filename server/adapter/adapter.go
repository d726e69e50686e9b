package adapter

import (
	"context"
	"errors"

	"github.com/cjbester78/h2h/server/model"
)

var ErrNotSupported = errors.New("operation not supported by adapter")

// Connection is the per-invocation resource handle returned by Initialize.
// Executors are shared across concurrent pipeline runs, so all mutable state
// lives on the connection, never on the executor itself.
type Connection interface {
	Close() error
}

// AdapterExecutor is the protocol contract one (type, direction) pair
// implements. All calls are synchronous and blocking from the orchestrator's
// point of view; every method takes the adapter configuration or an open
// connection explicitly.
type AdapterExecutor interface {
	Type() model.AdapterType
	Direction() model.AdapterDirection

	// DiscoverFiles returns candidate file paths in a stable order. An empty
	// result is a normal outcome, not an error.
	DiscoverFiles(ctx context.Context, cfg model.AdapterConfig, executionId string) ([]string, error)

	// ProcessFiles returns exactly one result per input file, preserving
	// input order. Per-file failures are reported in the result, not as an
	// error return.
	ProcessFiles(ctx context.Context, cfg model.AdapterConfig, files []string, executionId string) ([]model.FileProcessingResult, error)

	// Initialize acquires the connection used by the transfer methods.
	Initialize(ctx context.Context, cfg model.AdapterConfig) (Connection, error)

	UploadFile(ctx context.Context, conn Connection, localPath string, remotePath string, executionId string) model.OperationResult
	DownloadFile(ctx context.Context, conn Connection, remotePath string, localPath string, executionId string) model.OperationResult
	ListRemoteFiles(ctx context.Context, conn Connection, directory string) ([]model.RemoteFileDescriptor, error)

	// Cleanup releases the connection. Best effort: failures are logged by
	// callers and never override the pipeline outcome.
	Cleanup(conn Connection) error

	// TestConnection verifies the configuration without side effects.
	TestConnection(ctx context.Context, cfg model.AdapterConfig) error
}
