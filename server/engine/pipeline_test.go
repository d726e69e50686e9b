package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cjbester78/h2h/server/adapter"
	"github.com/cjbester78/h2h/server/diag"
	"github.com/cjbester78/h2h/server/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConnection struct {
	closed int
}

func (c *stubConnection) Close() error {
	c.closed++
	return nil
}

// stubAdapter scripts every stage of the pipeline for a test case.
type stubAdapter struct {
	direction      model.AdapterDirection
	discovered     []string
	discoverErr    error
	processErr     error
	failProcessing map[string]bool
	initErr        error
	failUpload     map[string]bool
	conn           *stubConnection
	initCalls      int
	cleanupCalls   int
	uploads        []string
}

func (s *stubAdapter) Type() model.AdapterType { return model.ADAPTER_TYPE_FILE }

func (s *stubAdapter) Direction() model.AdapterDirection { return s.direction }

func (s *stubAdapter) DiscoverFiles(ctx context.Context, cfg model.AdapterConfig, executionId string) ([]string, error) {
	return s.discovered, s.discoverErr
}

func (s *stubAdapter) ProcessFiles(ctx context.Context, cfg model.AdapterConfig, files []string, executionId string) ([]model.FileProcessingResult, error) {
	if s.processErr != nil {
		return nil, s.processErr
	}
	results := make([]model.FileProcessingResult, 0, len(files))
	for _, f := range files {
		if s.failProcessing[f] {
			results = append(results, model.FileProcessingResult{Status: model.RESULT_FAILED, FilePath: f, Error: "processing failed"})
		} else {
			results = append(results, model.FileProcessingResult{Status: model.RESULT_SUCCESS, FilePath: f, ByteCount: 10})
		}
	}
	return results, nil
}

func (s *stubAdapter) Initialize(ctx context.Context, cfg model.AdapterConfig) (adapter.Connection, error) {
	s.initCalls++
	if s.initErr != nil {
		return nil, s.initErr
	}
	s.conn = &stubConnection{}
	return s.conn, nil
}

func (s *stubAdapter) UploadFile(ctx context.Context, conn adapter.Connection, localPath string, remotePath string, executionId string) model.OperationResult {
	s.uploads = append(s.uploads, localPath)
	if s.failUpload[localPath] {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, Error: "upload failed"}
	}
	return model.OperationResult{Status: model.RESULT_SUCCESS, LocalPath: localPath, RemotePath: remotePath, ByteCount: 10}
}

func (s *stubAdapter) DownloadFile(ctx context.Context, conn adapter.Connection, remotePath string, localPath string, executionId string) model.OperationResult {
	return model.OperationResult{Status: model.RESULT_SUCCESS}
}

func (s *stubAdapter) ListRemoteFiles(ctx context.Context, conn adapter.Connection, directory string) ([]model.RemoteFileDescriptor, error) {
	return nil, nil
}

func (s *stubAdapter) Cleanup(conn adapter.Connection) error {
	s.cleanupCalls++
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (s *stubAdapter) TestConnection(ctx context.Context, cfg model.AdapterConfig) error {
	return nil
}

func newTestPipeline(sender *stubAdapter, receiver *stubAdapter) *Pipeline {
	return &Pipeline{
		Sender:      sender,
		SenderCfg:   model.AdapterConfig{},
		Receiver:    receiver,
		ReceiverCfg: model.AdapterConfig{},
	}
}

func TestPipelinePartialUploadFailureCompletes(t *testing.T) {
	sender := &stubAdapter{
		direction:  model.DIRECTION_SENDER,
		discovered: []string{"/in/a.txt", "/in/b.txt", "/in/c.txt"},
	}
	receiver := &stubAdapter{
		direction:  model.DIRECTION_RECEIVER,
		failUpload: map[string]bool{"/in/b.txt": true},
	}
	p := newTestPipeline(sender, receiver)

	summary, err := p.Run(context.Background(), diag.NewContext(), "exec-1")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 3, summary.DiscoveredCount)
	assert.Equal(t, 3, summary.ProcessedSuccess)
	assert.Equal(t, 2, summary.UploadedCount)
	assert.Equal(t, 1, summary.UploadFailedCount)
	assert.Equal(t, 1, receiver.cleanupCalls)
}

func TestPipelineEmptyDiscovery(t *testing.T) {
	sender := &stubAdapter{direction: model.DIRECTION_SENDER}
	receiver := &stubAdapter{direction: model.DIRECTION_RECEIVER}
	p := newTestPipeline(sender, receiver)

	summary, err := p.Run(context.Background(), diag.NewContext(), "exec-2")
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.DiscoveredCount)
	assert.Equal(t, 0, summary.UploadedCount)
	assert.Equal(t, 0, receiver.initCalls, "receiver must not be instantiated for empty discovery")
}

func TestPipelineZeroSuccessAbortsBeforeReceiver(t *testing.T) {
	files := []string{"/in/1", "/in/2", "/in/3", "/in/4", "/in/5"}
	failAll := make(map[string]bool)
	for _, f := range files {
		failAll[f] = true
	}
	sender := &stubAdapter{
		direction:      model.DIRECTION_SENDER,
		discovered:     files,
		failProcessing: failAll,
	}
	receiver := &stubAdapter{direction: model.DIRECTION_RECEIVER}
	p := newTestPipeline(sender, receiver)

	summary, err := p.Run(context.Background(), diag.NewContext(), "exec-3")
	require.NoError(t, err, "zero-success abort is not an error")
	require.NotNil(t, summary)
	assert.Equal(t, 5, summary.ProcessedFailed)
	assert.Equal(t, 0, summary.ProcessedSuccess)
	assert.Equal(t, 0, summary.UploadedCount)
	assert.Equal(t, 0, receiver.initCalls)
	assert.Equal(t, 0, receiver.cleanupCalls)
}

func TestPipelineReceiverInitFailureSkipsCleanup(t *testing.T) {
	sender := &stubAdapter{
		direction:  model.DIRECTION_SENDER,
		discovered: []string{"/in/a.txt"},
	}
	receiver := &stubAdapter{
		direction: model.DIRECTION_RECEIVER,
		initErr:   errors.New("connection refused"),
	}
	p := newTestPipeline(sender, receiver)

	summary, err := p.Run(context.Background(), diag.NewContext(), "exec-4")
	require.Error(t, err)
	assert.Nil(t, summary, "no partial summary on pipeline-level failure")
	assert.Equal(t, 1, receiver.initCalls)
	assert.Equal(t, 0, receiver.cleanupCalls, "cleanup must not run when initialization failed")
}

func TestPipelineDiscoveryErrorFails(t *testing.T) {
	sender := &stubAdapter{
		direction:   model.DIRECTION_SENDER,
		discoverErr: errors.New("permission denied"),
	}
	receiver := &stubAdapter{direction: model.DIRECTION_RECEIVER}
	p := newTestPipeline(sender, receiver)

	summary, err := p.Run(context.Background(), diag.NewContext(), "exec-5")
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.ErrorContains(t, err, "discovery")
}

func TestPipelineProcessingErrorFails(t *testing.T) {
	sender := &stubAdapter{
		direction:  model.DIRECTION_SENDER,
		discovered: []string{"/in/a.txt"},
		processErr: errors.New("disk full"),
	}
	receiver := &stubAdapter{direction: model.DIRECTION_RECEIVER}
	p := newTestPipeline(sender, receiver)

	_, err := p.Run(context.Background(), diag.NewContext(), "exec-6")
	require.Error(t, err)
	assert.Equal(t, 0, receiver.initCalls)
}

func TestPipelineCountsInvariants(t *testing.T) {
	for _, failures := range []int{0, 1, 2} {
		t.Run(fmt.Sprintf("failures=%d", failures), func(t *testing.T) {
			files := []string{"/in/a", "/in/b", "/in/c", "/in/d"}
			failProcessing := make(map[string]bool)
			for i := 0; i < failures; i++ {
				failProcessing[files[i]] = true
			}
			sender := &stubAdapter{
				direction:      model.DIRECTION_SENDER,
				discovered:     files,
				failProcessing: failProcessing,
			}
			receiver := &stubAdapter{direction: model.DIRECTION_RECEIVER}
			p := newTestPipeline(sender, receiver)

			summary, err := p.Run(context.Background(), diag.NewContext(), "exec-7")
			require.NoError(t, err)
			assert.Equal(t, summary.ProcessedCount, summary.ProcessedSuccess+summary.ProcessedFailed)
			assert.Equal(t, summary.DiscoveredCount, summary.ProcessedCount)
			assert.LessOrEqual(t, summary.UploadedCount, summary.ProcessedSuccess)
		})
	}
}

func TestPipelineUploadsPreserveOrder(t *testing.T) {
	sender := &stubAdapter{
		direction:  model.DIRECTION_SENDER,
		discovered: []string{"/in/1.txt", "/in/2.txt", "/in/3.txt"},
	}
	receiver := &stubAdapter{direction: model.DIRECTION_RECEIVER}
	p := newTestPipeline(sender, receiver)

	_, err := p.Run(context.Background(), diag.NewContext(), "exec-8")
	require.NoError(t, err)
	assert.Equal(t, []string{"/in/1.txt", "/in/2.txt", "/in/3.txt"}, receiver.uploads)
}

func TestPipelinePopulatesDiagnosticContext(t *testing.T) {
	sender := &stubAdapter{direction: model.DIRECTION_SENDER, discovered: []string{"/in/a"}}
	receiver := &stubAdapter{direction: model.DIRECTION_RECEIVER}
	p := newTestPipeline(sender, receiver)
	p.FlowId = "flow-1"
	p.FlowName = "orders"

	dc := diag.NewContext()
	seen := map[string]string{}
	p.Dispatch = func(fn func()) {
		if len(seen) == 0 {
			for _, key := range []string{diag.KeyExecutionId, diag.KeyFlowId, diag.KeyFlowName, diag.KeyStep} {
				if v, ok := dc.Get(key); ok {
					seen[key] = v
				}
			}
		}
		fn()
	}

	_, err := p.Run(context.Background(), dc, "exec-10")
	require.NoError(t, err)
	assert.Equal(t, "exec-10", seen[diag.KeyExecutionId])
	assert.Equal(t, "flow-1", seen[diag.KeyFlowId])
	assert.Equal(t, "orders", seen[diag.KeyFlowName])
	assert.Equal(t, STEP_DISCOVER, seen[diag.KeyStep])
	assert.Equal(t, 0, dc.Len(), "context cleared after the run")
}

func TestPipelineClearsDiagnosticContext(t *testing.T) {
	cases := map[string]*Pipeline{
		"success": newTestPipeline(
			&stubAdapter{direction: model.DIRECTION_SENDER, discovered: []string{"/in/a"}},
			&stubAdapter{direction: model.DIRECTION_RECEIVER},
		),
		"zero-success abort": newTestPipeline(
			&stubAdapter{
				direction:      model.DIRECTION_SENDER,
				discovered:     []string{"/in/a"},
				failProcessing: map[string]bool{"/in/a": true},
			},
			&stubAdapter{direction: model.DIRECTION_RECEIVER},
		),
		"discovery error": newTestPipeline(
			&stubAdapter{direction: model.DIRECTION_SENDER, discoverErr: errors.New("boom")},
			&stubAdapter{direction: model.DIRECTION_RECEIVER},
		),
		"receiver init error": newTestPipeline(
			&stubAdapter{direction: model.DIRECTION_SENDER, discovered: []string{"/in/a"}},
			&stubAdapter{direction: model.DIRECTION_RECEIVER, initErr: errors.New("boom")},
		),
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			dc := diag.NewContext()
			_, _ = p.Run(context.Background(), dc, "exec-9")
			assert.Equal(t, 0, dc.Len(), "diagnostic context must be cleared on every exit path")
		})
	}
}
