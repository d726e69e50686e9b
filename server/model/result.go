package model

type ResultStatus string

const RESULT_SUCCESS ResultStatus = "SUCCESS"
const RESULT_FAILED ResultStatus = "FAILED"
const RESULT_RUNNING ResultStatus = "RUNNING"

type FileProcessingResult struct {
	Status    ResultStatus `json:"status"`
	FilePath  string       `json:"filePath"`
	Error     string       `json:"error,omitempty"`
	ByteCount int64        `json:"byteCount"`
}

func (r FileProcessingResult) IsSuccess() bool {
	return r.Status == RESULT_SUCCESS
}

type OperationResult struct {
	Status     ResultStatus `json:"status"`
	LocalPath  string       `json:"localPath,omitempty"`
	RemotePath string       `json:"remotePath,omitempty"`
	Error      string       `json:"error,omitempty"`
	ByteCount  int64        `json:"byteCount"`
}

func (r OperationResult) IsSuccess() bool {
	return r.Status == RESULT_SUCCESS
}

type RemoteFileDescriptor struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Size  int64  `json:"size"`
	IsDir bool   `json:"isDir"`
}

// AdapterResult aggregates one adapter invocation over a batch of files.
// SuccessCount+FailedCount always equals TotalCount.
type AdapterResult struct {
	Status       ResultStatus           `json:"status"`
	TotalCount   int                    `json:"totalCount"`
	SuccessCount int                    `json:"successCount"`
	FailedCount  int                    `json:"failedCount"`
	TotalBytes   int64                  `json:"totalBytes"`
	Items        []FileProcessingResult `json:"items,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

func (r AdapterResult) IsSuccess() bool {
	return r.Status == RESULT_SUCCESS
}

func AggregateResults(items []FileProcessingResult) AdapterResult {
	res := AdapterResult{
		TotalCount: len(items),
		Items:      items,
	}
	for _, it := range items {
		if it.IsSuccess() {
			res.SuccessCount++
			res.TotalBytes += it.ByteCount
		} else {
			res.FailedCount++
		}
	}
	if res.FailedCount == 0 {
		res.Status = RESULT_SUCCESS
	} else {
		res.Status = RESULT_FAILED
	}
	return res
}

// FlowSummary is the per-run pipeline outcome exposed on the execution
// record. UploadedCount never exceeds ProcessedSuccessCount.
type FlowSummary struct {
	DiscoveredCount   int   `json:"discoveredCount"`
	ProcessedCount    int   `json:"processedCount"`
	ProcessedSuccess  int   `json:"processedSuccess"`
	ProcessedFailed   int   `json:"processedFailed"`
	UploadedCount     int   `json:"uploadedCount"`
	UploadFailedCount int   `json:"uploadFailedCount"`
	TransferredBytes  int64 `json:"transferredBytes"`
}
