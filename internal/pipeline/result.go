package pipeline

// RecordError captures a per-record persistence failure without aborting
// the batch.
type RecordError struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// BatchResult summarizes one orchestration run.
type BatchResult struct {
	SavedCount   int `json:"savedCount"`
	UpdatedCount int `json:"updatedCount"`
	SkippedCount int `json:"skippedCount"`

	SavedIDs          []int64       `json:"savedIds"`
	SkippedIDs        []int64       `json:"skippedIds"`
	InvalidFormatURLs []string      `json:"invalidFormatUrls"`
	Errors            []RecordError `json:"errors,omitempty"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func newBatchResult() *BatchResult {
	return &BatchResult{
		SavedIDs:          []int64{},
		SkippedIDs:        []int64{},
		InvalidFormatURLs: []string{},
		Errors:            []RecordError{},
		Success:           true,
	}
}

func failedBatchResult(message string) *BatchResult {
	res := newBatchResult()
	res.Success = false
	res.Error = message
	return res
}
