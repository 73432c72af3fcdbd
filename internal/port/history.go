package port

// History persists user and job metadata. It is best-effort bookkeeping:
// callers log failures and carry on, the pipeline never depends on it.
type History interface {
	UpsertUser(telegramID int64, username, firstName, lastName string) (int64, error)
	CreateJob(userID int64, filename string, sizeMB float64) (int64, error)
	MarkStarted(jobID int64) error
	MarkCompleted(jobID int64, compressedMB, ratio, processingSeconds float64) error
	MarkFailed(jobID int64, errMsg string) error
	MarkCancelled(jobID int64) error
}
