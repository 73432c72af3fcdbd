package port

import (
	"context"

	"github.com/bnema/shrink/internal/domain"
)

// ProgressFunc is invoked at arbitrary granularity during a transfer.
type ProgressFunc func(current, total int64)

// VideoUpload describes an encoded file being sent back to the submitter.
type VideoUpload struct {
	Path          string
	Filename      string
	Caption       string
	ThumbnailPath string
	Duration      int
	Width         int
	Height        int
	Streaming     bool
}

// Transport is the messaging client the pipeline runs against. Download and
// Upload stream in bounded chunks and report progress; Send and Edit manage
// the submitter's editable status message. Implementations surface transport
// rate limiting as *domain.RateLimitedError.
type Transport interface {
	Download(ctx context.Context, source domain.SourceRef, destPath string, progress ProgressFunc) error
	Upload(ctx context.Context, chatID int64, video VideoUpload, progress ProgressFunc) error
	Send(chatID int64, text string) (domain.MessageRef, error)
	Edit(ref domain.MessageRef, text string) error
}
