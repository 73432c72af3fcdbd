package service

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"os"
	"sync"

	"github.com/bnema/shrink/internal/domain"
	"github.com/bnema/shrink/internal/port"
)

type fakeTransport struct {
	mu        sync.Mutex
	sent      []string
	edits     []string
	uploads   []port.VideoUpload
	nextMsgID int

	downloadData []byte
	downloadErr  error
	uploadErr    error
	editErrs     []error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{downloadData: bytes.Repeat([]byte("frame"), 2000)}
}

func (f *fakeTransport) Download(ctx context.Context, source domain.SourceRef, destPath string, progress port.ProgressFunc) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(destPath, f.downloadData, 0644); err != nil {
		return err
	}
	if progress != nil {
		total := int64(len(f.downloadData))
		progress(total/2, total)
		progress(total, total)
	}
	return nil
}

func (f *fakeTransport) Upload(ctx context.Context, chatID int64, video port.VideoUpload, progress port.ProgressFunc) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	info, err := os.Stat(video.Path)
	if err != nil {
		return err
	}
	if progress != nil {
		progress(info.Size(), info.Size())
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, video)
	return nil
}

func (f *fakeTransport) Send(chatID int64, text string) (domain.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextMsgID++
	f.sent = append(f.sent, text)
	return domain.MessageRef{ChatID: chatID, MessageID: f.nextMsgID}, nil
}

func (f *fakeTransport) Edit(ref domain.MessageRef, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.editErrs) > 0 {
		err := f.editErrs[0]
		f.editErrs = f.editErrs[1:]
		if err != nil {
			return err
		}
	}
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeTransport) editTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.edits...)
}

type fakeEncoder struct {
	probeResult   *domain.ProbeResult
	probeErr      error
	transcodeErrs []error
	output        []byte
	thumbErr      error
}

func newFakeEncoder() *fakeEncoder {
	return &fakeEncoder{
		probeResult: &domain.ProbeResult{
			Format: domain.ProbeFormat{Duration: "60.0"},
			Streams: []domain.ProbeStream{
				{CodecType: "audio"},
				{CodecType: "video", Width: 1280, Height: 720, Duration: "60.0"},
			},
		},
		output: bytes.Repeat([]byte("x264"), 500),
	}
}

func (f *fakeEncoder) Probe(ctx context.Context, path string) (*domain.ProbeResult, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.probeResult, nil
}

func (f *fakeEncoder) Transcode(ctx context.Context, inputPath, outputPath string, params port.EncodeParams) error {
	if len(f.transcodeErrs) > 0 {
		err := f.transcodeErrs[0]
		f.transcodeErrs = f.transcodeErrs[1:]
		if err != nil {
			return err
		}
	}
	return os.WriteFile(outputPath, f.output, 0644)
}

func (f *fakeEncoder) Thumbnail(ctx context.Context, inputPath, outputPath string, atSeconds float64) error {
	if f.thumbErr != nil {
		return f.thumbErr
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
		return err
	}
	return os.WriteFile(outputPath, buf.Bytes(), 0644)
}

type fakeHistory struct {
	mu        sync.Mutex
	started   []int64
	completed []int64
	failed    map[int64]string
	cancelled []int64
	nextJobID int64
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{failed: make(map[int64]string), nextJobID: 100}
}

func (f *fakeHistory) UpsertUser(telegramID int64, username, firstName, lastName string) (int64, error) {
	return telegramID, nil
}

func (f *fakeHistory) CreateJob(userID int64, filename string, sizeMB float64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextJobID++
	return f.nextJobID, nil
}

func (f *fakeHistory) MarkStarted(jobID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, jobID)
	return nil
}

func (f *fakeHistory) MarkCompleted(jobID int64, compressedMB, ratio, processingSeconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, jobID)
	return nil
}

func (f *fakeHistory) MarkFailed(jobID int64, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[jobID] = errMsg
	return nil
}

func (f *fakeHistory) MarkCancelled(jobID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, jobID)
	return nil
}

var (
	_ port.Transport = (*fakeTransport)(nil)
	_ port.Encoder   = (*fakeEncoder)(nil)
	_ port.History   = (*fakeHistory)(nil)
)
