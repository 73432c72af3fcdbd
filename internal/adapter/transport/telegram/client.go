package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/bnema/shrink/internal/domain"
	"github.com/bnema/shrink/internal/port"
)

// Client adapts the Telegram Bot API to the Transport port: chunked file
// streaming with progress callbacks, editable status messages, and flood
// waits surfaced as domain.RateLimitedError.
type Client struct {
	bot       *tele.Bot
	chunkSize int
}

func New(token string, chunkSize int) (*Client, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Client{bot: bot, chunkSize: chunkSize}, nil
}

// Start begins long polling and blocks until Stop is called.
func (c *Client) Start() {
	c.bot.Start()
}

func (c *Client) Stop() {
	c.bot.Stop()
}

// Download streams the referenced file into destPath in chunkSize reads,
// invoking progress after each chunk. Cancelling ctx closes the transfer.
func (c *Client) Download(ctx context.Context, source domain.SourceRef, destPath string, progress port.ProgressFunc) error {
	rc, err := c.bot.File(&tele.File{FileID: source.FileID})
	if err != nil {
		return wrapFlood(err)
	}
	defer func() { _ = rc.Close() }()

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer func() { _ = dest.Close() }()

	// Unblock the read loop when the deadline expires mid-chunk.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = rc.Close()
		case <-done:
		}
	}()

	buf := make([]byte, c.chunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := rc.Read(buf)
		if n > 0 {
			if _, err := dest.Write(buf[:n]); err != nil {
				return fmt.Errorf("write %s: %w", destPath, err)
			}
			written += int64(n)
			if progress != nil {
				progress(written, source.Size)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fmt.Errorf("read from transport: %w", readErr)
		}
	}
}

// Upload sends the encoded file back as a streamed video document with its
// attributes and optional thumbnail.
func (c *Client) Upload(ctx context.Context, chatID int64, video port.VideoUpload, progress port.ProgressFunc) error {
	f, err := os.Open(video.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", video.Path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", video.Path, err)
	}

	v := &tele.Video{
		File:      tele.FromReader(&progressReader{ctx: ctx, r: f, total: info.Size(), progress: progress}),
		FileName:  video.Filename,
		Caption:   video.Caption,
		Duration:  video.Duration,
		Width:     video.Width,
		Height:    video.Height,
		Streaming: video.Streaming,
	}
	if video.ThumbnailPath != "" {
		v.Thumbnail = &tele.Photo{File: tele.FromDisk(video.ThumbnailPath)}
	}

	if _, err := c.bot.Send(tele.ChatID(chatID), v); err != nil {
		return wrapFlood(err)
	}
	return nil
}

func (c *Client) Send(chatID int64, text string) (domain.MessageRef, error) {
	msg, err := c.bot.Send(tele.ChatID(chatID), text)
	if err != nil {
		return domain.MessageRef{}, wrapFlood(err)
	}
	return domain.MessageRef{ChatID: chatID, MessageID: msg.ID}, nil
}

func (c *Client) Edit(ref domain.MessageRef, text string) error {
	_, err := c.bot.Edit(tele.StoredMessage{
		MessageID: strconv.Itoa(ref.MessageID),
		ChatID:    ref.ChatID,
	}, text)
	if err == nil {
		return nil
	}
	// Re-sending identical progress text is harmless.
	if strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return wrapFlood(err)
}

// wrapFlood converts Telegram flood waits into the transport-agnostic
// rate-limited error the core knows how to wait out.
func wrapFlood(err error) error {
	var floodPtr *tele.FloodError
	if errors.As(err, &floodPtr) {
		return &domain.RateLimitedError{RetryAfter: time.Duration(floodPtr.RetryAfter) * time.Second}
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return &domain.RateLimitedError{RetryAfter: time.Duration(flood.RetryAfter) * time.Second}
	}
	return err
}

// progressReader reports bytes consumed by the transport's multipart upload.
type progressReader struct {
	ctx      context.Context
	r        io.Reader
	total    int64
	read     int64
	progress port.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if p.progress != nil {
			p.progress(p.read, p.total)
		}
	}
	return n, err
}

var _ port.Transport = (*Client)(nil)
