package telegram

import (
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/bnema/shrink/internal/domain"
	"github.com/bnema/shrink/internal/infrastructure/logger"
	"github.com/bnema/shrink/internal/service"
)

const defaultFilename = "video.mp4"

// Attach wires inbound commands and video submissions to the bot service.
func (c *Client) Attach(bot *service.Bot) {
	c.bot.Handle("/start", func(tc tele.Context) error {
		return tc.Send(bot.Start(senderName(tc)))
	})

	c.bot.Handle("/help", func(tc tele.Context) error {
		return tc.Send(bot.Help())
	})

	c.bot.Handle("/status", func(tc tele.Context) error {
		return tc.Send(bot.Status(tc.Sender().ID))
	})

	c.bot.Handle("/cancel", func(tc tele.Context) error {
		return tc.Send(bot.Cancel(tc.Sender().ID))
	})

	c.bot.Handle(tele.OnVideo, func(tc tele.Context) error {
		v := tc.Message().Video
		name := v.FileName
		if name == "" {
			name = defaultFilename
		}
		return c.submit(tc, bot, v.FileID, v.FileSize, name)
	})

	c.bot.Handle(tele.OnDocument, func(tc tele.Context) error {
		d := tc.Message().Document
		if !strings.HasPrefix(d.MIME, "video/") {
			return nil
		}
		name := d.FileName
		if name == "" {
			name = defaultFilename
		}
		return c.submit(tc, bot, d.FileID, d.FileSize, name)
	})
}

func (c *Client) submit(tc tele.Context, bot *service.Bot, fileID string, size int64, filename string) error {
	sender := tc.Sender()
	logger.Info.Printf("video submission from %d: %s (%s)",
		sender.ID, logger.SanitizeForLog(filename), domain.FormatSizeMB(size))

	return bot.Submit(service.Submission{
		SubmitterID: sender.ID,
		ChatID:      tc.Chat().ID,
		Username:    sender.Username,
		FirstName:   sender.FirstName,
		LastName:    sender.LastName,
		Source:      domain.SourceRef{FileID: fileID, Size: size},
		Filename:    filename,
		Size:        size,
	})
}

func senderName(tc tele.Context) string {
	sender := tc.Sender()
	if sender == nil {
		return ""
	}
	if sender.FirstName != "" {
		return sender.FirstName
	}
	return sender.Username
}
