package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.BotToken)
	assert.Equal(t, 480, cfg.TargetHeight)
	assert.Equal(t, "2000k", cfg.VideoBitrate)
	assert.Equal(t, "192k", cfg.AudioBitrate)
	assert.Equal(t, 28, cfg.CRF)
	assert.Equal(t, "fast", cfg.Preset)
	assert.Equal(t, time.Hour, cfg.DownloadTimeout)
	assert.Equal(t, 2*time.Hour, cfg.ProcessingTimeout)
	assert.Equal(t, 8*1024*1024, cfg.ChunkSize)
	assert.Equal(t, 4096, cfg.MaxFileSizeMB)
	assert.Equal(t, "temp", cfg.TempDir)
	assert.Equal(t, "data", cfg.DataDir)
}

func TestLoad_RequiresBotToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOT_TOKEN")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("TARGET_HEIGHT", "720")
	t.Setenv("VIDEO_BITRATE", "4000k")
	t.Setenv("PRESET", "slow")
	t.Setenv("PROCESSING_TIMEOUT", "600")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 720, cfg.TargetHeight)
	assert.Equal(t, "4000k", cfg.VideoBitrate)
	assert.Equal(t, "slow", cfg.Preset)
	assert.Equal(t, 10*time.Minute, cfg.ProcessingTimeout)
}

func TestLoad_RejectsInvalidInt(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("CRF", "very high")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRF")
}

func TestMaxFileSizeBytes(t *testing.T) {
	cfg := &Config{MaxFileSizeMB: 2}
	assert.Equal(t, int64(2*1024*1024), cfg.MaxFileSizeBytes())
}
