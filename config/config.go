package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	BotToken          string
	TargetHeight      int
	VideoBitrate      string
	AudioBitrate      string
	CRF               int
	Preset            string
	DownloadTimeout   time.Duration
	ProcessingTimeout time.Duration
	ChunkSize         int
	MaxFileSizeMB     int
	TempDir           string
	DataDir           string
}

func Load() (*Config, error) {
	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	targetHeight, err := intEnv("TARGET_HEIGHT", 480)
	if err != nil {
		return nil, err
	}

	crf, err := intEnv("CRF", 28)
	if err != nil {
		return nil, err
	}

	downloadTimeout, err := intEnv("DOWNLOAD_TIMEOUT", 3600)
	if err != nil {
		return nil, err
	}

	processingTimeout, err := intEnv("PROCESSING_TIMEOUT", 7200)
	if err != nil {
		return nil, err
	}

	chunkSize, err := intEnv("CHUNK_SIZE", 8*1024*1024)
	if err != nil {
		return nil, err
	}

	maxFileSizeMB, err := intEnv("MAX_FILE_SIZE_MB", 4096)
	if err != nil {
		return nil, err
	}

	return &Config{
		BotToken:          botToken,
		TargetHeight:      targetHeight,
		VideoBitrate:      getEnv("VIDEO_BITRATE", "2000k"),
		AudioBitrate:      getEnv("AUDIO_BITRATE", "192k"),
		CRF:               crf,
		Preset:            getEnv("PRESET", "fast"),
		DownloadTimeout:   time.Duration(downloadTimeout) * time.Second,
		ProcessingTimeout: time.Duration(processingTimeout) * time.Second,
		ChunkSize:         chunkSize,
		MaxFileSizeMB:     maxFileSizeMB,
		TempDir:           getEnv("TEMP_DIR", "temp"),
		DataDir:           getEnv("DATA_DIR", "data"),
	}, nil
}

// MaxFileSizeBytes is the admission limit for incoming submissions.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
