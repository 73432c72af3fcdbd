package domain

import "fmt"

const oneMegabyte = 1024 * 1024

// SizeMB converts a byte count to megabytes.
func SizeMB(bytes int64) float64 {
	return float64(bytes) / oneMegabyte
}

// FormatSizeMB renders a byte count as "123.45 MB" for status messages.
func FormatSizeMB(bytes int64) string {
	return fmt.Sprintf("%.2f MB", SizeMB(bytes))
}

// FormatElapsed renders a duration in the human style used by status
// messages: seconds below a minute, then "X min Y sec", then "X hr Y min".
func FormatElapsed(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1f seconds", seconds)
	}
	if seconds < 3600 {
		minutes := int(seconds) / 60
		return fmt.Sprintf("%d min %.0f sec", minutes, seconds-float64(minutes*60))
	}
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	return fmt.Sprintf("%d hr %d min", hours, minutes)
}
