package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode classifies a job-terminating failure at the stage boundary
// where it occurred.
type ErrorCode string

const (
	CodeAdmission         ErrorCode = "admission"
	CodeDownload          ErrorCode = "download"
	CodeProbe             ErrorCode = "probe"
	CodeNoVideoStream     ErrorCode = "no_video_stream"
	CodeEncoding          ErrorCode = "encoding"
	CodeProcessingTimeout ErrorCode = "processing_timeout"
	CodeEmptyOutput       ErrorCode = "empty_output"
	CodeUpload            ErrorCode = "upload"
	CodeFilesystem        ErrorCode = "filesystem"
)

// Error carries a taxonomy code, a short user-visible message and the full
// underlying cause for logs.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the taxonomy code of err, or empty when err is not a
// classified pipeline error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the short excerpt suitable for the submitter's status
// channel. Unclassified errors get a generic message so internal detail
// never leaks to users.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "An unexpected error occurred during processing."
}

const maxExcerptLen = 255

// Excerpt truncates diagnostic output to the user-visible limit.
func Excerpt(s string) string {
	if len(s) > maxExcerptLen {
		return s[:maxExcerptLen]
	}
	return s
}

// RateLimitedError signals a transport-level "retry after" condition. It is
// retryable by waiting and is never a job failure by itself.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// AsRateLimited unwraps err into a RateLimitedError if it is one.
func AsRateLimited(err error) (*RateLimitedError, bool) {
	var e *RateLimitedError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
