package errors

import (
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an AppError for callers that need to branch on it.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidExtension
	KindFileTooLarge
	KindInvalidDuration
	KindServer
	KindNetwork
	KindDownload
)

func (k Kind) String() string {
	switch k {
	case KindInvalidExtension:
		return "invalid_extension"
	case KindFileTooLarge:
		return "file_too_large"
	case KindInvalidDuration:
		return "invalid_duration"
	case KindServer:
		return "server_error"
	case KindNetwork:
		return "network_failure"
	case KindDownload:
		return "download_failure"
	default:
		return "unknown"
	}
}

// AppError carries the user-facing status text in Message and the
// underlying cause in Err.
type AppError struct {
	Kind    Kind   `json:"-"`
	Code    int    `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func InvalidExtension(op string) *AppError {
	return &AppError{
		Kind:    KindInvalidExtension,
		Code:    http.StatusBadRequest,
		Message: "Please select a .webm file",
		Op:      op,
	}
}

func FileTooLarge(op string, size int64) *AppError {
	return &AppError{
		Kind:    KindFileTooLarge,
		Code:    http.StatusRequestEntityTooLarge,
		Message: "File size must be less than 10MB",
		Op:      op,
		Err:     fmt.Errorf("file is %d bytes", size),
	}
}

func InvalidDuration(op string, err error) *AppError {
	return &AppError{
		Kind:    KindInvalidDuration,
		Code:    http.StatusBadRequest,
		Message: "Please enter a valid duration value",
		Op:      op,
		Err:     err,
	}
}

// Server wraps a non-2xx response. message is the server-supplied error
// text; an empty message falls back to the generic one.
func Server(op string, code int, message string) *AppError {
	if message == "" {
		message = "Processing failed"
	}
	return &AppError{
		Kind:    KindServer,
		Code:    code,
		Message: message,
		Op:      op,
	}
}

func Network(op string, err error) *AppError {
	return &AppError{
		Kind:    KindNetwork,
		Code:    http.StatusBadGateway,
		Message: "Failed to reach the processing server",
		Op:      op,
		Err:     err,
	}
}

func Download(op string, err error) *AppError {
	return &AppError{
		Kind:    KindDownload,
		Code:    http.StatusInternalServerError,
		Message: "Failed to save the processed file",
		Op:      op,
		Err:     err,
	}
}

// KindOf returns the Kind of the first AppError in err's chain.
func KindOf(err error) Kind {
	var appErr *AppError
	if pkgerrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// UserMessage returns the text to show for err in a status message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if pkgerrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
