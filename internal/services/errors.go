package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModelUnavailable marks failures to load or query the embedding
	// backend. Recoverable: the caller may retry on the next submission, and
	// the answer gate must not treat it as an incorrect answer.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrDeviceUnavailable marks denied or missing capture hardware. Fatal to
	// the recording attempt; the user must retry.
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrDecodeFailed marks malformed input to an encode or merge. The whole
	// operation aborts; no partial output is emitted.
	ErrDecodeFailed = errors.New("decode failed")
	// ErrUploadFailed marks store-side persistence failures.
	ErrUploadFailed = errors.New("upload failed")
	// ErrNotRecording marks Stop calls without an active capture. API misuse.
	ErrNotRecording = errors.New("not recording")
	// ErrValidation marks rejected input or configuration-shaped caller mistakes.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration discovered at run time.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks failures worth retrying without operator action.
	ErrTransient = errors.New("transient failure")
)

// DecodeError identifies which clip in an ordered batch failed to decode.
// It unwraps to ErrDecodeFailed so callers can classify with errors.Is.
type DecodeError struct {
	ClipIndex int
	Err       error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode failed: clip %d: %v", e.ClipIndex, e.Err)
	}
	return fmt.Sprintf("decode failed: clip %d", e.ClipIndex)
}

func (e *DecodeError) Unwrap() error { return ErrDecodeFailed }

// NewDecodeError builds a DecodeError for the given zero-based clip index.
func NewDecodeError(clipIndex int, err error) error {
	return &DecodeError{ClipIndex: clipIndex, Err: err}
}

// DecodeClipIndex extracts the failing clip index from an error chain.
func DecodeClipIndex(err error) (int, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.ClipIndex, true
	}
	return 0, false
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTagged reports whether the error chain already carries one of the
// exported sentinel markers, so wrappers avoid double-tagging.
func IsTagged(err error) bool {
	for _, marker := range []error{
		ErrModelUnavailable,
		ErrDeviceUnavailable,
		ErrDecodeFailed,
		ErrUploadFailed,
		ErrNotRecording,
		ErrValidation,
		ErrConfiguration,
		ErrTransient,
	} {
		if errors.Is(err, marker) {
			return true
		}
	}
	return false
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
