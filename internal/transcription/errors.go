package transcription

import "errors"

var (
	ErrAccessDenied = errors.New("access denied")
	ErrDownload     = errors.New("failed to download")
	// ErrPipelineBusy means another delivery for the same lesson is still running.
	ErrPipelineBusy = errors.New("transcription already being processed for this lesson")
)

// Error is the single failure class the service surfaces. Message is safe to
// show to callers; Err keeps the cause for errors.Is/As.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(msg string, err error) error {
	return &Error{Message: msg, Err: err}
}
