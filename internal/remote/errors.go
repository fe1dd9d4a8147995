package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnsupportedFileType is returned before any request is made when an
// upload's extension is not on the allow-list.
var ErrUnsupportedFileType = errors.New("only PDF, DOC, DOCX and XLSX files are allowed")

// Error is a failed backend call: either a transport failure (Err set) or a
// non-2xx response (Status set, Message holds the {error} payload if any).
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %d %s", e.Op, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the text to show the user: the backend's own error string
// when it sent one, otherwise a short generic description.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil && e.Status != 0 {
		return "Unexpected response from the server"
	}
	if e.Err != nil {
		return "Could not reach the server, please try again"
	}
	if text := http.StatusText(e.Status); text != "" {
		return fmt.Sprintf("Request failed: %s", text)
	}
	return "Request failed"
}

// UserMessage extracts a readable message from any error returned by the
// client.
func UserMessage(err error) string {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.UserMessage()
	}
	if errors.Is(err, ErrUnsupportedFileType) {
		return ErrUnsupportedFileType.Error()
	}
	return err.Error()
}

// IsStatus reports whether err is a backend response with the given status.
func IsStatus(err error, status int) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Status == status
}
