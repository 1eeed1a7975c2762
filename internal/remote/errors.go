package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// RemoteError is returned by every Client operation that fails, whatever the cause:
// transport failure, non-2xx status, a success=false envelope or an undecodable body.
type RemoteError struct {
	Action     string // operation name, e.g. "addCartItem"
	StatusCode int    // 0 when no response was received
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (status %d): %s", e.Action, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s failed: %s", e.Action, msg)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsClientError reports a 4xx answer: the server understood the call and refused it.
func (e *RemoteError) IsClientError() bool {
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
}

var ErrUnsuccessful = errors.New("server reported success=false")

// ActionOf returns the failing action of a RemoteError anywhere in err's chain.
func ActionOf(err error) (string, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Action, true
	}
	return "", false
}
