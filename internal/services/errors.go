package services

import (
	"errors"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/adprovider"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/httpx"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSessionInvalid does not say whether the session expired, never
	// existed, or belongs to someone else.
	ErrSessionInvalid    = errors.New("session expired or invalid")
	ErrForbidden         = errors.New("not allowed to access this integration")
	ErrNotFound          = errors.New("not found")
	ErrNotConfigured     = errors.New("ads platform is not configured")
	ErrNotConnected      = errors.New("integration is not connected")
	ErrParentMissing     = errors.New("parent object has not been created remotely")
	ErrNoImage           = errors.New("creative has no uploaded image")
	ErrNoPage            = errors.New("creative has no page")
	ErrLimitReached      = errors.New("daily launch limit reached for platform")
	ErrRemote            = errors.New("remote api error")
	ErrRemoteUnavailable = errors.New("network error, try again")
)

// RemoteError is an application error reported by the ads platform. Message
// is the platform's text and is safe to show.
type RemoteError struct {
	Message string
	Err     error
}

func (e *RemoteError) Error() string { return e.Message }
func (e *RemoteError) Unwrap() error { return e.Err }
func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// TransportError is a failure to reach the ads platform at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return ErrRemoteUnavailable.Error() + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Is(target error) bool { return target == ErrRemoteUnavailable }

// classifyRemote folds a provider failure into RemoteError or
// TransportError. Other errors pass through.
func classifyRemote(err error) error {
	if err == nil {
		return nil
	}
	if msg, ok := adprovider.RemoteMessage(err); ok {
		return &RemoteError{Message: msg, Err: err}
	}
	if httpx.IsTransportError(err) {
		return &TransportError{Err: err}
	}
	return err
}

// userMessage is the text stored in last_error for a failed remote call.
func userMessage(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	if errors.Is(err, ErrRemoteUnavailable) {
		return "Network error. Please try again."
	}
	return err.Error()
}
