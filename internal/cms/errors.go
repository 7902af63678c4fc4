package cms

import "errors"

// ErrMissingIdentifier means the CMS accepted the editorial but its response
// carried no identifier.
var ErrMissingIdentifier = errors.New("response has no identifier")

// ServerError is a non-2xx answer. Message is the body's "message" field when
// present, otherwise a status-coded fallback.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// TransportError covers everything that kept a usable answer from arriving:
// unreachable host, timeout, unreadable or non-JSON body.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
