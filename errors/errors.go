package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrConnectionFailure  = fmt.Errorf("connection failure")
	ErrNotConnected       = fmt.Errorf("not connected")
	ErrIdentityUnresolved = fmt.Errorf("local identity not resolved")
	ErrPersistenceFailure = fmt.Errorf("persistence failure")
	ErrMalformedFrame     = fmt.Errorf("malformed frame")
	ErrStaleHandshake     = fmt.Errorf("handshake superseded by a newer connect")
	ErrInvalidPartner     = fmt.Errorf("invalid partner")
	ErrInvalidMessage     = fmt.Errorf("invalid chat message")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrQueueFull          = fmt.Errorf("queue is full")
)
