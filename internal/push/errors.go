package push

import "errors"

// Push channel errors. Use errors.Is() to check for these.
var (
	// ErrNotConnected is returned when attempting operations on a
	// disconnected client.
	ErrNotConnected = errors.New("push: client not connected")

	// ErrConnectionFailed is returned when the initial connection
	// attempt fails.
	ErrConnectionFailed = errors.New("push: connection failed")

	// ErrSubscribeFailed is returned when the attribute-report
	// subscription cannot be established.
	ErrSubscribeFailed = errors.New("push: subscribe failed")
)
