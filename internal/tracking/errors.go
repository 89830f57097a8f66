package tracking

import "errors"

// ErrClosed is returned by TrackingEventStream operations on a consumer that
// has already been closed.
var ErrClosed = errors.New("tracking: consumer closed")

// ErrStoreClosed reports a Store that has been shut down. No Store method
// returns it: Publish and OpenStream do not check whether Shutdown has run.
var ErrStoreClosed = errors.New("tracking: store closed")
