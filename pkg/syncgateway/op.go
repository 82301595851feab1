package syncgateway

import "time"

// Op is one mutating API call, either in flight or waiting in the queue.
// Seq is assigned by the store and fixes the replay order.
type Op struct {
	Seq       int64
	RequestID string
	Method    string
	Path      string
	Body      []byte
	QueuedAt  time.Time
	Attempts  int
}

// Result reports what happened to an op handed to Do.
type Result struct {
	// Queued is true when the op went into the replay queue instead of out
	// on the wire.
	Queued bool

	// Status and Body hold the server response when the op was delivered.
	Status int
	Body   []byte
}
