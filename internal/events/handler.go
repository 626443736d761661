package events

import (
	"context"
	"errors"
)

// ErrPermanent marks a message that will never succeed, e.g. one that does
// not decode. Consumers skip retries for it.
var ErrPermanent = errors.New("permanent failure")

// Handler processes one consumed record.
type Handler interface {
	HandleMessage(ctx context.Context, key string, value []byte) error
}

// FailureRecorder keeps publications the broker refused.
type FailureRecorder interface {
	Record(ctx context.Context, topic, key string, value []byte, cause error)
}
