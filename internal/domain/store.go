package domain

import "context"

// Order selects timestamp ordering for log queries.
type Order int

const (
	Ascending Order = iota
	Descending
)

// MessageStore is the conversation store adapter: an append-only log of
// StoredMessage records with timestamp-ordered queries. There are no
// update or delete operations. Implementations assign the timestamp
// with their own clock at write time when the record carries none, and
// must tolerate concurrent appends.
type MessageStore interface {
	Append(ctx context.Context, msg StoredMessage) error
	// All returns every record ordered by timestamp.
	All(ctx context.Context, order Order) ([]StoredMessage, error)
	// ByParticipant returns records where the phone appears as sender
	// or recipient, ascending by timestamp.
	ByParticipant(ctx context.Context, phone string) ([]StoredMessage, error)
	Close() error
}
