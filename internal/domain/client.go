package domain

import (
	"context"
	"strings"
)

// ClientEvent is the narrow view of one inbound message event from the
// automation client. Contact and media resolution are lazy: they may
// hit the client's session store or the network and can fail without
// invalidating the rest of the event.
type ClientEvent interface {
	// From returns the raw routing identifier of the originating chat
	// (ends in GroupSuffix for group messages).
	From() string
	// SenderNumber returns the sender's raw phone number, not yet
	// normalized. Empty for senders without a resolvable number.
	SenderNumber() string
	// PushName returns the sender's self-chosen display name, if any.
	PushName() string
	// SavedName looks up the sender in the client's contact store.
	SavedName(ctx context.Context) (string, error)
	Body() string
	HasMedia() bool
	// Media downloads and encodes the attached media. Only called when
	// HasMedia reports true.
	Media(ctx context.Context) (*Attachment, error)
}

// Transport is the outbound face of the automation client. Both calls
// return the transport-assigned message id.
type Transport interface {
	SendText(ctx context.Context, routingID, text string) (string, error)
	SendFile(ctx context.Context, routingID string, att Attachment, caption string) (string, error)
}

// EventQueue decouples the automation client's event callbacks from the
// single consumer that maps and stores them.
type EventQueue interface {
	Publish(evt ClientEvent)
	Subscribe() <-chan ClientEvent
	Close()
}

// IsGroupRoute reports whether a routing identifier addresses a group.
func IsGroupRoute(routingID string) bool {
	return strings.HasSuffix(routingID, GroupSuffix)
}
