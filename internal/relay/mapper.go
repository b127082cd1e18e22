// Package relay holds the core bridge logic: mapping inbound client
// events into stored records, deriving the contact list, rebuilding
// chat timelines and coordinating outbound sends.
package relay

import (
	"context"
	"log/slog"

	"zapbridge/internal/bus"
	"zapbridge/internal/domain"
	"zapbridge/internal/phone"
)

// DefaultFilename is used for attachments that arrive without one.
const DefaultFilename = "arquivo"

// Mapper is the single consumer of the inbound event queue. It turns
// each client event into exactly one append to the message store.
// Nothing on this path ever propagates an error to the event source:
// failures are logged and the event is dropped.
type Mapper struct {
	store  domain.MessageStore
	events *bus.EventBus
	// operator resolves the operator's canonical phone. Evaluated per
	// event because the identity only becomes known after pairing.
	operator func() string
	logger   *slog.Logger
}

type MapperConfig struct {
	Store    domain.MessageStore
	Events   *bus.EventBus
	Operator func() string
	Logger   *slog.Logger
}

func NewMapper(cfg MapperConfig) *Mapper {
	return &Mapper{
		store:    cfg.Store,
		events:   cfg.Events,
		operator: cfg.Operator,
		logger:   cfg.Logger,
	}
}

// Run drains the queue until the context is cancelled or the queue is
// closed. Events are processed sequentially, preserving arrival order.
func (m *Mapper) Run(ctx context.Context, queue <-chan domain.ClientEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-queue:
			if !ok {
				return
			}
			m.Handle(ctx, evt)
		}
	}
}

// Handle maps one event and appends the record. Replaying the same
// event twice yields two independent records: mapping holds no dedup
// state.
func (m *Mapper) Handle(ctx context.Context, evt domain.ClientEvent) {
	msg := m.mapEvent(ctx, evt)

	if err := m.store.Append(ctx, msg); err != nil {
		// The record is lost; the event source keeps running regardless.
		m.logger.Error("failed to save inbound message", "err", err, "from", evt.From())
		return
	}

	m.logger.Info("inbound message saved", "phone", msg.SenderPhone, "group", msg.IsGroup)
	m.events.Emit(bus.Event{
		Type:    bus.EventMessageStored,
		Source:  "mapper",
		Payload: map[string]any{"phone": msg.SenderPhone, "group": msg.IsGroup},
	})
}

// mapEvent builds the canonical record. The timestamp is left unset so
// the store assigns it with its own clock at write time.
func (m *Mapper) mapEvent(ctx context.Context, evt domain.ClientEvent) domain.StoredMessage {
	name := evt.PushName()
	if name == "" {
		saved, err := evt.SavedName(ctx)
		if err != nil {
			m.logger.Warn("contact lookup failed", "err", err, "from", evt.From())
		} else {
			name = saved
		}
	}
	if name == "" {
		name = domain.UnknownName
	}

	msg := domain.StoredMessage{
		SenderName: name,
		Body:       evt.Body(),
		IsGroup:    domain.IsGroupRoute(evt.From()),
	}

	if msg.IsGroup {
		// Group identifiers are not phone numbers; keep them raw.
		msg.SenderPhone = evt.From()
	} else {
		msg.SenderPhone = phone.Normalize(evt.SenderNumber())
		msg.RecipientPhone = m.operator()
	}

	if evt.HasMedia() {
		att, err := evt.Media(ctx)
		if err != nil {
			// Retrieval failure omits the attachment, never the record.
			m.logger.Warn("media download failed", "err", err, "from", evt.From())
		} else if att != nil {
			if att.Filename == "" {
				att.Filename = DefaultFilename
			}
			msg.Attachment = att
		}
	}

	return msg
}
