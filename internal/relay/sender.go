package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"zapbridge/internal/bus"
	"zapbridge/internal/domain"
	"zapbridge/internal/phone"
)

// ErrValidation marks a request rejected before any transport or store
// activity. Callers map it to a client error.
var ErrValidation = errors.New("validation failed")

// Sender coordinates outbound delivery: validate, normalize, hand to
// the transport, then mirror the sent message into the store so
// timelines include both directions. The store write happens only
// after the transport accepted the message; a transport failure leaves
// no record.
type Sender struct {
	store     domain.MessageStore
	transport domain.Transport
	events    *bus.EventBus
	operator  func() string
	logger    *slog.Logger
}

type SenderConfig struct {
	Store     domain.MessageStore
	Transport domain.Transport
	Events    *bus.EventBus
	Operator  func() string
	Logger    *slog.Logger
}

func NewSender(cfg SenderConfig) *Sender {
	return &Sender{
		store:     cfg.Store,
		transport: cfg.Transport,
		events:    cfg.Events,
		operator:  cfg.Operator,
		logger:    cfg.Logger,
	}
}

// route computes the transport routing identifier for a raw phone. An
// input that already carries a domain marker is routed as-is (group
// identifiers arrive that way); everything else is normalized and gets
// the direct-message suffix. Group identifiers are also kept raw as
// the recipient, matching how inbound group records store them.
func route(raw string) (routingID, tel string) {
	if strings.Contains(raw, "@") {
		if domain.IsGroupRoute(raw) {
			return raw, raw
		}
		return raw, phone.Normalize(raw)
	}
	tel = phone.Normalize(raw)
	return tel + domain.UserSuffix, tel
}

// SendText delivers a text message and returns the transport's message
// id.
func (s *Sender) SendText(ctx context.Context, telefone, mensagem string) (string, error) {
	if telefone == "" || mensagem == "" {
		return "", fmt.Errorf("%w: telefone and mensagem are required", ErrValidation)
	}

	routingID, tel := route(telefone)
	id, err := s.transport.SendText(ctx, routingID, mensagem)
	if err != nil {
		s.emitFailure(routingID, err)
		return "", fmt.Errorf("send message: %w", err)
	}

	if err := s.record(ctx, tel, routingID, mensagem, nil); err != nil {
		return "", err
	}

	s.logger.Info("message sent", "to", tel, "id", id)
	s.events.Emit(bus.Event{
		Type:    bus.EventMessageSent,
		Source:  "sender",
		Payload: map[string]any{"to": tel, "id": id},
	})
	return id, nil
}

// SendFile delivers a base64-encoded file with an optional caption and
// mirrors it, attachment included, into the store.
func (s *Sender) SendFile(ctx context.Context, telefone string, att domain.Attachment, caption string) error {
	if telefone == "" || att.Data == "" || att.Filename == "" {
		return fmt.Errorf("%w: telefone, base64 and filename are required", ErrValidation)
	}

	routingID, tel := route(telefone)
	id, err := s.transport.SendFile(ctx, routingID, att, caption)
	if err != nil {
		s.emitFailure(routingID, err)
		return fmt.Errorf("send file: %w", err)
	}

	if err := s.record(ctx, tel, routingID, caption, &att); err != nil {
		return err
	}

	s.logger.Info("file sent", "to", tel, "id", id, "filename", att.Filename)
	s.events.Emit(bus.Event{
		Type:    bus.EventMessageSent,
		Source:  "sender",
		Payload: map[string]any{"to": tel, "id": id, "filename": att.Filename},
	})
	return nil
}

func (s *Sender) record(ctx context.Context, tel, routingID, body string, att *domain.Attachment) error {
	msg := domain.StoredMessage{
		SenderName:     domain.OperatorName,
		SenderPhone:    s.operator(),
		RecipientPhone: tel,
		Body:           body,
		IsGroup:        domain.IsGroupRoute(routingID),
		Attachment:     att,
	}
	if err := s.store.Append(ctx, msg); err != nil {
		s.logger.Error("failed to record sent message", "err", err, "to", tel)
		return fmt.Errorf("record sent message: %w", err)
	}
	return nil
}

func (s *Sender) emitFailure(routingID string, err error) {
	s.logger.Error("transport send failed", "err", err, "to", routingID)
	s.events.Emit(bus.Event{
		Type:    bus.EventSendFailed,
		Source:  "sender",
		Payload: map[string]any{"to": routingID, "err": err.Error()},
	})
}
