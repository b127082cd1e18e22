// Package wa wraps the whatsmeow client behind the bridge's transport
// and event-source interfaces.
package wa

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
	_ "modernc.org/sqlite"

	"zapbridge/internal/bus"
	"zapbridge/internal/config"
	"zapbridge/internal/domain"
	"zapbridge/internal/phone"
)

// Client owns the whatsmeow session. Inbound messages are published to
// the queue; lifecycle changes are emitted on the event bus. It also
// implements domain.Transport for outbound sends.
type Client struct {
	client    *whatsmeow.Client
	container *sqlstore.Container
	queue     domain.EventQueue
	events    *bus.EventBus
	logger    *slog.Logger

	terminalQR bool
	// operatorOverride, when set, wins over the session identity.
	operatorOverride string
}

func NewClient(ctx context.Context, cfg config.WhatsAppConfig, operatorPhone string, queue domain.EventQueue, events *bus.EventBus, logger *slog.Logger) (*Client, error) {
	dsn := "file:" + cfg.SessionPath + "?_pragma=foreign_keys(1)&_journal_mode=WAL&_busy_timeout=30000"
	container, err := sqlstore.New(ctx, "sqlite", dsn, waLog.Stdout("Database", "WARN", true))
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	c := &Client{
		client:           whatsmeow.NewClient(deviceStore, waLog.Stdout("Client", "WARN", true)),
		container:        container,
		queue:            queue,
		events:           events,
		logger:           logger,
		terminalQR:       cfg.TerminalQR,
		operatorOverride: operatorPhone,
	}
	c.client.AddEventHandler(c.handleEvent)
	return c, nil
}

// Connect brings the session up. Without a stored identity it runs the
// pairing flow and blocks until the QR code is scanned or the pairing
// channel closes; with one it just reconnects.
func (c *Client) Connect(ctx context.Context) error {
	if c.client.Store.ID != nil {
		c.logger.Info("existing session found, connecting")
		if err := c.client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		return nil
	}

	c.logger.Info("no session found, starting pairing")

	// The QR channel must be requested before Connect.
	qrChan, err := c.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("get qr channel: %w", err)
	}
	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	for evt := range qrChan {
		switch evt.Event {
		case "code":
			c.logger.Info("pairing code received, scan with the phone")
			if c.terminalQR {
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			}
			c.events.Emit(bus.Event{
				Type:    bus.EventSessionQR,
				Source:  "wa",
				Payload: map[string]any{"code": evt.Code},
			})
		case "success":
			c.logger.Info("pairing successful")
			c.events.Emit(bus.Event{Type: bus.EventSessionPairSuccess, Source: "wa"})
			return nil
		case "timeout":
			return fmt.Errorf("pairing timed out before the code was scanned")
		default:
			c.logger.Debug("pairing event", "event", evt.Event)
		}
	}
	return fmt.Errorf("pairing channel closed")
}

// Close tears down the connection and the session store.
func (c *Client) Close() {
	c.client.Disconnect()
	if err := c.container.Close(); err != nil {
		c.logger.Error("failed to close session store", "err", err)
	}
}

// OperatorPhone returns the canonical phone of the paired account, or
// the configured override. Empty until the session identity is known.
func (c *Client) OperatorPhone() string {
	if c.operatorOverride != "" {
		return phone.Normalize(c.operatorOverride)
	}
	if id := c.client.Store.ID; id != nil {
		return phone.Normalize(id.User)
	}
	return ""
}

func (c *Client) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		if v.Info.IsFromMe {
			return
		}
		c.queue.Publish(&Event{client: c.client, msg: v})
	case *events.Connected:
		c.logger.Info("connected", "device", c.client.Store.ID.String(), "push_name", c.client.Store.PushName)
		c.events.Emit(bus.Event{Type: bus.EventSessionConnected, Source: "wa"})
	case *events.Disconnected:
		c.events.Emit(bus.Event{Type: bus.EventSessionDisconnected, Source: "wa"})
	case *events.LoggedOut:
		c.logger.Warn("logged out by the server", "reason", v.Reason.String())
		c.events.Emit(bus.Event{Type: bus.EventSessionDisconnected, Source: "wa"})
	}
}

// toJID converts a routing identifier into a whatsmeow JID.
func toJID(routingID string) types.JID {
	user, _, found := strings.Cut(routingID, "@")
	if !found {
		return types.NewJID(routingID, types.DefaultUserServer)
	}
	if domain.IsGroupRoute(routingID) {
		return types.NewJID(user, types.GroupServer)
	}
	return types.NewJID(user, types.DefaultUserServer)
}

// SendText implements domain.Transport.
func (c *Client) SendText(ctx context.Context, routingID, text string) (string, error) {
	resp, err := c.client.SendMessage(ctx, toJID(routingID), &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return "", fmt.Errorf("send text: %w", err)
	}
	return string(resp.ID), nil
}

// SendFile implements domain.Transport. The attachment data arrives
// base64-encoded; it is uploaded to the media servers and referenced
// from the outgoing message.
func (c *Client) SendFile(ctx context.Context, routingID string, att domain.Attachment, caption string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(att.Data)
	if err != nil {
		return "", fmt.Errorf("decode attachment: %w", err)
	}

	mediaType := mediaTypeFor(att.MimeType)
	upload, err := c.client.Upload(ctx, data, mediaType)
	if err != nil {
		return "", fmt.Errorf("upload attachment: %w", err)
	}

	msg := buildMediaMessage(mediaType, upload, att, caption)
	resp, err := c.client.SendMessage(ctx, toJID(routingID), msg)
	if err != nil {
		return "", fmt.Errorf("send file: %w", err)
	}
	return string(resp.ID), nil
}

func mediaTypeFor(mimeType string) whatsmeow.MediaType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return whatsmeow.MediaImage
	case strings.HasPrefix(mimeType, "video/"):
		return whatsmeow.MediaVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return whatsmeow.MediaAudio
	default:
		return whatsmeow.MediaDocument
	}
}

func buildMediaMessage(mediaType whatsmeow.MediaType, upload whatsmeow.UploadResponse, att domain.Attachment, caption string) *waE2E.Message {
	mimeType := att.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	switch mediaType {
	case whatsmeow.MediaImage:
		return &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mimeType),
			URL:           &upload.URL,
			DirectPath:    &upload.DirectPath,
			MediaKey:      upload.MediaKey,
			FileEncSHA256: upload.FileEncSHA256,
			FileSHA256:    upload.FileSHA256,
			FileLength:    &upload.FileLength,
		}}
	case whatsmeow.MediaVideo:
		return &waE2E.Message{VideoMessage: &waE2E.VideoMessage{
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mimeType),
			URL:           &upload.URL,
			DirectPath:    &upload.DirectPath,
			MediaKey:      upload.MediaKey,
			FileEncSHA256: upload.FileEncSHA256,
			FileSHA256:    upload.FileSHA256,
			FileLength:    &upload.FileLength,
		}}
	case whatsmeow.MediaAudio:
		return &waE2E.Message{AudioMessage: &waE2E.AudioMessage{
			Mimetype:      proto.String(mimeType),
			URL:           &upload.URL,
			DirectPath:    &upload.DirectPath,
			MediaKey:      upload.MediaKey,
			FileEncSHA256: upload.FileEncSHA256,
			FileSHA256:    upload.FileSHA256,
			FileLength:    &upload.FileLength,
		}}
	default:
		return &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{
			Title:         proto.String(att.Filename),
			FileName:      proto.String(att.Filename),
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mimeType),
			URL:           &upload.URL,
			DirectPath:    &upload.DirectPath,
			MediaKey:      upload.MediaKey,
			FileEncSHA256: upload.FileEncSHA256,
			FileSHA256:    upload.FileSHA256,
			FileLength:    &upload.FileLength,
		}}
	}
}
