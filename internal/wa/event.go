package wa

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"zapbridge/internal/domain"
)

// Event adapts one inbound whatsmeow message to domain.ClientEvent.
type Event struct {
	client *whatsmeow.Client
	msg    *events.Message
}

// From returns the chat identifier in routing form: groups keep their
// native suffix, direct chats get the user suffix.
func (e *Event) From() string {
	chat := e.msg.Info.Chat
	if chat.Server == types.GroupServer {
		return chat.User + domain.GroupSuffix
	}
	return chat.User + domain.UserSuffix
}

func (e *Event) SenderNumber() string {
	return e.msg.Info.Sender.User
}

func (e *Event) PushName() string {
	return e.msg.Info.PushName
}

// SavedName looks the sender up in the session's contact store.
func (e *Event) SavedName(ctx context.Context) (string, error) {
	contact, err := e.client.Store.Contacts.GetContact(ctx, e.msg.Info.Sender)
	if err != nil {
		return "", fmt.Errorf("get contact: %w", err)
	}
	if !contact.Found {
		return "", nil
	}
	if contact.FullName != "" {
		return contact.FullName, nil
	}
	return contact.BusinessName, nil
}

func (e *Event) Body() string {
	msg := e.msg.Message
	if text := msg.GetConversation(); text != "" {
		return text
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	switch {
	case msg.GetImageMessage() != nil:
		return msg.GetImageMessage().GetCaption()
	case msg.GetVideoMessage() != nil:
		return msg.GetVideoMessage().GetCaption()
	case msg.GetDocumentMessage() != nil:
		return msg.GetDocumentMessage().GetCaption()
	}
	return ""
}

func (e *Event) HasMedia() bool {
	msg := e.msg.Message
	return msg.GetImageMessage() != nil ||
		msg.GetVideoMessage() != nil ||
		msg.GetAudioMessage() != nil ||
		msg.GetDocumentMessage() != nil ||
		msg.GetStickerMessage() != nil
}

// Media downloads the attachment and returns it base64-encoded.
// Documents keep their original filename; other media types carry
// none and leave it to the caller's default.
func (e *Event) Media(ctx context.Context) (*domain.Attachment, error) {
	msg := e.msg.Message

	var (
		downloader whatsmeow.DownloadableMessage
		mimeType   string
		filename   string
	)
	switch {
	case msg.GetImageMessage() != nil:
		downloader = msg.GetImageMessage()
		mimeType = msg.GetImageMessage().GetMimetype()
	case msg.GetVideoMessage() != nil:
		downloader = msg.GetVideoMessage()
		mimeType = msg.GetVideoMessage().GetMimetype()
	case msg.GetAudioMessage() != nil:
		downloader = msg.GetAudioMessage()
		mimeType = msg.GetAudioMessage().GetMimetype()
	case msg.GetDocumentMessage() != nil:
		downloader = msg.GetDocumentMessage()
		mimeType = msg.GetDocumentMessage().GetMimetype()
		filename = msg.GetDocumentMessage().GetFileName()
	case msg.GetStickerMessage() != nil:
		downloader = msg.GetStickerMessage()
		mimeType = msg.GetStickerMessage().GetMimetype()
	default:
		return nil, nil
	}

	data, err := e.client.Download(ctx, downloader)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}

	return &domain.Attachment{
		MimeType: mimeType,
		Filename: filename,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}
