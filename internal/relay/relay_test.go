package relay

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"zapbridge/internal/bus"
	"zapbridge/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testBus() *bus.EventBus {
	return bus.NewEventBus(testLogger())
}

// fakeStore appends into memory and can be told to fail.
type fakeStore struct {
	records   []domain.StoredMessage
	failWrite bool
}

func (s *fakeStore) Append(_ context.Context, msg domain.StoredMessage) error {
	if s.failWrite {
		return errors.New("disk full")
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.records = append(s.records, msg)
	return nil
}

func (s *fakeStore) All(_ context.Context, order domain.Order) ([]domain.StoredMessage, error) {
	out := make([]domain.StoredMessage, len(s.records))
	copy(out, s.records)
	if order == domain.Descending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (s *fakeStore) ByParticipant(_ context.Context, tel string) ([]domain.StoredMessage, error) {
	var out []domain.StoredMessage
	for _, r := range s.records {
		if r.SenderPhone == tel || r.RecipientPhone == tel {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) Close() error { return nil }

// fakeTransport records what was handed to it.
type fakeTransport struct {
	texts []string
	files []domain.Attachment
	to    []string
	fail  bool
}

func (t *fakeTransport) SendText(_ context.Context, routingID, text string) (string, error) {
	if t.fail {
		return "", errors.New("not connected")
	}
	t.to = append(t.to, routingID)
	t.texts = append(t.texts, text)
	return "3EB0B430B6F8F1D0E053", nil
}

func (t *fakeTransport) SendFile(_ context.Context, routingID string, att domain.Attachment, _ string) (string, error) {
	if t.fail {
		return "", errors.New("not connected")
	}
	t.to = append(t.to, routingID)
	t.files = append(t.files, att)
	return "3EB0B430B6F8F1D0E054", nil
}

// fakeEvent is a canned inbound client event.
type fakeEvent struct {
	from      string
	sender    string
	pushName  string
	savedName string
	savedErr  error
	body      string
	media     *domain.Attachment
	mediaErr  error
}

func (e fakeEvent) From() string         { return e.from }
func (e fakeEvent) SenderNumber() string { return e.sender }
func (e fakeEvent) PushName() string     { return e.pushName }
func (e fakeEvent) Body() string         { return e.body }
func (e fakeEvent) HasMedia() bool       { return e.media != nil || e.mediaErr != nil }

func (e fakeEvent) SavedName(context.Context) (string, error) {
	return e.savedName, e.savedErr
}

func (e fakeEvent) Media(context.Context) (*domain.Attachment, error) {
	return e.media, e.mediaErr
}
