package bus

import (
	"context"
	"testing"

	"zapbridge/internal/domain"
)

type fakeEvent struct {
	from string
	body string
}

func (f fakeEvent) From() string         { return f.from }
func (f fakeEvent) SenderNumber() string { return "" }
func (f fakeEvent) PushName() string     { return "" }
func (f fakeEvent) Body() string         { return f.body }
func (f fakeEvent) HasMedia() bool       { return false }

func (f fakeEvent) SavedName(ctx context.Context) (string, error) { return "", nil }

func (f fakeEvent) Media(ctx context.Context) (*domain.Attachment, error) { return nil, nil }

func TestQueue_PublishAndSubscribe(t *testing.T) {
	q := NewQueue(10, testLogger())
	defer q.Close()

	q.Publish(fakeEvent{from: "5585997245006@c.us", body: "oi"})

	select {
	case evt := <-q.Subscribe():
		if evt.Body() != "oi" {
			t.Errorf("expected body 'oi', got %q", evt.Body())
		}
	default:
		t.Fatal("expected one queued event")
	}
}

func TestQueue_PreservesOrder(t *testing.T) {
	q := NewQueue(10, testLogger())
	defer q.Close()

	q.Publish(fakeEvent{body: "first"})
	q.Publish(fakeEvent{body: "second"})

	ch := q.Subscribe()
	if evt := <-ch; evt.Body() != "first" {
		t.Errorf("expected first, got %q", evt.Body())
	}
	if evt := <-ch; evt.Body() != "second" {
		t.Errorf("expected second, got %q", evt.Body())
	}
}

func TestQueue_PublishAfterClose(t *testing.T) {
	q := NewQueue(10, testLogger())
	q.Close()

	// Must not panic; the event source keeps running.
	q.Publish(fakeEvent{body: "late"})
}

func TestQueue_CloseTwice(t *testing.T) {
	q := NewQueue(10, testLogger())
	q.Close()
	q.Close()
}
