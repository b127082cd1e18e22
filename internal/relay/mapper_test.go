package relay

import (
	"context"
	"errors"
	"testing"

	"zapbridge/internal/domain"
)

func testMapper(store *fakeStore) *Mapper {
	return NewMapper(MapperConfig{
		Store:    store,
		Events:   testBus(),
		Operator: func() string { return "5585911112222" },
		Logger:   testLogger(),
	})
}

func TestMapper_DirectMessage(t *testing.T) {
	store := &fakeStore{}
	m := testMapper(store)

	m.Handle(context.Background(), fakeEvent{
		from:     "558597245006@c.us",
		sender:   "8597245006",
		pushName: "Maria",
		body:     "oi",
	})

	if len(store.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.records))
	}
	r := store.records[0]
	if r.SenderPhone != "558597245006" {
		t.Errorf("sender phone = %q, want normalized number", r.SenderPhone)
	}
	if r.RecipientPhone != "5585911112222" {
		t.Errorf("recipient = %q, want operator phone", r.RecipientPhone)
	}
	if r.SenderName != "Maria" || r.Body != "oi" || r.IsGroup {
		t.Errorf("unexpected record: %+v", r)
	}
}

func TestMapper_GroupMessageKeepsRawIdentifier(t *testing.T) {
	store := &fakeStore{}
	m := testMapper(store)

	m.Handle(context.Background(), fakeEvent{
		from:     "120363025343298765@g.us",
		sender:   "8597245006",
		pushName: "Maria",
		body:     "bom dia grupo",
	})

	r := store.records[0]
	if !r.IsGroup {
		t.Error("expected group flag")
	}
	if r.SenderPhone != "120363025343298765@g.us" {
		t.Errorf("group sender = %q, want raw identifier", r.SenderPhone)
	}
	if r.RecipientPhone != "" {
		t.Errorf("group recipient = %q, want empty", r.RecipientPhone)
	}
}

func TestMapper_NameFallbackChain(t *testing.T) {
	cases := []struct {
		name string
		evt  fakeEvent
		want string
	}{
		{"push name wins", fakeEvent{pushName: "Maria", savedName: "Maria Silva"}, "Maria"},
		{"saved name second", fakeEvent{savedName: "Maria Silva"}, "Maria Silva"},
		{"sentinel last", fakeEvent{}, domain.UnknownName},
		{"lookup error falls to sentinel", fakeEvent{savedErr: errors.New("no session")}, domain.UnknownName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{}
			evt := tc.evt
			evt.from = "558597245006@c.us"
			evt.sender = "8597245006"
			testMapper(store).Handle(context.Background(), evt)
			if got := store.records[0].SenderName; got != tc.want {
				t.Errorf("name = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMapper_MediaFailureOmitsAttachment(t *testing.T) {
	store := &fakeStore{}
	m := testMapper(store)

	m.Handle(context.Background(), fakeEvent{
		from:     "558597245006@c.us",
		sender:   "8597245006",
		pushName: "Maria",
		body:     "segue foto",
		mediaErr: errors.New("download failed"),
	})

	if len(store.records) != 1 {
		t.Fatalf("record must be stored despite media failure, got %d", len(store.records))
	}
	if store.records[0].Attachment != nil {
		t.Error("expected attachment omitted on download failure")
	}
}

func TestMapper_MediaDefaultFilename(t *testing.T) {
	store := &fakeStore{}
	m := testMapper(store)

	m.Handle(context.Background(), fakeEvent{
		from:   "558597245006@c.us",
		sender: "8597245006",
		media:  &domain.Attachment{MimeType: "image/jpeg", Data: "aGVsbG8="},
	})

	att := store.records[0].Attachment
	if att == nil {
		t.Fatal("expected attachment")
	}
	if att.Filename != DefaultFilename {
		t.Errorf("filename = %q, want %q", att.Filename, DefaultFilename)
	}
}

func TestMapper_StoreFailureIsSwallowed(t *testing.T) {
	store := &fakeStore{failWrite: true}
	m := testMapper(store)

	// Must not panic or propagate.
	m.Handle(context.Background(), fakeEvent{
		from:   "558597245006@c.us",
		sender: "8597245006",
		body:   "oi",
	})

	if len(store.records) != 0 {
		t.Errorf("expected no records, got %d", len(store.records))
	}
}

func TestMapper_ReplayYieldsIndependentRecords(t *testing.T) {
	store := &fakeStore{}
	m := testMapper(store)

	evt := fakeEvent{from: "558597245006@c.us", sender: "8597245006", pushName: "Maria", body: "oi"}
	m.Handle(context.Background(), evt)
	m.Handle(context.Background(), evt)

	if len(store.records) != 2 {
		t.Fatalf("expected 2 records for replayed event, got %d", len(store.records))
	}
}
