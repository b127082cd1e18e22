package relay

import (
	"context"
	"errors"
	"testing"

	"zapbridge/internal/domain"
)

func testSender(store *fakeStore, transport *fakeTransport) *Sender {
	return NewSender(SenderConfig{
		Store:     store,
		Transport: transport,
		Events:    testBus(),
		Operator:  func() string { return "5585911112222" },
		Logger:    testLogger(),
	})
}

func TestSender_SendText(t *testing.T) {
	store := &fakeStore{}
	transport := &fakeTransport{}
	s := testSender(store, transport)

	id, err := s.SendText(context.Background(), "85 99724-5006", "oi")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id == "" {
		t.Error("expected transport message id")
	}
	if transport.to[0] != "5585997245006@c.us" {
		t.Errorf("routing id = %q, want normalized number with suffix", transport.to[0])
	}

	if len(store.records) != 1 {
		t.Fatalf("expected 1 mirrored record, got %d", len(store.records))
	}
	r := store.records[0]
	if r.SenderName != domain.OperatorName {
		t.Errorf("sender name = %q, want %q", r.SenderName, domain.OperatorName)
	}
	if r.SenderPhone != "5585911112222" || r.RecipientPhone != "5585997245006" {
		t.Errorf("phones = %q -> %q", r.SenderPhone, r.RecipientPhone)
	}
	if r.Body != "oi" || r.IsGroup {
		t.Errorf("unexpected record: %+v", r)
	}
}

func TestSender_ValidationRejectsBeforeTransport(t *testing.T) {
	store := &fakeStore{}
	transport := &fakeTransport{}
	s := testSender(store, transport)

	cases := []struct{ tel, msg string }{
		{"", "oi"},
		{"5585997245006", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if _, err := s.SendText(context.Background(), tc.tel, tc.msg); !errors.Is(err, ErrValidation) {
			t.Errorf("SendText(%q, %q) err = %v, want ErrValidation", tc.tel, tc.msg, err)
		}
	}
	if len(transport.texts) != 0 {
		t.Error("transport must not be reached on validation failure")
	}
	if len(store.records) != 0 {
		t.Error("store must not be written on validation failure")
	}
}

func TestSender_TransportFailureLeavesNoRecord(t *testing.T) {
	store := &fakeStore{}
	transport := &fakeTransport{fail: true}
	s := testSender(store, transport)

	if _, err := s.SendText(context.Background(), "5585997245006", "oi"); err == nil {
		t.Fatal("expected error")
	}
	if len(store.records) != 0 {
		t.Errorf("failed send must not be mirrored, got %d records", len(store.records))
	}
}

func TestSender_GroupRoutingPassedThrough(t *testing.T) {
	store := &fakeStore{}
	transport := &fakeTransport{}
	s := testSender(store, transport)

	if _, err := s.SendText(context.Background(), "120363025343298765@g.us", "oi grupo"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if transport.to[0] != "120363025343298765@g.us" {
		t.Errorf("group routing id = %q, want raw identifier", transport.to[0])
	}
	if !store.records[0].IsGroup {
		t.Error("expected group flag on mirrored record")
	}
	if store.records[0].RecipientPhone != "120363025343298765@g.us" {
		t.Errorf("group recipient = %q, want raw identifier", store.records[0].RecipientPhone)
	}
}

func TestSender_SendFileRoundTrip(t *testing.T) {
	store := &fakeStore{}
	transport := &fakeTransport{}
	s := testSender(store, transport)

	att := domain.Attachment{MimeType: "application/pdf", Filename: "nota.pdf", Data: "JVBERi0="}
	if err := s.SendFile(context.Background(), "5585997245006", att, "segue o PDF"); err != nil {
		t.Fatalf("send file: %v", err)
	}

	if transport.files[0].Filename != "nota.pdf" {
		t.Errorf("transport got filename %q", transport.files[0].Filename)
	}

	r := store.records[0]
	if r.Attachment == nil {
		t.Fatal("expected mirrored attachment")
	}
	if r.Attachment.Filename != "nota.pdf" || r.Attachment.MimeType != "application/pdf" || r.Attachment.Data != "JVBERi0=" {
		t.Errorf("attachment fields lost: %+v", r.Attachment)
	}
	if r.Body != "segue o PDF" {
		t.Errorf("caption = %q", r.Body)
	}
}

func TestSender_SendFileValidation(t *testing.T) {
	store := &fakeStore{}
	transport := &fakeTransport{}
	s := testSender(store, transport)

	err := s.SendFile(context.Background(), "5585997245006", domain.Attachment{MimeType: "image/png"}, "")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	if len(store.records) != 0 || len(transport.files) != 0 {
		t.Error("nothing may be sent or stored on validation failure")
	}
}
