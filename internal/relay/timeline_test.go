package relay

import (
	"testing"
	"time"

	"zapbridge/internal/domain"
)

func TestTimeline_TwoPartyThread(t *testing.T) {
	operator := "5585911112222"
	target := "5585997245006"
	base := time.Now().Add(-time.Hour)

	records := []domain.StoredMessage{
		{SenderPhone: target, RecipientPhone: operator, SenderName: "Maria", Body: "oi", Timestamp: base},
		{SenderPhone: operator, RecipientPhone: target, SenderName: domain.OperatorName, Body: "olá", Timestamp: base.Add(time.Minute)},
		// Operator talking to somebody else must not leak in.
		{SenderPhone: operator, RecipientPhone: "5511933334444", SenderName: domain.OperatorName, Body: "outro papo", Timestamp: base.Add(2 * time.Minute)},
		{SenderPhone: "5511933334444", RecipientPhone: operator, SenderName: "João", Body: "fora", Timestamp: base.Add(3 * time.Minute)},
		{SenderPhone: target, RecipientPhone: operator, SenderName: "Maria", Body: "tudo bem?", Timestamp: base.Add(4 * time.Minute)},
	}

	entries := Timeline(records, target, operator)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"oi", "olá", "tudo bem?"}
	for i, body := range want {
		if entries[i].Body != body {
			t.Errorf("entry %d = %q, want %q", i, entries[i].Body, body)
		}
	}
	if entries[1].Phone != operator {
		t.Errorf("operator entry keeps operator phone, got %q", entries[1].Phone)
	}
}

func TestTimeline_SortsAscending(t *testing.T) {
	target := "5585997245006"
	base := time.Now()

	records := []domain.StoredMessage{
		{SenderPhone: target, Body: "depois", Timestamp: base.Add(time.Minute)},
		{SenderPhone: target, Body: "antes", Timestamp: base},
	}

	entries := Timeline(records, target, "5585911112222")
	if entries[0].Body != "antes" || entries[1].Body != "depois" {
		t.Errorf("wrong order: %q, %q", entries[0].Body, entries[1].Body)
	}
}

func TestTimeline_DropsUncommittedRecords(t *testing.T) {
	target := "5585997245006"

	records := []domain.StoredMessage{
		{SenderPhone: target, Body: "sem data"},
		{SenderPhone: target, Body: "com data", Timestamp: time.Now()},
	}

	entries := Timeline(records, target, "5585911112222")
	if len(entries) != 1 || entries[0].Body != "com data" {
		t.Errorf("zero-timestamp record must be excluded: %+v", entries)
	}
}

func TestTimeline_AttachmentNilSurvivesProjection(t *testing.T) {
	target := "5585997245006"
	att := &domain.Attachment{MimeType: "image/png", Filename: "x.png", Data: "aGVsbG8="}

	records := []domain.StoredMessage{
		{SenderPhone: target, Body: "foto", Timestamp: time.Now(), Attachment: att},
		{SenderPhone: target, Body: "texto", Timestamp: time.Now().Add(time.Second)},
	}

	entries := Timeline(records, target, "5585911112222")
	if entries[0].Attachment == nil || entries[0].Attachment.Filename != "x.png" {
		t.Errorf("attachment lost: %+v", entries[0])
	}
	if entries[1].Attachment != nil {
		t.Errorf("expected nil attachment, got %+v", entries[1].Attachment)
	}
}
