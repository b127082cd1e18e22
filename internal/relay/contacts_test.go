package relay

import (
	"testing"

	"zapbridge/internal/domain"
)

func TestContacts_NewestFirstDedup(t *testing.T) {
	// Records as returned newest-first by the store.
	records := []domain.StoredMessage{
		{SenderPhone: "5585997245006", SenderName: "Maria Nova"},
		{SenderPhone: "5511933334444", SenderName: "João"},
		{SenderPhone: "5585997245006", SenderName: "Maria Antiga"},
	}

	contacts := Contacts(records, "5585911112222")
	if len(contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(contacts))
	}
	if contacts[0].Phone != "5585997245006" || contacts[0].Name != "Maria Nova" {
		t.Errorf("first contact should carry the newest name: %+v", contacts[0])
	}
	if contacts[1].Phone != "5511933334444" {
		t.Errorf("second contact = %+v", contacts[1])
	}
}

func TestContacts_ExcludesOperator(t *testing.T) {
	records := []domain.StoredMessage{
		{SenderPhone: "5585911112222", SenderName: domain.OperatorName},
		{SenderPhone: "5585997245006", SenderName: "Maria"},
	}

	contacts := Contacts(records, "5585911112222")
	if len(contacts) != 1 || contacts[0].Phone != "5585997245006" {
		t.Errorf("operator must not appear as contact: %+v", contacts)
	}
}

func TestContacts_GroupEntries(t *testing.T) {
	records := []domain.StoredMessage{
		{SenderPhone: "120363025343298765@g.us", SenderName: "Maria", IsGroup: true},
	}

	contacts := Contacts(records, "5585911112222")
	if len(contacts) != 1 || !contacts[0].IsGroup {
		t.Fatalf("expected one group contact: %+v", contacts)
	}
}

func TestContacts_EmptyNameGetsSentinel(t *testing.T) {
	records := []domain.StoredMessage{{SenderPhone: "5585997245006"}}

	contacts := Contacts(records, "5585911112222")
	if contacts[0].Name != domain.UnknownName {
		t.Errorf("name = %q, want %q", contacts[0].Name, domain.UnknownName)
	}
}

func TestContacts_Empty(t *testing.T) {
	if got := Contacts(nil, "5585911112222"); len(got) != 0 {
		t.Errorf("expected empty list, got %+v", got)
	}
}
