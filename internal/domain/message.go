package domain

import "time"

// Sentinels and routing suffixes shared across the bridge.
const (
	// UnknownName is used when a sender's display name cannot be resolved.
	UnknownName = "Sem nome"
	// OperatorName labels messages sent by the operator through the API.
	OperatorName = "Eu"

	// GroupSuffix marks group routing identifiers. Group ids are not
	// phone numbers and are stored raw.
	GroupSuffix = "@g.us"
	// UserSuffix is appended to bare phone numbers to form a direct
	// routing identifier.
	UserSuffix = "@c.us"
)

// Attachment is a self-contained media blob. Data carries the base64
// payload; there is no external file reference.
type Attachment struct {
	MimeType string `json:"mimetype" bson:"mimetype"`
	Filename string `json:"filename" bson:"filename"`
	Data     string `json:"data" bson:"data"`
}

// StoredMessage is the only persisted entity: one row in the flat,
// append-only message log. Records are immutable once written.
//
// Exactly one of two shapes holds: group messages carry the raw group
// identifier in SenderPhone and an empty RecipientPhone; direct
// messages carry a canonical phone in SenderPhone and the counterparty
// (or the operator) in RecipientPhone.
type StoredMessage struct {
	ID             string      `json:"id" bson:"id"`
	SenderName     string      `json:"nome" bson:"nome"`
	SenderPhone    string      `json:"telefone" bson:"telefone"`
	RecipientPhone string      `json:"destinatario,omitempty" bson:"destinatario,omitempty"`
	Body           string      `json:"mensagem" bson:"mensagem"`
	IsGroup        bool        `json:"isGroup" bson:"isGroup"`
	Timestamp      time.Time   `json:"data" bson:"data"`
	Attachment     *Attachment `json:"arquivo,omitempty" bson:"arquivo,omitempty"`
}

// Contact is one deduplicated entry in the contact list.
type Contact struct {
	Phone   string `json:"telefone"`
	Name    string `json:"nome"`
	IsGroup bool   `json:"isGroup"`
}

// TimelineEntry is the read projection of a stored message inside a
// reconstructed two-party conversation. Attachment is null when the
// record carries none.
type TimelineEntry struct {
	Phone      string      `json:"telefone"`
	Body       string      `json:"mensagem"`
	Timestamp  time.Time   `json:"data"`
	Name       string      `json:"nome"`
	Attachment *Attachment `json:"arquivo"`
}
