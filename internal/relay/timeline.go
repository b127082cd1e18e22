package relay

import (
	"sort"

	"zapbridge/internal/domain"
)

// Timeline reconstructs the two-party conversation between the
// operator and target from a flat set of candidate records. A record
// belongs to the thread when the target sent it, or when the operator
// sent it to the target. There is no stored conversation entity; the
// thread is computed on every read.
//
// Records without a timestamp are treated as not yet committed and
// excluded. The result is ascending by time.
func Timeline(records []domain.StoredMessage, target, operator string) []domain.TimelineEntry {
	entries := make([]domain.TimelineEntry, 0, len(records))

	for _, msg := range records {
		if msg.Timestamp.IsZero() {
			continue
		}
		fromTarget := msg.SenderPhone == target
		fromOperator := msg.SenderPhone == operator && msg.RecipientPhone == target
		if !fromTarget && !fromOperator {
			continue
		}
		entries = append(entries, domain.TimelineEntry{
			Phone:      msg.SenderPhone,
			Body:       msg.Body,
			Timestamp:  msg.Timestamp,
			Name:       msg.SenderName,
			Attachment: msg.Attachment,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries
}
