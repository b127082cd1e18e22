package relay

import "zapbridge/internal/domain"

// Contacts derives a deduplicated contact list from records ordered
// newest-first: the first occurrence of each sender phone wins, so
// every entry carries the name and group flag of that contact's most
// recent message, and output order is most-recently-active first. The
// operator's own identifier is excluded; it is "self", not a contact.
func Contacts(newestFirst []domain.StoredMessage, operator string) []domain.Contact {
	seen := make(map[string]bool, len(newestFirst))
	contacts := make([]domain.Contact, 0, len(newestFirst))

	for _, msg := range newestFirst {
		tel := msg.SenderPhone
		if tel == "" || tel == operator || seen[tel] {
			continue
		}
		seen[tel] = true

		name := msg.SenderName
		if name == "" {
			name = domain.UnknownName
		}
		contacts = append(contacts, domain.Contact{
			Phone:   tel,
			Name:    name,
			IsGroup: msg.IsGroup,
		})
	}
	return contacts
}
