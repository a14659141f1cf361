package domain

import "strings"

// Contact is an address book entry usable as a task assignee.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Clone returns a copy of the contact.
func (c Contact) Clone() Contact { return c }

// CloneContacts copies a contact collection.
func CloneContacts(contacts []Contact) []Contact {
	if contacts == nil {
		return nil
	}
	out := make([]Contact, len(contacts))
	copy(out, contacts)
	return out
}

// NormalizeName collapses internal whitespace and trims the ends.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// NormalizeEmail trims and lower-cases an email address. Emails act as
// a uniqueness hint only, so no further validation happens here.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
