package board

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"join-board/domain"
	"join-board/storage"
)

// ContactSyncer schedules a push of the contact collection after a
// local mutation.
type ContactSyncer interface {
	ScheduleContactsPush()
}

// CreateContactInput carries the fields of a contact create request.
type CreateContactInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ContactRepository implements contact CRUD. Deleting a contact does
// not cascade into tasks' assigned lists; dangling references resolve
// to the raw identifier at display time.
type ContactRepository struct {
	cache  *storage.Cache
	syncer ContactSyncer
	mu     sync.Mutex
}

// NewContactRepository creates a repository over the given cache.
func NewContactRepository(cache *storage.Cache, syncer ContactSyncer) *ContactRepository {
	if cache == nil {
		panic("board.NewContactRepository: cache is required")
	}
	if syncer == nil {
		panic("board.NewContactRepository: syncer is required")
	}
	return &ContactRepository{cache: cache, syncer: syncer}
}

// All returns the full contact collection.
func (r *ContactRepository) All() []domain.Contact {
	return r.cache.Contacts()
}

// Get returns the contact with the given id.
func (r *ContactRepository) Get(id string) (domain.Contact, error) {
	for _, c := range r.cache.Contacts() {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Contact{}, &domain.NotFoundError{Entity: "contact", ID: id}
}

// DisplayName resolves a contact id to its name, falling back to the
// raw id when no such contact exists.
func (r *ContactRepository) DisplayName(id string) string {
	if c, err := r.Get(id); err == nil {
		return c.Name
	}
	return id
}

// Create validates and appends a new contact. Name and email are
// normalized; the email acts as a uniqueness hint only, duplicates are
// not rejected.
func (r *ContactRepository) Create(ctx context.Context, input CreateContactInput) (domain.Contact, error) {
	name := domain.NormalizeName(input.Name)
	if name == "" {
		return domain.Contact{}, &domain.ValidationError{Field: "name", Reason: "required"}
	}
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return domain.Contact{}, &domain.ValidationError{Field: "email", Reason: "required"}
	}
	contact := domain.Contact{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
		Phone: domain.NormalizeName(input.Phone),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	contacts := append(r.cache.Contacts(), contact)
	r.cache.PutContacts(ctx, contacts)
	r.syncer.ScheduleContactsPush()
	return contact, nil
}

// Update merges the patch into an existing contact.
func (r *ContactRepository) Update(ctx context.Context, id string, patch domain.ContactPatch) (domain.Contact, error) {
	if err := patch.Validate(); err != nil {
		return domain.Contact{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	contacts := r.cache.Contacts()
	for i := range contacts {
		if contacts[i].ID != id {
			continue
		}
		patch.Apply(&contacts[i])
		updated := contacts[i]
		r.cache.PutContacts(ctx, contacts)
		r.syncer.ScheduleContactsPush()
		return updated, nil
	}
	return domain.Contact{}, &domain.NotFoundError{Entity: "contact", ID: id}
}

// Remove deletes a contact without touching tasks that reference it.
func (r *ContactRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	contacts := r.cache.Contacts()
	for i := range contacts {
		if contacts[i].ID != id {
			continue
		}
		contacts = append(contacts[:i], contacts[i+1:]...)
		r.cache.PutContacts(ctx, contacts)
		r.syncer.ScheduleContactsPush()
		return nil
	}
	return &domain.NotFoundError{Entity: "contact", ID: id}
}
