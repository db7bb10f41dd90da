// Package store defines the registration state store contract and the change
// events it emits. Mutations are explicit operations; every observable change
// surfaces as an Event so the sync engine and projector react to state, never
// to presentation.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
)

// EventType discriminates registration change events.
type EventType string

const (
	// EventRecordAdded fires when a record is appended to a collection.
	EventRecordAdded EventType = "record_added"
	// EventRecordRemoved fires per removed record, before renumbering of the
	// survivors is reflected in reads.
	EventRecordRemoved EventType = "record_removed"
	// EventRecordLinked fires when an existing unlinked record is claimed for
	// a director, or a freshly appended record receives its link tag.
	EventRecordLinked EventType = "record_linked"
	// EventFieldChanged fires only when a field's stored value actually
	// changed. Writes of the current value are silent, which is what lets
	// mirror writes during sync terminate.
	EventFieldChanged EventType = "field_changed"
	// EventCompanyFieldChanged fires on company-level field changes.
	EventCompanyFieldChanged EventType = "company_field_changed"
	// EventRoleInputChanged fires when a director's role-specific input
	// (share percent, voting rights, qualification) changes.
	EventRoleInputChanged EventType = "role_input_changed"
	// EventRolesChanged fires when a director's role flag set changes.
	EventRolesChanged EventType = "roles_changed"
	// EventSecretaryVacated fires when the director holding the secretary
	// flag is removed and the secretary record is cleared with them.
	EventSecretaryVacated EventType = "secretary_vacated"
)

// Event is one observable registration change.
type Event struct {
	RegistrationID uuid.UUID
	Type           EventType
	Kind           schema.RecordKind
	Index          int
	Field          schema.Field
	Value          string
	// LinkTag is the owning director index on linked-record events, zero
	// otherwise.
	LinkTag int
	// Roles and PrevRoles are set on EventRolesChanged.
	Roles     models.RoleFlags
	PrevRoles models.RoleFlags
}

// Handler receives events after the originating mutation has committed.
// Handlers may call back into the store.
type Handler func(ctx context.Context, e Event)

// Store holds live registration state. Implementations must emit events in
// mutation order and only after the mutation is visible to reads.
type Store interface {
	// Create opens a new registration seeded with one director-only
	// director, which is the floor the collection never goes below.
	Create(ctx context.Context, ownerUserID, formType string) (*models.Registration, error)
	// Get returns a deep copy of the registration.
	Get(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	// ListByOwner returns deep copies of the owner's registrations.
	ListByOwner(ctx context.Context, ownerUserID string) ([]*models.Registration, error)
	// Delete drops a registration.
	Delete(ctx context.Context, id uuid.UUID) error
	// Restore installs a registration loaded from persistence as a live
	// session, keeping its identity. Replaces any session with the same ID.
	Restore(ctx context.Context, reg *models.Registration) error

	// AddRecord appends an empty record of an indexed kind and returns its
	// 1-based index.
	AddRecord(ctx context.Context, id uuid.UUID, kind schema.RecordKind) (int, error)
	// RemoveRecord removes the record at index and renumbers the survivors,
	// preserving their values. Removing a director cascades to its linked
	// records and decrements higher link tags. Removing the last director
	// fails with sentinel.ErrInvalidState.
	RemoveRecord(ctx context.Context, id uuid.UUID, kind schema.RecordKind, index int) error

	// SetField writes one field of one record. Index is ignored for the
	// secretary. A write that does not change the stored value emits no
	// event.
	SetField(ctx context.Context, id uuid.UUID, kind schema.RecordKind, index int, f schema.Field, value string) error
	// SetCompanyField writes one company-level field.
	SetCompanyField(ctx context.Context, id uuid.UUID, f schema.Field, value string) error
	// SetRoleInput writes one of a director's role-specific inputs.
	SetRoleInput(ctx context.Context, id uuid.UUID, dirIndex int, f schema.Field, value string) error
	// ApplyRoleFlags replaces a director's role flag set.
	ApplyRoleFlags(ctx context.Context, id uuid.UUID, dirIndex int, flags models.RoleFlags) error

	// EnsureLinked returns the index of the record of kind linked to the
	// director, claiming the first unlinked record or appending a new one
	// when none is linked yet.
	EnsureLinked(ctx context.Context, id uuid.UUID, kind schema.RecordKind, dirIndex int) (int, error)
	// RemoveLinked removes the record of kind linked to the director, if
	// any, renumbering as RemoveRecord does.
	RemoveLinked(ctx context.Context, id uuid.UUID, kind schema.RecordKind, dirIndex int) error

	// Subscribe registers a handler for all registrations. Registration
	// order is dispatch order.
	Subscribe(h Handler)
}
