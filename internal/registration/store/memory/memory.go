// Package memory holds live registration state in process. Drafts are
// session state; only submitted documents reach the database, so this is the
// primary store, not a test double.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
	"github.com/SmartForm247/EasyForm2/internal/registration/store"
	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

// Store is the in-memory registration store. Each registration has its own
// lock; events are dispatched after the originating mutation unlocks, so
// handlers can call back in.
type Store struct {
	mu   sync.RWMutex
	regs map[uuid.UUID]*entry

	hmu      sync.RWMutex
	handlers []store.Handler

	clock func() time.Time
}

type entry struct {
	mu  sync.Mutex
	reg *models.Registration
}

// Option configures the store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

func New(opts ...Option) *Store {
	s := &Store{
		regs:  make(map[uuid.UUID]*entry),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Subscribe(h store.Handler) {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	s.handlers = append(s.handlers, h)
}

func (s *Store) dispatch(ctx context.Context, events []store.Event) {
	if len(events) == 0 {
		return
	}
	s.hmu.RLock()
	handlers := make([]store.Handler, len(s.handlers))
	copy(handlers, s.handlers)
	s.hmu.RUnlock()
	for _, e := range events {
		for _, h := range handlers {
			h(ctx, e)
		}
	}
}

func (s *Store) Create(ctx context.Context, ownerUserID, formType string) (*models.Registration, error) {
	now := s.clock().UTC()
	reg := &models.Registration{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		FormType:    formType,
		Company:     make(map[schema.Field]string),
		Secretary:   models.SecretaryRecord{Fields: make(map[schema.Field]string)},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	reg.Directors = append(reg.Directors, &models.DirectorRecord{
		Index:  1,
		Fields: make(map[schema.Field]string),
		Roles:  models.RoleFlags{DirectorOnly: true},
	})

	s.mu.Lock()
	s.regs[reg.ID] = &entry{reg: reg}
	s.mu.Unlock()

	s.dispatch(ctx, []store.Event{{
		RegistrationID: reg.ID,
		Type:           store.EventRecordAdded,
		Kind:           schema.KindDirector,
		Index:          1,
	}})
	return reg.Clone(), nil
}

func (s *Store) Restore(_ context.Context, reg *models.Registration) error {
	if reg.ID == uuid.Nil {
		return fmt.Errorf("registration has no id: %w", sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	s.regs[reg.ID] = &entry{reg: reg.Clone()}
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	ent, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.reg.Clone(), nil
}

func (s *Store) ListByOwner(_ context.Context, ownerUserID string) ([]*models.Registration, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.regs))
	for _, ent := range s.regs {
		entries = append(entries, ent)
	}
	s.mu.RUnlock()

	var out []*models.Registration
	for _, ent := range entries {
		ent.mu.Lock()
		if ent.reg.OwnerUserID == ownerUserID {
			out = append(out, ent.reg.Clone())
		}
		ent.mu.Unlock()
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.regs[id]; !ok {
		return fmt.Errorf("registration %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.regs, id)
	return nil
}

func (s *Store) AddRecord(ctx context.Context, id uuid.UUID, kind schema.RecordKind) (int, error) {
	if !kind.Indexed() {
		return 0, fmt.Errorf("kind %s is a singleton: %w", kind, sentinel.ErrInvalidState)
	}
	var index int
	events, err := s.mutate(id, func(reg *models.Registration) ([]store.Event, error) {
		index = appendRecord(reg, kind)
		return []store.Event{{
			RegistrationID: id,
			Type:           store.EventRecordAdded,
			Kind:           kind,
			Index:          index,
		}}, nil
	})
	if err != nil {
		return 0, err
	}
	s.dispatch(ctx, events)
	return index, nil
}

func (s *Store) RemoveRecord(ctx context.Context, id uuid.UUID, kind schema.RecordKind, index int) error {
	events, err := s.mutate(id, func(reg *models.Registration) ([]store.Event, error) {
		return removeRecord(reg, kind, index)
	})
	if err != nil {
		return err
	}
	s.dispatch(ctx, events)
	return nil
}

func (s *Store) SetField(ctx context.Context, id uuid.UUID, kind schema.RecordKind, index int, f schema.Field, value string) error {
	if !schema.HasField(kind, f) {
		return fmt.Errorf("field %s not on %s: %w", f, kind, sentinel.ErrInvalidState)
	}
	events, err := s.mutate(id, func(reg *models.Registration) ([]store.Event, error) {
		changed, linkTag, err := setField(reg, kind, index, f, value)
		if err != nil {
			return nil, err
		}
		if !changed {
			return nil, nil
		}
		return []store.Event{{
			RegistrationID: id,
			Type:           store.EventFieldChanged,
			Kind:           kind,
			Index:          index,
			Field:          f,
			Value:          value,
			LinkTag:        linkTag,
		}}, nil
	})
	if err != nil {
		return err
	}
	s.dispatch(ctx, events)
	return nil
}

func (s *Store) SetCompanyField(ctx context.Context, id uuid.UUID, f schema.Field, value string) error {
	events, err := s.mutate(id, func(reg *models.Registration) ([]store.Event, error) {
		if reg.Company[f] == value {
			return nil, nil
		}
		reg.Company[f] = value
		return []store.Event{{
			RegistrationID: id,
			Type:           store.EventCompanyFieldChanged,
			Field:          f,
			Value:          value,
		}}, nil
	})
	if err != nil {
		return err
	}
	s.dispatch(ctx, events)
	return nil
}

func (s *Store) SetRoleInput(ctx context.Context, id uuid.UUID, dirIndex int, f schema.Field, value string) error {
	events, err := s.mutate(id, func(reg *models.Registration) ([]store.Event, error) {
		d := reg.Director(dirIndex)
		if d == nil {
			return nil, fmt.Errorf("director %d: %w", dirIndex, sentinel.ErrNotFound)
		}
		var slot *string
		switch f {
		case schema.FieldSharePercent:
			slot = &d.RoleInputs.SharePercent
		case schema.FieldVotingRights:
			slot = &d.RoleInputs.VotingRights
		case schema.FieldQualification:
			slot = &d.RoleInputs.Qualification
		default:
			return nil, fmt.Errorf("field %s is not a role input: %w", f, sentinel.ErrInvalidState)
		}
		if *slot == value {
			return nil, nil
		}
		*slot = value
		return []store.Event{{
			RegistrationID: id,
			Type:           store.EventRoleInputChanged,
			Kind:           schema.KindDirector,
			Index:          dirIndex,
			Field:          f,
			Value:          value,
		}}, nil
	})
	if err != nil {
		return err
	}
	s.dispatch(ctx, events)
	return nil
}

func (s *Store) ApplyRoleFlags(ctx context.Context, id uuid.UUID, dirIndex int, flags models.RoleFlags) error {
	events, err := s.mutate(id, func(reg *models.Registration) ([]store.Event, error) {
		d := reg.Director(dirIndex)
		if d == nil {
			return nil, fmt.Errorf("director %d: %w", dirIndex, sentinel.ErrNotFound)
		}
		if d.Roles == flags {
			return nil, nil
		}
		prev := d.Roles
		d.Roles = flags
		return []store.Event{{
			RegistrationID: id,
			Type:           store.EventRolesChanged,
			Kind:           schema.KindDirector,
			Index:          dirIndex,
			Roles:          flags,
			PrevRoles:      prev,
		}}, nil
	})
	if err != nil {
		return err
	}
	s.dispatch(ctx, events)
	return nil
}

func (s *Store) EnsureLinked(ctx context.Context, id uuid.UUID, kind schema.RecordKind, dirIndex int) (int, error) {
	if kind != schema.KindSubscriber && kind != schema.KindOwner {
		return 0, fmt.Errorf("kind %s cannot be linked: %w", kind, sentinel.ErrInvalidState)
	}
	var index int
	events, err := s.mutate(id, func(reg *models.Registration) ([]store.Event, error) {
		if reg.Director(dirIndex) == nil {
			return nil, fmt.Errorf("director %d: %w", dirIndex, sentinel.ErrNotFound)
		}
		var evs []store.Event
		switch kind {
		case schema.KindSubscriber:
			if rec := reg.LinkedSubscriber(dirIndex); rec != nil {
				index = rec.Index
				return nil, nil
			}
			if rec := firstUnlinkedSubscriber(reg); rec != nil {
				rec.LinkTag = dirIndex
				index = rec.Index
			} else {
				index = appendRecord(reg, kind)
				reg.Subscribers[index-1].LinkTag = dirIndex
				evs = append(evs, store.Event{
					RegistrationID: id, Type: store.EventRecordAdded,
					Kind: kind, Index: index, LinkTag: dirIndex,
				})
			}
		case schema.KindOwner:
			if rec := reg.LinkedOwner(dirIndex); rec != nil {
				index = rec.Index
				return nil, nil
			}
			if rec := firstUnlinkedOwner(reg); rec != nil {
				rec.LinkTag = dirIndex
				index = rec.Index
			} else {
				index = appendRecord(reg, kind)
				reg.Owners[index-1].LinkTag = dirIndex
				evs = append(evs, store.Event{
					RegistrationID: id, Type: store.EventRecordAdded,
					Kind: kind, Index: index, LinkTag: dirIndex,
				})
			}
		}
		evs = append(evs, store.Event{
			RegistrationID: id, Type: store.EventRecordLinked,
			Kind: kind, Index: index, LinkTag: dirIndex,
		})
		return evs, nil
	})
	if err != nil {
		return 0, err
	}
	s.dispatch(ctx, events)
	return index, nil
}

func (s *Store) RemoveLinked(ctx context.Context, id uuid.UUID, kind schema.RecordKind, dirIndex int) error {
	events, err := s.mutate(id, func(reg *models.Registration) ([]store.Event, error) {
		var index int
		switch kind {
		case schema.KindSubscriber:
			if rec := reg.LinkedSubscriber(dirIndex); rec != nil {
				index = rec.Index
			}
		case schema.KindOwner:
			if rec := reg.LinkedOwner(dirIndex); rec != nil {
				index = rec.Index
			}
		default:
			return nil, fmt.Errorf("kind %s cannot be linked: %w", kind, sentinel.ErrInvalidState)
		}
		if index == 0 {
			return nil, nil
		}
		return removeRecord(reg, kind, index)
	})
	if err != nil {
		return err
	}
	s.dispatch(ctx, events)
	return nil
}

func (s *Store) entry(id uuid.UUID) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ent, ok := s.regs[id]
	if !ok {
		return nil, fmt.Errorf("registration %s: %w", id, sentinel.ErrNotFound)
	}
	return ent, nil
}

// mutate runs fn under the registration lock, stamps UpdatedAt when fn
// produced events, and returns the events for dispatch after unlock.
func (s *Store) mutate(id uuid.UUID, fn func(*models.Registration) ([]store.Event, error)) ([]store.Event, error) {
	ent, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	events, err := fn(ent.reg)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		ent.reg.UpdatedAt = s.clock().UTC()
	}
	return events, nil
}

func appendRecord(reg *models.Registration, kind schema.RecordKind) int {
	switch kind {
	case schema.KindDirector:
		idx := len(reg.Directors) + 1
		reg.Directors = append(reg.Directors, &models.DirectorRecord{
			Index:  idx,
			Fields: make(map[schema.Field]string),
			Roles:  models.RoleFlags{DirectorOnly: true},
		})
		return idx
	case schema.KindSubscriber:
		idx := len(reg.Subscribers) + 1
		reg.Subscribers = append(reg.Subscribers, &models.SubscriberRecord{
			Index:  idx,
			Fields: make(map[schema.Field]string),
		})
		return idx
	case schema.KindOwner:
		idx := len(reg.Owners) + 1
		reg.Owners = append(reg.Owners, &models.OwnerRecord{
			Index:  idx,
			Fields: make(map[schema.Field]string),
		})
		return idx
	}
	return 0
}

// removeRecord removes one record and renumbers the survivors in place, so a
// record's values travel with its new index. Director removal cascades to the
// removed director's linked records and shifts higher link tags down.
func removeRecord(reg *models.Registration, kind schema.RecordKind, index int) ([]store.Event, error) {
	var events []store.Event
	switch kind {
	case schema.KindDirector:
		if reg.Director(index) == nil {
			return nil, fmt.Errorf("director %d: %w", index, sentinel.ErrNotFound)
		}
		if len(reg.Directors) == 1 {
			return nil, fmt.Errorf("cannot remove the last director: %w", sentinel.ErrInvalidState)
		}
		removed := reg.Directors[index-1]
		if sub := reg.LinkedSubscriber(index); sub != nil {
			subEvents, err := removeRecord(reg, schema.KindSubscriber, sub.Index)
			if err != nil {
				return nil, err
			}
			events = append(events, subEvents...)
		}
		if own := reg.LinkedOwner(index); own != nil {
			ownEvents, err := removeRecord(reg, schema.KindOwner, own.Index)
			if err != nil {
				return nil, err
			}
			events = append(events, ownEvents...)
		}
		reg.Directors = append(reg.Directors[:index-1], reg.Directors[index:]...)
		for i, d := range reg.Directors {
			d.Index = i + 1
		}
		for _, sub := range reg.Subscribers {
			if sub.LinkTag > index {
				sub.LinkTag--
			}
		}
		for _, own := range reg.Owners {
			if own.LinkTag > index {
				own.LinkTag--
			}
		}
		events = append(events, store.Event{
			RegistrationID: reg.ID,
			Type:           store.EventRecordRemoved,
			Kind:           schema.KindDirector,
			Index:          index,
		})
		if removed.Roles.Secretary {
			reg.Secretary = models.SecretaryRecord{Fields: make(map[schema.Field]string)}
			events = append(events, store.Event{
				RegistrationID: reg.ID,
				Type:           store.EventSecretaryVacated,
				Index:          index,
			})
		}
	case schema.KindSubscriber:
		rec := reg.Subscriber(index)
		if rec == nil {
			return nil, fmt.Errorf("subscriber %d: %w", index, sentinel.ErrNotFound)
		}
		linkTag := rec.LinkTag
		reg.Subscribers = append(reg.Subscribers[:index-1], reg.Subscribers[index:]...)
		for i, sub := range reg.Subscribers {
			sub.Index = i + 1
		}
		events = append(events, store.Event{
			RegistrationID: reg.ID,
			Type:           store.EventRecordRemoved,
			Kind:           schema.KindSubscriber,
			Index:          index,
			LinkTag:        linkTag,
		})
	case schema.KindOwner:
		rec := reg.Owner(index)
		if rec == nil {
			return nil, fmt.Errorf("owner %d: %w", index, sentinel.ErrNotFound)
		}
		linkTag := rec.LinkTag
		reg.Owners = append(reg.Owners[:index-1], reg.Owners[index:]...)
		for i, own := range reg.Owners {
			own.Index = i + 1
		}
		events = append(events, store.Event{
			RegistrationID: reg.ID,
			Type:           store.EventRecordRemoved,
			Kind:           schema.KindOwner,
			Index:          index,
			LinkTag:        linkTag,
		})
	default:
		return nil, fmt.Errorf("kind %s cannot be removed: %w", kind, sentinel.ErrInvalidState)
	}
	return events, nil
}

// setField writes the field and reports whether the stored value changed,
// plus the record's link tag for event context.
func setField(reg *models.Registration, kind schema.RecordKind, index int, f schema.Field, value string) (bool, int, error) {
	switch kind {
	case schema.KindDirector:
		d := reg.Director(index)
		if d == nil {
			return false, 0, fmt.Errorf("director %d: %w", index, sentinel.ErrNotFound)
		}
		if d.Fields[f] == value {
			return false, 0, nil
		}
		d.Fields[f] = value
		return true, 0, nil
	case schema.KindSubscriber:
		rec := reg.Subscriber(index)
		if rec == nil {
			return false, 0, fmt.Errorf("subscriber %d: %w", index, sentinel.ErrNotFound)
		}
		if f == schema.FieldSharePercent {
			if rec.SharePercent == value {
				return false, rec.LinkTag, nil
			}
			rec.SharePercent = value
			return true, rec.LinkTag, nil
		}
		if rec.Fields[f] == value {
			return false, rec.LinkTag, nil
		}
		rec.Fields[f] = value
		return true, rec.LinkTag, nil
	case schema.KindOwner:
		rec := reg.Owner(index)
		if rec == nil {
			return false, 0, fmt.Errorf("owner %d: %w", index, sentinel.ErrNotFound)
		}
		var slot *string
		switch f {
		case schema.FieldVotingRights:
			slot = &rec.VotingRights
		case schema.FieldDirectPercent:
			slot = &rec.DirectPercent
		case schema.FieldIndirectPercent:
			slot = &rec.IndirectPercent
		}
		if slot != nil {
			if *slot == value {
				return false, rec.LinkTag, nil
			}
			*slot = value
			return true, rec.LinkTag, nil
		}
		if rec.Fields[f] == value {
			return false, rec.LinkTag, nil
		}
		rec.Fields[f] = value
		return true, rec.LinkTag, nil
	case schema.KindSecretary:
		if f == schema.FieldQualification {
			if reg.Secretary.Qualification == value {
				return false, 0, nil
			}
			reg.Secretary.Qualification = value
			return true, 0, nil
		}
		if reg.Secretary.Fields[f] == value {
			return false, 0, nil
		}
		reg.Secretary.Fields[f] = value
		return true, 0, nil
	}
	return false, 0, fmt.Errorf("unknown kind %s: %w", kind, sentinel.ErrInvalidState)
}

func firstUnlinkedSubscriber(reg *models.Registration) *models.SubscriberRecord {
	for _, rec := range reg.Subscribers {
		if rec.LinkTag == 0 {
			return rec
		}
	}
	return nil
}

func firstUnlinkedOwner(reg *models.Registration) *models.OwnerRecord {
	for _, rec := range reg.Owners {
		if rec.LinkTag == 0 {
			return rec
		}
	}
	return nil
}
