package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
)

// Role is one of the additional roles a director can hold.
type Role string

const (
	RoleDirectorOnly    Role = "only"
	RoleSecretary       Role = "secretary"
	RoleSubscriber      Role = "subscriber"
	RoleBeneficialOwner Role = "owner"
)

// ParseRole resolves an API-supplied role name.
func ParseRole(name string) (Role, bool) {
	switch Role(name) {
	case RoleDirectorOnly, RoleSecretary, RoleSubscriber, RoleBeneficialOwner:
		return Role(name), true
	}
	return "", false
}

// RoleFlags is the mutually-constrained role set of one director.
// DirectorOnly is exclusive with the other three; the transition rules live
// in the roles selector, this type only holds state.
type RoleFlags struct {
	DirectorOnly    bool
	Secretary       bool
	Subscriber      bool
	BeneficialOwner bool
}

// Active returns the derived roles currently set, in sync order.
func (f RoleFlags) Active() []Role {
	var out []Role
	if f.Subscriber {
		out = append(out, RoleSubscriber)
	}
	if f.BeneficialOwner {
		out = append(out, RoleBeneficialOwner)
	}
	if f.Secretary {
		out = append(out, RoleSecretary)
	}
	return out
}

// RoleInputs are the role-specific values entered on a director's role
// selector; they ride along into the derived record during sync.
type RoleInputs struct {
	SharePercent  string
	VotingRights  string
	Qualification string
}

// DirectorRecord is the authoritative person record. Index is 1-based and
// contiguous within the registration's director collection.
type DirectorRecord struct {
	Index      int
	Fields     map[schema.Field]string
	Roles      RoleFlags
	RoleInputs RoleInputs
}

// FullName joins the name parts the way the original forms display them.
func (d *DirectorRecord) FullName() string {
	return joinName(
		d.Fields[schema.FieldFirstName],
		d.Fields[schema.FieldMiddleName],
		d.Fields[schema.FieldSurname],
		d.Fields[schema.FieldFormerName],
	)
}

// DisplayName is the name used in advisories: first and last name when
// present, otherwise "Director N".
func (d *DirectorRecord) DisplayName() string {
	name := strings.TrimSpace(d.Fields[schema.FieldFirstName] + " " + d.Fields[schema.FieldSurname])
	if name != "" {
		return name
	}
	return "Director " + strconv.Itoa(d.Index)
}

// SubscriberRecord mirrors a subset of a director's fields plus a share
// percentage. LinkTag is the index of the director that spawned it; zero
// means unlinked (entered directly).
type SubscriberRecord struct {
	Index        int
	Fields       map[schema.Field]string
	SharePercent string
	LinkTag      int
}

// OwnerRecord mirrors a subset of a director's fields plus ownership
// percentages. LinkTag as on SubscriberRecord.
type OwnerRecord struct {
	Index           int
	Fields          map[schema.Field]string
	VotingRights    string
	DirectPercent   string
	IndirectPercent string
	LinkTag         int
}

// SecretaryRecord is the company secretary singleton. At most one exists per
// registration; content is either entered directly or mirrored from the
// director currently holding the Secretary flag.
type SecretaryRecord struct {
	Fields        map[schema.Field]string
	Qualification string
}

// Empty reports whether the secretary record holds no content.
func (s *SecretaryRecord) Empty() bool {
	if s.Qualification != "" {
		return false
	}
	for _, v := range s.Fields {
		if v != "" {
			return false
		}
	}
	return true
}

// FullName joins the secretary name parts.
func (s *SecretaryRecord) FullName() string {
	return joinName(
		s.Fields[schema.FieldFirstName],
		s.Fields[schema.FieldMiddleName],
		s.Fields[schema.FieldSurname],
		s.Fields[schema.FieldFormerName],
	)
}

// Registration is one draft company registration: company-level fields plus
// the record collections. It is DOM-free state; the presentation surface is
// derived from it by the projector.
type Registration struct {
	ID          uuid.UUID
	OwnerUserID string
	FormType    string

	Company     map[schema.Field]string
	Directors   []*DirectorRecord
	Subscribers []*SubscriberRecord
	Owners      []*OwnerRecord
	Secretary   SecretaryRecord

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Director returns the director at the given 1-based index, or nil.
func (r *Registration) Director(index int) *DirectorRecord {
	if index < 1 || index > len(r.Directors) {
		return nil
	}
	return r.Directors[index-1]
}

// Subscriber returns the subscriber at the given 1-based index, or nil.
func (r *Registration) Subscriber(index int) *SubscriberRecord {
	if index < 1 || index > len(r.Subscribers) {
		return nil
	}
	return r.Subscribers[index-1]
}

// Owner returns the owner at the given 1-based index, or nil.
func (r *Registration) Owner(index int) *OwnerRecord {
	if index < 1 || index > len(r.Owners) {
		return nil
	}
	return r.Owners[index-1]
}

// LinkedSubscriber returns the subscriber linked to the given director
// index, or nil.
func (r *Registration) LinkedSubscriber(dirIndex int) *SubscriberRecord {
	for _, s := range r.Subscribers {
		if s.LinkTag == dirIndex {
			return s
		}
	}
	return nil
}

// LinkedOwner returns the owner linked to the given director index, or nil.
func (r *Registration) LinkedOwner(dirIndex int) *OwnerRecord {
	for _, o := range r.Owners {
		if o.LinkTag == dirIndex {
			return o
		}
	}
	return nil
}

// SecretaryHolder returns the index of the director holding the Secretary
// flag, or zero if none does.
func (r *Registration) SecretaryHolder() int {
	for _, d := range r.Directors {
		if d.Roles.Secretary {
			return d.Index
		}
	}
	return 0
}

// Clone returns a deep copy so store reads cannot alias live state.
func (r *Registration) Clone() *Registration {
	out := &Registration{
		ID:          r.ID,
		OwnerUserID: r.OwnerUserID,
		FormType:    r.FormType,
		Company:     cloneFields(r.Company),
		Secretary: SecretaryRecord{
			Fields:        cloneFields(r.Secretary.Fields),
			Qualification: r.Secretary.Qualification,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	for _, d := range r.Directors {
		out.Directors = append(out.Directors, &DirectorRecord{
			Index:      d.Index,
			Fields:     cloneFields(d.Fields),
			Roles:      d.Roles,
			RoleInputs: d.RoleInputs,
		})
	}
	for _, s := range r.Subscribers {
		out.Subscribers = append(out.Subscribers, &SubscriberRecord{
			Index:        s.Index,
			Fields:       cloneFields(s.Fields),
			SharePercent: s.SharePercent,
			LinkTag:      s.LinkTag,
		})
	}
	for _, o := range r.Owners {
		out.Owners = append(out.Owners, &OwnerRecord{
			Index:           o.Index,
			Fields:          cloneFields(o.Fields),
			VotingRights:    o.VotingRights,
			DirectPercent:   o.DirectPercent,
			IndirectPercent: o.IndirectPercent,
			LinkTag:         o.LinkTag,
		})
	}
	return out
}

func cloneFields(in map[schema.Field]string) map[schema.Field]string {
	out := make(map[schema.Field]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func joinName(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
