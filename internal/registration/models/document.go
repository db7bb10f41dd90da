package models

import (
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
)

// DocumentMeta carries the structural state a flattened document cannot
// express: role flags, role inputs and link tags. It is stored alongside the
// flat field map, never inside it, so the flat shape stays compatible with
// earlier readers.
type DocumentMeta struct {
	FormType  string         `json:"form_type"`
	Directors []DirectorMeta `json:"directors"`
	// SubscriberLinks and OwnerLinks hold each record's link tag in index
	// order, zero for unlinked records.
	SubscriberLinks []int `json:"subscriber_links"`
	OwnerLinks      []int `json:"owner_links"`
}

// DirectorMeta is one director's structural state.
type DirectorMeta struct {
	Roles      RoleFlags  `json:"roles"`
	RoleInputs RoleInputs `json:"role_inputs"`
}

// Flatten renders the registration into the single-level persisted mapping:
// keys are "<section>_<Human Readable Label>" with spaces and periods
// replaced by underscores. This shape is a compatibility contract with
// previously persisted records and with external readers.
func (r *Registration) Flatten() map[string]string {
	out := make(map[string]string)

	for _, f := range schema.CompanyFields() {
		putFlat(out, "company", f, r.Company[f])
	}
	for _, d := range r.Directors {
		section := schema.SectionName(schema.KindDirector, d.Index)
		for _, f := range schema.PersonFields() {
			putFlat(out, section, f, d.Fields[f])
		}
	}
	for _, sub := range r.Subscribers {
		section := schema.SectionName(schema.KindSubscriber, sub.Index)
		for _, f := range schema.PersonFields() {
			putFlat(out, section, f, sub.Fields[f])
		}
		putFlat(out, section, schema.FieldSharePercent, sub.SharePercent)
	}
	for _, own := range r.Owners {
		section := schema.SectionName(schema.KindOwner, own.Index)
		for _, f := range schema.PersonFields() {
			putFlat(out, section, f, own.Fields[f])
		}
		putFlat(out, section, schema.FieldVotingRights, own.VotingRights)
		putFlat(out, section, schema.FieldDirectPercent, own.DirectPercent)
		putFlat(out, section, schema.FieldIndirectPercent, own.IndirectPercent)
	}
	if !r.Secretary.Empty() {
		section := schema.SectionName(schema.KindSecretary, 0)
		for _, f := range schema.PersonFields() {
			putFlat(out, section, f, r.Secretary.Fields[f])
		}
		putFlat(out, section, schema.FieldQualification, r.Secretary.Qualification)
	}
	return out
}

func putFlat(out map[string]string, section string, f schema.Field, value string) {
	if value == "" {
		return
	}
	out[schema.FlattenKey(section, f)] = value
}

// Meta extracts the structural state for persistence next to the flat map.
func (r *Registration) Meta() DocumentMeta {
	meta := DocumentMeta{FormType: r.FormType}
	for _, d := range r.Directors {
		meta.Directors = append(meta.Directors, DirectorMeta{
			Roles:      d.Roles,
			RoleInputs: d.RoleInputs,
		})
	}
	for _, sub := range r.Subscribers {
		meta.SubscriberLinks = append(meta.SubscriberLinks, sub.LinkTag)
	}
	for _, own := range r.Owners {
		meta.OwnerLinks = append(meta.OwnerLinks, own.LinkTag)
	}
	return meta
}

// Unflatten rebuilds a registration's content from a flat map and its meta.
// Keys with unknown sections or labels are skipped, matching the tolerant
// read behavior the flat shape has always had.
func Unflatten(flat map[string]string, meta DocumentMeta) *Registration {
	reg := &Registration{
		FormType:  meta.FormType,
		Company:   make(map[schema.Field]string),
		Secretary: SecretaryRecord{Fields: make(map[schema.Field]string)},
	}

	dirCount := len(meta.Directors)
	if dirCount == 0 {
		dirCount = 1
	}
	for i := 1; i <= dirCount; i++ {
		d := &DirectorRecord{Index: i, Fields: make(map[schema.Field]string), Roles: RoleFlags{DirectorOnly: true}}
		if i <= len(meta.Directors) {
			d.Roles = meta.Directors[i-1].Roles
			d.RoleInputs = meta.Directors[i-1].RoleInputs
		}
		reg.Directors = append(reg.Directors, d)
	}
	for i := range meta.SubscriberLinks {
		reg.Subscribers = append(reg.Subscribers, &SubscriberRecord{
			Index:   i + 1,
			Fields:  make(map[schema.Field]string),
			LinkTag: meta.SubscriberLinks[i],
		})
	}
	for i := range meta.OwnerLinks {
		reg.Owners = append(reg.Owners, &OwnerRecord{
			Index:   i + 1,
			Fields:  make(map[schema.Field]string),
			LinkTag: meta.OwnerLinks[i],
		})
	}

	for key, value := range flat {
		section, f, ok := splitFlatKey(key)
		if !ok {
			continue
		}
		applyFlat(reg, section, f, value)
	}
	return reg
}

// splitFlatKey separates "<section>_<Label>" on the first underscore and
// resolves the label half against the field directory.
func splitFlatKey(key string) (string, schema.Field, bool) {
	for i := 0; i < len(key); i++ {
		if key[i] != '_' {
			continue
		}
		if f, ok := schema.FieldByFlatLabel(key[i+1:]); ok {
			return key[:i], f, true
		}
	}
	return "", "", false
}

func applyFlat(reg *Registration, section string, f schema.Field, value string) {
	kind, index, ok := parseSection(section)
	if !ok {
		return
	}
	switch kind {
	case "company":
		reg.Company[f] = value
	case string(schema.KindDirector):
		d := reg.Director(index)
		if d == nil {
			for len(reg.Directors) < index {
				reg.Directors = append(reg.Directors, &DirectorRecord{
					Index:  len(reg.Directors) + 1,
					Fields: make(map[schema.Field]string),
					Roles:  RoleFlags{DirectorOnly: true},
				})
			}
			d = reg.Director(index)
		}
		d.Fields[f] = value
	case string(schema.KindSubscriber):
		sub := reg.Subscriber(index)
		if sub == nil {
			for len(reg.Subscribers) < index {
				reg.Subscribers = append(reg.Subscribers, &SubscriberRecord{
					Index:  len(reg.Subscribers) + 1,
					Fields: make(map[schema.Field]string),
				})
			}
			sub = reg.Subscriber(index)
		}
		if f == schema.FieldSharePercent {
			sub.SharePercent = value
		} else {
			sub.Fields[f] = value
		}
	case string(schema.KindOwner):
		own := reg.Owner(index)
		if own == nil {
			for len(reg.Owners) < index {
				reg.Owners = append(reg.Owners, &OwnerRecord{
					Index:  len(reg.Owners) + 1,
					Fields: make(map[schema.Field]string),
				})
			}
			own = reg.Owner(index)
		}
		switch f {
		case schema.FieldVotingRights:
			own.VotingRights = value
		case schema.FieldDirectPercent:
			own.DirectPercent = value
		case schema.FieldIndirectPercent:
			own.IndirectPercent = value
		default:
			own.Fields[f] = value
		}
	case string(schema.KindSecretary):
		if f == schema.FieldQualification {
			reg.Secretary.Qualification = value
		} else {
			reg.Secretary.Fields[f] = value
		}
	}
}

// parseSection splits "director2" into kind and index; "company" and
// "secretary" carry no index. Directors beyond the meta count grow the
// collection so documents written without meta still load.
func parseSection(section string) (string, int, bool) {
	switch section {
	case "company":
		return "company", 0, true
	case "secretary":
		return string(schema.KindSecretary), 0, true
	}
	i := len(section)
	for i > 0 && section[i-1] >= '0' && section[i-1] <= '9' {
		i--
	}
	if i == len(section) {
		return "", 0, false
	}
	index := 0
	for _, r := range section[i:] {
		index = index*10 + int(r-'0')
	}
	kind := section[:i]
	switch kind {
	case string(schema.KindDirector), string(schema.KindSubscriber), string(schema.KindOwner):
		return kind, index, index > 0
	}
	return "", 0, false
}
