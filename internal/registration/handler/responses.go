package handler

import (
	"time"

	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/projector"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
)

type roleFlagsView struct {
	DirectorOnly    bool `json:"director_only"`
	Secretary       bool `json:"secretary"`
	Subscriber      bool `json:"subscriber"`
	BeneficialOwner bool `json:"beneficial_owner"`
}

type roleInputsView struct {
	SharePercent  string `json:"share_percent,omitempty"`
	VotingRights  string `json:"voting_rights,omitempty"`
	Qualification string `json:"qualification,omitempty"`
}

type directorView struct {
	Index      int               `json:"index"`
	Fields     map[string]string `json:"fields"`
	Roles      roleFlagsView     `json:"roles"`
	RoleInputs roleInputsView    `json:"role_inputs"`
}

type subscriberView struct {
	Index        int               `json:"index"`
	Fields       map[string]string `json:"fields"`
	SharePercent string            `json:"share_percent,omitempty"`
	LinkTag      int               `json:"link_tag,omitempty"`
}

type ownerView struct {
	Index           int               `json:"index"`
	Fields          map[string]string `json:"fields"`
	VotingRights    string            `json:"voting_rights,omitempty"`
	DirectPercent   string            `json:"direct_percent,omitempty"`
	IndirectPercent string            `json:"indirect_percent,omitempty"`
	LinkTag         int               `json:"link_tag,omitempty"`
}

type secretaryView struct {
	Fields        map[string]string `json:"fields"`
	Qualification string            `json:"qualification,omitempty"`
}

type registrationView struct {
	ID          string            `json:"id"`
	FormType    string            `json:"form_type"`
	Company     map[string]string `json:"company"`
	Directors   []directorView    `json:"directors"`
	Subscribers []subscriberView  `json:"subscribers"`
	Owners      []ownerView       `json:"owners"`
	Secretary   secretaryView     `json:"secretary"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type projectionView struct {
	Surface       map[string]string `json:"surface"`
	Slots         []string          `json:"slots"`
	ShareAdvisory string            `json:"share_advisory,omitempty"`
}

type addRecordResponse struct {
	Index int `json:"index"`
}

type setRoleResponse struct {
	Roles roleFlagsView `json:"roles"`
}

func fieldsView(in map[schema.Field]string) map[string]string {
	out := make(map[string]string, len(in))
	for f, v := range in {
		if v != "" {
			out[string(f)] = v
		}
	}
	return out
}

func viewOf(reg *models.Registration) registrationView {
	view := registrationView{
		ID:          reg.ID.String(),
		FormType:    reg.FormType,
		Company:     fieldsView(reg.Company),
		Directors:   []directorView{},
		Subscribers: []subscriberView{},
		Owners:      []ownerView{},
		Secretary: secretaryView{
			Fields:        fieldsView(reg.Secretary.Fields),
			Qualification: reg.Secretary.Qualification,
		},
		CreatedAt: reg.CreatedAt,
		UpdatedAt: reg.UpdatedAt,
	}
	for _, d := range reg.Directors {
		view.Directors = append(view.Directors, directorView{
			Index:  d.Index,
			Fields: fieldsView(d.Fields),
			Roles: roleFlagsView{
				DirectorOnly:    d.Roles.DirectorOnly,
				Secretary:       d.Roles.Secretary,
				Subscriber:      d.Roles.Subscriber,
				BeneficialOwner: d.Roles.BeneficialOwner,
			},
			RoleInputs: roleInputsView{
				SharePercent:  d.RoleInputs.SharePercent,
				VotingRights:  d.RoleInputs.VotingRights,
				Qualification: d.RoleInputs.Qualification,
			},
		})
	}
	for _, sub := range reg.Subscribers {
		view.Subscribers = append(view.Subscribers, subscriberView{
			Index:        sub.Index,
			Fields:       fieldsView(sub.Fields),
			SharePercent: sub.SharePercent,
			LinkTag:      sub.LinkTag,
		})
	}
	for _, own := range reg.Owners {
		view.Owners = append(view.Owners, ownerView{
			Index:           own.Index,
			Fields:          fieldsView(own.Fields),
			VotingRights:    own.VotingRights,
			DirectPercent:   own.DirectPercent,
			IndirectPercent: own.IndirectPercent,
			LinkTag:         own.LinkTag,
		})
	}
	return view
}

func projectionViewOf(p *projector.Projection) projectionView {
	return projectionView{
		Surface:       p.Surface.Map(),
		Slots:         p.Surface.Slots(),
		ShareAdvisory: p.ShareAdvisory,
	}
}
