package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SmartForm247/EasyForm2/internal/registration/models"
)

func TestApplyTransitions(t *testing.T) {
	directorOnly := models.RoleFlags{DirectorOnly: true}

	tests := []struct {
		name    string
		current models.RoleFlags
		role    models.Role
		enabled bool
		want    models.RoleFlags
	}{
		{
			name:    "enabling a derived role drops director-only",
			current: directorOnly,
			role:    models.RoleSubscriber,
			enabled: true,
			want:    models.RoleFlags{Subscriber: true},
		},
		{
			name:    "derived roles stack",
			current: models.RoleFlags{Subscriber: true},
			role:    models.RoleBeneficialOwner,
			enabled: true,
			want:    models.RoleFlags{Subscriber: true, BeneficialOwner: true},
		},
		{
			name:    "dropping one of several derived roles keeps the rest",
			current: models.RoleFlags{Subscriber: true, BeneficialOwner: true},
			role:    models.RoleSubscriber,
			enabled: false,
			want:    models.RoleFlags{BeneficialOwner: true},
		},
		{
			name:    "dropping the last derived role falls back to director-only",
			current: models.RoleFlags{Secretary: true},
			role:    models.RoleSecretary,
			enabled: false,
			want:    directorOnly,
		},
		{
			name:    "enabling director-only clears derived roles",
			current: models.RoleFlags{Subscriber: true, Secretary: true},
			role:    models.RoleDirectorOnly,
			enabled: true,
			want:    directorOnly,
		},
		{
			name:    "director-only cannot be dropped with nothing else set",
			current: directorOnly,
			role:    models.RoleDirectorOnly,
			enabled: false,
			want:    directorOnly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.current, tt.role, tt.enabled)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyRejectsUnknownRole(t *testing.T) {
	_, err := Apply(models.RoleFlags{DirectorOnly: true}, models.Role("chairman"), true)
	assert.Error(t, err)
}

func TestValidQualification(t *testing.T) {
	// Every option value the select element has ever offered must stay
	// accepted; persisted documents carry these exact strings.
	accepted := []string{
		"Professional qualification",
		"Tertiary level qualification",
		"Company Secretary Trainee",
		"Barrister or Solicitor in the Republic",
		"Institute of Chartered Accountants",
		"Under supervision of a qualified Company Secretary",
		"Institute of Chartered Secretaries and Administrators",
	}
	for _, q := range accepted {
		assert.True(t, ValidQualification(q), q)
	}
	assert.ElementsMatch(t, accepted, Qualifications())

	assert.True(t, ValidQualification(""))
	assert.False(t, ValidQualification("Astrologer"))
	assert.False(t, ValidQualification("professional qualification"))
}
