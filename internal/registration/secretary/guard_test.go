package secretary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
	"github.com/SmartForm247/EasyForm2/internal/registration/store/memory"
	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

type GuardSuite struct {
	suite.Suite
	store *memory.Store
	guard *Guard
	reg   *models.Registration
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardSuite))
}

func (s *GuardSuite) SetupTest() {
	s.store = memory.New()
	s.guard = New(s.store)
	reg, err := s.store.Create(context.Background(), "user-1", "limited-company")
	s.Require().NoError(err)
	s.reg = reg
	_, err = s.store.AddRecord(context.Background(), reg.ID, schema.KindDirector)
	s.Require().NoError(err)
}

func (s *GuardSuite) grantSecretary(dirIndex int) {
	ctx := context.Background()
	s.Require().NoError(s.guard.Claim(ctx, s.reg.ID, dirIndex))
	s.Require().NoError(s.store.ApplyRoleFlags(ctx, s.reg.ID, dirIndex, models.RoleFlags{Secretary: true}))
}

func (s *GuardSuite) TestSecondClaimRejectedWithHolderName() {
	ctx := context.Background()
	s.Require().NoError(s.store.SetField(ctx, s.reg.ID, schema.KindDirector, 1, schema.FieldFirstName, "Ama"))
	s.Require().NoError(s.store.SetField(ctx, s.reg.ID, schema.KindDirector, 1, schema.FieldSurname, "Mensah"))
	s.grantSecretary(1)

	err := s.guard.Claim(ctx, s.reg.ID, 2)
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrAlreadyHeld)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Contains(err.Error(), "Ama Mensah")
	s.Contains(err.Error(), "already the company secretary")

	holder, err := s.guard.Holder(ctx, s.reg.ID)
	s.Require().NoError(err)
	s.Equal(1, holder)
}

func (s *GuardSuite) TestHolderMayReclaim() {
	s.grantSecretary(1)
	s.NoError(s.guard.Claim(context.Background(), s.reg.ID, 1))
}

func (s *GuardSuite) TestRejectionNamesIndexWhenHolderUnnamed() {
	s.grantSecretary(2)
	err := s.guard.Claim(context.Background(), s.reg.ID, 1)
	s.Require().Error(err)
	s.Contains(err.Error(), "Director 2")
}

func (s *GuardSuite) TestReleaseClearsSecretaryRecord() {
	ctx := context.Background()
	s.grantSecretary(1)
	s.Require().NoError(s.store.SetField(ctx, s.reg.ID, schema.KindSecretary, 0, schema.FieldFirstName, "Ama"))
	s.Require().NoError(s.store.SetField(ctx, s.reg.ID, schema.KindSecretary, 0, schema.FieldQualification, "Professional qualification"))

	s.Require().NoError(s.store.ApplyRoleFlags(ctx, s.reg.ID, 1, models.RoleFlags{DirectorOnly: true}))
	s.Require().NoError(s.guard.Release(ctx, s.reg.ID, 1))

	reg, err := s.store.Get(ctx, s.reg.ID)
	s.Require().NoError(err)
	s.True(reg.Secretary.Empty())

	holder, err := s.guard.Holder(ctx, s.reg.ID)
	s.Require().NoError(err)
	s.Zero(holder)
}

func (s *GuardSuite) TestDisabledListsEveryoneButTheHolder() {
	ctx := context.Background()
	_, err := s.store.AddRecord(ctx, s.reg.ID, schema.KindDirector)
	s.Require().NoError(err)

	disabled, err := s.guard.Disabled(ctx, s.reg.ID)
	s.Require().NoError(err)
	s.Empty(disabled)

	s.grantSecretary(2)

	disabled, err = s.guard.Disabled(ctx, s.reg.ID)
	s.Require().NoError(err)
	s.Equal([]int{1, 3}, disabled)

	s.Run("released role frees every checkbox", func() {
		s.Require().NoError(s.store.ApplyRoleFlags(ctx, s.reg.ID, 2, models.RoleFlags{DirectorOnly: true}))
		s.Require().NoError(s.guard.Release(ctx, s.reg.ID, 2))

		disabled, err := s.guard.Disabled(ctx, s.reg.ID)
		s.Require().NoError(err)
		s.Empty(disabled)
	})
}

func (s *GuardSuite) TestClaimForMissingDirector() {
	err := s.guard.Claim(context.Background(), s.reg.ID, 9)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
