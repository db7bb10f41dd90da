package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
	"github.com/SmartForm247/EasyForm2/internal/registration/store"
	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

type StoreSuite struct {
	suite.Suite
	store  *Store
	reg    *models.Registration
	events []store.Event
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = New()
	s.events = nil
	s.store.Subscribe(func(_ context.Context, e store.Event) {
		s.events = append(s.events, e)
	})
	reg, err := s.store.Create(context.Background(), "user-1", "limited-company")
	s.Require().NoError(err)
	s.reg = reg
}

func (s *StoreSuite) eventsOfType(t store.EventType) []store.Event {
	var out []store.Event
	for _, e := range s.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (s *StoreSuite) TestCreateSeedsOneDirector() {
	s.Len(s.reg.Directors, 1)
	s.Equal(1, s.reg.Directors[0].Index)
	s.True(s.reg.Directors[0].Roles.DirectorOnly)
	s.Len(s.eventsOfType(store.EventRecordAdded), 1)
}

func (s *StoreSuite) TestRemovalRenumbersAndPreservesValues() {
	ctx := context.Background()
	id := s.reg.ID

	names := []string{"Ama", "Kojo", "Esi", "Yaw", "Afia"}
	for i, name := range names {
		if i > 0 {
			_, err := s.store.AddRecord(ctx, id, schema.KindDirector)
			s.Require().NoError(err)
		}
		s.Require().NoError(s.store.SetField(ctx, id, schema.KindDirector, i+1, schema.FieldFirstName, name))
	}

	s.Run("middle removal shifts higher indices down", func() {
		s.Require().NoError(s.store.RemoveRecord(ctx, id, schema.KindDirector, 3))

		reg, err := s.store.Get(ctx, id)
		s.Require().NoError(err)
		s.Require().Len(reg.Directors, 4)
		var got []string
		for i, d := range reg.Directors {
			s.Equal(i+1, d.Index)
			got = append(got, d.Fields[schema.FieldFirstName])
		}
		s.Equal([]string{"Ama", "Kojo", "Yaw", "Afia"}, got)
	})

	s.Run("first removal keeps the rest contiguous", func() {
		s.Require().NoError(s.store.RemoveRecord(ctx, id, schema.KindDirector, 1))

		reg, err := s.store.Get(ctx, id)
		s.Require().NoError(err)
		s.Require().Len(reg.Directors, 3)
		s.Equal("Kojo", reg.Directors[0].Fields[schema.FieldFirstName])
		s.Equal(1, reg.Directors[0].Index)
		s.Equal("Afia", reg.Directors[2].Fields[schema.FieldFirstName])
		s.Equal(3, reg.Directors[2].Index)
	})
}

func (s *StoreSuite) TestLastDirectorCannotBeRemoved() {
	err := s.store.RemoveRecord(context.Background(), s.reg.ID, schema.KindDirector, 1)
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *StoreSuite) TestDirectorRemovalCascadesToLinkedRecords() {
	ctx := context.Background()
	id := s.reg.ID

	_, err := s.store.AddRecord(ctx, id, schema.KindDirector)
	s.Require().NoError(err)
	_, err = s.store.AddRecord(ctx, id, schema.KindDirector)
	s.Require().NoError(err)

	subIdx2, err := s.store.EnsureLinked(ctx, id, schema.KindSubscriber, 2)
	s.Require().NoError(err)
	s.Equal(1, subIdx2)
	subIdx3, err := s.store.EnsureLinked(ctx, id, schema.KindSubscriber, 3)
	s.Require().NoError(err)
	s.Equal(2, subIdx3)

	s.Require().NoError(s.store.RemoveRecord(ctx, id, schema.KindDirector, 2))

	reg, err := s.store.Get(ctx, id)
	s.Require().NoError(err)
	s.Require().Len(reg.Subscribers, 1)
	// director 3 became director 2; its subscriber follows the rename
	s.Equal(1, reg.Subscribers[0].Index)
	s.Equal(2, reg.Subscribers[0].LinkTag)
	s.Len(reg.Directors, 2)
}

func (s *StoreSuite) TestSecretaryVacatedOnHolderRemoval() {
	ctx := context.Background()
	id := s.reg.ID

	_, err := s.store.AddRecord(ctx, id, schema.KindDirector)
	s.Require().NoError(err)
	s.Require().NoError(s.store.ApplyRoleFlags(ctx, id, 2, models.RoleFlags{Secretary: true}))
	s.Require().NoError(s.store.SetField(ctx, id, schema.KindSecretary, 0, schema.FieldFirstName, "Ama"))

	s.Require().NoError(s.store.RemoveRecord(ctx, id, schema.KindDirector, 2))

	s.Len(s.eventsOfType(store.EventSecretaryVacated), 1)
	reg, err := s.store.Get(ctx, id)
	s.Require().NoError(err)
	s.True(reg.Secretary.Empty())
}

func (s *StoreSuite) TestFieldWriteOfSameValueIsSilent() {
	ctx := context.Background()
	id := s.reg.ID

	s.Require().NoError(s.store.SetField(ctx, id, schema.KindDirector, 1, schema.FieldFirstName, "Ama"))
	changed := len(s.eventsOfType(store.EventFieldChanged))
	s.Equal(1, changed)

	s.Require().NoError(s.store.SetField(ctx, id, schema.KindDirector, 1, schema.FieldFirstName, "Ama"))
	s.Len(s.eventsOfType(store.EventFieldChanged), changed)

	s.Require().NoError(s.store.SetField(ctx, id, schema.KindDirector, 1, schema.FieldFirstName, "Akosua"))
	s.Len(s.eventsOfType(store.EventFieldChanged), changed+1)
}

func (s *StoreSuite) TestEnsureLinkedReusesUnlinkedRecord() {
	ctx := context.Background()
	id := s.reg.ID

	// a manually added, unlinked subscriber is claimed instead of appending
	manual, err := s.store.AddRecord(ctx, id, schema.KindSubscriber)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SetField(ctx, id, schema.KindSubscriber, manual, schema.FieldFirstName, "Kwame"))

	idx, err := s.store.EnsureLinked(ctx, id, schema.KindSubscriber, 1)
	s.Require().NoError(err)
	s.Equal(manual, idx)

	reg, err := s.store.Get(ctx, id)
	s.Require().NoError(err)
	s.Require().Len(reg.Subscribers, 1)
	s.Equal(1, reg.Subscribers[0].LinkTag)
	s.Equal("Kwame", reg.Subscribers[0].Fields[schema.FieldFirstName])

	// idempotent once linked
	again, err := s.store.EnsureLinked(ctx, id, schema.KindSubscriber, 1)
	s.Require().NoError(err)
	s.Equal(idx, again)
}

func (s *StoreSuite) TestRemoveLinkedIsNoOpWhenNotLinked() {
	ctx := context.Background()
	s.Require().NoError(s.store.RemoveLinked(ctx, s.reg.ID, schema.KindOwner, 1))
	s.Empty(s.eventsOfType(store.EventRecordRemoved))
}

func (s *StoreSuite) TestRestoreReplacesLiveState() {
	ctx := context.Background()
	clone := s.reg.Clone()
	clone.Directors[0].Fields[schema.FieldFirstName] = "Restored"

	s.Require().NoError(s.store.Restore(ctx, clone))

	reg, err := s.store.Get(ctx, s.reg.ID)
	s.Require().NoError(err)
	s.Equal("Restored", reg.Directors[0].Fields[schema.FieldFirstName])
}
