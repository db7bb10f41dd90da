package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
	"github.com/SmartForm247/EasyForm2/internal/registration/store/memory"
)

type EngineSuite struct {
	suite.Suite
	store  *memory.Store
	engine *Engine
	reg    *models.Registration
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.store = memory.New()
	s.engine = New(s.store)
	s.store.Subscribe(s.engine.HandleEvent)
	reg, err := s.store.Create(context.Background(), "user-1", "limited-company")
	s.Require().NoError(err)
	s.reg = reg
}

func (s *EngineSuite) current() *models.Registration {
	reg, err := s.store.Get(context.Background(), s.reg.ID)
	s.Require().NoError(err)
	return reg
}

func (s *EngineSuite) TestSubscriberRoleCreatesLinkedRecord() {
	ctx := context.Background()
	id := s.reg.ID

	s.Require().NoError(s.store.SetField(ctx, id, schema.KindDirector, 1, schema.FieldFirstName, "Ama"))
	s.Require().NoError(s.store.SetRoleInput(ctx, id, 1, schema.FieldSharePercent, "40"))
	s.Require().NoError(s.store.ApplyRoleFlags(ctx, id, 1, models.RoleFlags{Subscriber: true}))

	reg := s.current()
	s.Require().Len(reg.Subscribers, 1)
	sub := reg.Subscribers[0]
	s.Equal(1, sub.LinkTag)
	s.Equal("Ama", sub.Fields[schema.FieldFirstName])
	s.Equal("40", sub.SharePercent)

	s.Run("unchecking removes the linked record", func() {
		s.Require().NoError(s.store.ApplyRoleFlags(ctx, id, 1, models.RoleFlags{DirectorOnly: true}))
		s.Empty(s.current().Subscribers)
	})
}

func (s *EngineSuite) TestDirectorEditPropagatesToDerivedRecords() {
	ctx := context.Background()
	id := s.reg.ID

	s.Require().NoError(s.store.ApplyRoleFlags(ctx, id, 1, models.RoleFlags{Subscriber: true, BeneficialOwner: true}))
	s.Require().NoError(s.store.SetField(ctx, id, schema.KindDirector, 1, schema.FieldOccupation, "Trader"))

	reg := s.current()
	s.Require().Len(reg.Subscribers, 1)
	s.Require().Len(reg.Owners, 1)
	s.Equal("Trader", reg.Subscribers[0].Fields[schema.FieldOccupation])
	s.Equal("Trader", reg.Owners[0].Fields[schema.FieldOccupation])
}

func (s *EngineSuite) TestOwnerEditRoundTripsThroughDirector() {
	ctx := context.Background()
	id := s.reg.ID

	s.Require().NoError(s.store.ApplyRoleFlags(ctx, id, 1, models.RoleFlags{Subscriber: true, BeneficialOwner: true}))

	// edit on the derived owner record lands on the director and fans out
	// to the subscriber
	s.Require().NoError(s.store.SetField(ctx, id, schema.KindOwner, 1, schema.FieldSurname, "Mensah"))

	reg := s.current()
	s.Equal("Mensah", reg.Directors[0].Fields[schema.FieldSurname])
	s.Require().Len(reg.Subscribers, 1)
	s.Equal("Mensah", reg.Subscribers[0].Fields[schema.FieldSurname])
}

func (s *EngineSuite) TestOwnershipPercentagesStayOnOwner() {
	ctx := context.Background()
	id := s.reg.ID

	s.Require().NoError(s.store.ApplyRoleFlags(ctx, id, 1, models.RoleFlags{BeneficialOwner: true}))
	s.Require().NoError(s.store.SetField(ctx, id, schema.KindOwner, 1, schema.FieldDirectPercent, "60"))

	reg := s.current()
	s.Equal("60", reg.Owners[0].DirectPercent)
	s.Empty(reg.Directors[0].RoleInputs.SharePercent)
}

func (s *EngineSuite) TestSecretaryMirror() {
	ctx := context.Background()
	id := s.reg.ID

	s.Require().NoError(s.store.SetField(ctx, id, schema.KindDirector, 1, schema.FieldFirstName, "Esi"))
	s.Require().NoError(s.store.SetRoleInput(ctx, id, 1, schema.FieldQualification, "Company Secretary Trainee"))
	s.Require().NoError(s.store.ApplyRoleFlags(ctx, id, 1, models.RoleFlags{Secretary: true}))

	reg := s.current()
	s.Equal("Esi", reg.Secretary.Fields[schema.FieldFirstName])
	s.Equal("Company Secretary Trainee", reg.Secretary.Qualification)

	s.Run("secretary edit lands back on the holder", func() {
		s.Require().NoError(s.store.SetField(ctx, id, schema.KindSecretary, 0, schema.FieldEmail, "esi@example.com"))
		s.Equal("esi@example.com", s.current().Directors[0].Fields[schema.FieldEmail])
	})
}

func (s *EngineSuite) TestReentrantSyncCoalesces() {
	ctx := context.Background()
	id := s.reg.ID

	s.Require().NoError(s.store.ApplyRoleFlags(ctx, id, 1, models.RoleFlags{Subscriber: true}))

	first, err := s.engine.SyncFromDirector(ctx, id, 1)
	s.Require().NoError(err)
	s.False(first.Coalesced)

	// simulate a pass in flight; the next request must fold into it
	s.engine.mu.Lock()
	st := s.engine.states[dirKey{reg: id, dir: 1}]
	st.inflight = true
	s.engine.mu.Unlock()

	inner, err := s.engine.SyncFromDirector(ctx, id, 1)
	s.Require().NoError(err)
	s.True(inner.Coalesced)

	s.engine.mu.Lock()
	s.True(st.pending)
	st.inflight = false
	st.pending = false
	s.engine.mu.Unlock()
}

func (s *EngineSuite) TestDirectorsSyncIndependently() {
	ctx := context.Background()
	id := s.reg.ID

	_, err := s.store.AddRecord(ctx, id, schema.KindDirector)
	s.Require().NoError(err)

	s.engine.mu.Lock()
	s.engine.states[dirKey{reg: id, dir: 1}] = &dirState{inflight: true}
	s.engine.mu.Unlock()

	// director 1 busy must not coalesce director 2
	res, err := s.engine.SyncFromDirector(ctx, id, 2)
	s.Require().NoError(err)
	s.False(res.Coalesced)
}
