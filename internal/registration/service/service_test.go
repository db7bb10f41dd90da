package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
	"github.com/SmartForm247/EasyForm2/internal/registration/store/memory"
	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

type fakeDocumentStore struct {
	saved map[uuid.UUID]*models.Registration
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{saved: make(map[uuid.UUID]*models.Registration)}
}

func (f *fakeDocumentStore) Save(_ context.Context, reg *models.Registration) error {
	// round-trip through the flat document shape, the way the real store
	// persists it
	doc := models.Unflatten(reg.Flatten(), reg.Meta())
	doc.ID = reg.ID
	doc.OwnerUserID = reg.OwnerUserID
	f.saved[reg.ID] = doc
	return nil
}

func (f *fakeDocumentStore) Load(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	reg, ok := f.saved[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return reg, nil
}

func (f *fakeDocumentStore) ListByOwner(_ context.Context, ownerUserID string) ([]*models.Registration, error) {
	var out []*models.Registration
	for _, reg := range f.saved {
		if reg.OwnerUserID == ownerUserID {
			out = append(out, reg)
		}
	}
	return out, nil
}

type ServiceSuite struct {
	suite.Suite
	docs    *fakeDocumentStore
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.docs = newFakeDocumentStore()
	s.service = New(memory.New(), WithDocumentStore(s.docs))
}

const owner = "user-1"

func (s *ServiceSuite) create() *models.Registration {
	reg, err := s.service.Create(context.Background(), owner, "limited-company")
	s.Require().NoError(err)
	return reg
}

func (s *ServiceSuite) TestCreateValidatesFormType() {
	_, err := s.service.Create(context.Background(), owner, "charity")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestOwnershipIsEnforced() {
	reg := s.create()

	_, err := s.service.Get(context.Background(), "someone-else", reg.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	err = s.service.Delete(context.Background(), "someone-else", reg.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestSetFieldsValidation() {
	ctx := context.Background()
	reg := s.create()

	s.Run("unknown field name", func() {
		err := s.service.SetFields(ctx, owner, reg.ID, schema.KindDirector, 1, map[string]string{"frequency": "weekly"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("field not on the record kind", func() {
		err := s.service.SetFields(ctx, owner, reg.ID, schema.KindDirector, 1, map[string]string{"sharePercent": "25"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown qualification", func() {
		err := s.service.SetFields(ctx, owner, reg.ID, schema.KindSecretary, 0, map[string]string{"qualification": "Astronaut"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// The full edit loop: three directors, one of them a subscriber, a removal
// that renumbers and re-links, and a projection carrying the share math.
func (s *ServiceSuite) TestEditRemoveProject() {
	ctx := context.Background()
	reg := s.create()

	for i := 0; i < 2; i++ {
		_, err := s.service.AddRecord(ctx, owner, reg.ID, schema.KindDirector)
		s.Require().NoError(err)
	}

	s.Require().NoError(s.service.SetCompanyFields(ctx, owner, reg.ID, map[string]string{
		"companyName": "Akwaaba Ventures",
		"capital":     "10000",
	}))
	s.Require().NoError(s.service.SetFields(ctx, owner, reg.ID, schema.KindDirector, 1, map[string]string{
		"fname": "Ama", "sname": "Mensah",
	}))
	s.Require().NoError(s.service.SetFields(ctx, owner, reg.ID, schema.KindDirector, 2, map[string]string{
		"fname": "Kojo",
	}))
	s.Require().NoError(s.service.SetFields(ctx, owner, reg.ID, schema.KindDirector, 3, map[string]string{
		"fname": "Esi",
	}))

	_, err := s.service.SetRole(ctx, owner, reg.ID, 2, models.RoleSubscriber, true)
	s.Require().NoError(err)
	s.Require().NoError(s.service.SetRoleInput(ctx, owner, reg.ID, 2, "sharePercent", "25"))

	got, err := s.service.Get(ctx, owner, reg.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Subscribers, 1)
	s.Equal(2, got.Subscribers[0].LinkTag)
	s.Equal("Kojo", got.Subscribers[0].Fields[schema.FieldFirstName])

	s.Require().NoError(s.service.RemoveRecord(ctx, owner, reg.ID, schema.KindDirector, 1))

	got, err = s.service.Get(ctx, owner, reg.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Directors, 2)
	s.Equal("Kojo", got.Directors[0].Fields[schema.FieldFirstName])
	s.Equal(1, got.Directors[0].Index)
	s.Equal(1, got.Subscribers[0].LinkTag)

	projection, err := s.service.Projection(ctx, owner, reg.ID)
	s.Require().NoError(err)
	s.Equal("2,500", projection.Surface.Get("SH1NoOfShare"))
	s.Contains(projection.ShareAdvisory, "remaining to reach 100%")
}

func (s *ServiceSuite) TestSecretaryConflictSurfacesHolder() {
	ctx := context.Background()
	reg := s.create()
	_, err := s.service.AddRecord(ctx, owner, reg.ID, schema.KindDirector)
	s.Require().NoError(err)
	s.Require().NoError(s.service.SetFields(ctx, owner, reg.ID, schema.KindDirector, 1, map[string]string{
		"fname": "Ama", "sname": "Mensah",
	}))

	_, err = s.service.SetRole(ctx, owner, reg.ID, 1, models.RoleSecretary, true)
	s.Require().NoError(err)

	_, err = s.service.SetRole(ctx, owner, reg.ID, 2, models.RoleSecretary, true)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Contains(err.Error(), "Ama Mensah")
}

func (s *ServiceSuite) TestSubmitAndReopenRoundTrip() {
	ctx := context.Background()
	reg := s.create()
	s.Require().NoError(s.service.SetFields(ctx, owner, reg.ID, schema.KindDirector, 1, map[string]string{
		"fname": "Ama", "sname": "Mensah",
	}))
	_, err := s.service.SetRole(ctx, owner, reg.ID, 1, models.RoleSecretary, true)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Submit(ctx, owner, reg.ID))
	s.Require().NoError(s.service.Delete(ctx, owner, reg.ID))

	_, err = s.service.Get(ctx, owner, reg.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	reopened, err := s.service.Reopen(ctx, owner, reg.ID)
	s.Require().NoError(err)
	s.Equal(reg.ID, reopened.ID)
	s.Equal("Ama", reopened.Directors[0].Fields[schema.FieldFirstName])
	s.True(reopened.Directors[0].Roles.Secretary)
	s.Equal("Mensah", reopened.Secretary.Fields[schema.FieldSurname])

	saved, err := s.service.ListSaved(ctx, owner)
	s.Require().NoError(err)
	s.Len(saved, 1)
}

func (s *ServiceSuite) TestReopenRejectsForeignDocument() {
	ctx := context.Background()
	reg := s.create()
	s.Require().NoError(s.service.Submit(ctx, owner, reg.ID))

	_, err := s.service.Reopen(ctx, "someone-else", reg.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
