package export

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	ledger "github.com/SmartForm247/EasyForm2/internal/ledger/service"
	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/projector"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
)

type fakeRegistrations struct {
	reg   *models.Registration
	calls *[]string
}

func (f *fakeRegistrations) Get(_ context.Context, _ string, _ uuid.UUID) (*models.Registration, error) {
	*f.calls = append(*f.calls, "get")
	return f.reg, nil
}

func (f *fakeRegistrations) Projection(_ context.Context, _ string, _ uuid.UUID) (*projector.Projection, error) {
	*f.calls = append(*f.calls, "projection")
	return projector.New().Project(f.reg), nil
}

type fakeLedger struct {
	calls *[]string
	err   error
}

func (f *fakeLedger) Debit(_ context.Context, _, _ string) (*ledger.DebitResult, error) {
	*f.calls = append(*f.calls, "debit")
	if f.err != nil {
		return nil, f.err
	}
	return &ledger.DebitResult{Free: true, Description: "Free submission used"}, nil
}

type fakeRenderer struct {
	calls *[]string
	err   error
}

func (f *fakeRenderer) Render(_ context.Context, _ string) ([]byte, error) {
	*f.calls = append(*f.calls, "render")
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7"), nil
}

type fakeObjects struct {
	calls *[]string
	keys  []string
	data  map[string][]byte
}

func (f *fakeObjects) Put(_ context.Context, key string, data []byte, _ string) error {
	*f.calls = append(*f.calls, "put")
	f.keys = append(f.keys, key)
	if f.data == nil {
		f.data = make(map[string][]byte)
	}
	f.data[key] = data
	return nil
}

type ExportSuite struct {
	suite.Suite
	calls         []string
	registrations *fakeRegistrations
	ledger        *fakeLedger
	renderer      *fakeRenderer
	objects       *fakeObjects
	service       *Service
	regID         uuid.UUID
}

func TestExportSuite(t *testing.T) {
	suite.Run(t, new(ExportSuite))
}

func (s *ExportSuite) SetupTest() {
	s.calls = nil
	s.regID = uuid.New()
	reg := &models.Registration{
		ID:       s.regID,
		FormType: "limited-company",
		Company: map[schema.Field]string{
			schema.FieldCompanyName: "Akwaaba Ventures",
		},
		Secretary: models.SecretaryRecord{Fields: map[schema.Field]string{}},
		Directors: []*models.DirectorRecord{{
			Index:  1,
			Fields: map[schema.Field]string{schema.FieldFirstName: "Ama"},
			Roles:  models.RoleFlags{DirectorOnly: true},
		}},
	}
	s.registrations = &fakeRegistrations{reg: reg, calls: &s.calls}
	s.ledger = &fakeLedger{calls: &s.calls}
	s.renderer = &fakeRenderer{calls: &s.calls}
	s.objects = &fakeObjects{calls: &s.calls}
	s.service = New(s.registrations, s.ledger, s.renderer, s.objects)
}

func (s *ExportSuite) TestExportDebitsBeforeRendering() {
	result, err := s.service.Export(context.Background(), "user-1", s.regID)
	s.Require().NoError(err)

	s.Equal([]string{"get", "debit", "projection", "render", "put"}, s.calls)
	s.Equal("user-1/"+s.regID.String()+".pdf", result.ObjectKey)
	s.Require().NotNil(result.Debit)
	s.True(result.Debit.Free)
	s.Equal([]byte("%PDF-1.7"), s.objects.data[result.ObjectKey])
}

func (s *ExportSuite) TestLedgerFailureAbortsBeforeRender() {
	s.ledger.err = dErrors.New(dErrors.CodeInsufficientFunds, "insufficient balance, please top up your account")

	_, err := s.service.Export(context.Background(), "user-1", s.regID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	s.Equal([]string{"get", "debit"}, s.calls)
}

func (s *ExportSuite) TestRenderFailureSurfacesAsUnavailable() {
	s.renderer.err = context.DeadlineExceeded

	_, err := s.service.Export(context.Background(), "user-1", s.regID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.NotContains(s.calls, "put")
}
