package projector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
)

func fixedClock() time.Time {
	return time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)
}

func newRegistration() *models.Registration {
	return &models.Registration{
		FormType:  "limited-company",
		Company:   map[schema.Field]string{},
		Secretary: models.SecretaryRecord{Fields: map[schema.Field]string{}},
		Directors: []*models.DirectorRecord{{
			Index:  1,
			Fields: map[schema.Field]string{},
			Roles:  models.RoleFlags{DirectorOnly: true},
		}},
	}
}

type ProjectorSuite struct {
	suite.Suite
	projector *Projector
}

func TestProjectorSuite(t *testing.T) {
	suite.Run(t, new(ProjectorSuite))
}

func (s *ProjectorSuite) SetupTest() {
	s.projector = New(WithClock(fixedClock))
}

func (s *ProjectorSuite) TestCompanyNameSuffix() {
	reg := newRegistration()

	s.Run("suffix appended and duplicated across copies", func() {
		reg.Company[schema.FieldCompanyName] = "Akwaaba Ventures"
		reg.Company[schema.FieldEndWith] = "ltd"

		surface := s.projector.Project(reg).Surface
		s.Equal("Akwaaba Ventures LTD", surface.Get("companyName"))
		s.Equal("Akwaaba Ventures LTD", surface.Get("companyName13"))
		s.Equal(Checkmark, surface.Get("endWithLTD"))
		s.Empty(surface.Get("endWithLIMITED"))
	})

	s.Run("name already ending in a legal suffix is untouched", func() {
		reg.Company[schema.FieldCompanyName] = "Akwaaba Ventures Limited"
		reg.Company[schema.FieldEndWith] = "ltd"

		surface := s.projector.Project(reg).Surface
		s.Equal("Akwaaba Ventures Limited", surface.Get("companyName"))
	})

	s.Run("limited company spelling also counts as suffixed", func() {
		reg.Company[schema.FieldCompanyName] = "Akwaaba Ltd Company"
		reg.Company[schema.FieldEndWith] = "limited"

		surface := s.projector.Project(reg).Surface
		s.Equal("Akwaaba Ltd Company", surface.Get("companyName"))
	})
}

func (s *ProjectorSuite) TestCapitalFormatting() {
	reg := newRegistration()
	reg.Company[schema.FieldCapital] = "125000.5gh"

	surface := s.projector.Project(reg).Surface
	s.Equal("125,000.50", surface.Get("StatedCapital"))
	s.Equal("125,000.5", surface.Get("equityIssuedShares"))
	s.Equal("125,000.50", surface.Get("equitySharesAmount"))
}

func (s *ProjectorSuite) TestTitleAndGenderCheckmarks() {
	reg := newRegistration()
	reg.Directors[0].Fields[schema.FieldTitle] = "Mrs."
	reg.Directors[0].Fields[schema.FieldGender] = "Female"

	surface := s.projector.Project(reg).Surface
	s.Equal(Checkmark, surface.Get("D1tittleMRS"))
	s.Empty(surface.Get("D1tittleMR"))
	s.Equal(Checkmark, surface.Get("D1GenderFemale"))
	s.Empty(surface.Get("D1GenderMale"))
}

func (s *ProjectorSuite) TestPostalBoxUnderExactlyOneType() {
	reg := newRegistration()
	reg.Company[schema.FieldOfficePostalType] = "pmb"
	reg.Company[schema.FieldOfficeBoxNumber] = "CT 405"

	surface := s.projector.Project(reg).Surface
	s.Equal("CT 405", surface.Get("PMB"))
	s.Empty(surface.Get("OfficeBoxNumber"))
	s.Empty(surface.Get("DTD"))
	s.Equal(Checkmark, surface.Get("emptyBox2"))
	s.Empty(surface.Get("emptyBox1"))
}

func (s *ProjectorSuite) TestSubscriberSlots() {
	reg := newRegistration()
	reg.Company[schema.FieldCapital] = "10000"
	reg.Subscribers = []*models.SubscriberRecord{
		{
			Index: 1,
			Fields: map[schema.Field]string{
				schema.FieldFirstName: "Ama",
				schema.FieldSurname:   "Mensah",
			},
			SharePercent: "25%",
			LinkTag:      1,
		},
		{
			Index:        2,
			Fields:       map[schema.Field]string{schema.FieldFirstName: "Kojo"},
			SharePercent: "",
		},
	}

	surface := s.projector.Project(reg).Surface
	s.Equal("Ama", surface.Get("SH1FirstName"))
	s.Equal("2,500", surface.Get("SH1NoOfShare"))
	s.Equal("2,500.00", surface.Get("SH1ShareAmount"))
	s.Equal("Signed: Ama Mensah", surface.Get("SH1Signature"))

	// a subscriber with no share percentage is skipped
	s.Empty(surface.Get("SH2FirstName"))
}

func (s *ProjectorSuite) TestShareAdvisory() {
	reg := newRegistration()
	reg.Subscribers = []*models.SubscriberRecord{
		{Index: 1, Fields: map[schema.Field]string{}, SharePercent: "40"},
		{Index: 2, Fields: map[schema.Field]string{}, SharePercent: "35"},
	}
	s.Equal("25.00% remaining to reach 100%", ShareAdvisory(reg))

	reg.Subscribers[1].SharePercent = "75"
	s.Equal("Total exceeds 100% by 15.00%", ShareAdvisory(reg))

	reg.Subscribers[1].SharePercent = "60"
	s.Empty(ShareAdvisory(reg))

	reg.Subscribers = nil
	s.Empty(ShareAdvisory(reg))
}

func (s *ProjectorSuite) TestOwnerAddressKeepsCommaSkeleton() {
	reg := newRegistration()
	reg.Owners = []*models.OwnerRecord{{
		Index: 1,
		Fields: map[schema.Field]string{
			schema.FieldFirstName: "Ama",
			schema.FieldSurname:   "Mensah",
			schema.FieldResStreet: "High St",
		},
		VotingRights: "40",
	}}

	surface := s.projector.Project(reg).Surface
	s.Equal(", High St, , ", surface.Get("owner1Address1"))
	s.Equal("40%", surface.Get("owner1votinRight"))
	s.Equal("40%", surface.Get("owner1votinRight2"))
	s.Equal("Ama Mensah", surface.Get("owner1fullName"))
	s.Equal(Checkmark, surface.Get("owner1status"))
}

func (s *ProjectorSuite) TestOwnerRoleInference() {
	reg := newRegistration()
	reg.Directors[0].Fields[schema.FieldFirstName] = "Ama"
	reg.Directors[0].Fields[schema.FieldSurname] = "Mensah"
	reg.Secretary.Fields[schema.FieldFirstName] = "Ama"
	reg.Secretary.Fields[schema.FieldSurname] = "Mensah"
	reg.Owners = []*models.OwnerRecord{{
		Index: 1,
		Fields: map[schema.Field]string{
			schema.FieldFirstName:  "Ama",
			schema.FieldSurname:    "Mensah",
			schema.FieldResCity:    "Accra",
			schema.FieldOccupation: "Trader",
		},
	}}

	surface := s.projector.Project(reg).Surface
	s.Equal("Accra, Director & Secretary", surface.Get("owner1PlaceOfWork"))

	s.Run("falls back to occupation when no name matches", func() {
		reg.Owners[0].Fields[schema.FieldSurname] = "Boateng"
		surface := s.projector.Project(reg).Surface
		s.Equal("Accra, Trader", surface.Get("owner1PlaceOfWork"))
	})
}

func (s *ProjectorSuite) TestPrimaryDirectorAvoidsSecretary() {
	reg := newRegistration()
	reg.Directors[0].Fields[schema.FieldFirstName] = "Ama"
	reg.Directors[0].Fields[schema.FieldSurname] = "Mensah"
	reg.Directors = append(reg.Directors, &models.DirectorRecord{
		Index: 2,
		Fields: map[schema.Field]string{
			schema.FieldFirstName: "Kojo",
			schema.FieldSurname:   "Boateng",
		},
	})
	reg.Secretary.Fields[schema.FieldFirstName] = "Ama"
	reg.Secretary.Fields[schema.FieldSurname] = "Mensah"

	surface := s.projector.Project(reg).Surface
	s.Equal("Kojo Boateng", surface.Get("directorFullName"))

	s.Run("director 1 when there is no secretary", func() {
		reg.Secretary.Fields = map[schema.Field]string{}
		surface := s.projector.Project(reg).Surface
		s.Equal("Ama Mensah", surface.Get("directorFullName"))
	})
}

func (s *ProjectorSuite) TestDeclarationDates() {
	reg := newRegistration()
	reg.Directors[0].Fields[schema.FieldFirstName] = "Ama"
	reg.Directors = append(reg.Directors, &models.DirectorRecord{
		Index:  2,
		Fields: map[schema.Field]string{schema.FieldFirstName: "Kojo"},
	})

	surface := s.projector.Project(reg).Surface
	s.Equal("14", surface.Get("DayOfdeclaration"))
	s.Equal("03", surface.Get("MonthOfdeclaration"))
	s.Equal("2025", surface.Get("YearOfdeclaration"))
	s.Equal("14", surface.Get("DayOfdeclaration2"))
	s.Equal("14/03/2025", surface.Get("date1"))
	s.Equal("14/03/2025", surface.Get("date11"))
}
