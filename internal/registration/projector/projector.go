// Package projector derives the presentation surface from registration
// state. Projection is a pure full recompute: every call rebuilds all slots
// from scratch, missing sources render empty, and nothing here mutates
// records. The slot names are the print-overlay contract of the Ghana RGD
// limited-company form set and must not be renamed.
package projector

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
)

// companyNameCopies is how many duplicated company-name slots the form set
// carries (companyName2..companyName13).
const companyNameCopies = 13

// directorSlotCeiling is the highest director whose person slots exist on
// the printed forms; slots above the live count up to this are cleared.
const directorSlotCeiling = 5

var legalSuffix = regexp.MustCompile(`(limited|ltd)(\s+company)?$`)

var titleKeys = []string{"MR", "MRS", "MISS", "MS", "DR"}

// Projection is the result of one projector pass.
type Projection struct {
	Surface *Surface
	// ShareAdvisory is the non-fatal share-total message, empty when the
	// subscriber percentages sum to exactly 100 or to zero.
	ShareAdvisory string
}

// Projector projects registrations onto the presentation surface. The clock
// feeds the declaration and footer date slots.
type Projector struct {
	clock func() time.Time
}

// Option configures the projector.
type Option func(*Projector)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(p *Projector) { p.clock = clock }
}

func New(opts ...Option) *Projector {
	p := &Projector{clock: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Project recomputes the full surface from the registration.
func (p *Projector) Project(reg *models.Registration) *Projection {
	s := NewSurface()
	now := p.clock()

	fillCompany(s, reg)
	fillOffice(s, reg)
	for _, d := range reg.Directors {
		fillDirector(s, d)
	}
	clearAbsentDirectors(s, len(reg.Directors))
	fillDirectorDeclarations(s, reg, now)
	fillConsentLetters(s, reg)
	fillSecretary(s, reg)
	fillSubscribers(s, reg)
	fillOwners(s, reg)
	fillPrimaryDirector(s, reg)
	fillDates(s, now)

	return &Projection{
		Surface:       s,
		ShareAdvisory: ShareAdvisory(reg),
	}
}

// ShareAdvisory compares the subscriber share-percentage total to 100 and
// phrases the gap. Never an error; printing an inconsistent draft is allowed.
func ShareAdvisory(reg *models.Registration) string {
	var total float64
	for _, sub := range reg.Subscribers {
		total += ParseAmount(sub.SharePercent)
	}
	switch {
	case total > 100:
		return fmt.Sprintf("Total exceeds 100%% by %.2f%%", total-100)
	case total > 0 && total < 100:
		return fmt.Sprintf("%.2f%% remaining to reach 100%%", 100-total)
	}
	return ""
}

// displayCompanyName appends the chosen suffix unless the entered name
// already ends in a legal suffix.
func displayCompanyName(name, endWith string) string {
	suffix := strings.ToLower(endWith)
	if suffix == "" || legalSuffix.MatchString(strings.ToLower(strings.TrimSpace(name))) {
		return name
	}
	return name + " " + strings.ToUpper(suffix)
}

func fillCompany(s *Surface, reg *models.Registration) {
	endWith := strings.ToLower(reg.Company[schema.FieldEndWith])
	name := displayCompanyName(reg.Company[schema.FieldCompanyName], endWith)

	s.Set("companyName", name)
	for i := 2; i <= companyNameCopies; i++ {
		s.Set(fmt.Sprintf("companyName%d", i), name)
	}
	s.SetCheckmark("endWithLTD", endWith == "ltd")
	s.SetCheckmark("endWithLIMITED", endWith == "limited")

	constitution := reg.Company[schema.FieldConstitutionType]
	s.SetCheckmark("registeredCon", constitution == "Registered")
	s.SetCheckmark("standardCon", constitution == "Standard")

	s.Set("presentedBy", reg.Company[schema.FieldPresentedBy])
	s.Set("presenterTIN", reg.Company[schema.FieldPresenterTIN])
	s.Set("principalActivities", reg.Company[schema.FieldActivities])

	capital := ParseAmount(reg.Company[schema.FieldCapital])
	s.Set("StatedCapital", FormatMoney(capital))
	s.Set("equityIssuedShares", FormatAmount(capital))
	s.Set("equitySharesAmount", FormatMoney(capital))

	s.Set("estimatedRevenue", reg.Company[schema.FieldEstimatedRevenue])
	s.Set("numOfEmp", reg.Company[schema.FieldNumEmployees])
}

func fillOffice(s *Surface, reg *models.Registration) {
	c := reg.Company
	s.Set("officedigital-address", c[schema.FieldOfficeGPS])
	s.Set("officeLandmark", c[schema.FieldOfficeLandmark])
	s.Set("officehousenumber", c[schema.FieldOfficeHouse])
	s.Set("officetown", c[schema.FieldOfficeTown])
	s.Set("officeStreet", c[schema.FieldOfficeStreet])
	s.Set("officeCity", c[schema.FieldOfficeCity])
	s.Set("officeDistrict", c[schema.FieldOfficeDistrict])
	s.Set("officeRegion", c[schema.FieldOfficeRegion])

	postalType := strings.ToLower(c[schema.FieldOfficePostalType])
	boxNumber := c[schema.FieldOfficeBoxNumber]

	s.SetCheckmark("emptyBox1", postalType == "pobox")
	s.SetCheckmark("emptyBox2", postalType == "pmb")
	s.SetCheckmark("emptyBox3", postalType == "dtd")

	// The box number appears under exactly one postal type; the siblings
	// are cleared first.
	s.Set("OfficeBoxNumber", "")
	s.Set("PMB", "")
	s.Set("DTD", "")
	switch postalType {
	case "pobox":
		s.Set("OfficeBoxNumber", boxNumber)
	case "pmb":
		s.Set("PMB", boxNumber)
	case "dtd":
		s.Set("DTD", boxNumber)
	}

	s.Set("OfficeBoxNumberTown", c[schema.FieldOfficeBoxTown])
	s.Set("OfficeBoxNumberRegion", c[schema.FieldOfficeBoxRegion])
	s.Set("OfficeContactOne", c[schema.FieldOfficeContact1])
	s.Set("OfficeContactTwo", c[schema.FieldOfficeContact2])
	s.Set("Officeemail", c[schema.FieldOfficeEmail])
}

// applyTitle clears every title slot under the prefix, then checks at most
// one. Trailing periods on the entered title are tolerated.
func applyTitle(s *Surface, prefix, title string) {
	for _, t := range titleKeys {
		s.Set(prefix+"tittle"+t, "")
	}
	key := strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(title)), ".")
	if key == "" {
		return
	}
	for _, t := range titleKeys {
		if t == key {
			s.Set(prefix+"tittle"+key, Checkmark)
			return
		}
	}
}

// applyGender clears both casings of the gender slots, then checks the
// matching pair.
func applyGender(s *Surface, prefix, gender string) {
	s.Set(prefix+"GenderMale", "")
	s.Set(prefix+"GenderFemale", "")
	s.Set(prefix+"genderMale", "")
	s.Set(prefix+"genderFemale", "")
	switch strings.ToLower(gender) {
	case "male":
		s.Set(prefix+"GenderMale", Checkmark)
		s.Set(prefix+"genderMale", Checkmark)
	case "female":
		s.Set(prefix+"GenderFemale", Checkmark)
		s.Set(prefix+"genderFemale", Checkmark)
	}
}

func signatureLine(fullName string) string {
	if fullName == "" {
		return ""
	}
	return "Signed: " + fullName
}

func fillDirector(s *Surface, d *models.DirectorRecord) {
	prefix := fmt.Sprintf("D%d", d.Index)
	f := d.Fields
	fullName := d.FullName()

	s.Set(prefix+"FirstName", f[schema.FieldFirstName])
	s.Set(prefix+"MiddleName", f[schema.FieldMiddleName])
	s.Set(prefix+"LastName", f[schema.FieldSurname])
	s.Set(prefix+"FormerName", f[schema.FieldFormerName])
	applyTitle(s, prefix, f[schema.FieldTitle])
	applyGender(s, prefix, f[schema.FieldGender])
	s.Set(prefix+"DOB", f[schema.FieldDateOfBirth])
	s.Set(prefix+"POB", f[schema.FieldPlaceOfBirth])
	s.Set(prefix+"Nationality", f[schema.FieldNationality])
	s.Set(prefix+"Ocupation", f[schema.FieldOccupation])
	s.Set(prefix+"PhoneNO1", f[schema.FieldContact1])
	s.Set(prefix+"PhoneNO2", f[schema.FieldContact2])
	s.Set(prefix+"Email", f[schema.FieldEmail])
	s.Set(prefix+"TIN", f[schema.FieldTIN])
	s.Set(prefix+"GhanaCard", f[schema.FieldGhanaCard])

	s.Set(prefix+"DigitalAddress", f[schema.FieldResGPS])
	s.Set(prefix+"housenumber", f[schema.FieldResHouse])
	s.Set(prefix+"Landmark", f[schema.FieldResLandmark])
	s.Set(prefix+"StreetName", f[schema.FieldResStreet])
	s.Set(prefix+"City", f[schema.FieldResCity])
	s.Set(prefix+"town", f[schema.FieldResTown])
	s.Set(prefix+"District", f[schema.FieldResDistrict])
	s.Set(prefix+"Region", f[schema.FieldResRegion])
	s.Set(prefix+"Country", f[schema.FieldResCountry])

	switch d.Index {
	case 1:
		s.Set("D1FullName", fullName)
		s.Set("directorName", fullName)
		s.Set("D1signature", signatureLine(fullName))
	case 2:
		s.Set("D2FirstName", f[schema.FieldFirstName])
		s.Set("D2signature", signatureLine(fullName))
		s.Set("D2Signature", signatureLine(fullName))
	default:
		s.Set(prefix+"signature", signatureLine(fullName))
	}

	// Generic repeated name slots; the last projected director wins, which
	// matches the original overlay's fill order.
	s.Set("FdirectorFullName", fullName)
	for i := 2; i <= directorSlotCeiling; i++ {
		s.Set(fmt.Sprintf("directorFullName%d", i), fullName)
	}
}

func clearAbsentDirectors(s *Surface, count int) {
	for i := count + 1; i <= directorSlotCeiling; i++ {
		for _, k := range []string{"FirstName", "MiddleName", "LastName", "DOB", "POB", "Nationality", "Ocupation"} {
			s.Set(fmt.Sprintf("D%d%s", i, k), "")
		}
	}
}

func fillDirectorDeclarations(s *Surface, reg *models.Registration, now time.Time) {
	day := fmt.Sprintf("%02d", now.Day())
	month := fmt.Sprintf("%02d", int(now.Month()))
	year := fmt.Sprintf("%d", now.Year())

	for _, d := range reg.Directors {
		i := d.Index
		fullName := d.FullName()
		for _, n := range []string{"1", "2", "3"} {
			s.Set(fmt.Sprintf("Ddirector%dFullName%s", i, n), fullName)
		}
		s.Set(fmt.Sprintf("Ddirector%dHouseNumber", i), d.Fields[schema.FieldResHouse])
		s.Set(fmt.Sprintf("Ddirector%dLandmark", i), d.Fields[schema.FieldResLandmark])
		s.Set(fmt.Sprintf("Ddirector%dStreetName", i), d.Fields[schema.FieldResStreet])

		city, town := d.Fields[schema.FieldResCity], d.Fields[schema.FieldResTown]
		townCity := city
		if city != "" && town != "" {
			townCity = city + ", " + town
		} else if town != "" {
			townCity = town
		}
		s.Set(fmt.Sprintf("Ddirector%dTown&City", i), townCity)

		suffix := ""
		if i > 1 {
			suffix = fmt.Sprint(i)
		}
		s.Set("DayOfdeclaration"+suffix, day)
		s.Set("MonthOfdeclaration"+suffix, month)
		s.Set("YearOfdeclaration"+suffix, year)
	}
}

func combinedPostalAddress(reg *models.Registration) string {
	return joinNonEmpty(", ",
		reg.Company[schema.FieldOfficeBoxNumber],
		reg.Company[schema.FieldOfficeBoxTown],
		reg.Company[schema.FieldOfficeBoxRegion],
	)
}

func fillConsentLetters(s *Surface, reg *models.Registration) {
	postal := combinedPostalAddress(reg)

	for _, d := range reg.Directors {
		fullName := d.FullName()
		if fullName == "" {
			continue
		}
		var nameSlot, addrSlot, boxSlot, phoneSlot string
		switch d.Index {
		case 1:
			nameSlot, addrSlot = "LFdirectorFullName", "FdirectorResidentialAddress"
			boxSlot, phoneSlot = "FdirectorBoxNumber", "FdirectorPhoneNumber"
		case 2:
			nameSlot, addrSlot = "LSdirectorFullName", "SdirectorResidentialAddress"
			boxSlot, phoneSlot = "SdirectorBoxNumber", "SdirectorPhoneNumber"
		default:
			nameSlot = fmt.Sprintf("D%dFullName", d.Index)
			addrSlot = fmt.Sprintf("D%dResidentialAddress", d.Index)
			boxSlot = fmt.Sprintf("D%dBoxNumber", d.Index)
			phoneSlot = fmt.Sprintf("D%dPhoneNumber", d.Index)
		}
		s.Set(nameSlot, fullName)
		s.Set(addrSlot, d.Fields[schema.FieldResHouse]+", "+d.Fields[schema.FieldResStreet]+", "+d.Fields[schema.FieldResCity])
		s.Set(boxSlot, postal)
		s.Set(phoneSlot, d.Fields[schema.FieldContact1])
	}

	sec := &reg.Secretary
	if fullName := sec.FullName(); fullName != "" {
		s.Set("SecfullName", fullName)
		s.Set("SecResidentialAddress", sec.Fields[schema.FieldResHouse]+", "+sec.Fields[schema.FieldResStreet]+", "+sec.Fields[schema.FieldResCity])
		s.Set("SecBoxNumber", postal)
		s.Set("SecPhoneNumber", sec.Fields[schema.FieldContact1])
		s.Set("SecQualification", sec.Qualification)
	}
}

func fillSecretary(s *Surface, reg *models.Registration) {
	f := reg.Secretary.Fields
	fullName := reg.Secretary.FullName()

	s.Set("SecFirstName", f[schema.FieldFirstName])
	s.Set("secMiddleName", f[schema.FieldMiddleName])
	s.Set("secLastName", f[schema.FieldSurname])
	s.Set("secFormerName", f[schema.FieldFormerName])
	s.Set("secTIN", f[schema.FieldTIN])
	s.Set("secGhanaCard", f[schema.FieldGhanaCard])
	applyTitle(s, "sec", f[schema.FieldTitle])
	applyGender(s, "sec", f[schema.FieldGender])
	s.Set("secDOB", f[schema.FieldDateOfBirth])
	s.Set("secPOB", f[schema.FieldPlaceOfBirth])
	s.Set("secNationality", f[schema.FieldNationality])
	s.Set("secOccupation", f[schema.FieldOccupation])
	s.Set("secPhoneNO1", f[schema.FieldContact1])
	s.Set("secPhoneNO2", f[schema.FieldContact2])
	s.Set("secEmail", f[schema.FieldEmail])
	s.Set("secDigitalAddress", f[schema.FieldResGPS])
	s.Set("secLandmark", f[schema.FieldResLandmark])
	s.Set("sechousenumber", f[schema.FieldResHouse])
	s.Set("secTown", f[schema.FieldResTown])
	s.Set("secStreetNane", f[schema.FieldResStreet])
	s.Set("secCity", f[schema.FieldResCity])
	s.Set("secDistrict", f[schema.FieldResDistrict])
	s.Set("secRegion", f[schema.FieldResRegion])
	s.Set("secCountry", f[schema.FieldResCountry])
	s.Set("SecSignature", signatureLine(fullName))
	if fullName != "" {
		s.Set("SecfullName", fullName)
	}
	s.Set("secretaryFullName", fullName)
	s.Set("secretaryFullName2", fullName)
	s.Set("secretaryFullName3", fullName)
}

func fillSubscribers(s *Surface, reg *models.Registration) {
	capital := ParseAmount(reg.Company[schema.FieldCapital])

	for _, sub := range reg.Subscribers {
		sharePercent := ParseAmount(sub.SharePercent)
		if sharePercent <= 0 {
			continue
		}
		prefix := fmt.Sprintf("SH%d", sub.Index)
		f := sub.Fields
		full := joinNonEmpty(" ", f[schema.FieldFirstName], f[schema.FieldMiddleName], f[schema.FieldSurname])
		shareAmount := sharePercent / 100 * capital

		s.Set(prefix+"FirstName", f[schema.FieldFirstName])
		s.Set(prefix+"MiddleName", f[schema.FieldMiddleName])
		s.Set(prefix+"LastName", f[schema.FieldSurname])
		s.Set(prefix+"FormerName", f[schema.FieldFormerName])
		applyTitle(s, prefix, f[schema.FieldTitle])
		applyGender(s, prefix, f[schema.FieldGender])
		s.Set(prefix+"DOB", f[schema.FieldDateOfBirth])
		s.Set(prefix+"POB", f[schema.FieldPlaceOfBirth])
		s.Set(prefix+"Nationality", f[schema.FieldNationality])
		s.Set(prefix+"Occupation", f[schema.FieldOccupation])
		s.Set(prefix+"TIN", f[schema.FieldTIN])
		s.Set(prefix+"GhanaCard", f[schema.FieldGhanaCard])
		s.Set(prefix+"Address", f[schema.FieldResStreet]+" "+f[schema.FieldResTown])
		s.Set(prefix+"DigitalAddress", f[schema.FieldResGPS])
		s.Set(prefix+"Landmark", f[schema.FieldResLandmark])
		s.Set(prefix+"StreetName", f[schema.FieldResStreet])
		s.Set(prefix+"Town", f[schema.FieldResTown])
		s.Set(prefix+"housenumber", f[schema.FieldResHouse])
		s.Set(prefix+"Signature", signatureLine(full))
		s.Set(prefix+"NoOfShare", FormatAmount(shareAmount))
		s.Set(prefix+"ShareAmount", FormatMoney(shareAmount))
	}
}

// inferOwnerRole names the owner's position by full-name comparison against
// directors and the secretary, falling back to the entered occupation.
func inferOwnerRole(reg *models.Registration, own *models.OwnerRecord) string {
	ownerName := joinNonEmpty(" ",
		own.Fields[schema.FieldFirstName],
		own.Fields[schema.FieldMiddleName],
		own.Fields[schema.FieldSurname],
	)
	role := ""
	for _, d := range reg.Directors {
		dirName := joinNonEmpty(" ",
			d.Fields[schema.FieldFirstName],
			d.Fields[schema.FieldMiddleName],
			d.Fields[schema.FieldSurname],
		)
		if dirName != "" && dirName == ownerName {
			role = "Director"
			break
		}
	}
	secName := joinNonEmpty(" ",
		reg.Secretary.Fields[schema.FieldFirstName],
		reg.Secretary.Fields[schema.FieldMiddleName],
		reg.Secretary.Fields[schema.FieldSurname],
	)
	if secName != "" && secName == ownerName {
		if role != "" {
			role += " & Secretary"
		} else {
			role = "Secretary"
		}
	}
	if role == "" {
		role = own.Fields[schema.FieldOccupation]
	}
	return role
}

func fillOwners(s *Surface, reg *models.Registration) {
	for _, own := range reg.Owners {
		full := joinNonEmpty(" ",
			own.Fields[schema.FieldFirstName],
			own.Fields[schema.FieldMiddleName],
			own.Fields[schema.FieldSurname],
			own.Fields[schema.FieldFormerName],
		)
		s.Set(fmt.Sprintf("owner%dfullName", own.Index), full)
		s.SetCheckmark(fmt.Sprintf("owner%dstatus", own.Index), full != "")
	}

	for _, own := range reg.Owners {
		prefix := fmt.Sprintf("owner%d", own.Index)
		f := own.Fields

		// The printed form's address lines keep their comma skeleton even
		// when parts are empty.
		address1 := f[schema.FieldResHouse] + ", " + f[schema.FieldResStreet] + ", " + f[schema.FieldResCity] + ", " + f[schema.FieldResCountry]
		address2 := reg.Company[schema.FieldOfficeHouse] + ", " + reg.Company[schema.FieldOfficeStreet] + ", " + reg.Company[schema.FieldOfficeCity] + ", " + f[schema.FieldResCountry]

		role := inferOwnerRole(reg, own)

		s.Set(prefix+"FirstName", f[schema.FieldFirstName])
		s.Set(prefix+"Surname", f[schema.FieldSurname])
		s.Set(prefix+"MiddleName", joinNonEmpty(" ", f[schema.FieldMiddleName], f[schema.FieldFormerName]))
		s.Set(prefix+"DOB", f[schema.FieldDateOfBirth])
		s.Set(prefix+"Nationality", f[schema.FieldNationality])
		s.Set(prefix+"POB", f[schema.FieldPlaceOfBirth])
		s.Set(prefix+"Address1", address1)
		s.Set(prefix+"Address2", address2)
		s.Set(prefix+"GPS", f[schema.FieldResGPS])
		s.Set(prefix+"Tin", f[schema.FieldTIN])
		s.Set(prefix+"PhoneNumber", f[schema.FieldContact1])
		s.Set(prefix+"Email", f[schema.FieldEmail])
		s.Set(prefix+"GhNumber", f[schema.FieldGhanaCard])
		s.Set(prefix+"PlaceOfWork", f[schema.FieldResCity]+", "+role)
		s.Set(prefix+"Directpercent", AppendPercent(own.DirectPercent))
		s.Set(prefix+"votinRight", AppendPercent(own.VotingRights))
		s.Set(prefix+"votinRight2", AppendPercent(own.VotingRights))
		s.Set(prefix+"Indirectpercent", AppendPercent(own.IndirectPercent))

		secShort := joinNonEmpty(" ",
			reg.Secretary.Fields[schema.FieldFirstName],
			reg.Secretary.Fields[schema.FieldSurname],
		)
		switch own.Index {
		case 1:
			s.Set("Fbo2directorName", directorShortName(reg, 1))
			s.Set("Fbo2secretaryName", secShort)
		case 2:
			name := directorShortName(reg, 2)
			if name == "" {
				name = directorShortName(reg, 1)
			}
			s.Set("Sbo2directorName", name)
			s.Set("Sbo2secretaryName", secShort)
		}
	}
}

func directorShortName(reg *models.Registration, index int) string {
	d := reg.Director(index)
	if d == nil {
		return ""
	}
	return joinNonEmpty(" ",
		d.Fields[schema.FieldFirstName],
		d.Fields[schema.FieldMiddleName],
		d.Fields[schema.FieldSurname],
	)
}

// fillPrimaryDirector applies the primary-director policy: the slot shows
// the first director whose name differs from the secretary's, so the same
// person never signs both lines. With no secretary, or when every director
// is the secretary, director 1 is used.
func fillPrimaryDirector(s *Surface, reg *models.Registration) {
	secName := joinNonEmpty(" ",
		reg.Secretary.Fields[schema.FieldFirstName],
		reg.Secretary.Fields[schema.FieldMiddleName],
		reg.Secretary.Fields[schema.FieldSurname],
	)
	if secName == "" {
		s.Set("directorFullName", directorShortName(reg, 1))
		return
	}
	for _, d := range reg.Directors {
		name := directorShortName(reg, d.Index)
		if name != "" && name != secName {
			s.Set("directorFullName", name)
			return
		}
	}
	s.Set("directorFullName", directorShortName(reg, 1))
}

func fillDates(s *Surface, now time.Time) {
	today := now.Format("02/01/2006")
	for i := 1; i <= 11; i++ {
		s.Set(fmt.Sprintf("date%d", i), today)
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
